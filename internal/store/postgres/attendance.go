package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"gymdesk/internal/attendance"
	"gymdesk/internal/member"
)

var _ attendance.Repository = (*AttendanceRepository)(nil)

// AttendanceRepository persists check-in logs in Postgres.
type AttendanceRepository struct {
	db *sql.DB
}

// NewAttendanceRepository creates a repo.
func NewAttendanceRepository(db *sql.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// Insert writes a new log.
func (r *AttendanceRepository) Insert(ctx context.Context, l *attendance.Log) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO attendance_logs (id, member_id, name, occurred_at, day)
		VALUES ($1,$2,$3,$4,$5)
	`, l.ID, l.MemberID, l.Name, l.Timestamp, l.Date)
	return err
}

// ListByDate returns one day's logs, newest first.
func (r *AttendanceRepository) ListByDate(ctx context.Context, day member.Date) ([]attendance.Log, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, member_id, name, occurred_at, day
		FROM attendance_logs
		WHERE day = $1
		ORDER BY occurred_at DESC
	`, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []attendance.Log{}
	for rows.Next() {
		var l attendance.Log
		if err := rows.Scan(&l.ID, &l.MemberID, &l.Name, &l.Timestamp, &l.Date); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// CountByDate counts one day's logs.
func (r *AttendanceRepository) CountByDate(ctx context.Context, day member.Date) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM attendance_logs WHERE day = $1`, day).Scan(&n)
	return n, err
}
