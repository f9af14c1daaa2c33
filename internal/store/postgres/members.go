// Package postgres implements the gym repositories on Postgres through database/sql and pgx.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"gymdesk/internal/apperr"
	"gymdesk/internal/member"
)

var _ member.Repository = (*MemberRepository)(nil)

const memberColumns = `id, name, phone, address, membership_end, joined_date, last_check_in, last_payment_date, is_active, photo_url`

// MemberRepository persists members in Postgres.
type MemberRepository struct {
	db *sql.DB
}

// NewMemberRepository creates a repo.
func NewMemberRepository(db *sql.DB) *MemberRepository {
	return &MemberRepository{db: db}
}

// Insert writes a new member.
func (r *MemberRepository) Insert(ctx context.Context, m *member.Member) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO members (id, name, phone, address, membership_end, joined_date, last_check_in, last_payment_date, is_active, photo_url)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`, m.ID, m.Name, m.Phone, m.Address, m.MembershipEnd, m.JoinedDate, m.LastCheckIn, m.LastPaymentDate, m.IsActive, m.PhotoURL)
	return err
}

// List returns members in insertion order.
func (r *MemberRepository) List(ctx context.Context) ([]member.Member, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+memberColumns+` FROM members ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []member.Member{}
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Get returns a single member by id.
func (r *MemberRepository) Get(ctx context.Context, id string) (*member.Member, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+memberColumns+` FROM members WHERE id = $1`, id)
	m, err := scanMember(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("member", id)
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// FindByPhone returns the earliest inserted member with phone.
func (r *MemberRepository) FindByPhone(ctx context.Context, phone string) (*member.Member, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+memberColumns+`
		FROM members WHERE phone = $1
		ORDER BY seq
		LIMIT 1
	`, phone)
	m, err := scanMember(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("member with phone", phone)
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Update replaces the editable fields.
func (r *MemberRepository) Update(ctx context.Context, id string, d member.Details) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE members
		SET name = $2, phone = $3, address = $4, membership_end = $5
		WHERE id = $1
	`, id, d.Name, d.Phone, d.Address, d.MembershipEnd)
	return affected(res, err, "member", id)
}

// Delete removes a member. Payments and attendance logs are kept.
func (r *MemberRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM members WHERE id = $1`, id)
	return affected(res, err, "member", id)
}

// ExtendMembership is a compare-and-set on membership_end.
func (r *MemberRepository) ExtendMembership(ctx context.Context, id string, from, to member.Date, paidAt time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE members
		SET membership_end = $3, last_payment_date = $4
		WHERE id = $1 AND membership_end IS NOT DISTINCT FROM $2
	`, id, from, to, paidAt)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n > 0 {
		return true, nil
	}

	var exists int
	err = r.db.QueryRowContext(ctx, `SELECT 1 FROM members WHERE id = $1`, id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return false, apperr.NotFound("member", id)
	}
	if err != nil {
		return false, err
	}
	return false, nil
}

// TouchCheckIn sets last_check_in.
func (r *MemberRepository) TouchCheckIn(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE members SET last_check_in = $2 WHERE id = $1`, id, at)
	return affected(res, err, "member", id)
}

// SetPhoto stores the member's photo URL.
func (r *MemberRepository) SetPhoto(ctx context.Context, id, url string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE members SET photo_url = $2 WHERE id = $1`, id, url)
	return affected(res, err, "member", id)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMember(s scanner) (member.Member, error) {
	var (
		m           member.Member
		checkIn     sql.NullTime
		lastPayment sql.NullTime
	)
	if err := s.Scan(&m.ID, &m.Name, &m.Phone, &m.Address, &m.MembershipEnd, &m.JoinedDate, &checkIn, &lastPayment, &m.IsActive, &m.PhotoURL); err != nil {
		return member.Member{}, err
	}
	if checkIn.Valid {
		m.LastCheckIn = &checkIn.Time
	}
	if lastPayment.Valid {
		m.LastPaymentDate = &lastPayment.Time
	}
	return m, nil
}

func affected(res sql.Result, err error, kind, id string) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFound(kind, id)
	}
	return nil
}
