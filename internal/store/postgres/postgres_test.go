package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gymdesk/internal/apperr"
	"gymdesk/internal/attendance"
	"gymdesk/internal/auth"
	"gymdesk/internal/member"
	"gymdesk/internal/payment"
)

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

var memberCols = []string{"id", "name", "phone", "address", "membership_end", "joined_date", "last_check_in", "last_payment_date", "is_active", "photo_url"}

func TestMigrate(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS members`).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, Migrate(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMemberRepository(t *testing.T) {
	ctx := context.Background()
	end := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	joined := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	t.Run("Insert_AssignsID", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewMemberRepository(db)

		mock.ExpectExec(`INSERT INTO members`).
			WithArgs(sqlmock.AnyArg(), "Ali Khan", "03001234567", "", end, joined, nil, nil, true, "").
			WillReturnResult(sqlmock.NewResult(1, 1))

		m := &member.Member{Name: "Ali Khan", Phone: "03001234567", MembershipEnd: member.DateOf(end), JoinedDate: member.DateOf(joined), IsActive: true}
		require.NoError(t, repo.Insert(ctx, m))
		assert.NotEmpty(t, m.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("List_ScansNullableColumns", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewMemberRepository(db)

		checkIn := time.Date(2024, 6, 10, 7, 30, 0, 0, time.UTC)
		mock.ExpectQuery(`SELECT .* FROM members ORDER BY seq`).
			WillReturnRows(sqlmock.NewRows(memberCols).
				AddRow("m1", "Ali Khan", "0300", "Street 1", end, joined, checkIn, nil, true, "").
				AddRow("m2", "Sara", "0311", "", end, joined, nil, nil, true, "https://img"))

		list, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "2024-07-01", list[0].MembershipEnd.String())
		require.NotNil(t, list[0].LastCheckIn)
		assert.True(t, checkIn.Equal(*list[0].LastCheckIn))
		assert.Nil(t, list[0].LastPaymentDate)
		assert.Nil(t, list[1].LastCheckIn)
		assert.Equal(t, "https://img", list[1].PhotoURL)
	})

	t.Run("Get_NotFound", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewMemberRepository(db)

		mock.ExpectQuery(`FROM members WHERE id = \$1`).WithArgs("missing").
			WillReturnRows(sqlmock.NewRows(memberCols))

		_, err := repo.Get(ctx, "missing")
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})

	t.Run("FindByPhone_FirstInserted", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewMemberRepository(db)

		mock.ExpectQuery(`WHERE phone = \$1\s+ORDER BY seq\s+LIMIT 1`).WithArgs("0300").
			WillReturnRows(sqlmock.NewRows(memberCols).AddRow("m1", "Ali Khan", "0300", "", end, joined, nil, nil, true, ""))

		m, err := repo.FindByPhone(ctx, "0300")
		require.NoError(t, err)
		assert.Equal(t, "m1", m.ID)
	})

	t.Run("Update_NoRowsIsNotFound", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewMemberRepository(db)

		mock.ExpectExec(`UPDATE members\s+SET name = \$2`).WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Update(ctx, "missing", member.Details{Name: "X", Phone: "1"})
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewMemberRepository(db)

		mock.ExpectExec(`DELETE FROM members WHERE id = \$1`).WithArgs("m1").WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Delete(ctx, "m1"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ExtendMembership_Swapped", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewMemberRepository(db)
		to := end.AddDate(0, 0, 30)
		paid := time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC)

		mock.ExpectExec(`membership_end IS NOT DISTINCT FROM \$2`).
			WithArgs("m1", end, to, paid).
			WillReturnResult(sqlmock.NewResult(0, 1))

		ok, err := repo.ExtendMembership(ctx, "m1", member.DateOf(end), member.DateOf(to), paid)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ExtendMembership_LostRace", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewMemberRepository(db)

		mock.ExpectExec(`UPDATE members`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT 1 FROM members WHERE id = \$1`).WithArgs("m1").
			WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

		ok, err := repo.ExtendMembership(ctx, "m1", member.DateOf(end), member.DateOf(end).AddDays(30), time.Now())
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("ExtendMembership_UnknownMember", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewMemberRepository(db)

		mock.ExpectExec(`UPDATE members`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT 1 FROM members`).WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

		_, err := repo.ExtendMembership(ctx, "nope", member.DateOf(end), member.DateOf(end).AddDays(30), time.Now())
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})

	t.Run("TouchCheckIn", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewMemberRepository(db)
		at := time.Date(2024, 6, 10, 7, 30, 0, 0, time.UTC)

		mock.ExpectExec(`UPDATE members SET last_check_in = \$2 WHERE id = \$1`).WithArgs("m1", at).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.TouchCheckIn(ctx, "m1", at))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPaymentRepository(t *testing.T) {
	ctx := context.Background()
	paid := time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC)

	t.Run("Insert", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewPaymentRepository(db)

		mock.ExpectExec(`INSERT INTO payments`).
			WithArgs(sqlmock.AnyArg(), "m1", "Ali Khan", int64(700), paid, "PKR").
			WillReturnResult(sqlmock.NewResult(1, 1))

		p := &payment.Payment{MemberID: "m1", MemberName: "Ali Khan", Amount: 700, Date: paid, Currency: "PKR"}
		require.NoError(t, repo.Insert(ctx, p))
		assert.NotEmpty(t, p.ID)
	})

	t.Run("List_NewestFirst", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewPaymentRepository(db)

		mock.ExpectQuery(`FROM payments\s+ORDER BY paid_at DESC`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "member_id", "member_name", "amount", "paid_at", "currency"}).
				AddRow("p2", "m1", "Ali Khan", 700, paid, "PKR").
				AddRow("p1", "m1", "Ali Khan", 500, paid.AddDate(0, -1, 0), "PKR"))

		list, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "p2", list[0].ID)
		assert.Equal(t, int64(500), list[1].Amount)
	})

	t.Run("Amend_NotFound", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewPaymentRepository(db)

		mock.ExpectExec(`UPDATE payments`).WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Amend(ctx, "missing", payment.Amendment{Amount: 1, Date: paid, MemberName: "x"})
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewPaymentRepository(db)

		mock.ExpectExec(`DELETE FROM payments WHERE id = \$1`).WithArgs("p1").WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Delete(ctx, "p1"))
	})
}

func TestAttendanceRepository(t *testing.T) {
	ctx := context.Background()
	day := member.NewDate(2024, 6, 10)
	at := time.Date(2024, 6, 10, 7, 30, 0, 0, time.UTC)

	t.Run("Insert", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewAttendanceRepository(db)

		mock.ExpectExec(`INSERT INTO attendance_logs`).
			WithArgs(sqlmock.AnyArg(), "m1", "Ali Khan", at, day.Time()).
			WillReturnResult(sqlmock.NewResult(1, 1))

		l := &attendance.Log{MemberID: "m1", Name: "Ali Khan", Timestamp: at, Date: day}
		require.NoError(t, repo.Insert(ctx, l))
		assert.NotEmpty(t, l.ID)
	})

	t.Run("ListByDate", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewAttendanceRepository(db)

		mock.ExpectQuery(`FROM attendance_logs\s+WHERE day = \$1`).WithArgs(day.Time()).
			WillReturnRows(sqlmock.NewRows([]string{"id", "member_id", "name", "occurred_at", "day"}).
				AddRow("a1", "m1", "Ali Khan", at, day.Time()))

		logs, err := repo.ListByDate(ctx, day)
		require.NoError(t, err)
		require.Len(t, logs, 1)
		assert.True(t, logs[0].Date.Equal(day))
	})

	t.Run("CountByDate", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewAttendanceRepository(db)

		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM attendance_logs`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

		n, err := repo.CountByDate(ctx, day)
		require.NoError(t, err)
		assert.Equal(t, 3, n)
	})
}

func TestAdminRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("GetAdmin_NotFound", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewAdminRepository(db)

		mock.ExpectQuery(`FROM admins WHERE username = \$1`).WithArgs("ghost").
			WillReturnRows(sqlmock.NewRows([]string{"username", "password_hash"}))

		_, err := repo.GetAdmin(ctx, "ghost")
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})

	t.Run("SaveAdmin_Upserts", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := NewAdminRepository(db)

		mock.ExpectExec(`ON CONFLICT \(username\) DO UPDATE`).WithArgs("admin", "hash").
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.SaveAdmin(ctx, auth.Admin{Username: "admin", PasswordHash: "hash"}))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
