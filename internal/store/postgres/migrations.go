package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// schema creates the gym tables. It is idempotent and runs on startup.
// members.seq preserves insertion order for listing and phone lookup.
const schema = `
CREATE TABLE IF NOT EXISTS members (
    id TEXT PRIMARY KEY,
    seq BIGSERIAL,
    name TEXT NOT NULL,
    phone TEXT NOT NULL,
    address TEXT NOT NULL DEFAULT '',
    membership_end DATE,
    joined_date DATE,
    last_check_in TIMESTAMPTZ,
    last_payment_date TIMESTAMPTZ,
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    photo_url TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_members_phone ON members(phone, seq);

CREATE TABLE IF NOT EXISTS payments (
    id TEXT PRIMARY KEY,
    member_id TEXT NOT NULL,
    member_name TEXT NOT NULL,
    amount BIGINT NOT NULL,
    paid_at TIMESTAMPTZ NOT NULL,
    currency TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_payments_paid_at ON payments(paid_at DESC);

CREATE TABLE IF NOT EXISTS attendance_logs (
    id TEXT PRIMARY KEY,
    member_id TEXT NOT NULL,
    name TEXT NOT NULL,
    occurred_at TIMESTAMPTZ NOT NULL,
    day DATE NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_attendance_day ON attendance_logs(day, occurred_at DESC);

CREATE TABLE IF NOT EXISTS admins (
    username TEXT PRIMARY KEY,
    password_hash TEXT NOT NULL
);
`

// Migrate applies the schema.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}
