package postgres

import (
	"context"
	"database/sql"
	"errors"

	"gymdesk/internal/apperr"
	"gymdesk/internal/auth"
)

var _ auth.AdminRepository = (*AdminRepository)(nil)

// AdminRepository persists admin credentials in Postgres.
type AdminRepository struct {
	db *sql.DB
}

// NewAdminRepository creates a repo.
func NewAdminRepository(db *sql.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

// GetAdmin returns the admin with username.
func (r *AdminRepository) GetAdmin(ctx context.Context, username string) (*auth.Admin, error) {
	var a auth.Admin
	err := r.db.QueryRowContext(ctx, `SELECT username, password_hash FROM admins WHERE username = $1`, username).
		Scan(&a.Username, &a.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("admin", username)
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// SaveAdmin inserts or replaces an admin credential.
func (r *AdminRepository) SaveAdmin(ctx context.Context, a auth.Admin) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO admins (username, password_hash)
		VALUES ($1, $2)
		ON CONFLICT (username) DO UPDATE SET password_hash = EXCLUDED.password_hash
	`, a.Username, a.PasswordHash)
	return err
}
