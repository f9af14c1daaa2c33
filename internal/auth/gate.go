package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"gymdesk/internal/apperr"
)

// Admin is the stored administrator credential.
type Admin struct {
	Username     string
	PasswordHash string
}

// AdminRepository persists admin credentials. Get returns apperr.ErrNotFound
// for unknown usernames.
type AdminRepository interface {
	GetAdmin(ctx context.Context, username string) (*Admin, error)
	SaveAdmin(ctx context.Context, a Admin) error
}

// Gate verifies administrator credentials against bcrypt hashes.
type Gate struct {
	repo   AdminRepository
	logger *zap.Logger
}

// NewGate creates a credential gate.
func NewGate(repo AdminRepository, logger *zap.Logger) *Gate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gate{repo: repo, logger: logger}
}

// Login returns the admin when username exists and password matches its hash.
// Every mismatch yields apperr.ErrUnauthorized without saying which field was wrong.
func (g *Gate) Login(ctx context.Context, username, password string) (*Admin, error) {
	if username == "" || password == "" {
		return nil, apperr.ErrUnauthorized
	}
	admin, err := g.repo.GetAdmin(ctx, username)
	if errors.Is(err, apperr.ErrNotFound) {
		g.logger.Warn("login failed", zap.String("username", username))
		return nil, apperr.ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		g.logger.Warn("login failed", zap.String("username", username))
		return nil, apperr.ErrUnauthorized
	}
	return admin, nil
}

// EnsureAdmin creates the admin, or rotates its password when it no longer matches.
func (g *Gate) EnsureAdmin(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return apperr.Validation("admin username and password are required")
	}
	existing, err := g.repo.GetAdmin(ctx, username)
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return err
	}
	if existing != nil && bcrypt.CompareHashAndPassword([]byte(existing.PasswordHash), []byte(password)) == nil {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := g.repo.SaveAdmin(ctx, Admin{Username: username, PasswordHash: string(hash)}); err != nil {
		return err
	}
	g.logger.Info("admin credential stored", zap.String("username", username))
	return nil
}
