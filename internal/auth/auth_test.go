package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"gymdesk/internal/apperr"
)

type mapRepo struct {
	admins map[string]Admin
	err    error
}

func (r *mapRepo) GetAdmin(_ context.Context, username string) (*Admin, error) {
	if r.err != nil {
		return nil, r.err
	}
	a, ok := r.admins[username]
	if !ok {
		return nil, apperr.NotFound("admin", username)
	}
	return &a, nil
}

func (r *mapRepo) SaveAdmin(_ context.Context, a Admin) error {
	r.admins[a.Username] = a
	return nil
}

func TestGate_Login(t *testing.T) {
	repo := &mapRepo{admins: map[string]Admin{}}
	gate := NewGate(repo, nil)
	require.NoError(t, gate.EnsureAdmin(context.Background(), "admin", "s3cret"))
	assert.NotEqual(t, "s3cret", repo.admins["admin"].PasswordHash)

	a, err := gate.Login(context.Background(), "admin", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "admin", a.Username)

	for _, tc := range [][2]string{{"admin", "S3cret"}, {"root", "s3cret"}, {"", ""}, {"admin", ""}} {
		_, err := gate.Login(context.Background(), tc[0], tc[1])
		assert.ErrorIs(t, err, apperr.ErrUnauthorized, tc)
	}
}

func TestGate_LoginStoreError(t *testing.T) {
	boom := errors.New("connection refused")
	gate := NewGate(&mapRepo{err: boom}, nil)

	_, err := gate.Login(context.Background(), "admin", "s3cret")
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestGate_EnsureAdminRotates(t *testing.T) {
	repo := &mapRepo{admins: map[string]Admin{}}
	gate := NewGate(repo, nil)
	ctx := context.Background()

	require.NoError(t, gate.EnsureAdmin(ctx, "admin", "old"))
	first := repo.admins["admin"].PasswordHash

	require.NoError(t, gate.EnsureAdmin(ctx, "admin", "old"))
	assert.Equal(t, first, repo.admins["admin"].PasswordHash, "matching password keeps the hash")

	require.NoError(t, gate.EnsureAdmin(ctx, "admin", "new"))
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.admins["admin"].PasswordHash), []byte("new")))

	assert.ErrorIs(t, gate.EnsureAdmin(ctx, " ", "x"), apperr.ErrValidation)
}

func TestIssueAndParse(t *testing.T) {
	tok, err := Issue("admin", RoleAdmin, "gymdesk", "key", time.Hour)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), tok.ExpiresAt, 5*time.Second)

	claims, err := Parse(tok.AccessToken, "key", "gymdesk")
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Subject)
	assert.Equal(t, RoleAdmin, claims.Role)

	_, err = Parse(tok.AccessToken, "other-key", "gymdesk")
	assert.Error(t, err)
	_, err = Parse(tok.AccessToken, "key", "someone-else")
	assert.Error(t, err)

	expired, err := Issue("admin", RoleAdmin, "gymdesk", "key", -time.Minute)
	require.NoError(t, err)
	_, err = Parse(expired.AccessToken, "key", "gymdesk")
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestAdminAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/members", AdminAuth("key", "gymdesk"), func(c *gin.Context) {
		claims := c.MustGet(ClaimsKey).(Claims)
		c.String(http.StatusOK, claims.Subject)
	})

	admin, err := Issue("admin", RoleAdmin, "gymdesk", "key", time.Hour)
	require.NoError(t, err)
	desk, err := Issue("desk", "frontdesk", "gymdesk", "key", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"garbage", "Bearer abc", http.StatusUnauthorized},
		{"wrong role", "Bearer " + desk.AccessToken, http.StatusUnauthorized},
		{"admin", "bearer " + admin.AccessToken, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/members", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}
