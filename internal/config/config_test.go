package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"STORE_BACKEND", "QUEUE_BACKEND", "CURRENCY", "DEFAULT_RENEWAL_AMOUNT", "CORS_ORIGINS", "GYM_TIMEZONE"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "postgres", cfg.StoreBackend)
	assert.Equal(t, "memory", cfg.QueueBackend)
	assert.Equal(t, "PKR", cfg.Currency)
	assert.Equal(t, 700, cfg.DefaultRenewalAmount)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.False(t, cfg.CloudinaryConfigured())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORE_BACKEND", "Mongo")
	t.Setenv("ACCESS_TTL", "30m")
	t.Setenv("REQUIRE_ADMIN_TOKEN", "true")
	t.Setenv("DEFAULT_RENEWAL_AMOUNT", "1500")
	t.Setenv("CORS_ORIGINS", "https://desk.example.com, https://admin.example.com")
	t.Setenv("GYM_TIMEZONE", "Asia/Karachi")

	cfg := Load()

	assert.Equal(t, "mongo", cfg.StoreBackend)
	assert.Equal(t, 30*time.Minute, cfg.AccessTTL)
	assert.True(t, cfg.RequireAdminToken)
	assert.Equal(t, 1500, cfg.DefaultRenewalAmount)
	assert.Equal(t, []string{"https://desk.example.com", "https://admin.example.com"}, cfg.CORSOrigins)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Karachi", loc.String())
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	t.Setenv("ACCESS_TTL", "soon")
	t.Setenv("RATE_LIMIT_PER_MIN", "many")
	t.Setenv("REQUIRE_ADMIN_TOKEN", "maybe")

	cfg := Load()

	assert.Equal(t, 12*time.Hour, cfg.AccessTTL)
	assert.Equal(t, 120, cfg.RateLimitPerMin)
	assert.False(t, cfg.RequireAdminToken)
}

func TestLocationRejectsUnknownZone(t *testing.T) {
	cfg := App{Timezone: "Mars/Olympus"}
	_, err := cfg.Location()
	assert.Error(t, err)
}
