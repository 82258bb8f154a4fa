package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.AppPort)
	assert.Equal(t, 5*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 24*time.Hour, cfg.RefreshTokenTTL)
	assert.Equal(t, 72*time.Hour, cfg.PasswordResetTimeout)
	assert.Equal(t, ":8080", cfg.ListenAddr())
	assert.Equal(t, []string{"127.0.0.1"}, cfg.Proxies())
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("APP_PORT", "127.0.0.1:9000")
	t.Setenv("ACCESS_TOKEN_TTL", "90s")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.1, 10.0.0.2,")
	t.Setenv("SITE_DOMAIN", "accounts.example.com")
	t.Setenv("SITE_SCHEME", "https")
	t.Setenv("DB_USER", "app")
	t.Setenv("DB_PASSWORD", "pw")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_PORT", "3307")
	t.Setenv("DB_NAME", "accounts")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.ListenAddr())
	assert.Equal(t, 90*time.Second, cfg.AccessTokenTTL)
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, cfg.Proxies())
	assert.Equal(t, "https://accounts.example.com", cfg.SiteURL())
	assert.Equal(t, "app:pw@tcp(db:3307)/accounts?parseTime=true&charset=utf8mb4", cfg.MySQLDSN())
}

func TestLoadConfig_RequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	require.NoError(t, os.Unsetenv("JWT_SECRET"))

	_, err := LoadConfig()
	assert.Error(t, err)
}
