package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "s3cret")

	cfg, err := Load("", "")
	require.NoError(t, err)

	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.Equal(t, 24*time.Hour, cfg.Auth.SessionTTL)
	assert.Equal(t, 15*time.Minute, cfg.Auth.PasswordResetTTL)
	assert.False(t, cfg.Auth.RotateRefreshTokens)
	assert.Equal(t, "memory", cfg.Events.Driver)
	assert.Equal(t, "0.0.0.0:8080", cfg.App.Addr())
	assert.Equal(t, 30*time.Second, cfg.App.RequestTimeout())
}

func TestLoadEnvFileAndYAML(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("AUTH_ROTATE_REFRESH_TOKENS=true\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("AUTH_ROTATE_REFRESH_TOKENS") })

	yml := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(yml, []byte("app:\n  port: \"9090\"\nevents:\n  driver: redis\n"), 0o600))

	cfg, err := Load(envFile, yml)
	require.NoError(t, err)

	assert.True(t, cfg.Auth.RotateRefreshTokens)
	assert.Equal(t, "9090", cfg.App.Port)
	assert.Equal(t, "redis", cfg.Events.Driver)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("EVENTS_DRIVER", "kafka")

	_, err := Load("", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "EVENTS_DRIVER")
}

func TestRequestTimeoutDisabled(t *testing.T) {
	assert.Zero(t, AppConfig{}.RequestTimeout())
}
