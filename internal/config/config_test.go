package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFromEnv_Defaults(t *testing.T) {
	t.Setenv("BACKEND_API_URL", "http://backend.local/api")

	cfg, err := NewFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "http://backend.local/api", cfg.Backend.APIURL)
	assert.Equal(t, 15, cfg.Backend.Timeout)
	assert.Equal(t, 5*time.Second, cfg.Dubbing.PollInterval)
	assert.Equal(t, 10*time.Minute, cfg.Dubbing.PollTimeout)
	assert.Equal(t, ":8085", cfg.HTTP.Addr)
	assert.False(t, cfg.HTTP.UIEnabled)
	assert.Equal(t, 30, cfg.Maintenance.RetentionDays)
	assert.Equal(t, "info", cfg.System.LogLevel)
}

func TestNewFromEnv_RequiresBackendURL(t *testing.T) {
	t.Setenv("BACKEND_API_URL", "")

	_, err := NewFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BACKEND_API_URL")
}

func TestNewFromEnv_Overrides(t *testing.T) {
	t.Setenv("BACKEND_API_URL", "http://backend.local/api")
	t.Setenv("DUB_POLL_INTERVAL", "2")
	t.Setenv("DUB_POLL_TIMEOUT", "120")
	t.Setenv("UI_ENABLED", "true")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := NewFromEnv()
	require.NoError(t, err)

	assert.Equal(t, 2*time.Second, cfg.Dubbing.PollInterval)
	assert.Equal(t, 120*time.Second, cfg.Dubbing.PollTimeout)
	assert.True(t, cfg.HTTP.UIEnabled)
	assert.Equal(t, "debug", cfg.System.LogLevel)
}

func TestNewFromEnv_RejectsBadPollBounds(t *testing.T) {
	t.Setenv("BACKEND_API_URL", "http://backend.local/api")
	t.Setenv("DUB_POLL_INTERVAL", "30")
	t.Setenv("DUB_POLL_TIMEOUT", "30")

	_, err := NewFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DUB_POLL_TIMEOUT")
}

func TestNewFromEnv_RejectsBadCron(t *testing.T) {
	t.Setenv("BACKEND_API_URL", "http://backend.local/api")
	t.Setenv("MAINTENANCE_CRON", "not a schedule")

	_, err := NewFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAINTENANCE_CRON")
}

func TestNewFromEnv_IgnoresMalformedInt(t *testing.T) {
	t.Setenv("BACKEND_API_URL", "http://backend.local/api")
	t.Setenv("BACKEND_TIMEOUT", "soon")

	cfg, err := NewFromEnv()
	require.NoError(t, err)
	assert.Equal(t, 15, cfg.Backend.Timeout)
}
