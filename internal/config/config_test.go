package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("API_ID", "12345")
	t.Setenv("API_HASH", "deadbeef")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 12345, cfg.APIID)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 3, cfg.MaxLoginAttempts)
	assert.Equal(t, 2*time.Minute, cfg.ResendInterval())
	assert.Equal(t, 10*time.Minute, cfg.LoginTTL())
	assert.Equal(t, time.Minute, cfg.SweepInterval())
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	t.Setenv("API_ID", "")
	t.Setenv("API_HASH", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TELEGRAM_BOT_TOKEN")
	assert.Contains(t, err.Error(), "API_ID")
	assert.Contains(t, err.Error(), "API_HASH")
}

func TestLoad_InvalidIntFallsBack(t *testing.T) {
	setRequired(t)
	t.Setenv("MAX_LOGIN_ATTEMPTS", "many")
	t.Setenv("REDIS_DB", "2")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.MaxLoginAttempts)
	assert.Equal(t, 2, cfg.RedisDB)
}

func TestLoad_RejectsNonPositiveAttempts(t *testing.T) {
	setRequired(t)
	t.Setenv("MAX_LOGIN_ATTEMPTS", "0")

	_, err := Load()
	assert.Error(t, err)
}
