package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	TelegramBotToken string
	APIID            int
	APIHash          string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	MaxLoginAttempts      int
	ResendIntervalSeconds int
	LoginTTLSeconds       int
	SweepIntervalSeconds  int
	CommandTimeoutSeconds int
}

func Load() (*Config, error) {
	cfg := &Config{
		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		APIHash:          getEnv("API_HASH", ""),
		RedisAddr:        getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
	}

	cfg.APIID = getEnvAsInt("API_ID", 0)
	cfg.RedisDB = getEnvAsInt("REDIS_DB", 0)
	cfg.MaxLoginAttempts = getEnvAsInt("MAX_LOGIN_ATTEMPTS", 3)
	cfg.ResendIntervalSeconds = getEnvAsInt("RESEND_INTERVAL_SECONDS", 120)
	cfg.LoginTTLSeconds = getEnvAsInt("LOGIN_TTL_SECONDS", 600)
	cfg.SweepIntervalSeconds = getEnvAsInt("SWEEP_INTERVAL_SECONDS", 60)
	cfg.CommandTimeoutSeconds = getEnvAsInt("COMMAND_TIMEOUT_SECONDS", 60)

	var missing []string
	if cfg.TelegramBotToken == "" {
		missing = append(missing, "TELEGRAM_BOT_TOKEN")
	}
	if cfg.APIID == 0 {
		missing = append(missing, "API_ID")
	}
	if cfg.APIHash == "" {
		missing = append(missing, "API_HASH")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	if cfg.MaxLoginAttempts < 1 {
		return nil, fmt.Errorf("MAX_LOGIN_ATTEMPTS must be positive, got %d", cfg.MaxLoginAttempts)
	}

	return cfg, nil
}

func (c *Config) ResendInterval() time.Duration {
	return time.Duration(c.ResendIntervalSeconds) * time.Second
}

func (c *Config) LoginTTL() time.Duration {
	return time.Duration(c.LoginTTLSeconds) * time.Second
}

func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalSeconds) * time.Second
}

func (c *Config) CommandTimeout() time.Duration {
	return time.Duration(c.CommandTimeoutSeconds) * time.Second
}

func getEnv(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsInt(key string, defaultVal int) int {
	valStr := os.Getenv(key)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		slog.Warn("environment variable must be int, using default", "key", key, "default", defaultVal)
		return defaultVal
	}
	return val
}
