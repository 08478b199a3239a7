package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	HTTPAddr    string
	PostgresDSN string
	LogLevel    string

	AdminAPIKey string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	DetectionIntervalSeconds  int
	EscalationIntervalSeconds int
	DetectorBatchLimit        int

	EscalationMaxRetries         int
	EscalationBackoffBaseMinutes int
	EscalationBackoffCapMinutes  int
	ActionTimeoutSeconds         int

	NotifyServiceURL string
}

func FromEnv() Config {
	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	return Config{
		HTTPAddr:                     addr,
		PostgresDSN:                  os.Getenv("POSTGRES_DSN"),
		LogLevel:                     envDefault("LOG_LEVEL", "info"),
		AdminAPIKey:                  os.Getenv("ADMIN_API_KEY"),
		RedisAddr:                    os.Getenv("REDIS_ADDR"),
		RedisPassword:                os.Getenv("REDIS_PASSWORD"),
		RedisDB:                      envIntDefault("REDIS_DB", 0),
		DetectionIntervalSeconds:     envIntDefault("DETECTION_INTERVAL_SECONDS", 60),
		EscalationIntervalSeconds:    envIntDefault("ESCALATION_INTERVAL_SECONDS", 60),
		DetectorBatchLimit:           envIntDefault("DETECTOR_BATCH_LIMIT", 500),
		EscalationMaxRetries:         envIntDefault("ESCALATION_MAX_RETRIES", 3),
		EscalationBackoffBaseMinutes: envIntDefault("ESCALATION_BACKOFF_BASE_MINUTES", 2),
		EscalationBackoffCapMinutes:  envIntDefault("ESCALATION_BACKOFF_CAP_MINUTES", 60),
		ActionTimeoutSeconds:         envIntDefault("ACTION_TIMEOUT_SECONDS", 10),
		NotifyServiceURL:             os.Getenv("NOTIFY_SERVICE_URL"),
	}
}

func envDefault(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func envIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parsed, err := strconv.Atoi(v)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func (c Config) DetectionInterval() time.Duration {
	return time.Duration(c.DetectionIntervalSeconds) * time.Second
}

func (c Config) EscalationInterval() time.Duration {
	return time.Duration(c.EscalationIntervalSeconds) * time.Second
}

func (c Config) ActionTimeout() time.Duration {
	return time.Duration(c.ActionTimeoutSeconds) * time.Second
}

func (c Config) BackoffBase() time.Duration {
	return time.Duration(c.EscalationBackoffBaseMinutes) * time.Minute
}

func (c Config) BackoffCap() time.Duration {
	return time.Duration(c.EscalationBackoffCapMinutes) * time.Minute
}
