package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultAppEnv           = "development"
	defaultPort             = "8080"
	defaultLogLevel         = "info"
	defaultShutdownDelay    = 10 * time.Second
	defaultAuthorityTimeout = 5 * time.Second
	defaultIssuanceURL      = "http://issuance-service:3001"
	defaultIdempotencyTTL   = 24 * time.Hour

	shutdownSecondsEnvVar  = "SHUTDOWN_TIMEOUT_SECONDS"
	shutdownDurationEnvVar = "SHUTDOWN_TIMEOUT"
	authorityTimeoutEnvVar = "AUTHORITY_TIMEOUT"
	idemTTLEnvVar          = "IDEMPOTENCY_TTL"
)

// Config captures runtime configuration loaded once from environment
// variables. WorkerID is resolved at load time and never changes afterwards;
// every issuance record and verification log entry is stamped with it.
type Config struct {
	AppName          string
	Env              string
	Port             string
	LogLevel         string
	DatabaseURL      string
	RedisURL         string
	IssuanceURL      string
	WorkerID         string
	ShutdownPeriod   time.Duration
	AuthorityTimeout time.Duration
	IdempotencyTTL   time.Duration
}

// Load reads configuration values from the environment. DATABASE_URL and
// REDIS_URL are mandatory outside development; in development a missing value
// selects the in-memory backend instead.
func Load(appName string) (Config, error) {
	cfg := Config{
		AppName:          appName,
		Env:              strings.ToLower(getEnv("APP_ENV", defaultAppEnv)),
		Port:             getEnv("PORT", defaultPort),
		LogLevel:         strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		RedisURL:         os.Getenv("REDIS_URL"),
		IssuanceURL:      getEnv("ISSUANCE_SERVICE_URL", defaultIssuanceURL),
		WorkerID:         resolveWorkerID(),
		ShutdownPeriod:   defaultShutdownDelay,
		AuthorityTimeout: defaultAuthorityTimeout,
		IdempotencyTTL:   defaultIdempotencyTTL,
	}

	if v := os.Getenv(shutdownSecondsEnvVar); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", shutdownSecondsEnvVar, err)
		}
		cfg.ShutdownPeriod = time.Duration(seconds) * time.Second
	} else if v := os.Getenv(shutdownDurationEnvVar); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", shutdownDurationEnvVar, err)
		}
		cfg.ShutdownPeriod = d
	}

	if v := os.Getenv(authorityTimeoutEnvVar); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", authorityTimeoutEnvVar, err)
		}
		cfg.AuthorityTimeout = d
	}

	if v := os.Getenv(idemTTLEnvVar); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", idemTTLEnvVar, err)
		}
		cfg.IdempotencyTTL = d
	}

	if !cfg.IsDev() {
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("DATABASE_URL must be set when APP_ENV=%s", cfg.Env)
		}
		if cfg.RedisURL == "" {
			return Config{}, fmt.Errorf("REDIS_URL must be set when APP_ENV=%s", cfg.Env)
		}
	}

	return cfg, nil
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

// IsDev reports whether the process runs in a development environment.
func (c Config) IsDev() bool {
	switch c.Env {
	case "dev", "development", "local":
		return true
	default:
		return false
	}
}

// resolveWorkerID determines the instance identity once at startup:
// deployment-assigned name first (HOSTNAME, then POD_NAME), falling back to
// the local hostname.
func resolveWorkerID() string {
	if v := os.Getenv("HOSTNAME"); v != "" {
		return v
	}
	if v := os.Getenv("POD_NAME"); v != "" {
		return v
	}
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "unknown-worker"
	}
	return host
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
