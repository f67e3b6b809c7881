package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server  ServerConfig
	Remote  RemoteConfig
	Audit   AuditConfig
	Paging  PagingConfig
	DB      DatabaseConfig
	Logging LoggingConfig
}

type ServerConfig struct {
	Host      string
	Port      int
	RateLimit int // requests per second, global
}

// RemoteConfig points the console at a running surge-area service.
type RemoteConfig struct {
	BaseURL string
	Timeout time.Duration
}

type AuditConfig struct {
	Workers    int
	BufferSize int
}

type PagingConfig struct {
	DefaultPageSize int
	MaxPageSize     int
}

type DatabaseConfig struct {
	Path string
}

type LoggingConfig struct {
	Level string
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:      getEnv("SERVER_HOST", "localhost"),
			Port:      getEnvInt("SERVER_PORT", 8080),
			RateLimit: getEnvInt("RATE_LIMIT_RPS", 20),
		},
		Remote: RemoteConfig{
			BaseURL: getEnv("REMOTE_BASE_URL", "http://localhost:8080"),
			Timeout: getEnvDuration("REMOTE_TIMEOUT", 15*time.Second),
		},
		Audit: AuditConfig{
			Workers:    getEnvInt("AUDIT_WORKERS", 2),
			BufferSize: getEnvInt("AUDIT_BUFFER_SIZE", 64),
		},
		Paging: PagingConfig{
			DefaultPageSize: getEnvInt("DEFAULT_PAGE_SIZE", 10),
			MaxPageSize:     getEnvInt("MAX_PAGE_SIZE", 100),
		},
		DB: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/surge-areas.db"),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.RateLimit < 1 {
		return fmt.Errorf("invalid rate limit: %d", c.Server.RateLimit)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	if c.Paging.DefaultPageSize < 1 {
		return fmt.Errorf("default page size must be at least 1")
	}
	if c.Paging.MaxPageSize < c.Paging.DefaultPageSize {
		return fmt.Errorf("max page size %d is below the default %d", c.Paging.MaxPageSize, c.Paging.DefaultPageSize)
	}

	if c.Audit.Workers < 1 {
		return fmt.Errorf("audit workers must be at least 1")
	}

	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}
