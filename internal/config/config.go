package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"decisionsim/internal/errors"
)

// Storage drivers
const (
	DriverFile     = "file"
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Sync policies
const (
	SyncGated      = "gated"
	SyncOptimistic = "optimistic"
)

// Config represents the complete application configuration
type Config struct {
	Stages    StagesConfig
	Storage   StorageConfig
	Collector CollectorConfig
	Server    ServerConfig
	Log       LogConfig
}

// StagesConfig selects the stage set to play
type StagesConfig struct {
	// Set is a built-in set name or a path to a YAML file
	Set string
}

// StorageConfig holds local persistence settings
type StorageConfig struct {
	Driver      string
	Path        string
	DatabaseURL string
}

// CollectorConfig holds remote collector settings. An empty URL runs offline.
type CollectorConfig struct {
	URL        string
	Timeout    time.Duration
	SyncPolicy string
}

// Offline reports whether no remote collector is configured
func (c CollectorConfig) Offline() bool {
	return c.URL == ""
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port          string
	CollectorPort string
	GinMode       string
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Stages: StagesConfig{
			Set: getEnvOrDefault("STAGE_SET", "acao"),
		},
		Storage: StorageConfig{
			Driver:      strings.ToLower(getEnvOrDefault("STORAGE_DRIVER", DriverFile)),
			Path:        getEnvOrDefault("STORAGE_PATH", "./data"),
			DatabaseURL: os.Getenv("DATABASE_URL"),
		},
		Server: ServerConfig{
			Port:          getEnvOrDefault("PORT", "8080"),
			CollectorPort: getEnvOrDefault("COLLECTOR_PORT", "8090"),
			GinMode:       getEnvOrDefault("GIN_MODE", "release"),
		},
		Log: LogConfig{
			Level: getEnvOrDefault("LOG_LEVEL", "INFO"),
		},
	}

	collectorConfig, err := loadCollectorConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load collector configuration")
	}
	config.Collector = *collectorConfig

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadCollectorConfig() (*CollectorConfig, error) {
	timeout := 10 * time.Second
	if value := os.Getenv("COLLECTOR_TIMEOUT"); value != "" {
		parsed, err := time.ParseDuration(value)
		if err != nil || parsed <= 0 {
			return nil, errors.ConfigInvalid("COLLECTOR_TIMEOUT must be a positive duration such as 10s")
		}
		timeout = parsed
	}

	return &CollectorConfig{
		URL:        strings.TrimRight(os.Getenv("COLLECTOR_URL"), "/"),
		Timeout:    timeout,
		SyncPolicy: strings.ToLower(getEnvOrDefault("SYNC_POLICY", SyncGated)),
	}, nil
}

func validateConfig(config *Config) error {
	switch config.Storage.Driver {
	case DriverFile, DriverMemory:
	case DriverPostgres, DriverSQLite:
		if config.Storage.DatabaseURL == "" {
			return errors.ConfigInvalid("DATABASE_URL is required for the " + config.Storage.Driver + " driver")
		}
	default:
		return errors.ConfigInvalid("unsupported STORAGE_DRIVER " + strconv.Quote(config.Storage.Driver))
	}

	switch config.Collector.SyncPolicy {
	case SyncGated, SyncOptimistic:
	default:
		return errors.ConfigInvalid("SYNC_POLICY must be gated or optimistic")
	}

	if config.Stages.Set == "" {
		return errors.ConfigInvalid("STAGE_SET is required")
	}
	if _, err := strconv.Atoi(config.Server.Port); err != nil {
		return errors.ConfigInvalid("PORT must be numeric")
	}
	if _, err := strconv.Atoi(config.Server.CollectorPort); err != nil {
		return errors.ConfigInvalid("COLLECTOR_PORT must be numeric")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
