// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir         string // Base directory for all databases (always absolute)
	EnhancerURL     string // Optional enhancement service; empty disables it
	LogLevel        string
	Port            int
	DevMode         bool
	EnhancerTimeout time.Duration // Budget for a single enhancement call
	ResyncSchedule  string        // Cron spec for the basket aggregate resync job
	SnapshotEvery   time.Duration // Interval between basket performance snapshots
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	// Determine data directory, resolve to absolute path and ensure it exists
	dataDir := getEnv("AQUIFER_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "./data"
	}
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:         absDataDir,
		Port:            getEnvAsInt("PORT", 8010),
		DevMode:         getEnvAsBool("DEV_MODE", false),
		EnhancerURL:     getEnv("ENHANCER_URL", ""),
		EnhancerTimeout: time.Duration(getEnvAsInt("ENHANCER_TIMEOUT_MS", 1500)) * time.Millisecond,
		ResyncSchedule:  getEnv("RESYNC_SCHEDULE", "@hourly"),
		SnapshotEvery:   time.Duration(getEnvAsInt("SNAPSHOT_EVERY_MINUTES", 60)) * time.Minute,
		LogLevel:        getEnv("LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.EnhancerTimeout <= 0 {
		return fmt.Errorf("enhancer timeout must be positive, got %s", c.EnhancerTimeout)
	}
	return nil
}

// getEnv retrieves an environment variable value, returning a fallback if the
// variable is not set or is empty.
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getEnvAsInt retrieves an environment variable as an integer
func getEnvAsInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

// getEnvAsBool retrieves an environment variable as a boolean
func getEnvAsBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}
