// internal/config/env.go
package config

import (
	"os"
	"strconv"
)

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv(cfg *Config) {
	if port := os.Getenv("CATAPULT_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}

	if logLevel := os.Getenv("CATAPULT_LOG_LEVEL"); logLevel != "" {
		cfg.Server.LogLevel = logLevel
	}

	if secret := os.Getenv("CATAPULT_JWT_SECRET"); secret != "" {
		cfg.Auth.JWTSecret = secret
	}

	if url := os.Getenv("CATAPULT_DEFINITIONS_URL"); url != "" {
		cfg.Definitions.URL = url
	}

	if url := os.Getenv("CATAPULT_ORCHESTRATOR_URL"); url != "" {
		cfg.Orchestrator.URL = url
	}

	if dsn := os.Getenv("CATAPULT_POSTGRES_DSN"); dsn != "" {
		cfg.Journal.Backend = "postgres"
		cfg.Journal.PostgresDSN = dsn
	}

	// Archive credentials come from the environment in most deployments.
	if key := os.Getenv("CATAPULT_ARCHIVE_ACCESS_KEY"); key != "" {
		cfg.Archive.AccessKey = key
	}
	if key := os.Getenv("CATAPULT_ARCHIVE_SECRET_KEY"); key != "" {
		cfg.Archive.SecretKey = key
	}
}

// GetEnvOrDefault returns environment variable or default value
func GetEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
