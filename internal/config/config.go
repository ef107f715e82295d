package config

import (
	"os"
	"strconv"

	"evtlab/domain/core"
)

// Config represents the complete application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Analysis AnalysisConfig
}

// DatabaseConfig holds database connection settings. An empty URL means the
// ledger runs in memory.
type DatabaseConfig struct {
	URL     string
	SSLMode string
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port string
}

// AnalysisConfig holds analysis defaults used when a request omits them
type AnalysisConfig struct {
	Seed     int64
	Xi       float64
	VaRLevel float64
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Database: DatabaseConfig{
			URL:     getEnvOrDefault("DATABASE_URL", ""),
			SSLMode: getEnvOrDefault("SSL_MODE", "disable"),
		},
		Server: ServerConfig{
			Port: getEnvOrDefault("PORT", "8080"),
		},
		Analysis: AnalysisConfig{
			Seed:     getEnvInt64OrDefault("ANALYSIS_SEED", 42),
			Xi:       getEnvFloatOrDefault("ANALYSIS_XI", 0.0),
			VaRLevel: getEnvFloatOrDefault("ANALYSIS_VAR_LEVEL", 99.0),
		},
	}

	if err := validateConfig(config); err != nil {
		return nil, core.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func validateConfig(config *Config) error {
	if config.Server.Port == "" {
		return core.ConfigInvalid("server port is required")
	}
	if _, err := strconv.Atoi(config.Server.Port); err != nil {
		return core.ConfigInvalid("server port must be numeric")
	}
	if config.Analysis.VaRLevel <= 0 || config.Analysis.VaRLevel >= 100 {
		return core.ConfigInvalid("ANALYSIS_VAR_LEVEL must be in (0, 100)")
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

func getEnvInt64OrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
