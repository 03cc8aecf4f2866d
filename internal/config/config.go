package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all pipeline configuration
type Config struct {
	// Database configuration
	DatabasePath string

	// Streak qualification: a day counts toward a streak when its
	// step total is at least StepGoal
	StepGoal int64

	// Extractor progress logging cadence, in source records
	ProgressInterval int64

	// Metrics configuration
	MetricsEnabled bool
	MetricsHost    string
	MetricsPort    int

	// Logging configuration
	LogLevel string
}

// Load reads configuration from environment variables.
// Every variable has a default; the pipeline runs with an empty environment.
func Load() (*Config, error) {
	cfg := &Config{
		DatabasePath:     getEnv("DATABASE_PATH", "./health.db"),
		StepGoal:         getEnvInt64("STEP_GOAL", 10000),
		ProgressInterval: getEnvInt64("PROGRESS_INTERVAL", 250000),
		MetricsEnabled:   getEnvBool("METRICS_ENABLED", false),
		MetricsHost:      getEnv("METRICS_HOST", "localhost"),
		MetricsPort:      getEnvInt("METRICS_PORT", 4102),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
	}

	if cfg.StepGoal < 0 {
		return nil, fmt.Errorf("STEP_GOAL must be non-negative, got %d", cfg.StepGoal)
	}

	if cfg.ProgressInterval < 0 {
		return nil, fmt.Errorf("PROGRESS_INTERVAL must be non-negative, got %d", cfg.ProgressInterval)
	}

	return cfg, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt gets an integer environment variable or returns a default value
func getEnvInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvInt64 gets a 64-bit integer environment variable or returns a default value
func getEnvInt64(key string, defaultValue int64) int64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvBool gets a boolean environment variable or returns a default value
func getEnvBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}
