// Package config loads the application configuration from defaults, a
// config.yaml, a .env file and the environment.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"kharnish/budgie/internal/logging"

	"github.com/joho/godotenv"
)

// LoadEnv loads variables from a .env file in the working directory or its
// parent, if one exists. Variables already set in the environment win.
func LoadEnv(logger logging.Logger) {
	if logger == nil {
		logger = logging.Default()
	}
	for _, envFile := range []string{".env", filepath.Join("..", ".env")} {
		if _, err := os.Stat(envFile); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(envFile); err != nil {
			logger.WithError(err).Warn("Error loading .env file", logging.F(logging.FieldFile, envFile))
			return
		}
		logger.Debug("Loaded environment variables", logging.F(logging.FieldFile, envFile))
		return
	}
	logger.Debug("No .env file found, using environment variables")
}

// Load reads .env, then the hierarchical configuration.
func Load(logger logging.Logger) (*Config, error) {
	LoadEnv(logger)
	return InitializeConfig()
}

// NewLogger builds the application logger from the log section.
func NewLogger(cfg *Config) logging.Logger {
	return logging.NewLogrusAdapterFromLogger(ConfigureLoggingFromConfig(cfg))
}
