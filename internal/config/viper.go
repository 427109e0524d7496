// Package config provides Viper-based hierarchical configuration management
package config

import (
	"errors"
	"fmt"
	"strings"

	"kharnish/budgie/internal/logging"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Storage backends.
const (
	BackendAuto     = "auto"
	BackendMongo    = "mongo"
	BackendPostgres = "postgres"
	BackendCSV      = "csv"
	BackendMemory   = "memory"
)

// ErrNoBackend is returned when the auto backend finds no storage settings.
var ErrNoBackend = errors.New("no storage configured: set MONGO_HOST, DATA_DIR or DATABASE_URL")

// Config represents the complete application configuration
type Config struct {
	Log struct {
		Level  string `mapstructure:"level" yaml:"level"`
		Format string `mapstructure:"format" yaml:"format"`
	} `mapstructure:"log" yaml:"log"`

	Storage struct {
		Backend       string `mapstructure:"backend" yaml:"backend"`
		EnforceUnique bool   `mapstructure:"enforce_unique" yaml:"enforce_unique"`
		DataDir       string `mapstructure:"data_dir" yaml:"data_dir"`
		Mongo         struct {
			URI      string `mapstructure:"uri" yaml:"uri"`
			Database string `mapstructure:"database" yaml:"database"`
		} `mapstructure:"mongo" yaml:"mongo"`
		Postgres struct {
			DSN string `mapstructure:"dsn" yaml:"-"` // carries credentials
		} `mapstructure:"postgres" yaml:"postgres"`
	} `mapstructure:"storage" yaml:"storage"`

	Ingest struct {
		CategoryCutoff     float64 `mapstructure:"category_cutoff" yaml:"category_cutoff"`
		MaxMatches         int     `mapstructure:"max_matches" yaml:"max_matches"`
		DuplicateThreshold float64 `mapstructure:"duplicate_threshold" yaml:"duplicate_threshold"`
		RecencyDays        int     `mapstructure:"recency_days" yaml:"recency_days"`
		StaleDays          int     `mapstructure:"stale_days" yaml:"stale_days"`
	} `mapstructure:"ingest" yaml:"ingest"`

	Server struct {
		Addr           string `mapstructure:"addr" yaml:"addr"`
		MaxUploadBytes int64  `mapstructure:"max_upload_bytes" yaml:"max_upload_bytes"`
	} `mapstructure:"server" yaml:"server"`

	Backup struct {
		Dir             string `mapstructure:"dir" yaml:"dir"`
		CredentialsFile string `mapstructure:"credentials_file" yaml:"credentials_file"`
	} `mapstructure:"backup" yaml:"backup"`

	Categories struct {
		File string `mapstructure:"file" yaml:"file"`
	} `mapstructure:"categories" yaml:"categories"`
}

// InitializeConfig initializes Viper configuration with hierarchical loading
func InitializeConfig() (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Config file locations
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("$HOME/.budgie")
	v.AddConfigPath(".budgie")
	v.AddConfigPath(".")

	// 3. Environment variables
	v.SetEnvPrefix("BUDGIE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 4. Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file %s: %w", v.ConfigFileUsed(), err)
		}
	}

	// 5. Unprefixed variables of existing Budgie deployments
	legacy := map[string]string{
		"storage.mongo.uri":      "MONGO_HOST",
		"storage.mongo.database": "MONGO_DB",
		"storage.data_dir":       "DATA_DIR",
		"storage.postgres.dsn":   "DATABASE_URL",
		"backup.dir":             "BACKUP_DIR",
	}
	for key, env := range legacy {
		prefixed := "BUDGIE_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 6. Validate configuration
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	// Storage defaults
	v.SetDefault("storage.backend", BackendAuto)
	v.SetDefault("storage.enforce_unique", false)
	v.SetDefault("storage.data_dir", "")
	v.SetDefault("storage.mongo.uri", "")
	v.SetDefault("storage.mongo.database", "budgie")
	v.SetDefault("storage.postgres.dsn", "")

	// Ingest defaults
	v.SetDefault("ingest.category_cutoff", 0.7)
	v.SetDefault("ingest.max_matches", 3)
	v.SetDefault("ingest.duplicate_threshold", 0.35)
	v.SetDefault("ingest.recency_days", 10)
	v.SetDefault("ingest.stale_days", 30)

	// Server defaults
	v.SetDefault("server.addr", ":8050")
	v.SetDefault("server.max_upload_bytes", 32<<20)

	// Backup defaults
	v.SetDefault("backup.dir", "")
	v.SetDefault("backup.credentials_file", "")

	v.SetDefault("categories.file", "categories.yaml")
}

// validateConfig validates the configuration values
func validateConfig(config *Config) error {
	// Validate log level
	if _, err := logrus.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", config.Log.Level)
	}

	// Validate log format
	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be 'text' or 'json')", config.Log.Format)
	}

	switch config.Storage.Backend {
	case BackendAuto, BackendMemory:
	case BackendMongo:
		if config.Storage.Mongo.URI == "" {
			return fmt.Errorf("storage.mongo.uri (MONGO_HOST) required for the mongo backend")
		}
	case BackendPostgres:
		if config.Storage.Postgres.DSN == "" {
			return fmt.Errorf("storage.postgres.dsn (DATABASE_URL) required for the postgres backend")
		}
	case BackendCSV:
		if config.Storage.DataDir == "" {
			return fmt.Errorf("storage.data_dir (DATA_DIR) required for the csv backend")
		}
	default:
		return fmt.Errorf("invalid storage backend: %s", config.Storage.Backend)
	}

	if config.Ingest.CategoryCutoff <= 0.0 || config.Ingest.CategoryCutoff > 1.0 {
		return fmt.Errorf("ingest.category_cutoff must be in (0.0, 1.0], got: %f", config.Ingest.CategoryCutoff)
	}
	if config.Ingest.DuplicateThreshold <= 0.0 || config.Ingest.DuplicateThreshold > 1.0 {
		return fmt.Errorf("ingest.duplicate_threshold must be in (0.0, 1.0], got: %f", config.Ingest.DuplicateThreshold)
	}
	if config.Ingest.MaxMatches < 1 || config.Ingest.MaxMatches > 100 {
		return fmt.Errorf("ingest.max_matches must be between 1 and 100, got: %d", config.Ingest.MaxMatches)
	}
	if config.Ingest.RecencyDays < 1 || config.Ingest.RecencyDays > 365 {
		return fmt.Errorf("ingest.recency_days must be between 1 and 365, got: %d", config.Ingest.RecencyDays)
	}
	if config.Ingest.StaleDays < 1 {
		return fmt.Errorf("ingest.stale_days must be positive, got: %d", config.Ingest.StaleDays)
	}
	if config.Server.MaxUploadBytes < 1 {
		return fmt.Errorf("server.max_upload_bytes must be positive, got: %d", config.Server.MaxUploadBytes)
	}

	return nil
}

// ResolveBackend returns the concrete storage backend. The auto backend
// prefers Mongo, then the flat-file store, then Postgres.
func (c *Config) ResolveBackend() (string, error) {
	if c.Storage.Backend != BackendAuto && c.Storage.Backend != "" {
		return c.Storage.Backend, nil
	}
	switch {
	case c.Storage.Mongo.URI != "":
		return BackendMongo, nil
	case c.Storage.DataDir != "":
		return BackendCSV, nil
	case c.Storage.Postgres.DSN != "":
		return BackendPostgres, nil
	}
	return "", ErrNoBackend
}

// ConfigureLoggingFromConfig builds the logrus logger described by the log
// section.
func ConfigureLoggingFromConfig(config *Config) *logrus.Logger {
	return logging.NewLogrus(config.Log.Level, config.Log.Format, nil)
}
