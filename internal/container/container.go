// Package container provides dependency injection for the budgie application.
// It centralizes the creation and wiring of all application dependencies,
// making them explicit and testable.
package container

import (
	"context"
	"fmt"

	"kharnish/budgie/internal/backup"
	"kharnish/budgie/internal/categorizer"
	"kharnish/budgie/internal/config"
	"kharnish/budgie/internal/dedupe"
	"kharnish/budgie/internal/ingest"
	"kharnish/budgie/internal/logging"
	"kharnish/budgie/internal/server"
	"kharnish/budgie/internal/store"
)

// Container holds all application dependencies and provides methods to access them.
// Container is immutable after creation.
type Container struct {
	logger   logging.Logger
	config   *config.Config
	backend  string
	store    store.Store
	pipeline *ingest.Pipeline
	exporter *backup.Exporter
}

// Option customizes NewContainer.
type Option func(*options)

type options struct {
	logger logging.Logger
	store  store.Store
}

// WithLogger replaces the logger built from the configuration.
func WithLogger(logger logging.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithStore injects a ready store instead of opening the configured one.
func WithStore(s store.Store) Option {
	return func(o *options) { o.store = s }
}

// NewContainer creates and wires all application dependencies.
// This is the main entry point for dependency injection in the application.
func NewContainer(ctx context.Context, cfg *config.Config, opts ...Option) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	logger := o.logger
	if logger == nil {
		logger = config.NewLogger(cfg)
	}

	backend := "injected"
	s := o.store
	if s == nil {
		var err error
		backend, err = cfg.ResolveBackend()
		if err != nil {
			return nil, err
		}
		s, err = OpenStore(ctx, cfg, backend, logger)
		if err != nil {
			return nil, err
		}
	}

	pipeline := ingest.New(s, logger, PipelineOptions(cfg))
	exporter := backup.NewExporter(logger, cfg.Backup.CredentialsFile)

	logger.Info("Container initialized successfully", logging.F(logging.FieldBackend, backend))

	return &Container{
		logger:   logger,
		config:   cfg,
		backend:  backend,
		store:    s,
		pipeline: pipeline,
		exporter: exporter,
	}, nil
}

// OpenStore opens the named storage backend.
func OpenStore(ctx context.Context, cfg *config.Config, backend string, logger logging.Logger) (store.Store, error) {
	switch backend {
	case config.BackendMongo:
		s, err := store.NewMongo(ctx, store.MongoOptions{
			URI:      cfg.Storage.Mongo.URI,
			Database: cfg.Storage.Mongo.Database,
			Unique:   cfg.Storage.EnforceUnique,
			Logger:   logger,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.BackendPostgres:
		s, err := store.NewPostgres(ctx, store.PostgresOptions{
			DSN:    cfg.Storage.Postgres.DSN,
			Unique: cfg.Storage.EnforceUnique,
			Logger: logger,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.BackendCSV:
		s, err := store.NewCSV(cfg.Storage.DataDir, logger)
		if err != nil {
			return nil, err
		}
		s.EnforceUnique(cfg.Storage.EnforceUnique)
		return s, nil
	case config.BackendMemory:
		m := store.NewMemory()
		m.EnforceUnique(cfg.Storage.EnforceUnique)
		return m, nil
	}
	return nil, fmt.Errorf("unknown storage backend: %s", backend)
}

// PipelineOptions maps the ingest section onto the pipeline tunables.
func PipelineOptions(cfg *config.Config) ingest.Options {
	return ingest.Options{
		Categorizer: categorizer.Options{
			Cutoff:     cfg.Ingest.CategoryCutoff,
			MaxMatches: cfg.Ingest.MaxMatches,
		},
		Dedupe: dedupe.Options{
			RecencyDays: cfg.Ingest.RecencyDays,
			Threshold:   cfg.Ingest.DuplicateThreshold,
		},
		StaleDays: cfg.Ingest.StaleDays,
	}
}

// GetLogger returns the container's logger instance.
func (c *Container) GetLogger() logging.Logger {
	return c.logger
}

// GetConfig returns the container's configuration instance.
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// GetBackend returns the name of the storage backend in use.
func (c *Container) GetBackend() string {
	return c.backend
}

// GetStore returns the container's store.
func (c *Container) GetStore() store.Store {
	return c.store
}

// GetPipeline returns the import pipeline.
func (c *Container) GetPipeline() *ingest.Pipeline {
	return c.pipeline
}

// GetExporter returns the backup exporter.
func (c *Container) GetExporter() *backup.Exporter {
	return c.exporter
}

// NewServer builds the HTTP server over the container's pipeline and store.
func (c *Container) NewServer() *server.Server {
	return server.New(c.pipeline, c.store, c.logger, c.config.Server.MaxUploadBytes)
}

// Close releases the store.
func (c *Container) Close(ctx context.Context) error {
	if err := c.store.Close(ctx); err != nil {
		return fmt.Errorf("failed to close store: %w", err)
	}
	c.logger.Debug("Container closed")
	return nil
}
