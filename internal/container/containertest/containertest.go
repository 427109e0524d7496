// Package containertest builds memory-backed containers for command tests.
package containertest

import (
	"context"
	"testing"

	"kharnish/budgie/internal/config"
	"kharnish/budgie/internal/container"
	"kharnish/budgie/internal/logging"
	"kharnish/budgie/internal/store"
)

// Config returns a configuration carrying the default ingest tuning and the
// memory backend.
func Config() *config.Config {
	cfg := &config.Config{}
	cfg.Log.Level = "info"
	cfg.Log.Format = "text"
	cfg.Storage.Backend = config.BackendMemory
	cfg.Ingest.CategoryCutoff = 0.7
	cfg.Ingest.MaxMatches = 3
	cfg.Ingest.DuplicateThreshold = 0.35
	cfg.Ingest.RecencyDays = 10
	cfg.Ingest.StaleDays = 30
	cfg.Server.Addr = "127.0.0.1:0"
	cfg.Server.MaxUploadBytes = 1 << 20
	return cfg
}

// New returns a container over a fresh memory store, the store itself and
// the mock logger every component logs to.
func New(t testing.TB) (*container.Container, *store.Memory, *logging.MockLogger) {
	t.Helper()
	mem := store.NewMemory()
	logger := logging.NewMockLogger()
	c, err := container.NewContainer(context.Background(), Config(),
		container.WithStore(mem), container.WithLogger(logger))
	if err != nil {
		t.Fatalf("failed to build container: %v", err)
	}
	t.Cleanup(func() { _ = c.Close(context.Background()) })
	return c, mem, logger
}
