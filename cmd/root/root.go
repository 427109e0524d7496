// Package root contains the root command for the application
package root

import (
	"context"
	"fmt"
	"sync"

	"kharnish/budgie/internal/config"
	"kharnish/budgie/internal/container"
	"kharnish/budgie/internal/logging"

	"github.com/spf13/cobra"
)

// GlobalFlags are the flags shared by every command.
type GlobalFlags struct {
	Backend  string
	DataDir  string
	LogLevel string
}

var (
	// Log is the shared logger instance for commands
	Log logging.Logger = logging.Default()

	// AppConfig is the configuration loaded before any command runs.
	AppConfig *config.Config

	// Flags holds the persistent flag values.
	Flags = GlobalFlags{}

	mu  sync.Mutex
	app *container.Container

	// Cmd is the root command
	Cmd = &cobra.Command{
		Use:   "budgie",
		Short: "Import bank, card and payment-app CSV exports into a budget database.",
		Long: `budgie normalizes CSV exports from banks, cards and payment apps, skips
transactions that are already stored, assigns categories from your history
and saves the new transactions.

Storage is chosen from the environment: MONGO_HOST for MongoDB, DATA_DIR for
flat CSV files, DATABASE_URL for PostgreSQL.`,
		SilenceUsage: true,
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(Log)
			if err != nil {
				return err
			}
			if Flags.Backend != "" {
				cfg.Storage.Backend = Flags.Backend
			}
			if Flags.DataDir != "" {
				cfg.Storage.DataDir = Flags.DataDir
			}
			if Flags.LogLevel != "" {
				cfg.Log.Level = Flags.LogLevel
			}
			AppConfig = cfg
			Log = config.NewLogger(cfg)
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return Shutdown(cmd.Context())
		},
	}
)

// Init initializes the root command and all flags
func Init() {
	Cmd.PersistentFlags().StringVar(&Flags.Backend, "backend", "", "Storage backend: auto, mongo, postgres, csv or memory")
	Cmd.PersistentFlags().StringVar(&Flags.DataDir, "data-dir", "", "Directory of the flat-file store")
	Cmd.PersistentFlags().StringVar(&Flags.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
}

// Container returns the application container, building it on first use.
func Container(ctx context.Context) (*container.Container, error) {
	mu.Lock()
	defer mu.Unlock()
	if app != nil {
		return app, nil
	}
	if AppConfig == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}
	c, err := container.NewContainer(ctx, AppConfig, container.WithLogger(Log))
	if err != nil {
		return nil, err
	}
	app = c
	return app, nil
}

// RunWithContainer adapts a command body that needs the container to
// cobra's RunE.
func RunWithContainer(fn func(cmd *cobra.Command, args []string, c *container.Container) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		c, err := Container(ctx)
		if err != nil {
			return err
		}
		return fn(cmd, args, c)
	}
}

// Shutdown closes the container if one was built.
func Shutdown(ctx context.Context) error {
	mu.Lock()
	defer mu.Unlock()
	if app == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	err := app.Close(ctx)
	app = nil
	return err
}
