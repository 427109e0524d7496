// Package serve handles the serve command
package serve

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"kharnish/budgie/cmd/root"
	"kharnish/budgie/internal/container"
	"kharnish/budgie/internal/logging"

	"github.com/spf13/cobra"
)

var addr string

// Cmd represents the serve command
var Cmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the upload API over HTTP",
	Long: `Serve the HTTP API used by the upload page.

  POST /api/transactions/import   multipart "file" plus optional "account"
  GET  /api/transactions          ?account=&from=&to=
  GET  /api/accounts
  GET  /api/categories
  GET  /healthz

The server stops gracefully on SIGINT or SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: root.RunWithContainer(func(cmd *cobra.Command, args []string, c *container.Container) error {
		parent := cmd.Context()
		if parent == nil {
			parent = context.Background()
		}
		ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
		defer stop()
		return Serve(ctx, c, addr)
	}),
}

func init() {
	Cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default server.addr)")
}

// Serve runs the HTTP API until ctx is canceled.
func Serve(ctx context.Context, c *container.Container, listenAddr string) error {
	if listenAddr == "" {
		listenAddr = c.GetConfig().Server.Addr
	}
	c.GetLogger().Info("Serving API",
		logging.F("addr", listenAddr),
		logging.F(logging.FieldBackend, c.GetBackend()))
	return c.NewServer().ListenAndServe(ctx, listenAddr)
}
