// Package backup handles the export and restore commands
package backup

import (
	"context"
	"fmt"
	"io"

	"kharnish/budgie/cmd/root"
	"kharnish/budgie/internal/backup"
	"kharnish/budgie/internal/container"

	"github.com/spf13/cobra"
)

var output string

// ExportCmd represents the export command
var ExportCmd = &cobra.Command{
	Use:   "export [destination]",
	Short: "Export every collection to CSV files",
	Long: `Export transactions, accounts, categories and budget lines as one CSV file
per collection.

The destination is a local directory or a gs://bucket/prefix URI. When none is
given the configured backup.dir (BACKUP_DIR) is used.

Example:
  budgie export ./backup
  budgie export gs://my-bucket/budgie`,
	Args: cobra.MaximumNArgs(1),
	RunE: root.RunWithContainer(func(cmd *cobra.Command, args []string, c *container.Container) error {
		dest := output
		if len(args) == 1 {
			dest = args[0]
		}
		return Export(cmd.Context(), c, dest, cmd.OutOrStdout())
	}),
}

// RestoreCmd represents the restore command
var RestoreCmd = &cobra.Command{
	Use:   "restore <directory>",
	Short: "Load a CSV export back into the store",
	Long: `Load the CSV files written by export into the configured store.

Accounts and categories that already exist are kept, budget values are
replaced and every transaction in the export is inserted.`,
	Args: cobra.ExactArgs(1),
	RunE: root.RunWithContainer(func(cmd *cobra.Command, args []string, c *container.Container) error {
		return Restore(cmd.Context(), c, args[0], cmd.OutOrStdout())
	}),
}

func init() {
	ExportCmd.Flags().StringVarP(&output, "output", "o", "", "Destination directory or gs:// URI")
}

// Export writes the store snapshot to dest, falling back to the configured
// backup directory.
func Export(ctx context.Context, c *container.Container, dest string, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if dest == "" {
		dest = c.GetConfig().Backup.Dir
	}
	written, err := c.GetExporter().Export(ctx, c.GetStore(), dest)
	if err != nil {
		return err
	}
	for _, w := range written {
		fmt.Fprintf(out, "Wrote %s\n", w)
	}
	return nil
}

// Restore loads the export found in dir.
func Restore(ctx context.Context, c *container.Container, dir string, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	report, err := backup.Restore(ctx, c.GetStore(), dir, c.GetLogger())
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Restored %d transactions, %d accounts, %d categories, %d budget lines\n",
		report.Transactions, report.Accounts, report.Categories, report.Budget)
	return nil
}
