// Package importer handles the import command
package importer

import (
	"context"
	"fmt"
	"io"

	"kharnish/budgie/cmd/root"
	"kharnish/budgie/internal/container"
	"kharnish/budgie/internal/fileutils"

	"github.com/spf13/cobra"
)

var (
	inputs  []string
	account string
)

// Cmd represents the import command
var Cmd = &cobra.Command{
	Use:   "import",
	Short: "Import one or more CSV exports",
	Long: `Import CSV exports from banks, cards and payment apps.

Each file is normalized, duplicates of stored transactions are skipped and the
remaining rows are categorized from the account's history before being saved.
Files without an account column need --account. A directory imports every
.csv file directly inside it, in name order.

Example:
  budgie import -i checking.csv -i card.csv
  budgie import -i venmo.csv -a Venmo
  budgie import -i ./exports`,
	RunE: root.RunWithContainer(func(cmd *cobra.Command, args []string, c *container.Container) error {
		files := append(append([]string{}, inputs...), args...)
		return Run(cmd.Context(), c, files, account, cmd.OutOrStdout())
	}),
}

func init() {
	Cmd.Flags().StringSliceVarP(&inputs, "input", "i", nil, "CSV file or directory to import (repeatable)")
	Cmd.Flags().StringVarP(&account, "account", "a", "", "Account name for files without an account column")
}

// Run imports files in order and prints one status line per file. The
// returned error reports how many files failed.
func Run(ctx context.Context, c *container.Container, files []string, accountHint string, out io.Writer) error {
	files, err := fileutils.ExpandInputs(files, ".csv")
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no input files given")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	pipeline := c.GetPipeline()
	failed := 0
	for i, f := range files {
		res := pipeline.ImportFile(ctx, f, accountHint)
		if !res.OK() {
			failed++
		}
		fmt.Fprintf(out, "File %d: %s\n", i+1, res.Message())
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed to import", failed, len(files))
	}
	return nil
}
