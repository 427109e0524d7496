// Package budget handles the budget commands
package budget

import (
	"context"
	"fmt"
	"io"

	"kharnish/budgie/cmd/root"
	"kharnish/budgie/internal/container"
	"kharnish/budgie/internal/models"

	"github.com/spf13/cobra"
)

var isParent bool

// Cmd represents the budget command
var Cmd = &cobra.Command{
	Use:   "budget",
	Short: "Manage monthly budget lines",
}

var setCmd = &cobra.Command{
	Use:   "set <category> <amount>",
	Short: "Set the monthly budget of a category",
	Args:  cobra.ExactArgs(2),
	RunE: root.RunWithContainer(func(cmd *cobra.Command, args []string, c *container.Container) error {
		return Set(cmd.Context(), c, args[0], args[1], isParent, cmd.OutOrStdout())
	}),
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List budget lines",
	Args:  cobra.NoArgs,
	RunE: root.RunWithContainer(func(cmd *cobra.Command, args []string, c *container.Container) error {
		return List(cmd.Context(), c, cmd.OutOrStdout())
	}),
}

func init() {
	setCmd.Flags().BoolVar(&isParent, "parent", false, "The category groups child categories")
	Cmd.AddCommand(setCmd, listCmd)
}

// Set creates or replaces the budget line of a category.
func Set(ctx context.Context, c *container.Container, category, amount string, parent bool, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	value, err := models.ParseAmount(amount)
	if err != nil {
		return err
	}
	item := models.BudgetItem{Category: category, Value: value, IsParent: parent}
	if err := c.GetStore().AddBudgetItem(ctx, item); err != nil {
		return err
	}
	fmt.Fprintf(out, "Budget for %s set to %s\n", category, models.FormatAmount(value))
	return nil
}

// List prints one line per budget item.
func List(ctx context.Context, c *container.Container, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	items, err := c.GetStore().BudgetItems(ctx)
	if err != nil {
		return err
	}
	for _, b := range items {
		fmt.Fprintf(out, "%-24s %12s\n", b.Category, models.FormatAmount(b.Value))
	}
	return nil
}
