// Package account handles the account commands
package account

import (
	"context"
	"fmt"
	"io"

	"kharnish/budgie/cmd/root"
	"kharnish/budgie/internal/container"
	"kharnish/budgie/internal/models"

	"github.com/spf13/cobra"
)

var (
	balance string
	status  string
)

// Cmd represents the account command
var Cmd = &cobra.Command{
	Use:   "account",
	Short: "Manage accounts",
}

var addCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add an account",
	Args:  cobra.ExactArgs(1),
	RunE: root.RunWithContainer(func(cmd *cobra.Command, args []string, c *container.Container) error {
		return Add(cmd.Context(), c, args[0], balance, status, cmd.OutOrStdout())
	}),
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List accounts",
	Args:  cobra.NoArgs,
	RunE: root.RunWithContainer(func(cmd *cobra.Command, args []string, c *container.Container) error {
		return List(cmd.Context(), c, cmd.OutOrStdout())
	}),
}

func init() {
	addCmd.Flags().StringVar(&balance, "balance", "0", "Initial balance")
	addCmd.Flags().StringVar(&status, "status", models.AccountStatusOpen, "Account status (open or closed)")
	Cmd.AddCommand(addCmd, listCmd)
}

// Add registers a new account.
func Add(ctx context.Context, c *container.Container, name, initialBalance, accountStatus string, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	account := models.NewAccount(name)
	if initialBalance != "" {
		amount, err := models.ParseAmount(initialBalance)
		if err != nil {
			return fmt.Errorf("invalid balance %q: %w", initialBalance, err)
		}
		account.InitialBalance = amount
	}
	switch accountStatus {
	case "":
	case models.AccountStatusOpen, models.AccountStatusClosed:
		account.Status = accountStatus
	default:
		return fmt.Errorf("invalid status %q: must be %s or %s", accountStatus, models.AccountStatusOpen, models.AccountStatusClosed)
	}
	if err := c.GetStore().AddAccount(ctx, account); err != nil {
		return err
	}
	fmt.Fprintf(out, "Added account %s\n", account.Name)
	return nil
}

// List prints one line per account.
func List(ctx context.Context, c *container.Container, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	accounts, err := c.GetStore().Accounts(ctx)
	if err != nil {
		return err
	}
	for _, a := range accounts {
		fmt.Fprintf(out, "%-24s %-8s %12s\n", a.Name, a.Status, models.FormatAmount(a.InitialBalance))
	}
	return nil
}
