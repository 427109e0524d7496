// Package category handles the category commands
package category

import (
	"context"
	"fmt"
	"io"

	"kharnish/budgie/cmd/root"
	"kharnish/budgie/internal/container"
	"kharnish/budgie/internal/models"
	"kharnish/budgie/internal/store"

	"github.com/spf13/cobra"
)

var (
	parent string
	hidden bool
)

// Cmd represents the category command
var Cmd = &cobra.Command{
	Use:   "category",
	Short: "Manage categories",
}

var addCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a category",
	Args:  cobra.ExactArgs(1),
	RunE: root.RunWithContainer(func(cmd *cobra.Command, args []string, c *container.Container) error {
		return Add(cmd.Context(), c, models.Category{Name: args[0], Parent: parent, Hidden: hidden}, cmd.OutOrStdout())
	}),
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List categories",
	Args:  cobra.NoArgs,
	RunE: root.RunWithContainer(func(cmd *cobra.Command, args []string, c *container.Container) error {
		return List(cmd.Context(), c, cmd.OutOrStdout())
	}),
}

var loadCmd = &cobra.Command{
	Use:   "load [file]",
	Short: "Add the categories defined in a YAML file",
	Long: `Add every category defined in a YAML file that is not stored yet.

Without an argument the configured categories.file is used, searched in the
working directory, ./config, ./database and ~/.config/budgie.`,
	Args: cobra.MaximumNArgs(1),
	RunE: root.RunWithContainer(func(cmd *cobra.Command, args []string, c *container.Container) error {
		file := c.GetConfig().Categories.File
		if len(args) == 1 {
			file = args[0]
		}
		return Load(cmd.Context(), c, file, cmd.OutOrStdout())
	}),
}

func init() {
	addCmd.Flags().StringVar(&parent, "parent", "", "Parent category")
	addCmd.Flags().BoolVar(&hidden, "hidden", false, "Hide the category from budget views")
	Cmd.AddCommand(addCmd, listCmd, loadCmd)
}

// Add stores one category.
func Add(ctx context.Context, c *container.Container, category models.Category, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := c.GetStore().AddCategory(ctx, category); err != nil {
		return err
	}
	fmt.Fprintf(out, "Added category %s\n", category.Name)
	return nil
}

// List prints the categories, children indented under their parent name.
func List(ctx context.Context, c *container.Container, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	categories, err := c.GetStore().Categories(ctx)
	if err != nil {
		return err
	}
	for _, cat := range categories {
		line := cat.Name
		if cat.Parent != "" {
			line = cat.Parent + " / " + cat.Name
		}
		if cat.Hidden {
			line += " (hidden)"
		}
		fmt.Fprintln(out, line)
	}
	return nil
}

// Load seeds the store from a category file.
func Load(ctx context.Context, c *container.Container, file string, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	categories, err := store.LoadCategoryFile(file)
	if err != nil {
		return err
	}
	added, err := store.SeedCategories(ctx, c.GetStore(), categories, c.GetLogger())
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Added %d of %d categories\n", added, len(categories))
	return nil
}
