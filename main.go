package main

import (
	"fmt"
	"os"

	"kharnish/budgie/cmd/account"
	"kharnish/budgie/cmd/backup"
	"kharnish/budgie/cmd/budget"
	"kharnish/budgie/cmd/category"
	"kharnish/budgie/cmd/importer"
	"kharnish/budgie/cmd/root"
	"kharnish/budgie/cmd/serve"
)

func init() {
	root.Init()

	root.Cmd.AddCommand(importer.Cmd)
	root.Cmd.AddCommand(backup.ExportCmd)
	root.Cmd.AddCommand(backup.RestoreCmd)
	root.Cmd.AddCommand(account.Cmd)
	root.Cmd.AddCommand(category.Cmd)
	root.Cmd.AddCommand(budget.Cmd)
	root.Cmd.AddCommand(serve.Cmd)
}

func main() {
	if err := root.Cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
