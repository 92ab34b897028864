package main

import (
	"github.com/spf13/cobra"
	"github.com/trezcool/goose"

	appfs "github.com/aiesec-vn/ogvhub/fs"
)

var gooseRunFunc = goose.RunFS // mockable

func (cli *commandLine) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate COMMAND [ARGS...]",
		Short: "Run a goose command (up, up-to, down, status, create, ...) against the database",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.migrate(args)
		},
	}
}

func (cli *commandLine) migrate(args []string) error {
	if cli.db == nil {
		return errNoSQLDatabase
	}
	arguments := make([]string, 0)
	if len(args) > 1 {
		arguments = append(arguments, args[1:]...)
	}
	return gooseRunFunc(args[0], cli.db, appfs.FS, appfs.MigrationsDir, arguments...)
}
