package main

import (
	"github.com/spf13/cobra"

	"github.com/trezcool/degreeaudit/storage/database"
)

var gooseRunFunc = database.Run // mockable

func (cli *commandLine) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate COMMAND [ARGS...]",
		Short: "Run database migrations",
		Long: `Run the embedded database migrations. Commands:
  up                   migrate to the most recent version
  up-by-one            migrate up by a single version
  up-to VERSION        migrate up to a specific version
  down                 roll back by one version
  down-to VERSION      roll back to a specific version
  redo                 re-run the latest migration
  reset                roll back all migrations
  status               print the status of all migrations
  version              print the current version`,
		Annotations:        map[string]string{needsDB: "true"},
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				_ = cmd.Usage()
				return errHelp
			}
			return gooseRunFunc(cli.db, args[0], args[1:]...)
		},
	}
}
