package cmd

import (
	"github.com/Rana718/dbkeeper/internal/environment"
	"github.com/Rana718/dbkeeper/internal/maintenance"
	"github.com/spf13/cobra"
)

var dropTablesCmd = &cobra.Command{
	Use:   "drop-tables",
	Short: "Drop all tables except the migrations table",
	Long: `
Drop every table on a connection except the migrations bookkeeping table.
Foreign key checks are suspended for the batch and always restored afterwards.

⚠️  WARNING: This permanently deletes the tables and their data!

Refused in production. Use --force to skip the confirmation prompt.

Examples:
  dbkeeper drop-tables
  dbkeeper drop-tables --connection testing --force`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		connection, _ := cmd.Flags().GetString("connection")
		if connection == "" {
			connection = rt.Config.Reset.Primary
		}

		return runMutation(cmd.Context(), rt, mutation{
			op:         "drop-tables",
			kind:       maintenance.Drop,
			action:     environment.ActionDrop,
			connection: connection,
			exclusions: maintenance.Resolve(nil, maintenance.DropDefaults(rt.Config.Migrations.Table)),
			prompt:     "⚠️  Are you sure you want to drop all tables except migrations? This cannot be undone!",
		})
	},
}

func init() {
	dropTablesCmd.Flags().String("connection", "", "Connection to drop tables on (default: reset.primary)")
	rootCmd.AddCommand(dropTablesCmd)
}
