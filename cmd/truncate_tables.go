package cmd

import (
	"github.com/Rana718/dbkeeper/internal/environment"
	"github.com/Rana718/dbkeeper/internal/maintenance"
	"github.com/spf13/cobra"
)

var truncateTablesCmd = &cobra.Command{
	Use:   "truncate-tables",
	Short: "Truncate all tables except protected ones",
	Long: `
Empty every table on a connection. The migrations, job queue and OAuth
credential tables are always kept; --exclude adds more tables to keep.

Examples:
  dbkeeper truncate-tables
  dbkeeper truncate-tables --exclude settings --exclude countries`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTruncate(cmd, true)
	},
}

var truncateAllTablesCmd = &cobra.Command{
	Use:   "truncate-all-tables",
	Short: "Truncate every table except migrations and --exclude",
	Long: `
Empty every table on a connection, including job queues and credentials.
Only the migrations table and tables named with --exclude are kept.

Examples:
  dbkeeper truncate-all-tables --force
  dbkeeper truncate-all-tables --exclude settings`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTruncate(cmd, false)
	},
}

func runTruncate(cmd *cobra.Command, protect bool) error {
	rt, err := newRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	connection, _ := cmd.Flags().GetString("connection")
	if connection == "" {
		connection = rt.Config.Reset.Primary
	}
	exclude, _ := cmd.Flags().GetStringSlice("exclude")

	m := mutation{
		op:         "truncate-all-tables",
		kind:       maintenance.Truncate,
		action:     environment.ActionTruncate,
		connection: connection,
		exclusions: maintenance.Resolve(exclude, maintenance.TruncateAllDefaults(rt.Config.Migrations.Table)),
		prompt:     "⚠️  Are you sure you want to truncate ALL tables except migrations? This cannot be undone!",
	}
	if protect {
		m.op = "truncate-tables"
		m.exclusions = maintenance.Resolve(exclude, maintenance.TruncateDefaults(rt.Config.Migrations.Table))
		m.prompt = "⚠️  Are you sure you want to truncate all tables except protected ones? This cannot be undone!"
	}

	return runMutation(cmd.Context(), rt, m)
}

func init() {
	for _, c := range []*cobra.Command{truncateTablesCmd, truncateAllTablesCmd} {
		c.Flags().String("connection", "", "Connection to truncate tables on (default: reset.primary)")
		c.Flags().StringSlice("exclude", nil, "Table to keep (repeatable or comma-separated)")
		rootCmd.AddCommand(c)
	}
}
