package cmd

import (
	"fmt"

	"github.com/Rana718/dbkeeper/internal/apperrors"
	"github.com/Rana718/dbkeeper/internal/maintenance"
	"github.com/spf13/cobra"
)

var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "List tables and what a drop or truncate would target",
	Long: `
Read-only. List the tables on a connection and mark which ones a command
would touch:

  --kind drop       drop-tables (keeps migrations; --exclude is rejected)
  --kind truncate   truncate-tables (keeps migrations, jobs and credentials)
  --kind all        truncate-all-tables (keeps migrations and --exclude)`,
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
		exclude, _ := cmd.Flags().GetStringSlice("exclude")
		kindFlag, _ := cmd.Flags().GetString("kind")

		table := rt.Config.Migrations.Table
		var (
			kind       maintenance.Kind
			exclusions maintenance.ExclusionSet
			operation  string
		)
		switch kindFlag {
		case "drop":
			// drop-tables has no --exclude; a preview must not pretend otherwise.
			if len(exclude) > 0 {
				return apperrors.New(apperrors.KindConfiguration, "tables", "--exclude is not supported with --kind drop")
			}
			kind, operation = maintenance.Drop, "drop-tables"
			exclusions = maintenance.Resolve(nil, maintenance.DropDefaults(table))
		case "truncate":
			kind, operation = maintenance.Truncate, "truncate-tables"
			exclusions = maintenance.Resolve(exclude, maintenance.TruncateDefaults(table))
		case "all":
			kind, operation = maintenance.Truncate, "truncate-all-tables"
			exclusions = maintenance.Resolve(exclude, maintenance.TruncateAllDefaults(table))
		default:
			return apperrors.New(apperrors.KindConfiguration, "tables", fmt.Sprintf("unknown --kind %q (use drop, truncate or all)", kindFlag))
		}

		conn, err := rt.Connection(cmd.Context(), connection)
		if err != nil {
			return err
		}

		plan, err := maintenance.BuildPlan(cmd.Context(), conn, kind, exclusions)
		if err != nil {
			return err
		}
		return rt.Printer.Plan(plan, operation)
	},
}

func init() {
	tablesCmd.Flags().String("connection", "", "Connection to inspect (default: reset.primary)")
	tablesCmd.Flags().StringSlice("exclude", nil, "Extra table to keep (repeatable or comma-separated)")
	tablesCmd.Flags().String("kind", "drop", "Operation to preview: drop, truncate or all")
	rootCmd.AddCommand(tablesCmd)
}
