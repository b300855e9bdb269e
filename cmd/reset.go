package cmd

import (
	"github.com/Rana718/dbkeeper/internal/maintenance"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset-development-project",
	Short: "Drop and re-migrate the development and testing databases",
	Long: `
Reset the development project. This is a destructive operation that will:

1. Refuse to run outside the local environment
2. Prompt for confirmation (unless --force is used)
3. Drop all tables except migrations on the primary connection
4. Drop all tables except migrations on the secondary connection
5. Re-run every migration on both connections

If a step fails no further steps run. Tables already dropped are not
restored.

⚠️  WARNING: This will permanently delete all data in both databases!`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		cfg := rt.Config
		orchestrator := maintenance.NewOrchestrator(rt.Guard, rt, rt.Runner(), rt.Migrator(), rt.Log)

		res, err := orchestrator.Run(cmd.Context(), maintenance.ResetOptions{
			Primary:         cfg.Reset.Primary,
			Secondary:       cfg.Reset.Secondary,
			MigrationsTable: cfg.Migrations.Table,
			Confirm: func() (bool, error) {
				say(rt, color.FgCyan, "🌍 Environment: %s", rt.Guard.Tag())
				say(rt, color.FgCyan, "🎯 Connections: %s, %s", cfg.Reset.Primary, cfg.Reset.Secondary)
				return rt.Confirm("⚠️  Reset both databases and re-run all migrations?")
			},
		})
		if res != nil && len(res.History) > 2 {
			if printErr := rt.Printer.Reset(res); printErr != nil {
				rt.Log.Warn("failed to print summary", "error", printErr)
			}
		}
		if err != nil {
			return err
		}

		say(rt, color.FgGreen, "✅ Development project has been reset successfully.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resetCmd)
}
