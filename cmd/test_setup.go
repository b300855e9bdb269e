package cmd

import (
	"github.com/Rana718/dbkeeper/internal/apperrors"
	"github.com/Rana718/dbkeeper/internal/environment"
	"github.com/Rana718/dbkeeper/internal/testsetup"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var testSetupCmd = &cobra.Command{
	Use:   "test-environment-setup",
	Short: "Create and migrate the test database",
	Long: `
Prepare the test environment:

1. Create the test database if it does not exist
2. Drop every table except migrations on the testing connection
3. Re-run all migrations on the testing connection
4. Run the configured auth bootstrap commands (test_setup.auth_commands)

Refused in production.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		cfg := rt.Config
		database, _ := cmd.Flags().GetString("database")
		if database == "" {
			database = cfg.TestSetup.Database
		}

		// Refuse before the admin connection is dialled.
		if !rt.Guard.Permit(environment.ActionDrop) {
			return apperrors.New(apperrors.KindEnvironmentViolation, "test-setup", rt.Guard.Refusal(environment.ActionDrop)).
				WithDetail("environment", string(rt.Guard.Tag()))
		}

		admin, err := rt.Connection(cmd.Context(), cfg.TestSetup.AdminConnection)
		if err != nil {
			return err
		}

		hooks := testsetup.ShellHooks{Stdout: rt.ErrOut, Stderr: rt.ErrOut}
		setup := testsetup.New(rt.Guard, admin, rt, rt.Migrator(), hooks, rt.Progress(), rt.Log)

		res, err := setup.Run(cmd.Context(), testsetup.Options{
			Database:        database,
			Connection:      cfg.TestSetup.Connection,
			MigrationsTable: cfg.Migrations.Table,
			AuthCommands:    cfg.TestSetup.AuthCommands,
		})
		if err != nil {
			return err
		}

		if res.Created {
			say(rt, color.FgCyan, "Created database %s", res.Database)
		}
		say(rt, color.FgGreen, "✅ Test environment setup completed successfully.")
		return nil
	},
}

func init() {
	testSetupCmd.Flags().String("database", "", "Test database name (default: test_setup.database)")
	rootCmd.AddCommand(testSetupCmd)
}
