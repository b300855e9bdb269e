package cmd

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var createDatabaseCmd = &cobra.Command{
	Use:   "create-database <name>",
	Short: "Create a new database",
	Long: `
Create a database on the server behind a connection. For SQLite the name is
the path of the database file to create.

The name is quoted as an identifier but not otherwise validated; do not pass
untrusted input.

Examples:
  dbkeeper create-database usermanagement-test
  dbkeeper create-database analytics --connection admin`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		connection, _ := cmd.Flags().GetString("connection")
		if connection == "" {
			connection = rt.Config.TestSetup.AdminConnection
		}

		name := args[0]
		say(rt, color.FgCyan, "Creating database: %s", name)

		conn, err := rt.Connection(cmd.Context(), connection)
		if err != nil {
			return err
		}
		if err := conn.CreateDatabase(cmd.Context(), name); err != nil {
			return err
		}

		say(rt, color.FgGreen, "✅ Database %s created successfully", name)
		return nil
	},
}

func init() {
	createDatabaseCmd.Flags().String("connection", "", "Server connection to create the database on (default: test_setup.admin_connection)")
	rootCmd.AddCommand(createDatabaseCmd)
}
