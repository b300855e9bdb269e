package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/Rana718/dbkeeper/internal/app"
	"github.com/Rana718/dbkeeper/internal/apperrors"
	"github.com/Rana718/dbkeeper/internal/config"
	"github.com/Rana718/dbkeeper/internal/report"
	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile     string
	envOverride string
	verbose     bool
	outputFlag  string
	Version     = "1.0.0"
)

var rootCmd = &cobra.Command{
	Use:   "dbkeeper",
	Short: "Guarded database maintenance for development and test environments",
	Long: `
dbkeeper bundles the database chores of a development workflow behind one
environment-aware CLI:

- drop or truncate every table while keeping migration bookkeeping intact
- reset the development and testing databases and re-run migrations
- create databases and prepare the test environment
- dump a database to a zip archive and optionally upload it to S3

Destructive commands refuse to run in production and ask for confirmation
unless --force is given.

Database Support:
- MySQL
- PostgreSQL
- SQLite`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Run: func(cmd *cobra.Command, args []string) {
		showVersion, _ := cmd.Flags().GetBool("version")
		if showVersion {
			fmt.Fprintf(cmd.OutOrStdout(), "dbkeeper version %s\n", Version)
			return
		}
		cmd.Help()
	},
}

// Execute runs the root command and reports a failure the way every command
// does. A declined confirmation is not a failure.
func Execute(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return nil
	}

	errOut := rootCmd.ErrOrStderr()
	if apperrors.IsDeclined(err) {
		color.New(color.FgYellow).Fprintln(errOut, "Operation cancelled.")
		return nil
	}

	color.New(color.FgRed).Fprintf(errOut, "❌ %v\n", err)
	if verbose {
		fmt.Fprintln(errOut, "Stack trace:")
		fmt.Fprintf(errOut, "%+v\n", err)
	}
	return err
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./dbkeeper.config.json)")
	rootCmd.PersistentFlags().StringVar(&envOverride, "env", "", "environment name, overrides APP_ENV and the config file")
	rootCmd.PersistentFlags().BoolP("force", "f", false, "Skip confirmations")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose logging and stack traces on failure")
	rootCmd.PersistentFlags().StringVar(&outputFlag, "output", "table", "Result format: table or yaml")

	rootCmd.Flags().Bool("version", false, "Show CLI version")
}

func initConfig() {
	if err := godotenv.Load(); err != nil {
		godotenv.Load(".env")
		godotenv.Load(".env.local")
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("json")
		viper.SetConfigName("dbkeeper.config")
	}

	config.BindEnv(viper.GetViper())

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// newRuntime loads and validates configuration and builds the invocation
// runtime from the global flags.
func newRuntime(cmd *cobra.Command) (*app.Runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindConfiguration, "config", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, apperrors.Wrap(apperrors.KindConfiguration, "config", err)
	}

	format, err := report.ParseFormat(outputFlag)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindConfiguration, "config", err)
	}

	force, _ := cmd.Flags().GetBool("force")

	return app.New(cfg, app.Options{
		Environment: envOverride,
		Force:       force,
		Verbose:     verbose,
		Output:      format,
		In:          cmd.InOrStdin(),
		Out:         cmd.OutOrStdout(),
		ErrOut:      cmd.ErrOrStderr(),
	}), nil
}
