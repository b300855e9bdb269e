package cmd

import (
	"github.com/Rana718/dbkeeper/internal/apperrors"
	"github.com/Rana718/dbkeeper/internal/backup"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var dumpCmd = &cobra.Command{
	Use:   "dump-to-zip",
	Short: "Dump a database to a zip file, optionally uploading it to S3",
	Long: `
Dump a database with its native tool (mysqldump, pg_dump or sqlite3),
compress the dump into a zip archive under the storage directory and
optionally upload the archive to S3.

The SQL dump is always removed. The archive is kept locally unless it was
uploaded successfully.

Examples:
  dbkeeper dump-to-zip
  dbkeeper dump-to-zip --upload --bucket my-backups --region eu-west-1`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		cfg := rt.Config
		upload, _ := cmd.Flags().GetBool("upload")
		bucket, _ := cmd.Flags().GetString("bucket")
		region, _ := cmd.Flags().GetString("region")
		connection, _ := cmd.Flags().GetString("connection")
		name, _ := cmd.Flags().GetString("name")

		if bucket == "" {
			bucket = cfg.Backup.Bucket
		}
		if region == "" {
			region = cfg.Backup.Region
		}
		if connection == "" {
			connection = cfg.Backup.Connection
		}
		if name == "" {
			name = cfg.Backup.Name
		}

		if err := cfg.EnsureDirectories(); err != nil {
			return apperrors.Wrap(apperrors.KindArchive, "dump", err)
		}

		var uploader backup.Uploader
		if upload {
			s3Uploader, err := backup.NewS3Uploader(cmd.Context(), bucket, region)
			if err != nil {
				return err
			}
			uploader = s3Uploader
		}

		conn, err := rt.Connection(cmd.Context(), connection)
		if err != nil {
			return err
		}

		manager := backup.NewBackupManager(conn, backup.ExecRunner{}, uploader, rt.Progress(), rt.Log)
		artifact, err := manager.Run(cmd.Context(), backup.Options{
			StorageDir: cfg.Storage.Path,
			Name:       name,
			Prefix:     cfg.Backup.Prefix,
			Upload:     upload,
		})
		if artifact != nil {
			if printErr := rt.Printer.Artifact(artifact); printErr != nil {
				rt.Log.Warn("failed to print summary", "error", printErr)
			}
		}
		if err != nil {
			return err
		}

		say(rt, color.FgGreen, "✅ Database dump completed successfully!")
		return nil
	},
}

func init() {
	dumpCmd.Flags().Bool("upload", false, "Upload the archive to S3")
	dumpCmd.Flags().String("bucket", "", "S3 bucket (default: backup.bucket or AWS_BUCKET)")
	dumpCmd.Flags().String("region", "", "S3 region (default: backup.region or AWS_DEFAULT_REGION)")
	dumpCmd.Flags().String("connection", "", "Connection to dump (default: backup.connection)")
	dumpCmd.Flags().String("name", "", "Base name of the dump files (default: backup.name)")
	rootCmd.AddCommand(dumpCmd)
}
