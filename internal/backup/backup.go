package backup

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/Rana718/dbkeeper/internal/apperrors"
	"github.com/Rana718/dbkeeper/internal/database"
	"github.com/Rana718/dbkeeper/internal/logger"
	"github.com/Rana718/dbkeeper/internal/progress"
	"github.com/Rana718/dbkeeper/internal/utils"
)

const (
	DefaultName   = "database_dump"
	DefaultPrefix = "database-backups"

	// Steps is the fixed progress total: dump, archive, upload, cleanup.
	Steps = 4
)

// Source is a connection that knows how to dump itself.
type Source interface {
	Name() string
	DumpCommand(outFile string) (*database.DumpCommand, error)
}

// CommandRunner executes a dump tool invocation.
type CommandRunner interface {
	Run(ctx context.Context, cmd *database.DumpCommand, outFile string) error
}

// Uploader stores a local file under a remote key.
type Uploader interface {
	Upload(ctx context.Context, localPath, key string) error
	Destination() string
}

// Artifact tracks the files produced by one dump.
type Artifact struct {
	Connection  string `yaml:"connection"`
	DumpPath    string `yaml:"dump_path,omitempty"`
	ArchivePath string `yaml:"archive_path,omitempty"`
	RemoteKey   string `yaml:"remote_key,omitempty"`
	Destination string `yaml:"destination,omitempty"`
	Uploaded    bool   `yaml:"uploaded"`
	// Retained is set when the archive is left on disk for the operator.
	Retained bool `yaml:"retained"`
}

type Options struct {
	StorageDir string
	Name       string
	Prefix     string
	Upload     bool
}

// BackupManager dumps a connection, zips the dump and optionally uploads it.
type BackupManager struct {
	source   Source
	runner   CommandRunner
	uploader Uploader
	progress progress.Reporter
	log      *logger.Logger
	files    utils.FileUtils
	now      func() time.Time
}

// NewBackupManager creates backup manager. uploader may be nil when uploads
// are not requested.
func NewBackupManager(source Source, runner CommandRunner, uploader Uploader, reporter progress.Reporter, log *logger.Logger) *BackupManager {
	if runner == nil {
		runner = ExecRunner{}
	}
	if reporter == nil {
		reporter = progress.Nop{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &BackupManager{
		source:   source,
		runner:   runner,
		uploader: uploader,
		progress: reporter,
		log:      log,
		now:      time.Now,
	}
}

// Run executes dump → archive → optional upload → cleanup. The dump file is
// always removed. The archive is removed only after a successful upload.
func (bm *BackupManager) Run(ctx context.Context, opts Options) (*Artifact, error) {
	opts = withDefaults(opts)
	if opts.Upload && bm.uploader == nil {
		return nil, apperrors.New(apperrors.KindConfiguration, "dump", "upload requested but no bucket is configured")
	}

	bm.progress.Start(Steps, fmt.Sprintf("Dumping %s", bm.source.Name()))
	defer bm.progress.Finish()

	artifact, err := bm.Dump(ctx, opts)
	if err != nil {
		return nil, err
	}
	bm.progress.Advance("📦 Database dumped to " + artifact.DumpPath)

	if err := bm.Archive(artifact); err != nil {
		bm.Cleanup(artifact)
		return nil, err
	}
	bm.progress.Advance("🗜️  Archive created at " + artifact.ArchivePath)

	var uploadErr error
	if opts.Upload {
		artifact.RemoteKey = path.Join(opts.Prefix, filepath.Base(artifact.ArchivePath))
		if uploadErr = bm.Upload(ctx, artifact); uploadErr == nil {
			bm.progress.Advance(fmt.Sprintf("☁️  Uploaded to %s/%s", artifact.Destination, artifact.RemoteKey))
		} else {
			bm.progress.Advance("✗ Upload failed")
		}
	} else {
		bm.progress.Advance("Upload skipped")
	}

	bm.Cleanup(artifact)
	bm.progress.Advance("🧹 Temporary files removed")

	return artifact, uploadErr
}

// Dump runs the engine's dump tool into a timestamped file under the storage
// directory.
func (bm *BackupManager) Dump(ctx context.Context, opts Options) (*Artifact, error) {
	opts = withDefaults(opts)
	if err := bm.files.EnsureDir(opts.StorageDir); err != nil {
		return nil, apperrors.Wrap(apperrors.KindArchive, "dump", err)
	}

	now := bm.now()
	artifact := &Artifact{
		Connection:  bm.source.Name(),
		DumpPath:    filepath.Join(opts.StorageDir, bm.files.TimestampedName(opts.Name, ".sql", now)),
		ArchivePath: filepath.Join(opts.StorageDir, bm.files.TimestampedName(opts.Name, ".zip", now)),
	}

	cmd, err := bm.source.DumpCommand(artifact.DumpPath)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindArchive, "dump", err)
	}

	bm.log.Debug("running dump tool", "program", cmd.Program, "connection", artifact.Connection)
	if err := bm.runner.Run(ctx, cmd, artifact.DumpPath); err != nil {
		_ = bm.files.RemoveIfExists(artifact.DumpPath)
		return nil, apperrors.Wrapf(apperrors.KindArchive, "dump", err, "%s failed", cmd.Program)
	}
	return artifact, nil
}

// Archive zips the dump file next to it.
func (bm *BackupManager) Archive(artifact *Artifact) error {
	if err := writeZip(artifact.ArchivePath, artifact.DumpPath); err != nil {
		_ = bm.files.RemoveIfExists(artifact.ArchivePath)
		return apperrors.Wrap(apperrors.KindArchive, "archive", err)
	}
	return nil
}

// Upload sends the archive to the configured destination. A failure leaves
// the local archive in place.
func (bm *BackupManager) Upload(ctx context.Context, artifact *Artifact) error {
	if bm.uploader == nil {
		return apperrors.New(apperrors.KindUpload, "upload", "no uploader configured")
	}
	artifact.Destination = bm.uploader.Destination()
	if err := bm.uploader.Upload(ctx, artifact.ArchivePath, artifact.RemoteKey); err != nil {
		return apperrors.Wrapf(apperrors.KindUpload, "upload", err, "uploading %s", filepath.Base(artifact.ArchivePath)).
			WithDetail("archive", artifact.ArchivePath)
	}
	artifact.Uploaded = true
	return nil
}

// Cleanup removes the dump file, and the archive once it has been uploaded.
// Removal errors are logged, not returned.
func (bm *BackupManager) Cleanup(artifact *Artifact) {
	if err := bm.files.RemoveIfExists(artifact.DumpPath); err != nil {
		bm.log.Warn("failed to remove dump file", "path", artifact.DumpPath, "error", err)
	}

	if !artifact.Uploaded {
		if _, err := os.Stat(artifact.ArchivePath); err == nil {
			artifact.Retained = true
		}
		return
	}
	if err := bm.files.RemoveIfExists(artifact.ArchivePath); err != nil {
		bm.log.Warn("failed to remove archive", "path", artifact.ArchivePath, "error", err)
		artifact.Retained = true
	}
}

func withDefaults(opts Options) Options {
	if opts.Name == "" {
		opts.Name = DefaultName
	}
	if opts.Prefix == "" {
		opts.Prefix = DefaultPrefix
	}
	opts.Prefix = strings.Trim(opts.Prefix, "/")
	return opts
}

func writeZip(zipPath, filePath string) (err error) {
	src, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return err
	}

	out, err := os.Create(zipPath)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}()

	zw := zip.NewWriter(out)
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = filepath.Base(filePath)
	header.Method = zip.Deflate

	w, err := zw.CreateHeader(header)
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, src); err != nil {
		return err
	}
	return zw.Close()
}

// ExecRunner runs dump tools as child processes.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, dc *database.DumpCommand, outFile string) error {
	cmd := exec.CommandContext(ctx, dc.Program, dc.Args...)
	cmd.Env = append(os.Environ(), dc.Env...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if dc.Stdout {
		f, err := os.Create(outFile)
		if err != nil {
			return err
		}
		defer f.Close()
		cmd.Stdout = f
	}

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%w: %s", err, msg)
		}
		return err
	}
	return nil
}
