// Package app carries the per-invocation state shared by commands.
package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/Rana718/dbkeeper/internal/config"
	"github.com/Rana718/dbkeeper/internal/db"
	"github.com/Rana718/dbkeeper/internal/environment"
	"github.com/Rana718/dbkeeper/internal/logger"
	"github.com/Rana718/dbkeeper/internal/maintenance"
	"github.com/Rana718/dbkeeper/internal/migrator"
	"github.com/Rana718/dbkeeper/internal/progress"
	"github.com/Rana718/dbkeeper/internal/report"
	"github.com/Rana718/dbkeeper/internal/utils"
)

// Runtime is built once per command invocation and passed explicitly.
type Runtime struct {
	Config      *config.Config
	Guard       *environment.Guard
	Log         *logger.Logger
	Out         io.Writer
	ErrOut      io.Writer
	Force       bool
	Printer     *report.Printer
	Connections *db.Registry

	input *utils.InputUtils
}

type Options struct {
	// Environment overrides the configured environment when set.
	Environment string
	Force       bool
	Verbose     bool
	Output      report.Format
	In          io.Reader
	Out         io.Writer
	ErrOut      io.Writer
}

func New(cfg *config.Config, opts Options) *Runtime {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.ErrOut == nil {
		opts.ErrOut = os.Stderr
	}
	if opts.Output == "" {
		opts.Output = report.FormatTable
	}

	env := cfg.Environment
	if opts.Environment != "" {
		env = opts.Environment
	}

	return &Runtime{
		Config:      cfg,
		Guard:       environment.NewGuard(env),
		Log:         logger.New(opts.Verbose),
		Out:         opts.Out,
		ErrOut:      opts.ErrOut,
		Force:       opts.Force,
		Printer:     report.NewPrinter(opts.Out, opts.Output),
		Connections: db.NewRegistry(cfg),
		input:       utils.NewInputUtils(opts.In, opts.ErrOut),
	}
}

// Target opens the named connection. It satisfies maintenance.Connector.
func (r *Runtime) Target(ctx context.Context, name string) (maintenance.Target, error) {
	conn, err := r.Connections.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

func (r *Runtime) Connection(ctx context.Context, name string) (*db.Connection, error) {
	return r.Connections.Get(ctx, name)
}

// Confirm honors --force and otherwise prompts on stderr.
func (r *Runtime) Confirm(prompt string) (bool, error) {
	return r.input.Confirm(prompt, r.Force)
}

// Progress renders to stderr so YAML on stdout stays parseable.
func (r *Runtime) Progress() progress.Reporter {
	return progress.New(r.ErrOut)
}

func (r *Runtime) Migrator() *migrator.Migrator {
	return migrator.NewMigrator(r.Config.Migrations.Path, r.Config.Migrations.Table, r.Log)
}

func (r *Runtime) Runner() *maintenance.Runner {
	return maintenance.NewRunner(r.Progress(), r.Log)
}

// Close releases every opened connection and flushes the logger.
func (r *Runtime) Close() error {
	err := r.Connections.Close()
	r.Log.Sync()
	if err != nil {
		return fmt.Errorf("failed to close connections: %w", err)
	}
	return nil
}
