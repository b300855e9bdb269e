// Package testsetup prepares the test database: create it if missing, rebuild
// its schema from migrations and run auth bootstrap hooks.
package testsetup

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/Rana718/dbkeeper/internal/apperrors"
	"github.com/Rana718/dbkeeper/internal/environment"
	"github.com/Rana718/dbkeeper/internal/logger"
	"github.com/Rana718/dbkeeper/internal/maintenance"
	"github.com/Rana718/dbkeeper/internal/progress"
)

// Steps is the fixed progress total: database, drop, migrate, hooks.
const Steps = 4

// DatabaseAdmin creates databases on a server-level connection.
type DatabaseAdmin interface {
	DatabaseExists(ctx context.Context, name string) (bool, error)
	CreateDatabase(ctx context.Context, name string) error
}

// HookRunner runs one bootstrap command line.
type HookRunner interface {
	Run(ctx context.Context, command string) error
}

type Options struct {
	Database   string
	Connection string
	// MigrationsTable survives the drop pass; defaults to "migrations".
	MigrationsTable string
	AuthCommands    []string
}

type Result struct {
	Database string
	Created  bool
	Dropped  *maintenance.Outcome
	Hooks    int
}

type Setup struct {
	guard     *environment.Guard
	admin     DatabaseAdmin
	connector maintenance.Connector
	migrator  maintenance.Migrator
	hooks     HookRunner
	progress  progress.Reporter
	log       *logger.Logger
}

func New(guard *environment.Guard, admin DatabaseAdmin, connector maintenance.Connector, m maintenance.Migrator, hooks HookRunner, reporter progress.Reporter, log *logger.Logger) *Setup {
	if reporter == nil {
		reporter = progress.Nop{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Setup{guard: guard, admin: admin, connector: connector, migrator: m, hooks: hooks, progress: reporter, log: log}
}

// Run prepares the test environment. The testing connection is opened only
// after its database is known to exist. Every table but the migrations table
// is dropped before migrations are re-applied from version zero.
func (s *Setup) Run(ctx context.Context, opts Options) (*Result, error) {
	if !s.guard.Permit(environment.ActionDrop) {
		return nil, apperrors.New(apperrors.KindEnvironmentViolation, "test-setup", s.guard.Refusal(environment.ActionDrop)).
			WithDetail("environment", string(s.guard.Tag()))
	}

	res := &Result{Database: opts.Database}
	s.progress.Start(Steps, "Setting up test environment")
	defer s.progress.Finish()

	exists, err := s.admin.DatabaseExists(ctx, opts.Database)
	if err != nil {
		return res, err
	}
	if exists {
		s.progress.Advance("Test database already exists.")
	} else {
		if err := s.admin.CreateDatabase(ctx, opts.Database); err != nil {
			return res, err
		}
		res.Created = true
		s.progress.Advance("Created test database " + opts.Database)
	}

	target, err := s.connector.Target(ctx, opts.Connection)
	if err != nil {
		return res, err
	}

	migrationsTable := opts.MigrationsTable
	if migrationsTable == "" {
		migrationsTable = "migrations"
	}
	plan, err := maintenance.BuildPlan(ctx, target, maintenance.Drop, maintenance.Resolve(nil, maintenance.DropDefaults(migrationsTable)))
	if err != nil {
		return res, err
	}
	runner := maintenance.NewRunner(progress.Nop{}, s.log)
	res.Dropped, err = runner.Run(ctx, target, plan.Connection, plan.Targets, maintenance.Drop)
	if err != nil {
		return res, err
	}
	if err := res.Dropped.Err(); err != nil {
		return res, err
	}
	s.progress.Advance(fmt.Sprintf("Dropped %d tables on %s", res.Dropped.Succeeded(), plan.Connection))

	if err := s.migrator.Apply(ctx, target); err != nil {
		return res, err
	}
	s.progress.Advance("Migrations applied on " + plan.Connection)

	for _, command := range opts.AuthCommands {
		command = strings.TrimSpace(command)
		if command == "" {
			continue
		}
		s.log.Info("running auth bootstrap hook", "command", command)
		if err := s.hooks.Run(ctx, command); err != nil {
			return res, apperrors.Wrapf(apperrors.KindConfiguration, "test-setup", err, "hook %q failed", command)
		}
		res.Hooks++
	}
	if res.Hooks == 0 {
		s.progress.Advance("No auth bootstrap hooks configured")
	} else {
		s.progress.Advance(fmt.Sprintf("Ran %d auth bootstrap hooks", res.Hooks))
	}

	return res, nil
}

// ShellHooks runs hooks through sh -c with the process environment.
type ShellHooks struct {
	Stdout io.Writer
	Stderr io.Writer
}

func (h ShellHooks) Run(ctx context.Context, command string) error {
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Env = os.Environ()
	cmd.Stdout = h.Stdout
	cmd.Stderr = h.Stderr
	return cmd.Run()
}
