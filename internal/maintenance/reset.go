package maintenance

import (
	"context"
	"database/sql"

	"github.com/Rana718/dbkeeper/internal/apperrors"
	"github.com/Rana718/dbkeeper/internal/environment"
	"github.com/Rana718/dbkeeper/internal/logger"
	"github.com/Rana718/dbkeeper/internal/migrator"
)

// State is a step of the development reset.
type State int

const (
	Idle State = iota
	GuardChecked
	DroppedPrimary
	DroppedSecondary
	MigratedPrimary
	MigratedSecondary
	Committed
	RolledBack
)

var stateNames = map[State]string{
	Idle:              "Idle",
	GuardChecked:      "GuardChecked",
	DroppedPrimary:    "DroppedPrimary",
	DroppedSecondary:  "DroppedSecondary",
	MigratedPrimary:   "MigratedPrimary",
	MigratedSecondary: "MigratedSecondary",
	Committed:         "Committed",
	RolledBack:        "RolledBack",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "Unknown"
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	return s == Committed || s == RolledBack
}

// Connector resolves named connections.
type Connector interface {
	Target(ctx context.Context, name string) (Target, error)
}

// Migrator applies migrations to a connection.
type Migrator interface {
	Apply(ctx context.Context, src migrator.Source) error
}

type txBeginner interface {
	BeginTx(ctx context.Context) (*sql.Tx, error)
}

type ResetOptions struct {
	Primary         string
	Secondary       string
	MigrationsTable string
	// Confirm runs after the guard passes and before any connection is used.
	Confirm func() (bool, error)
}

type ResetResult struct {
	State   State
	History []State
	Drops   []*Outcome
}

func (r *ResetResult) enter(s State) {
	r.State = s
	r.History = append(r.History, s)
}

// Orchestrator drops and re-migrates the primary and secondary connections.
type Orchestrator struct {
	guard     *environment.Guard
	connector Connector
	runner    *Runner
	migrator  Migrator
	log       *logger.Logger
}

func NewOrchestrator(guard *environment.Guard, connector Connector, runner *Runner, m Migrator, log *logger.Logger) *Orchestrator {
	if log == nil {
		log = logger.Nop()
	}
	return &Orchestrator{guard: guard, connector: connector, runner: runner, migrator: m, log: log}
}

// Run walks Idle → GuardChecked → DroppedPrimary → DroppedSecondary →
// MigratedPrimary → MigratedSecondary → Committed. The first failing step
// moves the result to RolledBack and no later step runs. Schema changes
// already made are not undone on most engines.
func (o *Orchestrator) Run(ctx context.Context, opts ResetOptions) (*ResetResult, error) {
	res := &ResetResult{}
	res.enter(Idle)

	if !o.guard.Permit(environment.ActionReset) {
		res.enter(RolledBack)
		return res, apperrors.New(apperrors.KindEnvironmentViolation, "reset", o.guard.Refusal(environment.ActionReset)).
			WithDetail("environment", string(o.guard.Tag()))
	}
	res.enter(GuardChecked)

	if opts.Confirm != nil {
		ok, err := opts.Confirm()
		if err != nil {
			res.enter(RolledBack)
			return res, err
		}
		if !ok {
			return res, apperrors.New(apperrors.KindConfirmationDeclined, "reset", "reset cancelled by operator")
		}
	}

	primary, err := o.connector.Target(ctx, opts.Primary)
	if err != nil {
		res.enter(RolledBack)
		return res, err
	}
	secondary, err := o.connector.Target(ctx, opts.Secondary)
	if err != nil {
		res.enter(RolledBack)
		return res, err
	}

	tx := o.beginSignal(ctx, primary)

	steps := []struct {
		next State
		run  func() error
	}{
		{DroppedPrimary, func() error { return o.drop(ctx, res, primary, opts.MigrationsTable) }},
		{DroppedSecondary, func() error { return o.drop(ctx, res, secondary, opts.MigrationsTable) }},
		{MigratedPrimary, func() error { return o.migrator.Apply(ctx, primary) }},
		{MigratedSecondary, func() error { return o.migrator.Apply(ctx, secondary) }},
	}

	for _, step := range steps {
		if err := step.run(); err != nil {
			o.rollback(tx, res, err)
			return res, err
		}
		res.enter(step.next)
		o.log.Info("reset step completed", "state", step.next.String())
	}

	if tx != nil {
		if err := tx.Commit(); err != nil {
			o.log.Warn("commit of reset transaction failed", "error", err)
		}
	}
	res.enter(Committed)
	return res, nil
}

func (o *Orchestrator) drop(ctx context.Context, res *ResetResult, target Target, migrationsTable string) error {
	plan, err := BuildPlan(ctx, target, Drop, Resolve(nil, DropDefaults(migrationsTable)))
	if err != nil {
		return err
	}

	outcome, err := o.runner.Run(ctx, target, plan.Connection, plan.Targets, Drop)
	res.Drops = append(res.Drops, outcome)
	if err != nil {
		return err
	}
	return outcome.Err()
}

// beginSignal opens a transaction on the primary connection when it supports
// one. It only carries the rollback signal; DDL is auto-committed by MySQL.
func (o *Orchestrator) beginSignal(ctx context.Context, primary Target) *sql.Tx {
	b, ok := primary.(txBeginner)
	if !ok {
		return nil
	}
	tx, err := b.BeginTx(ctx)
	if err != nil {
		o.log.Warn("could not open reset transaction, continuing without rollback signal", "error", err)
		return nil
	}
	return tx
}

func (o *Orchestrator) rollback(tx *sql.Tx, res *ResetResult, cause error) {
	failedAt := res.State
	res.enter(RolledBack)

	if tx != nil {
		if err := tx.Rollback(); err != nil {
			o.log.Warn("rollback signal failed", "error", err)
		}
	}
	o.log.Warn("reset rolled back; structural changes already applied are not undone",
		"last_completed", failedAt.String(), "error", cause)
}
