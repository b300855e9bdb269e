package maintenance

import (
	"context"
	"errors"
	"fmt"

	"github.com/Rana718/dbkeeper/internal/apperrors"
	"github.com/Rana718/dbkeeper/internal/database"
	"github.com/Rana718/dbkeeper/internal/logger"
	"github.com/Rana718/dbkeeper/internal/progress"
)

// Catalog lists the live tables of a connection.
type Catalog interface {
	ListTables(ctx context.Context) ([]string, error)
}

// SessionOpener pins a session for a mutation batch.
type SessionOpener interface {
	Session(ctx context.Context) (database.Session, error)
}

// Target is a named connection the maintenance commands operate on.
type Target interface {
	Name() string
	Catalog
	SessionOpener
	MigrationDSN() (driver string, dsn string, err error)
}

// Plan is the resolved work for one connection.
type Plan struct {
	Connection string
	Kind       Kind
	Catalog    []string
	Excluded   []string
	Targets    []string
}

// BuildPlan queries the catalog and applies exclusions.
func BuildPlan(ctx context.Context, target Target, kind Kind, exclusions ExclusionSet) (*Plan, error) {
	catalog, err := target.ListTables(ctx)
	if err != nil {
		return nil, err
	}

	plan := &Plan{
		Connection: target.Name(),
		Kind:       kind,
		Catalog:    catalog,
		Targets:    Targets(catalog, exclusions),
	}
	for _, table := range catalog {
		if exclusions.Contains(table) {
			plan.Excluded = append(plan.Excluded, table)
		}
	}
	return plan, nil
}

// Runner applies one mutation kind to a target set inside an integrity-check
// bracket.
type Runner struct {
	progress progress.Reporter
	log      *logger.Logger
}

func NewRunner(reporter progress.Reporter, log *logger.Logger) *Runner {
	if reporter == nil {
		reporter = progress.Nop{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Runner{progress: reporter, log: log}
}

// Run mutates every table in tables, one at a time. Per-table failures are
// recorded and do not stop the batch. Integrity checks are restored on every
// exit path once suspended, using a context that ignores cancellation. An
// empty table list returns immediately without touching the session.
func (r *Runner) Run(ctx context.Context, target SessionOpener, connection string, tables []string, kind Kind) (out *Outcome, err error) {
	out = &Outcome{Kind: kind, Connection: connection, Planned: len(tables)}
	if len(tables) == 0 {
		return out, nil
	}

	sess, err := target.Session(ctx)
	if err != nil {
		return out, err
	}
	defer sess.Close()

	if err := sess.DisableForeignKeyChecks(ctx); err != nil {
		return out, apperrors.Wrapf(apperrors.KindMutation, kind.String(), err, "suspending integrity checks on %s", connection)
	}
	out.Bracketed = true
	r.log.Debug("integrity checks suspended", "connection", connection, "kind", kind.String())

	defer func() {
		restoreErr := sess.EnableForeignKeyChecks(context.WithoutCancel(ctx))
		if restoreErr == nil {
			r.log.Debug("integrity checks restored", "connection", connection)
			return
		}
		r.log.Error("failed to restore integrity checks", "connection", connection, "error", restoreErr)
		wrapped := apperrors.Wrapf(apperrors.KindMutation, kind.String(), restoreErr, "restoring integrity checks on %s", connection)
		if err == nil {
			err = wrapped
		} else {
			err = errors.Join(err, wrapped)
		}
	}()

	r.progress.Start(len(tables), fmt.Sprintf("%s %d tables on %s", kind.Gerund(), len(tables), connection))
	defer r.progress.Finish()

	for _, table := range tables {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return out, apperrors.Wrapf(apperrors.KindMutation, kind.String(), ctxErr,
				"aborted after %d of %d tables", len(out.Results), len(tables))
		}

		mutErr := r.mutate(ctx, sess, table, kind)
		out.record(table, mutErr)

		if mutErr != nil {
			r.log.Warn("table mutation failed", "connection", connection, "table", table, "kind", kind.String(), "error", mutErr)
			r.progress.Advance(fmt.Sprintf("✗ Failed to %s table: %s (%v)", kind, table, mutErr))
			continue
		}
		r.progress.Advance(fmt.Sprintf("✓ %s table: %s", kind.Past(), table))
	}

	return out, nil
}

func (r *Runner) mutate(ctx context.Context, sess database.Session, table string, kind Kind) error {
	switch kind {
	case Truncate:
		return sess.TruncateTable(ctx, table)
	default:
		return sess.DropTable(ctx, table)
	}
}
