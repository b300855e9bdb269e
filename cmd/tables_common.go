package cmd

import (
	"context"
	"strings"

	"github.com/Rana718/dbkeeper/internal/app"
	"github.com/Rana718/dbkeeper/internal/apperrors"
	"github.com/Rana718/dbkeeper/internal/environment"
	"github.com/Rana718/dbkeeper/internal/maintenance"
	"github.com/Rana718/dbkeeper/internal/report"
	"github.com/fatih/color"
)

// mutation is one drop or truncate invocation as described by its command.
type mutation struct {
	op         string
	kind       maintenance.Kind
	action     environment.Action
	connection string
	exclusions maintenance.ExclusionSet
	prompt     string
}

// runMutation is the shared guard → confirm → catalog → exclude → run flow of
// the drop and truncate commands.
func runMutation(ctx context.Context, rt *app.Runtime, m mutation) error {
	if !rt.Guard.Permit(m.action) {
		return apperrors.New(apperrors.KindEnvironmentViolation, m.op, rt.Guard.Refusal(m.action)).
			WithDetail("environment", string(rt.Guard.Tag()))
	}

	say(rt, color.FgCyan, "🌍 Environment: %s", rt.Guard.Tag())
	say(rt, color.FgCyan, "🎯 Connection: %s", m.connection)

	ok, err := rt.Confirm(m.prompt)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.New(apperrors.KindConfirmationDeclined, m.op, "cancelled by operator")
	}

	conn, err := rt.Connection(ctx, m.connection)
	if err != nil {
		return err
	}

	say(rt, color.FgWhite, "🔍 Analyzing database structure...")
	plan, err := maintenance.BuildPlan(ctx, conn, m.kind, m.exclusions)
	if err != nil {
		return err
	}

	dbName, err := conn.DatabaseName(ctx)
	if err != nil {
		rt.Log.Warn("could not read database name", "connection", m.connection, "error", err)
	}

	if len(plan.Targets) == 0 {
		say(rt, color.FgYellow, "ℹ️  No tables to %s on %s (%d excluded).", m.kind, m.connection, len(plan.Excluded))
		return nil
	}
	say(rt, color.FgCyan, "📊 Found %d tables to %s.", len(plan.Targets), m.kind)

	out, err := rt.Runner().Run(ctx, conn, plan.Connection, plan.Targets, m.kind)
	if printErr := rt.Printer.Outcome(out, report.Meta{
		Environment: string(rt.Guard.Tag()),
		Database:    dbName,
		Excluded:    plan.Excluded,
	}); printErr != nil {
		rt.Log.Warn("failed to print summary", "error", printErr)
	}
	if err != nil {
		return err
	}
	if err := out.Err(); err != nil {
		return err
	}

	say(rt, color.FgGreen, "✅ All %d tables on %s have been %s.", out.Succeeded(), m.connection, strings.ToLower(m.kind.Past()))
	return nil
}

// say writes a status line to stderr so stdout carries only results.
func say(rt *app.Runtime, attr color.Attribute, format string, args ...interface{}) {
	color.New(attr).Fprintf(rt.ErrOut, format+"\n", args...)
}
