package maintenance

import (
	"context"
	"errors"
	"testing"

	"github.com/Rana718/dbkeeper/internal/apperrors"
	"github.com/Rana718/dbkeeper/internal/environment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type resetFixture struct {
	primary   *fakeTarget
	secondary *fakeTarget
	connector *fakeConnector
	migrator  *fakeMigrator
}

func newResetFixture() *resetFixture {
	primary := newFakeTarget("mysql", "users", "migrations", "orders")
	secondary := newFakeTarget("testing", "users", "migrations")
	return &resetFixture{
		primary:   primary,
		secondary: secondary,
		connector: &fakeConnector{targets: map[string]*fakeTarget{"mysql": primary, "testing": secondary}},
		migrator:  &fakeMigrator{fail: map[string]error{}},
	}
}

func (f *resetFixture) orchestrator(env string) *Orchestrator {
	return NewOrchestrator(environment.NewGuard(env), f.connector, NewRunner(nil, nil), f.migrator, nil)
}

func defaultResetOptions() ResetOptions {
	return ResetOptions{Primary: "mysql", Secondary: "testing", MigrationsTable: "migrations"}
}

func TestResetRefusedOutsideLocalTouchesNothing(t *testing.T) {
	for _, env := range []string{"production", "staging", "testing", "ci", "qa", ""} {
		t.Run(env, func(t *testing.T) {
			f := newResetFixture()

			res, err := f.orchestrator(env).Run(context.Background(), defaultResetOptions())
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperrors.ErrEnvironmentViolation))
			assert.Equal(t, RolledBack, res.State)
			assert.Equal(t, []State{Idle, RolledBack}, res.History)

			assert.Equal(t, 0, f.connector.calls)
			assert.Equal(t, 0, f.primary.listCalls+f.secondary.listCalls)
			assert.Equal(t, 0, f.primary.sessionOpen+f.secondary.sessionOpen)
			assert.Empty(t, f.migrator.applied)
		})
	}
}

func TestResetRefusalMessages(t *testing.T) {
	f := newResetFixture()

	_, err := f.orchestrator("prod").Run(context.Background(), defaultResetOptions())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "This command cannot be run in the production environment.")

	_, err = f.orchestrator("staging").Run(context.Background(), defaultResetOptions())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "This command only works in the local environment.")
}

func TestResetCommitsInOrder(t *testing.T) {
	f := newResetFixture()

	res, err := f.orchestrator("local").Run(context.Background(), defaultResetOptions())
	require.NoError(t, err)

	assert.Equal(t, Committed, res.State)
	assert.Equal(t, []State{
		Idle, GuardChecked, DroppedPrimary, DroppedSecondary,
		MigratedPrimary, MigratedSecondary, Committed,
	}, res.History)
	assert.Equal(t, []string{"mysql", "testing"}, f.migrator.applied)

	assert.Equal(t, []string{"drop:users", "drop:orders"}, f.primary.session.calls)
	assert.Equal(t, []string{"drop:users"}, f.secondary.session.calls)
	require.Len(t, res.Drops, 2)
	assert.Equal(t, 2, res.Drops[0].Succeeded())
	assert.Equal(t, 1, res.Drops[1].Succeeded())
}

func TestResetDropFailureRollsBack(t *testing.T) {
	f := newResetFixture()
	f.secondary.session.failTables["users"] = errors.New("metadata lock")

	res, err := f.orchestrator("development").Run(context.Background(), defaultResetOptions())
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrMutation))

	assert.Equal(t, RolledBack, res.State)
	assert.Equal(t, []State{Idle, GuardChecked, DroppedPrimary, RolledBack}, res.History)
	assert.Empty(t, f.migrator.applied, "no migration may run after a failed drop")

	enabled, _ := f.secondary.session.ForeignKeyChecksEnabled(context.Background())
	assert.True(t, enabled)
}

func TestResetMigrationFailureStopsBeforeSecondary(t *testing.T) {
	f := newResetFixture()
	f.migrator.fail["mysql"] = apperrors.New(apperrors.KindMigration, "migrate", "dirty database version 3")

	res, err := f.orchestrator("local").Run(context.Background(), defaultResetOptions())
	require.Error(t, err)
	assert.Equal(t, apperrors.KindMigration, apperrors.KindOf(err))

	assert.Equal(t, RolledBack, res.State)
	assert.Equal(t, []State{Idle, GuardChecked, DroppedPrimary, DroppedSecondary, RolledBack}, res.History)
	assert.Empty(t, f.migrator.applied)
}

func TestResetCatalogFailureRollsBack(t *testing.T) {
	f := newResetFixture()
	f.primary.catalogErr = apperrors.Wrap(apperrors.KindCatalogQuery, "catalog", errors.New("server has gone away"))

	res, err := f.orchestrator("local").Run(context.Background(), defaultResetOptions())
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrCatalogQuery))
	assert.Equal(t, []State{Idle, GuardChecked, RolledBack}, res.History)
	assert.Equal(t, 0, f.secondary.listCalls)
}

func TestResetDeclinedConfirmation(t *testing.T) {
	f := newResetFixture()
	opts := defaultResetOptions()
	opts.Confirm = func() (bool, error) { return false, nil }

	res, err := f.orchestrator("local").Run(context.Background(), opts)
	require.Error(t, err)
	assert.True(t, apperrors.IsDeclined(err))
	assert.Equal(t, GuardChecked, res.State)
	assert.Equal(t, 0, f.connector.calls)
}

func TestResetUnknownConnection(t *testing.T) {
	f := newResetFixture()
	opts := defaultResetOptions()
	opts.Secondary = "missing"

	res, err := f.orchestrator("local").Run(context.Background(), opts)
	require.Error(t, err)
	assert.Equal(t, RolledBack, res.State)
	assert.Equal(t, 0, f.primary.sessionOpen)
}

func TestStateTerminal(t *testing.T) {
	assert.True(t, Committed.Terminal())
	assert.True(t, RolledBack.Terminal())
	assert.False(t, MigratedSecondary.Terminal())
	assert.Equal(t, "DroppedSecondary", DroppedSecondary.String())
}
