package maintenance

import (
	"context"
	"errors"
	"sync"

	"github.com/Rana718/dbkeeper/internal/database"
	"github.com/Rana718/dbkeeper/internal/migrator"
)

type fakeSession struct {
	mu           sync.Mutex
	checksOn     bool
	toggles      int
	restores     int
	failTables   map[string]error
	failDisable  error
	failRestore  error
	panicOnTable string
	onMutate     func(table string)
	calls        []string
	closed       bool
}

func newFakeSession() *fakeSession {
	return &fakeSession{checksOn: true, failTables: map[string]error{}}
}

func (s *fakeSession) DisableForeignKeyChecks(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.toggles++
	if s.failDisable != nil {
		return s.failDisable
	}
	s.checksOn = false
	return nil
}

func (s *fakeSession) EnableForeignKeyChecks(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.toggles++
	s.restores++
	if s.failRestore != nil {
		return s.failRestore
	}
	s.checksOn = true
	return nil
}

func (s *fakeSession) ForeignKeyChecksEnabled(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.checksOn, nil
}

func (s *fakeSession) mutate(op, table string) error {
	if s.onMutate != nil {
		s.onMutate(table)
	}
	if table == s.panicOnTable {
		panic("driver exploded on " + table)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, op+":"+table)
	return s.failTables[table]
}

func (s *fakeSession) DropTable(ctx context.Context, table string) error {
	return s.mutate("drop", table)
}

func (s *fakeSession) TruncateTable(ctx context.Context, table string) error {
	return s.mutate("truncate", table)
}

func (s *fakeSession) Close() error {
	s.closed = true
	return nil
}

type fakeTarget struct {
	name        string
	tables      []string
	catalogErr  error
	session     *fakeSession
	sessionErr  error
	listCalls   int
	sessionOpen int
}

func newFakeTarget(name string, tables ...string) *fakeTarget {
	return &fakeTarget{name: name, tables: tables, session: newFakeSession()}
}

func (t *fakeTarget) Name() string { return t.name }

func (t *fakeTarget) ListTables(ctx context.Context) ([]string, error) {
	t.listCalls++
	if t.catalogErr != nil {
		return nil, t.catalogErr
	}
	return append([]string(nil), t.tables...), nil
}

func (t *fakeTarget) Session(ctx context.Context) (database.Session, error) {
	t.sessionOpen++
	if t.sessionErr != nil {
		return nil, t.sessionErr
	}
	return t.session, nil
}

func (t *fakeTarget) MigrationDSN() (string, string, error) {
	return "fake", t.name, nil
}

type fakeConnector struct {
	targets map[string]*fakeTarget
	calls   int
}

func (c *fakeConnector) Target(ctx context.Context, name string) (Target, error) {
	c.calls++
	t, ok := c.targets[name]
	if !ok {
		return nil, errors.New("unknown connection " + name)
	}
	return t, nil
}

type fakeMigrator struct {
	applied []string
	fail    map[string]error
}

func (m *fakeMigrator) Apply(ctx context.Context, src migrator.Source) error {
	if err := m.fail[src.Name()]; err != nil {
		return err
	}
	m.applied = append(m.applied, src.Name())
	return nil
}
