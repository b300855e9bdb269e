package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Rana718/dbkeeper/internal/apperrors"
	"github.com/Rana718/dbkeeper/internal/config"
	"github.com/Rana718/dbkeeper/internal/database"
)

const pingTimeout = 10 * time.Second

// Connection is a named, connected database target. It is immutable for
// the lifetime of a command invocation.
type Connection struct {
	name    string
	adapter database.DatabaseAdapter
}

// NewConnection wraps an already connected adapter.
func NewConnection(name string, adapter database.DatabaseAdapter) *Connection {
	return &Connection{name: name, adapter: adapter}
}

// Open resolves the named connection from cfg, connects and pings it.
func Open(ctx context.Context, cfg *config.Config, name string) (*Connection, error) {
	settings, err := cfg.Connection(name)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindConfiguration, "connect", err)
	}

	dbURL, err := cfg.GetDatabaseURL(name)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindConfiguration, "connect", err)
	}

	adapter, err := database.NewAdapter(settings.Driver)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindConfiguration, "connect", err)
	}

	if err := adapter.Connect(ctx, dbURL); err != nil {
		return nil, apperrors.Wrapf(apperrors.KindConnection, "connect", err, "connection %s", name)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := adapter.Ping(pingCtx); err != nil {
		adapter.Close()
		return nil, apperrors.Wrapf(apperrors.KindConnection, "connect", err, "failed to ping connection %s", name)
	}

	return NewConnection(name, adapter), nil
}

func (c *Connection) Name() string {
	return c.name
}

func (c *Connection) Provider() string {
	return c.adapter.Provider()
}

func (c *Connection) Adapter() database.DatabaseAdapter {
	return c.adapter
}

// ListTables returns the live catalog as a flat name list.
func (c *Connection) ListTables(ctx context.Context) ([]string, error) {
	tables, err := c.adapter.GetAllTableNames(ctx)
	if err != nil {
		return nil, apperrors.Wrapf(apperrors.KindCatalogQuery, "catalog", err, "listing tables on %s", c.name)
	}
	return tables, nil
}

// DatabaseName reports the database the connection points at.
func (c *Connection) DatabaseName(ctx context.Context) (string, error) {
	name, err := c.adapter.GetCurrentDatabase(ctx)
	if err != nil {
		return "", apperrors.Wrapf(apperrors.KindCatalogQuery, "catalog", err, "reading database name on %s", c.name)
	}
	return name, nil
}

func (c *Connection) DatabaseExists(ctx context.Context, name string) (bool, error) {
	exists, err := c.adapter.DatabaseExists(ctx, name)
	if err != nil {
		return false, apperrors.Wrapf(apperrors.KindCatalogQuery, "catalog", err, "checking database %s on %s", name, c.name)
	}
	return exists, nil
}

// CreateDatabase issues the engine's create-database statement. The name is
// quoted but not validated; callers must not pass untrusted input.
func (c *Connection) CreateDatabase(ctx context.Context, name string) error {
	if err := c.adapter.CreateDatabase(ctx, name); err != nil {
		return apperrors.Wrapf(apperrors.KindCreation, "create-database", err, "creating database %s", name).
			WithDetail("connection", c.name)
	}
	return nil
}

func (c *Connection) Session(ctx context.Context) (database.Session, error) {
	sess, err := c.adapter.Session(ctx)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindConnection, "session", err)
	}
	return sess, nil
}

// BeginTx opens a transaction on the connection's pool.
func (c *Connection) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return c.adapter.DB().BeginTx(ctx, nil)
}

func (c *Connection) MigrationDSN() (string, string, error) {
	return c.adapter.MigrationDSN()
}

func (c *Connection) DumpCommand(outFile string) (*database.DumpCommand, error) {
	return c.adapter.DumpCommand(outFile)
}

func (c *Connection) Close() error {
	return c.adapter.Close()
}

func (c *Connection) String() string {
	return fmt.Sprintf("%s (%s)", c.name, c.adapter.Provider())
}
