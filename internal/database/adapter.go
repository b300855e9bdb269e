package database

import (
	"context"
	"database/sql"

	"github.com/Rana718/dbkeeper/internal/database/common"
)

// DatabaseAdapter is the per-engine contract used by the maintenance commands.
type DatabaseAdapter interface {
	Connect(ctx context.Context, url string) error
	Close() error
	Ping(ctx context.Context) error
	Provider() string
	DB() *sql.DB

	// Catalog
	GetCurrentDatabase(ctx context.Context) (string, error)
	GetAllTableNames(ctx context.Context) ([]string, error)

	// Database lifecycle
	DatabaseExists(ctx context.Context, name string) (bool, error)
	CreateDatabase(ctx context.Context, name string) error

	// Session pins one physical connection. Integrity-check mode is
	// per-session state on every supported engine.
	Session(ctx context.Context) (Session, error)

	// Collaborator hand-off
	MigrationDSN() (driver string, dsn string, err error)
	DumpCommand(outFile string) (*DumpCommand, error)
}

// Session is a pinned connection on which a mutation batch runs.
type Session = common.Session

// DumpCommand describes an external dump tool invocation.
type DumpCommand = common.DumpCommand
