package migrator

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Rana718/dbkeeper/internal/apperrors"
	"github.com/Rana718/dbkeeper/internal/logger"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	mysqlmigrate "github.com/golang-migrate/migrate/v4/database/mysql"
	postgresmigrate "github.com/golang-migrate/migrate/v4/database/postgres"
	sqlite3migrate "github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
)

// Source is a connection migrations can be applied to.
type Source interface {
	Name() string
	MigrationDSN() (driver string, dsn string, err error)
}

// Migrator applies the project's migration files to a connection.
type Migrator struct {
	migrationsPath  string
	migrationsTable string
	log             *logger.Logger
}

func NewMigrator(migrationsPath, migrationsTable string, log *logger.Logger) *Migrator {
	if log == nil {
		log = logger.Nop()
	}
	return &Migrator{
		migrationsPath:  migrationsPath,
		migrationsTable: migrationsTable,
		log:             log,
	}
}

// Apply runs every migration from the first one. The recorded version is
// reset before migrating up, so a connection whose tables were dropped while
// the bookkeeping table survived is rebuilt completely.
func (m *Migrator) Apply(ctx context.Context, src Source) error {
	op := "migrate " + src.Name()

	sourceURL, err := m.sourceURL()
	if err != nil {
		return apperrors.Wrap(apperrors.KindMigration, op, err)
	}

	driverName, dsn, err := src.MigrationDSN()
	if err != nil {
		return apperrors.Wrap(apperrors.KindMigration, op, err)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return apperrors.Wrapf(apperrors.KindMigration, op, err, "failed to open database for migrations")
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return apperrors.Wrapf(apperrors.KindMigration, op, err, "failed to reach database for migrations")
	}

	driver, err := m.databaseDriver(driverName, db)
	if err != nil {
		return apperrors.Wrapf(apperrors.KindMigration, op, err, "failed to create %s migration driver", driverName)
	}

	mg, err := migrate.NewWithDatabaseInstance(sourceURL, driverName, driver)
	if err != nil {
		return apperrors.Wrapf(apperrors.KindMigration, op, err, "failed to create migration instance")
	}
	defer mg.Close()
	mg.Log = &migrateLogger{log: m.log.With("connection", src.Name())}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			mg.GracefulStop <- true
		case <-done:
		}
	}()

	if err := mg.Force(database.NilVersion); err != nil {
		return apperrors.Wrapf(apperrors.KindMigration, op, err, "failed to reset migration version")
	}

	if err := mg.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return apperrors.Wrapf(apperrors.KindMigration, op, err, "failed to run migrations")
	}

	version, dirty, err := mg.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return apperrors.Wrapf(apperrors.KindMigration, op, err, "failed to read migration version")
	}
	m.log.Info("migrations applied", "connection", src.Name(), "version", version, "dirty", dirty)
	return nil
}

func (m *Migrator) sourceURL() (string, error) {
	abs, err := filepath.Abs(m.migrationsPath)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("migrations directory %s: %w", m.migrationsPath, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("migrations path %s is not a directory", m.migrationsPath)
	}
	return "file://" + filepath.ToSlash(abs), nil
}

func (m *Migrator) databaseDriver(driverName string, db *sql.DB) (database.Driver, error) {
	switch driverName {
	case "mysql":
		return mysqlmigrate.WithInstance(db, &mysqlmigrate.Config{MigrationsTable: m.migrationsTable})
	case "postgres":
		return postgresmigrate.WithInstance(db, &postgresmigrate.Config{MigrationsTable: m.migrationsTable})
	case "sqlite3":
		return sqlite3migrate.WithInstance(db, &sqlite3migrate.Config{MigrationsTable: m.migrationsTable})
	default:
		return nil, fmt.Errorf("unsupported migration driver: %s", driverName)
	}
}

type migrateLogger struct {
	log *logger.Logger
}

func (l *migrateLogger) Printf(format string, v ...interface{}) {
	l.log.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l *migrateLogger) Verbose() bool {
	return false
}
