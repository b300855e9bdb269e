package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/Rana718/dbkeeper/internal/database/common"
	_ "github.com/mattn/go-sqlite3"
)

type Adapter struct {
	db   *sql.DB
	qb   squirrel.StatementBuilderType
	path string
}

func New() *Adapter {
	return &Adapter{
		qb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}
}

// filePath strips the scheme and query string from a sqlite URL.
func filePath(url string) string {
	path := strings.TrimPrefix(url, "sqlite://")
	path = strings.TrimPrefix(path, "file:")
	if idx := strings.Index(path, "?"); idx >= 0 {
		path = path[:idx]
	}
	return path
}

func (s *Adapter) Connect(ctx context.Context, url string) error {
	dsn := strings.TrimPrefix(url, "sqlite://")
	if !strings.Contains(dsn, "?") {
		dsn += "?_journal_mode=WAL&_foreign_keys=on"
	}
	s.path = filePath(url)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return fmt.Errorf("failed to open SQLite connection: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(5 * time.Minute)

	s.db = db
	return nil
}

func (s *Adapter) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Adapter) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Adapter) Provider() string {
	return "sqlite"
}

func (s *Adapter) DB() *sql.DB {
	return s.db
}

func (s *Adapter) GetCurrentDatabase(ctx context.Context) (string, error) {
	return s.path, nil
}

func (s *Adapter) GetAllTableNames(ctx context.Context) ([]string, error) {
	query, args, err := s.qb.
		Select("name").
		From("sqlite_master").
		Where(squirrel.Eq{"type": "table"}).
		Where("name NOT GLOB ?", "sqlite_*").
		OrderBy("name").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return common.ScanNames(rows)
}

// DatabaseExists treats name as a database file path.
func (s *Adapter) DatabaseExists(ctx context.Context, name string) (bool, error) {
	_, err := os.Stat(name)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// CreateDatabase creates an empty database file. An existing file is an error.
func (s *Adapter) CreateDatabase(ctx context.Context, name string) error {
	f, err := os.OpenFile(name, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		if os.IsExist(err) {
			return fmt.Errorf("database %s already exists: %w", name, err)
		}
		return err
	}
	return f.Close()
}

func (s *Adapter) Session(ctx context.Context) (common.Session, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire SQLite session: %w", err)
	}
	return &session{conn: conn}, nil
}

func (s *Adapter) MigrationDSN() (string, string, error) {
	if s.path == "" {
		return "", "", fmt.Errorf("sqlite adapter is not connected")
	}
	return "sqlite3", s.path + "?_foreign_keys=on", nil
}

func (s *Adapter) DumpCommand(outFile string) (*common.DumpCommand, error) {
	if s.path == "" {
		return nil, fmt.Errorf("sqlite adapter is not connected")
	}
	return &common.DumpCommand{
		Program: "sqlite3",
		Args:    []string{s.path, ".dump"},
		Stdout:  true,
	}, nil
}
