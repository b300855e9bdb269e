package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Rana718/dbkeeper/internal/database/common"
)

type session struct {
	conn *sql.Conn
}

// PRAGMA foreign_keys is a no-op inside a transaction; sessions never open one.
func (s *session) DisableForeignKeyChecks(ctx context.Context) error {
	_, err := s.conn.ExecContext(ctx, "PRAGMA foreign_keys = OFF")
	return err
}

func (s *session) EnableForeignKeyChecks(ctx context.Context) error {
	_, err := s.conn.ExecContext(ctx, "PRAGMA foreign_keys = ON")
	return err
}

func (s *session) ForeignKeyChecksEnabled(ctx context.Context) (bool, error) {
	var enabled int
	if err := s.conn.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&enabled); err != nil {
		return false, err
	}
	return enabled == 1, nil
}

func (s *session) DropTable(ctx context.Context, tableName string) error {
	_, err := s.conn.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", quoteIdent(tableName)))
	return err
}

// SQLite has no TRUNCATE; an unqualified DELETE uses the truncate optimization.
func (s *session) TruncateTable(ctx context.Context, tableName string) error {
	_, err := s.conn.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", quoteIdent(tableName)))
	return err
}

func (s *session) Close() error {
	return s.conn.Close()
}

func quoteIdent(name string) string {
	return common.QuoteIdent(name, `"`)
}
