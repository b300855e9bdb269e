package mysql

import (
	"context"
	"database/sql"
	"fmt"
)

type session struct {
	conn *sql.Conn
}

func (s *session) DisableForeignKeyChecks(ctx context.Context) error {
	_, err := s.conn.ExecContext(ctx, "SET FOREIGN_KEY_CHECKS = 0")
	return err
}

func (s *session) EnableForeignKeyChecks(ctx context.Context) error {
	_, err := s.conn.ExecContext(ctx, "SET FOREIGN_KEY_CHECKS = 1")
	return err
}

func (s *session) ForeignKeyChecksEnabled(ctx context.Context) (bool, error) {
	var enabled int
	if err := s.conn.QueryRowContext(ctx, "SELECT @@SESSION.foreign_key_checks").Scan(&enabled); err != nil {
		return false, err
	}
	return enabled == 1, nil
}

func (s *session) DropTable(ctx context.Context, tableName string) error {
	_, err := s.conn.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", quoteIdent(tableName)))
	return err
}

func (s *session) TruncateTable(ctx context.Context, tableName string) error {
	_, err := s.conn.ExecContext(ctx, fmt.Sprintf("TRUNCATE TABLE %s", quoteIdent(tableName)))
	return err
}

func (s *session) Close() error {
	return s.conn.Close()
}
