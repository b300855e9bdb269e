package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
)

// session suspends trigger-enforced foreign keys through
// session_replication_role, which needs superuser or replication privileges.
type session struct {
	conn *sql.Conn
}

func (s *session) DisableForeignKeyChecks(ctx context.Context) error {
	_, err := s.conn.ExecContext(ctx, "SET session_replication_role = 'replica'")
	return err
}

func (s *session) EnableForeignKeyChecks(ctx context.Context) error {
	_, err := s.conn.ExecContext(ctx, "SET session_replication_role = 'origin'")
	return err
}

func (s *session) ForeignKeyChecksEnabled(ctx context.Context) (bool, error) {
	var role string
	if err := s.conn.QueryRowContext(ctx, "SHOW session_replication_role").Scan(&role); err != nil {
		return false, err
	}
	return role != "replica", nil
}

func (s *session) DropTable(ctx context.Context, tableName string) error {
	_, err := s.conn.ExecContext(ctx, dropStatement(tableName))
	return err
}

func (s *session) TruncateTable(ctx context.Context, tableName string) error {
	_, err := s.conn.ExecContext(ctx, truncateStatement(tableName))
	return err
}

func dropStatement(tableName string) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", pq.QuoteIdentifier(tableName))
}

// truncateStatement empties one table only. TRUNCATE ... CASCADE would also
// empty every table referencing it, excluded or not; with the replica role
// set, DELETE skips the foreign key triggers instead.
func truncateStatement(tableName string) string {
	return fmt.Sprintf("DELETE FROM %s", pq.QuoteIdentifier(tableName))
}

func (s *session) Close() error {
	return s.conn.Close()
}
