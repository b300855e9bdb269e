package common

import (
	"context"
	"database/sql"
	"strings"
)

// Session is a pinned connection on which a mutation batch runs.
type Session interface {
	DisableForeignKeyChecks(ctx context.Context) error
	EnableForeignKeyChecks(ctx context.Context) error
	ForeignKeyChecksEnabled(ctx context.Context) (bool, error)
	DropTable(ctx context.Context, tableName string) error
	TruncateTable(ctx context.Context, tableName string) error
	Close() error
}

// DumpCommand describes an external dump tool invocation. When Stdout is set
// the tool writes the dump to standard output and the caller redirects it
// to the dump file.
type DumpCommand struct {
	Program string
	Args    []string
	Env     []string
	Stdout  bool
}

// ScanNames reads a single-column result into a flat name list, whatever the
// engine calls the column.
func ScanNames(rows *sql.Rows) ([]string, error) {
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// QuoteIdent wraps an identifier in the given quote rune, doubling any
// embedded quote characters.
func QuoteIdent(name string, quote string) string {
	return quote + strings.ReplaceAll(name, quote, quote+quote) + quote
}
