package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/Rana718/dbkeeper/internal/database/common"
	mysqldriver "github.com/go-sql-driver/mysql"
)

type Adapter struct {
	db  *sql.DB
	qb  squirrel.StatementBuilderType
	cfg *mysqldriver.Config
}

func New() *Adapter {
	return &Adapter{
		qb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}
}

// toDSN converts mysql:// URLs into the driver's DSN form. Plain DSNs pass
// through unchanged.
func toDSN(url string) string {
	if !strings.HasPrefix(url, "mysql://") {
		return url
	}
	dsn := strings.TrimPrefix(url, "mysql://")

	atIndex := strings.LastIndex(dsn, "@")
	credentials := ""
	remainder := dsn
	if atIndex >= 0 {
		credentials = dsn[:atIndex]
		remainder = dsn[atIndex+1:]
	}

	hostPort, dbAndParams := remainder, ""
	if slashIndex := strings.Index(remainder, "/"); slashIndex >= 0 {
		hostPort = remainder[:slashIndex]
		dbAndParams = remainder[slashIndex+1:]
	}

	dbAndParams = strings.ReplaceAll(dbAndParams, "ssl-mode=REQUIRED", "tls=skip-verify")
	dbAndParams = strings.ReplaceAll(dbAndParams, "ssl-mode=DISABLED", "tls=false")
	dbAndParams = strings.ReplaceAll(dbAndParams, "sslmode=require", "tls=skip-verify")
	dbAndParams = strings.ReplaceAll(dbAndParams, "sslmode=disable", "tls=false")

	if credentials != "" {
		return fmt.Sprintf("%s@tcp(%s)/%s", credentials, hostPort, dbAndParams)
	}
	return fmt.Sprintf("tcp(%s)/%s", hostPort, dbAndParams)
}

func (m *Adapter) Connect(ctx context.Context, url string) error {
	cfg, err := mysqldriver.ParseDSN(toDSN(url))
	if err != nil {
		return fmt.Errorf("failed to parse MySQL DSN: %w", err)
	}

	db, err := sql.Open("mysql", cfg.FormatDSN())
	if err != nil {
		return fmt.Errorf("failed to open MySQL connection: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(3 * time.Minute)

	m.db = db
	m.cfg = cfg
	return nil
}

func (m *Adapter) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}

func (m *Adapter) Ping(ctx context.Context) error {
	return m.db.PingContext(ctx)
}

func (m *Adapter) Provider() string {
	return "mysql"
}

func (m *Adapter) DB() *sql.DB {
	return m.db
}

func (m *Adapter) GetCurrentDatabase(ctx context.Context) (string, error) {
	var name sql.NullString
	if err := m.db.QueryRowContext(ctx, "SELECT DATABASE()").Scan(&name); err != nil {
		return "", err
	}
	return name.String, nil
}

func (m *Adapter) GetAllTableNames(ctx context.Context) ([]string, error) {
	query, args, err := m.qb.
		Select("table_name").
		From("information_schema.tables").
		Where("table_schema = DATABASE()").
		Where(squirrel.Eq{"table_type": "BASE TABLE"}).
		OrderBy("table_name").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return common.ScanNames(rows)
}

func (m *Adapter) DatabaseExists(ctx context.Context, name string) (bool, error) {
	query, args, err := m.qb.
		Select("COUNT(*)").
		From("information_schema.schemata").
		Where(squirrel.Eq{"schema_name": name}).
		ToSql()
	if err != nil {
		return false, err
	}

	var count int
	if err := m.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

// ER_DB_CREATE_EXISTS
const errDatabaseExists = 1007

func (m *Adapter) CreateDatabase(ctx context.Context, name string) error {
	_, err := m.db.ExecContext(ctx, "CREATE DATABASE "+quoteIdent(name))
	if err != nil {
		var myErr *mysqldriver.MySQLError
		if errors.As(err, &myErr) && myErr.Number == errDatabaseExists {
			return fmt.Errorf("database %s already exists: %w", name, err)
		}
		return err
	}
	return nil
}

func (m *Adapter) Session(ctx context.Context) (common.Session, error) {
	conn, err := m.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire MySQL session: %w", err)
	}
	return &session{conn: conn}, nil
}

// MigrationDSN returns a DSN with multi-statement support, which migration
// files with several statements require.
func (m *Adapter) MigrationDSN() (string, string, error) {
	if m.cfg == nil {
		return "", "", fmt.Errorf("mysql adapter is not connected")
	}
	cfg := m.cfg.Clone()
	cfg.MultiStatements = true
	return "mysql", cfg.FormatDSN(), nil
}

func (m *Adapter) DumpCommand(outFile string) (*common.DumpCommand, error) {
	if m.cfg == nil {
		return nil, fmt.Errorf("mysql adapter is not connected")
	}
	if m.cfg.DBName == "" {
		return nil, fmt.Errorf("mysql connection has no database selected")
	}

	args := []string{"--single-transaction", "--routines", "--triggers"}
	if m.cfg.User != "" {
		args = append(args, "--user="+m.cfg.User)
	}
	if m.cfg.Net == "unix" {
		args = append(args, "--socket="+m.cfg.Addr)
	} else if host, port, err := net.SplitHostPort(m.cfg.Addr); err == nil {
		args = append(args, "--host="+host, "--port="+port)
	} else if m.cfg.Addr != "" {
		args = append(args, "--host="+m.cfg.Addr)
	}
	args = append(args, "--result-file="+outFile, m.cfg.DBName)

	cmd := &common.DumpCommand{Program: "mysqldump", Args: args}
	if m.cfg.Passwd != "" {
		cmd.Env = []string{"MYSQL_PWD=" + m.cfg.Passwd}
	}
	return cmd, nil
}

func quoteIdent(name string) string {
	return common.QuoteIdent(name, "`")
}
