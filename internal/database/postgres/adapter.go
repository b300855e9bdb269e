package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/Rana718/dbkeeper/internal/database/common"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"
)

type Adapter struct {
	db      *sql.DB
	qb      squirrel.StatementBuilderType
	url     string
	connCfg *pgx.ConnConfig
}

func New() *Adapter {
	return &Adapter{
		qb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (p *Adapter) Connect(ctx context.Context, url string) error {
	config, err := pgx.ParseConfig(url)
	if err != nil {
		return fmt.Errorf("failed to parse connection URL: %w", err)
	}

	config.DefaultQueryExecMode = pgx.QueryExecModeExec

	db := stdlib.OpenDB(*config)
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(3 * time.Minute)

	p.db = db
	p.url = url
	p.connCfg = config
	return nil
}

func (p *Adapter) Close() error {
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}

func (p *Adapter) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

func (p *Adapter) Provider() string {
	return "postgres"
}

func (p *Adapter) DB() *sql.DB {
	return p.db
}

func (p *Adapter) GetCurrentDatabase(ctx context.Context) (string, error) {
	var name string
	err := p.db.QueryRowContext(ctx, "SELECT current_database()").Scan(&name)
	return name, err
}

func (p *Adapter) GetAllTableNames(ctx context.Context) ([]string, error) {
	query, args, err := p.qb.
		Select("tablename").
		From("pg_catalog.pg_tables").
		Where("schemaname = current_schema()").
		OrderBy("tablename").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return common.ScanNames(rows)
}

func (p *Adapter) DatabaseExists(ctx context.Context, name string) (bool, error) {
	query, args, err := p.qb.
		Select("COUNT(*)").
		From("pg_catalog.pg_database").
		Where(squirrel.Eq{"datname": name}).
		ToSql()
	if err != nil {
		return false, err
	}

	var count int
	if err := p.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

// duplicate_database
const codeDuplicateDatabase = "42P04"

func (p *Adapter) CreateDatabase(ctx context.Context, name string) error {
	_, err := p.db.ExecContext(ctx, "CREATE DATABASE "+pq.QuoteIdentifier(name))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == codeDuplicateDatabase {
			return fmt.Errorf("database %s already exists: %w", name, err)
		}
		return err
	}
	return nil
}

func (p *Adapter) Session(ctx context.Context) (common.Session, error) {
	conn, err := p.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire PostgreSQL session: %w", err)
	}
	return &session{conn: conn}, nil
}

// MigrationDSN hands the original URL to lib/pq, the driver the migration
// runner's postgres backend is built against.
func (p *Adapter) MigrationDSN() (string, string, error) {
	if p.url == "" {
		return "", "", fmt.Errorf("postgres adapter is not connected")
	}
	return "postgres", p.url, nil
}

func (p *Adapter) DumpCommand(outFile string) (*common.DumpCommand, error) {
	if p.connCfg == nil {
		return nil, fmt.Errorf("postgres adapter is not connected")
	}

	args := []string{"--no-owner", "--no-privileges"}
	if p.connCfg.Host != "" {
		args = append(args, "--host="+p.connCfg.Host)
	}
	if p.connCfg.Port != 0 {
		args = append(args, "--port="+strconv.Itoa(int(p.connCfg.Port)))
	}
	if p.connCfg.User != "" {
		args = append(args, "--username="+p.connCfg.User)
	}
	args = append(args, "--file="+outFile, "--dbname="+p.connCfg.Database)

	cmd := &common.DumpCommand{Program: "pg_dump", Args: args}
	if p.connCfg.Password != "" {
		cmd.Env = []string{"PGPASSWORD=" + p.connCfg.Password}
	}
	return cmd, nil
}
