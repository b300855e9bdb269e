package migrator

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Rana718/dbkeeper/internal/apperrors"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sqliteSource struct {
	path string
}

func (s sqliteSource) Name() string { return "testing" }

func (s sqliteSource) MigrationDSN() (string, string, error) {
	return "sqlite3", s.path, nil
}

func writeMigrations(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"1_create_users.up.sql":   "CREATE TABLE users (id INTEGER PRIMARY KEY, email TEXT NOT NULL);",
		"1_create_users.down.sql": "DROP TABLE users;",
		"2_create_posts.up.sql":   "CREATE TABLE posts (id INTEGER PRIMARY KEY, user_id INTEGER REFERENCES users(id));",
		"2_create_posts.down.sql": "DROP TABLE posts;",
	}
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0644))
	}
	return dir
}

func tableNames(t *testing.T, path string) []string {
	t.Helper()
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	rows, err := db.Query("SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
	require.NoError(t, err)
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		names = append(names, name)
	}
	return names
}

func TestApplyRebuildsAfterTablesDropped(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "app.db")
	m := NewMigrator(writeMigrations(t), "migrations", nil)

	require.NoError(t, m.Apply(ctx, sqliteSource{path: dbPath}))
	assert.Equal(t, []string{"migrations", "posts", "users"}, tableNames(t, dbPath))

	// Drop everything except the bookkeeping table, as a reset does.
	db, err := sql.Open("sqlite3", dbPath)
	require.NoError(t, err)
	_, err = db.Exec("DROP TABLE posts; DROP TABLE users;")
	require.NoError(t, err)
	require.NoError(t, db.Close())
	assert.Equal(t, []string{"migrations"}, tableNames(t, dbPath))

	require.NoError(t, m.Apply(ctx, sqliteSource{path: dbPath}))
	assert.Equal(t, []string{"migrations", "posts", "users"}, tableNames(t, dbPath))
}

func TestApplyMissingDirectoryIsMigrationFailure(t *testing.T) {
	m := NewMigrator(filepath.Join(t.TempDir(), "nope"), "migrations", nil)

	err := m.Apply(context.Background(), sqliteSource{path: filepath.Join(t.TempDir(), "app.db")})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrMigration))
}

func TestApplyBrokenMigrationIsMigrationFailure(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "1_broken.up.sql"), []byte("CREATE TABLEX nope;"), 0644))
	m := NewMigrator(dir, "migrations", nil)

	err := m.Apply(context.Background(), sqliteSource{path: filepath.Join(t.TempDir(), "app.db")})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindMigration, apperrors.KindOf(err))
}
