package migrations

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func openSQLite(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "migrations.db"))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestUpAppliesSQLiteSchema(t *testing.T) {
	ctx := context.Background()
	db := openSQLite(t)

	applied, err := Up(ctx, db, DialectSQLite)
	require.NoError(t, err)
	assert.Equal(t, 1, applied)

	version, err := Version(ctx, db, DialectSQLite)
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	for _, table := range []string{"users", "practitioners", "services", "service_sessions", "rooms", "bookings", "sessions"} {
		var name string
		err := db.QueryRowContext(ctx, `SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		require.NoError(t, err, table)
	}

	again, err := Up(ctx, db, DialectSQLite)
	require.NoError(t, err)
	assert.Zero(t, again)
}

func TestUnsupportedDialect(t *testing.T) {
	_, err := Up(context.Background(), openSQLite(t), Dialect("oracle"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported dialect")
}

func TestEmbeddedDirectoriesMatch(t *testing.T) {
	sqliteFiles, err := files.ReadDir("sqlite")
	require.NoError(t, err)
	postgresFiles, err := files.ReadDir("postgres")
	require.NoError(t, err)

	require.Equal(t, len(sqliteFiles), len(postgresFiles))
	for i := range sqliteFiles {
		assert.Equal(t, sqliteFiles[i].Name(), postgresFiles[i].Name())
	}
}
