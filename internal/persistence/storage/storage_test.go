package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectBackend(t *testing.T) {
	cases := map[string]Backend{
		"postgres://user@localhost/db":   BackendPostgres,
		"POSTGRESQL://user@localhost/db": BackendPostgres,
		"memory://":                      BackendMemory,
		"file:roomaccess.db":             BackendSQLite,
		"/var/lib/roomaccess.db":         BackendSQLite,
		"":                               BackendSQLite,
	}
	for dsn, want := range cases {
		assert.Equal(t, want, DetectBackend(dsn), dsn)
	}
}

func TestOpenAndMigrateMemory(t *testing.T) {
	store, backend, err := OpenAndMigrate(context.Background(), "memory://")
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, BackendMemory, backend)
	assert.NoError(t, store.Ping(context.Background()))
}

func TestOpenAndMigrateSQLite(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "roomaccess.db")

	store, backend, err := OpenAndMigrate(ctx, dsn)
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, BackendSQLite, backend)
	assert.NoError(t, store.Ping(ctx))
}
