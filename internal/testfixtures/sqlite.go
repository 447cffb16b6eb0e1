package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/example/room-access/internal/persistence/sqlite"
)

// NewSQLiteStore opens a migrated SQLite store in a temporary directory and
// closes it when the test ends.
func NewSQLiteStore(tb testing.TB) *sqlite.Storage {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "roomaccess.db")
	store, err := sqlite.Open(context.Background(), path)
	require.NoError(tb, err, "open sqlite store")
	tb.Cleanup(func() { _ = store.Close() })

	require.NoError(tb, store.Migrate(context.Background()), "migrate sqlite store")
	return store
}
