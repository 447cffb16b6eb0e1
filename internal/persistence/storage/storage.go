// Package storage picks a persistence backend from a DSN.
package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/example/room-access/internal/persistence"
	"github.com/example/room-access/internal/persistence/memory"
	"github.com/example/room-access/internal/persistence/postgres"
	"github.com/example/room-access/internal/persistence/sqlite"
)

// Backend identifies a persistence implementation.
type Backend string

const (
	BackendMemory   Backend = "memory"
	BackendSQLite   Backend = "sqlite"
	BackendPostgres Backend = "postgres"
)

// Store is a persistence.Store that can migrate and ping its schema.
type Store interface {
	persistence.Store
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
}

// DetectBackend maps a DSN to its backend. postgres:// and postgresql://
// select PostgreSQL, memory:// selects the in-process store and anything
// else is treated as a SQLite path.
func DetectBackend(dsn string) Backend {
	lower := strings.ToLower(strings.TrimSpace(dsn))
	switch {
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		return BackendPostgres
	case strings.HasPrefix(lower, "memory://"):
		return BackendMemory
	default:
		return BackendSQLite
	}
}

// Open connects to the backend named by dsn without migrating it.
func Open(ctx context.Context, dsn string) (Store, Backend, error) {
	backend := DetectBackend(dsn)
	switch backend {
	case BackendPostgres:
		store, err := postgres.Open(ctx, dsn)
		if err != nil {
			return nil, backend, err
		}
		return store, backend, nil
	case BackendMemory:
		return memory.New(), backend, nil
	default:
		store, err := sqlite.Open(ctx, dsn)
		if err != nil {
			return nil, backend, fmt.Errorf("open sqlite store: %w", err)
		}
		return store, backend, nil
	}
}

// OpenAndMigrate opens dsn and applies pending migrations.
func OpenAndMigrate(ctx context.Context, dsn string) (Store, Backend, error) {
	store, backend, err := Open(ctx, dsn)
	if err != nil {
		return nil, backend, err
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, backend, err
	}
	return store, backend, nil
}
