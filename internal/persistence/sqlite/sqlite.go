package sqlite

import (
	"context"
	"fmt"

	"github.com/example/room-access/internal/persistence"
	"github.com/example/room-access/internal/persistence/migrations"
)

// Storage is the SQLite-backed persistence.Store.
type Storage struct {
	*UserRepository
	*PractitionerRepository
	*ServiceRepository
	*RoomRepository
	*BookingRepository
	*SessionRepository

	pool *ConnectionPool
}

var _ persistence.Store = (*Storage)(nil)

// Open connects to the SQLite database named by dsn. Call Migrate before use
// on a fresh database.
func Open(ctx context.Context, dsn string) (*Storage, error) {
	pool, err := NewConnectionPool(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Storage{
		UserRepository:         NewUserRepository(pool),
		PractitionerRepository: NewPractitionerRepository(pool),
		ServiceRepository:      NewServiceRepository(pool),
		RoomRepository:         NewRoomRepository(pool),
		BookingRepository:      NewBookingRepository(pool),
		SessionRepository:      NewSessionRepository(pool),
		pool:                   pool,
	}, nil
}

// Migrate applies the embedded schema migrations.
func (s *Storage) Migrate(ctx context.Context) error {
	if _, err := migrations.Up(ctx, s.pool.DB(), migrations.DialectSQLite); err != nil {
		return fmt.Errorf("sqlite: %w", err)
	}
	return nil
}

// Ping verifies the database is reachable.
func (s *Storage) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the underlying connection.
func (s *Storage) Close() error {
	return s.pool.Close()
}
