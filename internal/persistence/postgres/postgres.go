// Package postgres implements persistence.Store on top of a pgx connection pool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/example/room-access/internal/persistence"
	"github.com/example/room-access/internal/persistence/migrations"
)

// Storage is the PostgreSQL-backed persistence.Store.
type Storage struct {
	pool *pgxpool.Pool
}

var _ persistence.Store = (*Storage)(nil)

// Open connects to dsn and verifies the server responds.
func Open(ctx context.Context, dsn string) (*Storage, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return &Storage{pool: pool}, nil
}

// Migrate applies the embedded schema migrations through a database/sql
// handle borrowed from the pool.
func (s *Storage) Migrate(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(s.pool)
	defer db.Close()

	if _, err := migrations.Up(ctx, db, migrations.DialectPostgres); err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	return nil
}

// Ping verifies the database is reachable.
func (s *Storage) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases every pooled connection.
func (s *Storage) Close() error {
	s.pool.Close()
	return nil
}

// mapError translates pgx errors into persistence sentinels.
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return persistence.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return fmt.Errorf("%s: %w: %s", op, persistence.ErrDuplicate, pgErr.ConstraintName)
		case "23503", "23514", "23502":
			return fmt.Errorf("%s: %w: %s", op, persistence.ErrConstraintViolation, pgErr.ConstraintName)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func nowUTC(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// --- UserRepository ---

const userColumns = `id, email, display_name, password_hash, is_admin, practitioner_id, created_at, updated_at`

func (s *Storage) CreateUser(ctx context.Context, user persistence.User) (persistence.User, error) {
	user.Email = normalizeEmail(user.Email)
	if user.Email == "" {
		return persistence.User{}, persistence.ErrConstraintViolation
	}
	user.CreatedAt = nowUTC(user.CreatedAt)
	user.UpdatedAt = nowUTC(user.UpdatedAt)

	query := `
		INSERT INTO users (id, email, display_name, password_hash, is_admin, practitioner_id, created_at, updated_at)
		VALUES (COALESCE($1, nextval('users_id_seq')), $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	err := s.pool.QueryRow(ctx, query,
		idOrNil(user.ID),
		user.Email,
		user.DisplayName,
		user.PasswordHash,
		user.IsAdmin,
		user.PractitionerID,
		user.CreatedAt,
		user.UpdatedAt,
	).Scan(&user.ID)
	if err != nil {
		return persistence.User{}, mapError("create user", err)
	}
	if err := s.syncSequence(ctx, "users", user.ID); err != nil {
		return persistence.User{}, err
	}
	return user, nil
}

func (s *Storage) GetUser(ctx context.Context, id int64) (persistence.User, error) {
	return scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (persistence.User, error) {
	normalized := normalizeEmail(email)
	if normalized == "" {
		return persistence.User{}, persistence.ErrNotFound
	}
	return scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE LOWER(email) = $1`, normalized))
}

func scanUser(row pgx.Row) (persistence.User, error) {
	var user persistence.User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.DisplayName,
		&user.PasswordHash,
		&user.IsAdmin,
		&user.PractitionerID,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return persistence.User{}, mapError("get user", err)
	}
	return user, nil
}

// --- PractitionerRepository ---

func (s *Storage) CreatePractitioner(ctx context.Context, practitioner persistence.Practitioner) (persistence.Practitioner, error) {
	practitioner.CreatedAt = nowUTC(practitioner.CreatedAt)

	query := `
		INSERT INTO practitioners (id, user_id, display_name, created_at)
		VALUES (COALESCE($1, nextval('practitioners_id_seq')), $2, $3, $4)
		RETURNING id
	`
	err := s.pool.QueryRow(ctx, query,
		idOrNil(practitioner.ID),
		practitioner.UserID,
		practitioner.DisplayName,
		practitioner.CreatedAt,
	).Scan(&practitioner.ID)
	if err != nil {
		return persistence.Practitioner{}, mapError("create practitioner", err)
	}
	if err := s.syncSequence(ctx, "practitioners", practitioner.ID); err != nil {
		return persistence.Practitioner{}, err
	}
	return practitioner, nil
}

func (s *Storage) GetPractitioner(ctx context.Context, id int64) (persistence.Practitioner, error) {
	var practitioner persistence.Practitioner
	err := s.pool.QueryRow(ctx, `SELECT id, user_id, display_name, created_at FROM practitioners WHERE id = $1`, id).Scan(
		&practitioner.ID,
		&practitioner.UserID,
		&practitioner.DisplayName,
		&practitioner.CreatedAt,
	)
	if err != nil {
		return persistence.Practitioner{}, mapError("get practitioner", err)
	}
	return practitioner, nil
}

// idOrNil lets the column sequence pick the ID when id is zero.
func idOrNil(id int64) *int64 {
	if id <= 0 {
		return nil
	}
	return &id
}

// syncSequence keeps the table sequence ahead of explicitly inserted IDs.
func (s *Storage) syncSequence(ctx context.Context, table string, id int64) error {
	query := fmt.Sprintf(`SELECT setval(pg_get_serial_sequence('%s', 'id'), GREATEST($1, (SELECT last_value FROM %s_id_seq)))`, table, table)
	if _, err := s.pool.Exec(ctx, query, id); err != nil {
		return mapError("sync "+table+" sequence", err)
	}
	return nil
}
