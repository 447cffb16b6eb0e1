package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/example/room-access/internal/persistence"
)

// UserRepository implements persistence.UserRepository using SQLite
type UserRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewUserRepository creates a new SQLite user repository
func NewUserRepository(pool *ConnectionPool) *UserRepository {
	return &UserRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const userColumns = `id, email, display_name, password_hash, is_admin, practitioner_id, created_at, updated_at`

// CreateUser inserts a new user into the database
func (r *UserRepository) CreateUser(ctx context.Context, user persistence.User) (persistence.User, error) {
	user.Email = normalizeEmail(user.Email)
	if user.Email == "" {
		return persistence.User{}, persistence.ErrConstraintViolation
	}

	user.CreatedAt = nowUTC(user.CreatedAt)
	user.UpdatedAt = nowUTC(user.UpdatedAt)

	query := `
		INSERT INTO users (id, email, display_name, password_hash, is_admin, practitioner_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	id, err := insertReturningID(ctx, r.helper, user.ID, query,
		idOrNull(user.ID),
		user.Email,
		user.DisplayName,
		user.PasswordHash,
		user.IsAdmin,
		nullInt64(user.PractitionerID),
		formatTime(user.CreatedAt),
		formatTime(user.UpdatedAt),
	)
	if err != nil {
		return persistence.User{}, r.mapper.MapError(err)
	}
	user.ID = id
	return user, nil
}

// GetUser retrieves a user by ID from the database
func (r *UserRepository) GetUser(ctx context.Context, id int64) (persistence.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	return r.scanUser(r.helper.QueryRow(ctx, query, id))
}

// GetUserByEmail looks a user up by email, ignoring case.
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (persistence.User, error) {
	normalized := normalizeEmail(email)
	if normalized == "" {
		return persistence.User{}, persistence.ErrNotFound
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ? COLLATE NOCASE`
	return r.scanUser(r.helper.QueryRow(ctx, query, normalized))
}

func (r *UserRepository) scanUser(row scanner) (persistence.User, error) {
	var user persistence.User
	var practitionerID sql.NullInt64
	var createdAtStr, updatedAtStr string

	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.DisplayName,
		&user.PasswordHash,
		&user.IsAdmin,
		&practitionerID,
		&createdAtStr,
		&updatedAtStr,
	)
	if err != nil {
		return persistence.User{}, r.mapper.MapError(err)
	}

	user.PractitionerID = int64Ptr(practitionerID)
	if user.CreatedAt, err = parseTime(createdAtStr); err != nil {
		return persistence.User{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if user.UpdatedAt, err = parseTime(updatedAtStr); err != nil {
		return persistence.User{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// PractitionerRepository implements persistence.PractitionerRepository using SQLite
type PractitionerRepository struct {
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewPractitionerRepository creates a new SQLite practitioner repository
func NewPractitionerRepository(pool *ConnectionPool) *PractitionerRepository {
	return &PractitionerRepository{
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreatePractitioner inserts a practitioner profile.
func (r *PractitionerRepository) CreatePractitioner(ctx context.Context, practitioner persistence.Practitioner) (persistence.Practitioner, error) {
	practitioner.CreatedAt = nowUTC(practitioner.CreatedAt)

	query := `
		INSERT INTO practitioners (id, user_id, display_name, created_at)
		VALUES (?, ?, ?, ?)
	`
	id, err := insertReturningID(ctx, r.helper, practitioner.ID, query,
		idOrNull(practitioner.ID),
		practitioner.UserID,
		practitioner.DisplayName,
		formatTime(practitioner.CreatedAt),
	)
	if err != nil {
		return persistence.Practitioner{}, r.mapper.MapError(err)
	}
	practitioner.ID = id
	return practitioner, nil
}

// GetPractitioner retrieves a practitioner by ID.
func (r *PractitionerRepository) GetPractitioner(ctx context.Context, id int64) (persistence.Practitioner, error) {
	query := `SELECT id, user_id, display_name, created_at FROM practitioners WHERE id = ?`

	var practitioner persistence.Practitioner
	var createdAtStr string
	err := r.helper.QueryRow(ctx, query, id).Scan(
		&practitioner.ID,
		&practitioner.UserID,
		&practitioner.DisplayName,
		&createdAtStr,
	)
	if err != nil {
		return persistence.Practitioner{}, r.mapper.MapError(err)
	}
	if practitioner.CreatedAt, err = parseTime(createdAtStr); err != nil {
		return persistence.Practitioner{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	return practitioner, nil
}
