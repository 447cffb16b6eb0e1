package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/example/room-access/internal/persistence"
)

// RoomRepository implements persistence.RoomRepository using SQLite
type RoomRepository struct {
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewRoomRepository creates a new SQLite room repository
func NewRoomRepository(pool *ConnectionPool) *RoomRepository {
	return &RoomRepository{
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const roomColumns = `id, public_uuid, provider_room_name, status, room_type, created_by_id, created_at, updated_at`

// CreateRoom inserts a new room into the database
func (r *RoomRepository) CreateRoom(ctx context.Context, room persistence.Room) (persistence.Room, error) {
	room.PublicUUID = strings.ToLower(strings.TrimSpace(room.PublicUUID))
	if room.PublicUUID == "" {
		return persistence.Room{}, persistence.ErrConstraintViolation
	}

	room.CreatedAt = nowUTC(room.CreatedAt)
	room.UpdatedAt = nowUTC(room.UpdatedAt)

	query := `
		INSERT INTO rooms (id, public_uuid, provider_room_name, status, room_type, created_by_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	id, err := insertReturningID(ctx, r.helper, room.ID, query,
		idOrNull(room.ID),
		room.PublicUUID,
		room.ProviderRoomName,
		string(room.Status),
		string(room.Type),
		nullInt64(room.CreatedByID),
		formatTime(room.CreatedAt),
		formatTime(room.UpdatedAt),
	)
	if err != nil {
		return persistence.Room{}, r.mapper.MapError(err)
	}
	room.ID = id
	return room, nil
}

// GetRoom retrieves a room by ID from the database
func (r *RoomRepository) GetRoom(ctx context.Context, id int64) (persistence.Room, error) {
	query := `SELECT ` + roomColumns + ` FROM rooms WHERE id = ?`
	return r.scanRoom(r.helper.QueryRow(ctx, query, id))
}

// GetRoomByPublicUUID retrieves a room by its externally visible identifier.
func (r *RoomRepository) GetRoomByPublicUUID(ctx context.Context, publicUUID string) (persistence.Room, error) {
	normalized := strings.ToLower(strings.TrimSpace(publicUUID))
	if normalized == "" {
		return persistence.Room{}, persistence.ErrNotFound
	}
	query := `SELECT ` + roomColumns + ` FROM rooms WHERE public_uuid = ?`
	return r.scanRoom(r.helper.QueryRow(ctx, query, normalized))
}

// UpdateRoomStatus sets the lifecycle status of a room.
func (r *RoomRepository) UpdateRoomStatus(ctx context.Context, id int64, status persistence.RoomStatus, updatedAt time.Time) (persistence.Room, error) {
	query := `UPDATE rooms SET status = ?, updated_at = ? WHERE id = ?`

	result, err := r.helper.Exec(ctx, query, string(status), formatTime(nowUTC(updatedAt)), id)
	if err != nil {
		return persistence.Room{}, r.mapper.MapError(err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return persistence.Room{}, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return persistence.Room{}, persistence.ErrNotFound
	}
	return r.GetRoom(ctx, id)
}

func (r *RoomRepository) scanRoom(row scanner) (persistence.Room, error) {
	var room persistence.Room
	var status, roomType, createdAtStr, updatedAtStr string
	var createdBy sql.NullInt64

	err := row.Scan(
		&room.ID,
		&room.PublicUUID,
		&room.ProviderRoomName,
		&status,
		&roomType,
		&createdBy,
		&createdAtStr,
		&updatedAtStr,
	)
	if err != nil {
		return persistence.Room{}, r.mapper.MapError(err)
	}

	room.Status = persistence.RoomStatus(status)
	room.Type = persistence.RoomType(roomType)
	room.CreatedByID = int64Ptr(createdBy)
	if room.CreatedAt, err = parseTime(createdAtStr); err != nil {
		return persistence.Room{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if room.UpdatedAt, err = parseTime(updatedAtStr); err != nil {
		return persistence.Room{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return room, nil
}
