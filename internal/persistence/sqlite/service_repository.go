package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/room-access/internal/persistence"
)

// ServiceRepository implements persistence.ServiceRepository using SQLite
type ServiceRepository struct {
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewServiceRepository creates a new SQLite service repository
func NewServiceRepository(pool *ConnectionPool) *ServiceRepository {
	return &ServiceRepository{
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreateService inserts a practitioner offering.
func (r *ServiceRepository) CreateService(ctx context.Context, service persistence.Service) (persistence.Service, error) {
	service.CreatedAt = nowUTC(service.CreatedAt)

	query := `
		INSERT INTO services (id, practitioner_id, name, service_type, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	id, err := insertReturningID(ctx, r.helper, service.ID, query,
		idOrNull(service.ID),
		service.PractitionerID,
		service.Name,
		string(service.Type),
		formatTime(service.CreatedAt),
	)
	if err != nil {
		return persistence.Service{}, r.mapper.MapError(err)
	}
	service.ID = id
	return service, nil
}

// GetService retrieves a service by ID.
func (r *ServiceRepository) GetService(ctx context.Context, id int64) (persistence.Service, error) {
	query := `SELECT id, practitioner_id, name, service_type, created_at FROM services WHERE id = ?`

	var service persistence.Service
	var serviceType, createdAtStr string
	err := r.helper.QueryRow(ctx, query, id).Scan(
		&service.ID,
		&service.PractitionerID,
		&service.Name,
		&serviceType,
		&createdAtStr,
	)
	if err != nil {
		return persistence.Service{}, r.mapper.MapError(err)
	}
	service.Type = persistence.ServiceType(serviceType)
	if service.CreatedAt, err = parseTime(createdAtStr); err != nil {
		return persistence.Service{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	return service, nil
}

// CreateServiceSession inserts a scheduled occurrence of a service.
func (r *ServiceRepository) CreateServiceSession(ctx context.Context, session persistence.ServiceSession) (persistence.ServiceSession, error) {
	session.CreatedAt = nowUTC(session.CreatedAt)

	query := `
		INSERT INTO service_sessions (id, service_id, room_id, start_time, end_time, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	id, err := insertReturningID(ctx, r.helper, session.ID, query,
		idOrNull(session.ID),
		session.ServiceID,
		nullInt64(session.RoomID),
		formatTime(session.StartTime),
		formatTime(session.EndTime),
		formatTime(session.CreatedAt),
	)
	if err != nil {
		return persistence.ServiceSession{}, r.mapper.MapError(err)
	}
	session.ID = id
	return session, nil
}

// GetServiceSessionByRoom returns the session hosted in roomID.
func (r *ServiceRepository) GetServiceSessionByRoom(ctx context.Context, roomID int64) (persistence.ServiceSession, error) {
	query := `
		SELECT id, service_id, room_id, start_time, end_time, created_at
		FROM service_sessions
		WHERE room_id = ?
	`

	var session persistence.ServiceSession
	var room sql.NullInt64
	var startStr, endStr, createdAtStr string
	err := r.helper.QueryRow(ctx, query, roomID).Scan(
		&session.ID,
		&session.ServiceID,
		&room,
		&startStr,
		&endStr,
		&createdAtStr,
	)
	if err != nil {
		return persistence.ServiceSession{}, r.mapper.MapError(err)
	}

	session.RoomID = int64Ptr(room)
	if session.StartTime, err = parseTime(startStr); err != nil {
		return persistence.ServiceSession{}, fmt.Errorf("failed to parse start_time: %w", err)
	}
	if session.EndTime, err = parseTime(endStr); err != nil {
		return persistence.ServiceSession{}, fmt.Errorf("failed to parse end_time: %w", err)
	}
	if session.CreatedAt, err = parseTime(createdAtStr); err != nil {
		return persistence.ServiceSession{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	return session, nil
}
