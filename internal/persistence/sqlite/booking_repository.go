package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/room-access/internal/persistence"
)

// BookingRepository implements persistence.BookingRepository using SQLite
type BookingRepository struct {
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewBookingRepository creates a new SQLite booking repository
func NewBookingRepository(pool *ConnectionPool) *BookingRepository {
	return &BookingRepository{
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const bookingColumns = `id, client_id, practitioner_id, service_id, service_session_id, room_id, status, created_at, updated_at`

// CreateBooking inserts a booking.
func (r *BookingRepository) CreateBooking(ctx context.Context, booking persistence.Booking) (persistence.Booking, error) {
	booking.CreatedAt = nowUTC(booking.CreatedAt)
	booking.UpdatedAt = nowUTC(booking.UpdatedAt)

	query := `
		INSERT INTO bookings (id, client_id, practitioner_id, service_id, service_session_id, room_id, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	id, err := insertReturningID(ctx, r.helper, booking.ID, query,
		idOrNull(booking.ID),
		booking.ClientID,
		booking.PractitionerID,
		nullInt64(booking.ServiceID),
		nullInt64(booking.ServiceSessionID),
		nullInt64(booking.RoomID),
		string(booking.Status),
		formatTime(booking.CreatedAt),
		formatTime(booking.UpdatedAt),
	)
	if err != nil {
		return persistence.Booking{}, r.mapper.MapError(err)
	}
	booking.ID = id
	return booking, nil
}

// ListBookingsByRoom returns bookings attached directly to roomID.
func (r *BookingRepository) ListBookingsByRoom(ctx context.Context, roomID int64) ([]persistence.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE room_id = ? ORDER BY id ASC`
	return r.list(ctx, query, roomID)
}

// ListBookingsByClient returns every booking made by clientID.
func (r *BookingRepository) ListBookingsByClient(ctx context.Context, clientID int64) ([]persistence.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE client_id = ? ORDER BY id ASC`
	return r.list(ctx, query, clientID)
}

func (r *BookingRepository) list(ctx context.Context, query string, args ...any) ([]persistence.Booking, error) {
	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	bookings := make([]persistence.Booking, 0)
	for rows.Next() {
		booking, err := r.scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, booking)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return bookings, nil
}

func (r *BookingRepository) scanBooking(row scanner) (persistence.Booking, error) {
	var booking persistence.Booking
	var serviceID, sessionID, roomID sql.NullInt64
	var status, createdAtStr, updatedAtStr string

	err := row.Scan(
		&booking.ID,
		&booking.ClientID,
		&booking.PractitionerID,
		&serviceID,
		&sessionID,
		&roomID,
		&status,
		&createdAtStr,
		&updatedAtStr,
	)
	if err != nil {
		return persistence.Booking{}, r.mapper.MapError(err)
	}

	booking.ServiceID = int64Ptr(serviceID)
	booking.ServiceSessionID = int64Ptr(sessionID)
	booking.RoomID = int64Ptr(roomID)
	booking.Status = persistence.BookingStatus(status)
	if booking.CreatedAt, err = parseTime(createdAtStr); err != nil {
		return persistence.Booking{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if booking.UpdatedAt, err = parseTime(updatedAtStr); err != nil {
		return persistence.Booking{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return booking, nil
}
