package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/example/room-access/internal/persistence"
)

// --- ServiceRepository ---

func (s *Storage) CreateService(ctx context.Context, service persistence.Service) (persistence.Service, error) {
	service.CreatedAt = nowUTC(service.CreatedAt)

	query := `
		INSERT INTO services (id, practitioner_id, name, service_type, created_at)
		VALUES (COALESCE($1, nextval('services_id_seq')), $2, $3, $4, $5)
		RETURNING id
	`
	err := s.pool.QueryRow(ctx, query,
		idOrNil(service.ID),
		service.PractitionerID,
		service.Name,
		string(service.Type),
		service.CreatedAt,
	).Scan(&service.ID)
	if err != nil {
		return persistence.Service{}, mapError("create service", err)
	}
	if err := s.syncSequence(ctx, "services", service.ID); err != nil {
		return persistence.Service{}, err
	}
	return service, nil
}

func (s *Storage) GetService(ctx context.Context, id int64) (persistence.Service, error) {
	var service persistence.Service
	var serviceType string
	err := s.pool.QueryRow(ctx, `SELECT id, practitioner_id, name, service_type, created_at FROM services WHERE id = $1`, id).Scan(
		&service.ID,
		&service.PractitionerID,
		&service.Name,
		&serviceType,
		&service.CreatedAt,
	)
	if err != nil {
		return persistence.Service{}, mapError("get service", err)
	}
	service.Type = persistence.ServiceType(serviceType)
	return service, nil
}

func (s *Storage) CreateServiceSession(ctx context.Context, session persistence.ServiceSession) (persistence.ServiceSession, error) {
	session.CreatedAt = nowUTC(session.CreatedAt)

	query := `
		INSERT INTO service_sessions (id, service_id, room_id, start_time, end_time, created_at)
		VALUES (COALESCE($1, nextval('service_sessions_id_seq')), $2, $3, $4, $5, $6)
		RETURNING id
	`
	err := s.pool.QueryRow(ctx, query,
		idOrNil(session.ID),
		session.ServiceID,
		session.RoomID,
		session.StartTime.UTC(),
		session.EndTime.UTC(),
		session.CreatedAt,
	).Scan(&session.ID)
	if err != nil {
		return persistence.ServiceSession{}, mapError("create service session", err)
	}
	if err := s.syncSequence(ctx, "service_sessions", session.ID); err != nil {
		return persistence.ServiceSession{}, err
	}
	return session, nil
}

func (s *Storage) GetServiceSessionByRoom(ctx context.Context, roomID int64) (persistence.ServiceSession, error) {
	var session persistence.ServiceSession
	err := s.pool.QueryRow(ctx, `
		SELECT id, service_id, room_id, start_time, end_time, created_at
		FROM service_sessions
		WHERE room_id = $1
	`, roomID).Scan(
		&session.ID,
		&session.ServiceID,
		&session.RoomID,
		&session.StartTime,
		&session.EndTime,
		&session.CreatedAt,
	)
	if err != nil {
		return persistence.ServiceSession{}, mapError("get service session", err)
	}
	return session, nil
}

// --- RoomRepository ---

const roomColumns = `id, public_uuid::text, provider_room_name, status, room_type, created_by_id, created_at, updated_at`

func (s *Storage) CreateRoom(ctx context.Context, room persistence.Room) (persistence.Room, error) {
	room.PublicUUID = strings.ToLower(strings.TrimSpace(room.PublicUUID))
	if room.PublicUUID == "" {
		return persistence.Room{}, persistence.ErrConstraintViolation
	}
	room.CreatedAt = nowUTC(room.CreatedAt)
	room.UpdatedAt = nowUTC(room.UpdatedAt)

	query := `
		INSERT INTO rooms (id, public_uuid, provider_room_name, status, room_type, created_by_id, created_at, updated_at)
		VALUES (COALESCE($1, nextval('rooms_id_seq')), $2::text::uuid, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	err := s.pool.QueryRow(ctx, query,
		idOrNil(room.ID),
		room.PublicUUID,
		room.ProviderRoomName,
		string(room.Status),
		string(room.Type),
		room.CreatedByID,
		room.CreatedAt,
		room.UpdatedAt,
	).Scan(&room.ID)
	if err != nil {
		return persistence.Room{}, mapError("create room", err)
	}
	if err := s.syncSequence(ctx, "rooms", room.ID); err != nil {
		return persistence.Room{}, err
	}
	return room, nil
}

func (s *Storage) GetRoom(ctx context.Context, id int64) (persistence.Room, error) {
	return scanRoom(s.pool.QueryRow(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = $1`, id))
}

func (s *Storage) GetRoomByPublicUUID(ctx context.Context, publicUUID string) (persistence.Room, error) {
	normalized := strings.ToLower(strings.TrimSpace(publicUUID))
	if normalized == "" {
		return persistence.Room{}, persistence.ErrNotFound
	}
	return scanRoom(s.pool.QueryRow(ctx, `SELECT `+roomColumns+` FROM rooms WHERE public_uuid::text = $1`, normalized))
}

func (s *Storage) UpdateRoomStatus(ctx context.Context, id int64, status persistence.RoomStatus, updatedAt time.Time) (persistence.Room, error) {
	return scanRoom(s.pool.QueryRow(ctx, `
		UPDATE rooms SET status = $1, updated_at = $2
		WHERE id = $3
		RETURNING `+roomColumns,
		string(status), nowUTC(updatedAt), id,
	))
}

func scanRoom(row pgx.Row) (persistence.Room, error) {
	var room persistence.Room
	var status, roomType string
	err := row.Scan(
		&room.ID,
		&room.PublicUUID,
		&room.ProviderRoomName,
		&status,
		&roomType,
		&room.CreatedByID,
		&room.CreatedAt,
		&room.UpdatedAt,
	)
	if err != nil {
		return persistence.Room{}, mapError("get room", err)
	}
	room.Status = persistence.RoomStatus(status)
	room.Type = persistence.RoomType(roomType)
	return room, nil
}

// --- BookingRepository ---

const bookingColumns = `id, client_id, practitioner_id, service_id, service_session_id, room_id, status, created_at, updated_at`

func (s *Storage) CreateBooking(ctx context.Context, booking persistence.Booking) (persistence.Booking, error) {
	booking.CreatedAt = nowUTC(booking.CreatedAt)
	booking.UpdatedAt = nowUTC(booking.UpdatedAt)

	query := `
		INSERT INTO bookings (id, client_id, practitioner_id, service_id, service_session_id, room_id, status, created_at, updated_at)
		VALUES (COALESCE($1, nextval('bookings_id_seq')), $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`
	err := s.pool.QueryRow(ctx, query,
		idOrNil(booking.ID),
		booking.ClientID,
		booking.PractitionerID,
		booking.ServiceID,
		booking.ServiceSessionID,
		booking.RoomID,
		string(booking.Status),
		booking.CreatedAt,
		booking.UpdatedAt,
	).Scan(&booking.ID)
	if err != nil {
		return persistence.Booking{}, mapError("create booking", err)
	}
	if err := s.syncSequence(ctx, "bookings", booking.ID); err != nil {
		return persistence.Booking{}, err
	}
	return booking, nil
}

func (s *Storage) ListBookingsByRoom(ctx context.Context, roomID int64) ([]persistence.Booking, error) {
	return s.listBookings(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE room_id = $1 ORDER BY id ASC`, roomID)
}

func (s *Storage) ListBookingsByClient(ctx context.Context, clientID int64) ([]persistence.Booking, error) {
	return s.listBookings(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE client_id = $1 ORDER BY id ASC`, clientID)
}

func (s *Storage) listBookings(ctx context.Context, query string, args ...any) ([]persistence.Booking, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError("list bookings", err)
	}
	defer rows.Close()

	bookings := make([]persistence.Booking, 0)
	for rows.Next() {
		var booking persistence.Booking
		var status string
		if err := rows.Scan(
			&booking.ID,
			&booking.ClientID,
			&booking.PractitionerID,
			&booking.ServiceID,
			&booking.ServiceSessionID,
			&booking.RoomID,
			&status,
			&booking.CreatedAt,
			&booking.UpdatedAt,
		); err != nil {
			return nil, mapError("scan booking", err)
		}
		booking.Status = persistence.BookingStatus(status)
		bookings = append(bookings, booking)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError("iterate bookings", err)
	}
	return bookings, nil
}

// --- SessionRepository ---

const sessionColumns = `id, user_id, token, fingerprint, expires_at, revoked_at, created_at, updated_at`

func (s *Storage) CreateSession(ctx context.Context, session persistence.Session) (persistence.Session, error) {
	session.ID = strings.TrimSpace(session.ID)
	session.Token = strings.TrimSpace(session.Token)
	if session.ID == "" || session.Token == "" || session.UserID == 0 {
		return persistence.Session{}, persistence.ErrConstraintViolation
	}
	session.CreatedAt = nowUTC(session.CreatedAt)
	session.UpdatedAt = nowUTC(session.UpdatedAt)
	session.ExpiresAt = session.ExpiresAt.UTC()

	_, err := s.pool.Exec(ctx, `
		INSERT INTO sessions (id, user_id, token, fingerprint, expires_at, revoked_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		session.ID,
		session.UserID,
		session.Token,
		strings.TrimSpace(session.Fingerprint),
		session.ExpiresAt,
		session.RevokedAt,
		session.CreatedAt,
		session.UpdatedAt,
	)
	if err != nil {
		return persistence.Session{}, mapError("create session", err)
	}
	return session, nil
}

func (s *Storage) GetSession(ctx context.Context, token string) (persistence.Session, error) {
	normalized := strings.TrimSpace(token)
	if normalized == "" {
		return persistence.Session{}, persistence.ErrNotFound
	}
	return scanSession(s.pool.QueryRow(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE token = $1`, normalized))
}

func (s *Storage) UpdateSession(ctx context.Context, session persistence.Session) (persistence.Session, error) {
	session.Token = strings.TrimSpace(session.Token)
	if strings.TrimSpace(session.ID) == "" || session.Token == "" {
		return persistence.Session{}, persistence.ErrConstraintViolation
	}
	return scanSession(s.pool.QueryRow(ctx, `
		UPDATE sessions
		SET token = $1, fingerprint = $2, expires_at = $3, revoked_at = $4, updated_at = $5
		WHERE id = $6
		RETURNING `+sessionColumns,
		session.Token,
		strings.TrimSpace(session.Fingerprint),
		session.ExpiresAt.UTC(),
		session.RevokedAt,
		nowUTC(session.UpdatedAt),
		strings.TrimSpace(session.ID),
	))
}

func (s *Storage) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (persistence.Session, error) {
	normalized := strings.TrimSpace(token)
	if normalized == "" {
		return persistence.Session{}, persistence.ErrNotFound
	}
	return scanSession(s.pool.QueryRow(ctx, `
		UPDATE sessions SET revoked_at = $1, updated_at = $1
		WHERE token = $2
		RETURNING `+sessionColumns,
		revokedAt.UTC(), normalized,
	))
}

func (s *Storage) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, reference.UTC()); err != nil {
		return mapError("delete expired sessions", err)
	}
	return nil
}

func scanSession(row pgx.Row) (persistence.Session, error) {
	var session persistence.Session
	err := row.Scan(
		&session.ID,
		&session.UserID,
		&session.Token,
		&session.Fingerprint,
		&session.ExpiresAt,
		&session.RevokedAt,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if err != nil {
		return persistence.Session{}, mapError("get session", err)
	}
	return session, nil
}
