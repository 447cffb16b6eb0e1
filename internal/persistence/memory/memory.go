// Package memory provides an in-process persistence.Store used by tests and
// local development.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/example/room-access/internal/persistence"
)

// Storage keeps every record in maps guarded by a single lock.
type Storage struct {
	mu            sync.RWMutex
	nextID        map[string]int64
	users         map[int64]persistence.User
	practitioners map[int64]persistence.Practitioner
	services      map[int64]persistence.Service
	sessions      map[int64]persistence.ServiceSession
	rooms         map[int64]persistence.Room
	bookings      map[int64]persistence.Booking
	authSessions  map[string]persistence.Session
}

var _ persistence.Store = (*Storage)(nil)

// New returns an empty Storage.
func New() *Storage {
	return &Storage{
		nextID:        make(map[string]int64),
		users:         make(map[int64]persistence.User),
		practitioners: make(map[int64]persistence.Practitioner),
		services:      make(map[int64]persistence.Service),
		sessions:      make(map[int64]persistence.ServiceSession),
		rooms:         make(map[int64]persistence.Room),
		bookings:      make(map[int64]persistence.Booking),
		authSessions:  make(map[string]persistence.Session),
	}
}

// Close is a no-op.
func (s *Storage) Close() error {
	return nil
}

// Migrate is a no-op; the maps need no schema.
func (s *Storage) Migrate(context.Context) error {
	return nil
}

// Ping always succeeds.
func (s *Storage) Ping(context.Context) error {
	return nil
}

// assignIDLocked returns id when set, otherwise the next value of the table sequence.
func (s *Storage) assignIDLocked(table string, id int64) int64 {
	if id > 0 {
		if id > s.nextID[table] {
			s.nextID[table] = id
		}
		return id
	}
	s.nextID[table]++
	return s.nextID[table]
}

// --- UserRepository ---

func (s *Storage) CreateUser(ctx context.Context, user persistence.User) (persistence.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(user.Email) == "" {
		return persistence.User{}, persistence.ErrConstraintViolation
	}
	if _, ok := s.users[user.ID]; ok && user.ID != 0 {
		return persistence.User{}, fmt.Errorf("memory: user %d: %w", user.ID, persistence.ErrDuplicate)
	}
	lower := strings.ToLower(user.Email)
	for _, existing := range s.users {
		if strings.ToLower(existing.Email) == lower {
			return persistence.User{}, fmt.Errorf("memory: email %s: %w", user.Email, persistence.ErrDuplicate)
		}
	}
	if user.PractitionerID != nil {
		if _, ok := s.practitioners[*user.PractitionerID]; !ok {
			return persistence.User{}, fmt.Errorf("memory: practitioner %d: %w", *user.PractitionerID, persistence.ErrConstraintViolation)
		}
	}

	user.ID = s.assignIDLocked("users", user.ID)
	s.users[user.ID] = cloneUser(user)
	return cloneUser(user), nil
}

func (s *Storage) GetUser(ctx context.Context, id int64) (persistence.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return persistence.User{}, persistence.ErrNotFound
	}
	return cloneUser(user), nil
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (persistence.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lower := strings.ToLower(strings.TrimSpace(email))
	for _, user := range s.users {
		if strings.ToLower(user.Email) == lower {
			return cloneUser(user), nil
		}
	}
	return persistence.User{}, persistence.ErrNotFound
}

// --- PractitionerRepository ---

func (s *Storage) CreatePractitioner(ctx context.Context, practitioner persistence.Practitioner) (persistence.Practitioner, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.practitioners[practitioner.ID]; ok && practitioner.ID != 0 {
		return persistence.Practitioner{}, fmt.Errorf("memory: practitioner %d: %w", practitioner.ID, persistence.ErrDuplicate)
	}
	practitioner.ID = s.assignIDLocked("practitioners", practitioner.ID)
	s.practitioners[practitioner.ID] = practitioner
	return practitioner, nil
}

func (s *Storage) GetPractitioner(ctx context.Context, id int64) (persistence.Practitioner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	practitioner, ok := s.practitioners[id]
	if !ok {
		return persistence.Practitioner{}, persistence.ErrNotFound
	}
	return practitioner, nil
}

// --- ServiceRepository ---

func (s *Storage) CreateService(ctx context.Context, service persistence.Service) (persistence.Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.practitioners[service.PractitionerID]; !ok {
		return persistence.Service{}, fmt.Errorf("memory: practitioner %d: %w", service.PractitionerID, persistence.ErrConstraintViolation)
	}
	if _, ok := s.services[service.ID]; ok && service.ID != 0 {
		return persistence.Service{}, fmt.Errorf("memory: service %d: %w", service.ID, persistence.ErrDuplicate)
	}
	service.ID = s.assignIDLocked("services", service.ID)
	s.services[service.ID] = service
	return service, nil
}

func (s *Storage) GetService(ctx context.Context, id int64) (persistence.Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	service, ok := s.services[id]
	if !ok {
		return persistence.Service{}, persistence.ErrNotFound
	}
	return service, nil
}

func (s *Storage) CreateServiceSession(ctx context.Context, session persistence.ServiceSession) (persistence.ServiceSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.services[session.ServiceID]; !ok {
		return persistence.ServiceSession{}, fmt.Errorf("memory: service %d: %w", session.ServiceID, persistence.ErrConstraintViolation)
	}
	if session.RoomID != nil {
		if _, ok := s.rooms[*session.RoomID]; !ok {
			return persistence.ServiceSession{}, fmt.Errorf("memory: room %d: %w", *session.RoomID, persistence.ErrConstraintViolation)
		}
		for _, existing := range s.sessions {
			if existing.RoomID != nil && *existing.RoomID == *session.RoomID {
				return persistence.ServiceSession{}, fmt.Errorf("memory: room %d already has a session: %w", *session.RoomID, persistence.ErrDuplicate)
			}
		}
	}
	session.ID = s.assignIDLocked("service_sessions", session.ID)
	s.sessions[session.ID] = cloneServiceSession(session)
	return cloneServiceSession(session), nil
}

func (s *Storage) GetServiceSessionByRoom(ctx context.Context, roomID int64) (persistence.ServiceSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, session := range s.sessions {
		if session.RoomID != nil && *session.RoomID == roomID {
			return cloneServiceSession(session), nil
		}
	}
	return persistence.ServiceSession{}, persistence.ErrNotFound
}

// --- RoomRepository ---

func (s *Storage) CreateRoom(ctx context.Context, room persistence.Room) (persistence.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(room.PublicUUID) == "" {
		return persistence.Room{}, persistence.ErrConstraintViolation
	}
	for _, existing := range s.rooms {
		if existing.PublicUUID == room.PublicUUID {
			return persistence.Room{}, fmt.Errorf("memory: room %s: %w", room.PublicUUID, persistence.ErrDuplicate)
		}
	}
	if _, ok := s.rooms[room.ID]; ok && room.ID != 0 {
		return persistence.Room{}, fmt.Errorf("memory: room %d: %w", room.ID, persistence.ErrDuplicate)
	}
	room.ID = s.assignIDLocked("rooms", room.ID)
	s.rooms[room.ID] = cloneRoom(room)
	return cloneRoom(room), nil
}

func (s *Storage) GetRoom(ctx context.Context, id int64) (persistence.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	room, ok := s.rooms[id]
	if !ok {
		return persistence.Room{}, persistence.ErrNotFound
	}
	return cloneRoom(room), nil
}

func (s *Storage) GetRoomByPublicUUID(ctx context.Context, publicUUID string) (persistence.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, room := range s.rooms {
		if strings.EqualFold(room.PublicUUID, publicUUID) {
			return cloneRoom(room), nil
		}
	}
	return persistence.Room{}, persistence.ErrNotFound
}

func (s *Storage) UpdateRoomStatus(ctx context.Context, id int64, status persistence.RoomStatus, updatedAt time.Time) (persistence.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[id]
	if !ok {
		return persistence.Room{}, persistence.ErrNotFound
	}
	room.Status = status
	room.UpdatedAt = updatedAt
	s.rooms[id] = room
	return cloneRoom(room), nil
}

// --- BookingRepository ---

func (s *Storage) CreateBooking(ctx context.Context, booking persistence.Booking) (persistence.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[booking.ClientID]; !ok {
		return persistence.Booking{}, fmt.Errorf("memory: client %d: %w", booking.ClientID, persistence.ErrConstraintViolation)
	}
	if _, ok := s.practitioners[booking.PractitionerID]; !ok {
		return persistence.Booking{}, fmt.Errorf("memory: practitioner %d: %w", booking.PractitionerID, persistence.ErrConstraintViolation)
	}
	if booking.ServiceID != nil {
		if _, ok := s.services[*booking.ServiceID]; !ok {
			return persistence.Booking{}, fmt.Errorf("memory: service %d: %w", *booking.ServiceID, persistence.ErrConstraintViolation)
		}
	}
	if booking.ServiceSessionID != nil {
		if _, ok := s.sessions[*booking.ServiceSessionID]; !ok {
			return persistence.Booking{}, fmt.Errorf("memory: service session %d: %w", *booking.ServiceSessionID, persistence.ErrConstraintViolation)
		}
	}
	if booking.RoomID != nil {
		if _, ok := s.rooms[*booking.RoomID]; !ok {
			return persistence.Booking{}, fmt.Errorf("memory: room %d: %w", *booking.RoomID, persistence.ErrConstraintViolation)
		}
	}
	if _, ok := s.bookings[booking.ID]; ok && booking.ID != 0 {
		return persistence.Booking{}, fmt.Errorf("memory: booking %d: %w", booking.ID, persistence.ErrDuplicate)
	}
	booking.ID = s.assignIDLocked("bookings", booking.ID)
	s.bookings[booking.ID] = cloneBooking(booking)
	return cloneBooking(booking), nil
}

func (s *Storage) ListBookingsByRoom(ctx context.Context, roomID int64) ([]persistence.Booking, error) {
	return s.listBookings(func(b persistence.Booking) bool {
		return b.RoomID != nil && *b.RoomID == roomID
	}), nil
}

func (s *Storage) ListBookingsByClient(ctx context.Context, clientID int64) ([]persistence.Booking, error) {
	return s.listBookings(func(b persistence.Booking) bool {
		return b.ClientID == clientID
	}), nil
}

func (s *Storage) listBookings(match func(persistence.Booking) bool) []persistence.Booking {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bookings := make([]persistence.Booking, 0)
	for _, booking := range s.bookings {
		if match(booking) {
			bookings = append(bookings, cloneBooking(booking))
		}
	}
	sort.Slice(bookings, func(i, j int) bool {
		return bookings[i].ID < bookings[j].ID
	})
	return bookings
}

// --- SessionRepository ---

func (s *Storage) CreateSession(ctx context.Context, session persistence.Session) (persistence.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if session.ID == "" || session.UserID == 0 || strings.TrimSpace(session.Token) == "" {
		return persistence.Session{}, persistence.ErrConstraintViolation
	}
	if _, ok := s.users[session.UserID]; !ok {
		return persistence.Session{}, fmt.Errorf("memory: user %d: %w", session.UserID, persistence.ErrConstraintViolation)
	}
	if _, ok := s.authSessions[session.Token]; ok {
		return persistence.Session{}, persistence.ErrDuplicate
	}
	s.authSessions[session.Token] = cloneSession(session)
	return cloneSession(session), nil
}

func (s *Storage) GetSession(ctx context.Context, token string) (persistence.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.authSessions[strings.TrimSpace(token)]
	if !ok {
		return persistence.Session{}, persistence.ErrNotFound
	}
	return cloneSession(session), nil
}

// UpdateSession replaces the session with the same ID, re-keying it when the token rotated.
func (s *Storage) UpdateSession(ctx context.Context, session persistence.Session) (persistence.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for token, existing := range s.authSessions {
		if existing.ID != session.ID {
			continue
		}
		delete(s.authSessions, token)
		session.CreatedAt = existing.CreatedAt
		s.authSessions[session.Token] = cloneSession(session)
		return cloneSession(session), nil
	}
	return persistence.Session{}, persistence.ErrNotFound
}

func (s *Storage) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (persistence.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.authSessions[strings.TrimSpace(token)]
	if !ok {
		return persistence.Session{}, persistence.ErrNotFound
	}
	revoked := revokedAt
	session.RevokedAt = &revoked
	session.UpdatedAt = revokedAt
	s.authSessions[session.Token] = session
	return cloneSession(session), nil
}

// DeleteExpiredSessions drops sessions that expired at or before reference.
func (s *Storage) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for token, session := range s.authSessions {
		if !session.ExpiresAt.After(reference) {
			delete(s.authSessions, token)
		}
	}
	return nil
}

// --- Helpers ---

func cloneInt64(value *int64) *int64 {
	if value == nil {
		return nil
	}
	clone := *value
	return &clone
}

func cloneUser(user persistence.User) persistence.User {
	user.PractitionerID = cloneInt64(user.PractitionerID)
	return user
}

func cloneServiceSession(session persistence.ServiceSession) persistence.ServiceSession {
	session.RoomID = cloneInt64(session.RoomID)
	return session
}

func cloneRoom(room persistence.Room) persistence.Room {
	room.CreatedByID = cloneInt64(room.CreatedByID)
	return room
}

func cloneBooking(booking persistence.Booking) persistence.Booking {
	booking.ServiceID = cloneInt64(booking.ServiceID)
	booking.ServiceSessionID = cloneInt64(booking.ServiceSessionID)
	booking.RoomID = cloneInt64(booking.RoomID)
	return booking
}

func cloneSession(session persistence.Session) persistence.Session {
	if session.RevokedAt != nil {
		revoked := *session.RevokedAt
		session.RevokedAt = &revoked
	}
	return session
}
