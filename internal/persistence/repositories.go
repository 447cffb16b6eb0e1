package persistence

import (
	"context"
	"time"
)

// UserRepository stores marketplace accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) (User, error)
	GetUser(ctx context.Context, id int64) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
}

// PractitionerRepository stores practitioner profiles.
type PractitionerRepository interface {
	CreatePractitioner(ctx context.Context, practitioner Practitioner) (Practitioner, error)
	GetPractitioner(ctx context.Context, id int64) (Practitioner, error)
}

// ServiceRepository stores services and their scheduled sessions.
type ServiceRepository interface {
	CreateService(ctx context.Context, service Service) (Service, error)
	GetService(ctx context.Context, id int64) (Service, error)
	CreateServiceSession(ctx context.Context, session ServiceSession) (ServiceSession, error)
	// GetServiceSessionByRoom returns ErrNotFound when no session uses the room.
	GetServiceSessionByRoom(ctx context.Context, roomID int64) (ServiceSession, error)
}

// RoomRepository stores video rooms.
type RoomRepository interface {
	CreateRoom(ctx context.Context, room Room) (Room, error)
	GetRoom(ctx context.Context, id int64) (Room, error)
	GetRoomByPublicUUID(ctx context.Context, publicUUID string) (Room, error)
	UpdateRoomStatus(ctx context.Context, id int64, status RoomStatus, updatedAt time.Time) (Room, error)
}

// BookingRepository stores bookings. List results are ordered by ID.
type BookingRepository interface {
	CreateBooking(ctx context.Context, booking Booking) (Booking, error)
	ListBookingsByRoom(ctx context.Context, roomID int64) ([]Booking, error)
	ListBookingsByClient(ctx context.Context, clientID int64) ([]Booking, error)
}

// SessionRepository stores authentication session state.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	GetSession(ctx context.Context, token string) (Session, error)
	UpdateSession(ctx context.Context, session Session) (Session, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error)
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}

// Store bundles every repository a backend implements.
type Store interface {
	UserRepository
	PractitionerRepository
	ServiceRepository
	RoomRepository
	BookingRepository
	SessionRepository
	Close() error
}
