package testfixtures

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/example/room-access/internal/persistence"
)

// Ptr returns a pointer to v.
func Ptr(v int64) *int64 { return &v }

// Marketplace writes users, services, rooms and bookings into a store with
// predictable timestamps and room UUIDs. Every helper fails the test on error.
type Marketplace struct {
	tb    testing.TB
	Store persistence.Store
	Clock *Clock
	IDs   *IDGenerator
}

// NewMarketplace wraps store for fixture building.
func NewMarketplace(tb testing.TB, store persistence.Store) *Marketplace {
	tb.Helper()
	return &Marketplace{tb: tb, Store: store, Clock: NewClock(time.Time{}), IDs: NewIDGenerator("room")}
}

// UserOption adjusts a user before it is stored.
type UserOption func(*persistence.User)

// WithPasswordHash stores hash as the user's password.
func WithPasswordHash(hash string) UserOption {
	return func(u *persistence.User) { u.PasswordHash = hash }
}

// WithAdmin marks the user as an administrator.
func WithAdmin() UserOption {
	return func(u *persistence.User) { u.IsAdmin = true }
}

// Client stores a plain account.
func (m *Marketplace) Client(email string, opts ...UserOption) persistence.User {
	m.tb.Helper()
	return m.user(email, nil, opts...)
}

// Practitioner stores a practitioner profile and the account acting for it.
func (m *Marketplace) Practitioner(email string, opts ...UserOption) (persistence.User, persistence.Practitioner) {
	m.tb.Helper()
	practitioner, err := m.Store.CreatePractitioner(context.Background(), persistence.Practitioner{
		DisplayName: email,
		CreatedAt:   m.Clock.Now(),
	})
	require.NoError(m.tb, err, "create practitioner %s", email)
	return m.user(email, &practitioner.ID, opts...), practitioner
}

func (m *Marketplace) user(email string, practitionerID *int64, opts ...UserOption) persistence.User {
	m.tb.Helper()
	now := m.Clock.Now()
	user := persistence.User{
		Email:          email,
		DisplayName:    email,
		PractitionerID: practitionerID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	for _, opt := range opts {
		opt(&user)
	}
	created, err := m.Store.CreateUser(context.Background(), user)
	require.NoError(m.tb, err, "create user %s", email)
	return created
}

// RoomOption adjusts a room before it is stored.
type RoomOption func(*persistence.Room)

// CreatedBy records userID as the room creator.
func CreatedBy(userID int64) RoomOption {
	return func(r *persistence.Room) { r.CreatedByID = Ptr(userID) }
}

// WithRoomType overrides the default individual room type.
func WithRoomType(roomType persistence.RoomType) RoomOption {
	return func(r *persistence.Room) { r.Type = roomType }
}

// WithRoomStatus overrides the default scheduled status.
func WithRoomStatus(status persistence.RoomStatus) RoomOption {
	return func(r *persistence.Room) { r.Status = status }
}

// Room stores a scheduled individual room with the next sequential UUID.
func (m *Marketplace) Room(opts ...RoomOption) persistence.Room {
	m.tb.Helper()
	now := m.Clock.Now()
	publicUUID := m.IDs.NextUUID()
	room := persistence.Room{
		PublicUUID:       publicUUID,
		ProviderRoomName: "room-" + publicUUID,
		Status:           persistence.RoomStatusScheduled,
		Type:             persistence.RoomTypeIndividual,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	for _, opt := range opts {
		opt(&room)
	}
	created, err := m.Store.CreateRoom(context.Background(), room)
	require.NoError(m.tb, err, "create room")
	return created
}

// Service stores an offering of serviceType for practitionerID.
func (m *Marketplace) Service(practitionerID int64, serviceType persistence.ServiceType) persistence.Service {
	m.tb.Helper()
	service, err := m.Store.CreateService(context.Background(), persistence.Service{
		PractitionerID: practitionerID,
		Name:           string(serviceType),
		Type:           serviceType,
		CreatedAt:      m.Clock.Now(),
	})
	require.NoError(m.tb, err, "create service")
	return service
}

// ServiceSession stores a one hour occurrence of serviceID held in roomID,
// starting offset after the reference time.
func (m *Marketplace) ServiceSession(serviceID, roomID int64, offset time.Duration) persistence.ServiceSession {
	m.tb.Helper()
	start := m.Clock.Now().Add(offset)
	session, err := m.Store.CreateServiceSession(context.Background(), persistence.ServiceSession{
		ServiceID: serviceID,
		RoomID:    Ptr(roomID),
		StartTime: start,
		EndTime:   start.Add(time.Hour),
		CreatedAt: m.Clock.Now(),
	})
	require.NoError(m.tb, err, "create service session")
	return session
}

// Booking stores booking, defaulting the status to confirmed.
func (m *Marketplace) Booking(booking persistence.Booking) persistence.Booking {
	m.tb.Helper()
	if booking.Status == "" {
		booking.Status = persistence.BookingStatusConfirmed
	}
	now := m.Clock.Now()
	booking.CreatedAt = now
	booking.UpdatedAt = now
	created, err := m.Store.CreateBooking(context.Background(), booking)
	require.NoError(m.tb, err, "create booking")
	return created
}

// CourseScenario is a practitioner running a two session course that one
// client booked at the service level, plus an unrelated account.
type CourseScenario struct {
	Practitioner        persistence.User
	PractitionerProfile persistence.Practitioner
	Client              persistence.User
	Stranger            persistence.User
	Service             persistence.Service
	Room1               persistence.Room
	Room2               persistence.Room
	Session1            persistence.ServiceSession
	Session2            persistence.ServiceSession
	Booking             persistence.Booking
}

// CourseScenario builds the course fixture.
func (m *Marketplace) CourseScenario() CourseScenario {
	m.tb.Helper()
	var s CourseScenario
	s.Practitioner, s.PractitionerProfile = m.Practitioner("pr@example.com")
	s.Client = m.Client("cl@example.com")
	s.Stranger = m.Client("stranger@example.com")
	s.Service = m.Service(s.PractitionerProfile.ID, persistence.ServiceTypeCourse)
	s.Room1 = m.Room(WithRoomType(persistence.RoomTypeGroup))
	s.Room2 = m.Room(WithRoomType(persistence.RoomTypeGroup))
	s.Session1 = m.ServiceSession(s.Service.ID, s.Room1.ID, 24*time.Hour)
	s.Session2 = m.ServiceSession(s.Service.ID, s.Room2.ID, 8*24*time.Hour)
	s.Booking = m.Booking(persistence.Booking{
		ClientID:       s.Client.ID,
		PractitionerID: s.PractitionerProfile.ID,
		ServiceID:      Ptr(s.Service.ID),
	})
	return s
}
