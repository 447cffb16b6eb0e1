// Package storetest holds the behaviour every persistence.Store must share.
// Backend test files call Run with a factory that returns an empty, migrated store.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/room-access/internal/persistence"
)

// Factory returns a fresh store. Cleanup is the factory's responsibility.
type Factory func(t *testing.T) persistence.Store

// Run executes the shared repository suite against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Helper()

	t.Run("Users", func(t *testing.T) { testUsers(t, newStore(t)) })
	t.Run("ServicesAndSessions", func(t *testing.T) { testServices(t, newStore(t)) })
	t.Run("Rooms", func(t *testing.T) { testRooms(t, newStore(t)) })
	t.Run("Bookings", func(t *testing.T) { testBookings(t, newStore(t)) })
	t.Run("AuthSessions", func(t *testing.T) { testAuthSessions(t, newStore(t)) })
}

func base() time.Time {
	return time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
}

func ptr(v int64) *int64 { return &v }

func testUsers(t *testing.T, store persistence.Store) {
	ctx := context.Background()
	now := base()

	practitioner, err := store.CreatePractitioner(ctx, persistence.Practitioner{DisplayName: "Dana", CreatedAt: now})
	require.NoError(t, err)
	require.NotZero(t, practitioner.ID)

	created, err := store.CreateUser(ctx, persistence.User{
		Email:          "dana@example.com",
		DisplayName:    "Dana",
		PasswordHash:   "hash",
		PractitionerID: ptr(practitioner.ID),
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	fetched, err := store.GetUser(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "dana@example.com", fetched.Email)
	assert.False(t, fetched.IsAdmin)
	require.NotNil(t, fetched.PractitionerID)
	assert.Equal(t, practitioner.ID, *fetched.PractitionerID)
	assert.WithinDuration(t, now, fetched.CreatedAt, time.Millisecond)

	byEmail, err := store.GetUserByEmail(ctx, "  DANA@example.com ")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)

	admin, err := store.CreateUser(ctx, persistence.User{Email: "admin@example.com", IsAdmin: true, CreatedAt: now, UpdatedAt: now})
	require.NoError(t, err)
	assert.NotEqual(t, created.ID, admin.ID)
	fetchedAdmin, err := store.GetUser(ctx, admin.ID)
	require.NoError(t, err)
	assert.True(t, fetchedAdmin.IsAdmin)
	assert.Nil(t, fetchedAdmin.PractitionerID)

	_, err = store.CreateUser(ctx, persistence.User{Email: "dana@example.com", CreatedAt: now, UpdatedAt: now})
	assert.ErrorIs(t, err, persistence.ErrDuplicate)

	_, err = store.CreateUser(ctx, persistence.User{Email: "ghost@example.com", PractitionerID: ptr(9999), CreatedAt: now, UpdatedAt: now})
	assert.ErrorIs(t, err, persistence.ErrConstraintViolation)

	_, err = store.GetUser(ctx, 9999)
	assert.ErrorIs(t, err, persistence.ErrNotFound)
	_, err = store.GetUserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, persistence.ErrNotFound)
	_, err = store.GetPractitioner(ctx, 9999)
	assert.ErrorIs(t, err, persistence.ErrNotFound)
}

func testServices(t *testing.T, store persistence.Store) {
	ctx := context.Background()
	now := base()

	practitioner, err := store.CreatePractitioner(ctx, persistence.Practitioner{DisplayName: "Lee", CreatedAt: now})
	require.NoError(t, err)

	service, err := store.CreateService(ctx, persistence.Service{
		PractitionerID: practitioner.ID,
		Name:           "Breathwork",
		Type:           persistence.ServiceTypeWorkshop,
		CreatedAt:      now,
	})
	require.NoError(t, err)

	fetched, err := store.GetService(ctx, service.ID)
	require.NoError(t, err)
	assert.Equal(t, persistence.ServiceTypeWorkshop, fetched.Type)
	assert.Equal(t, practitioner.ID, fetched.PractitionerID)

	_, err = store.CreateService(ctx, persistence.Service{PractitionerID: 9999, Type: persistence.ServiceTypeSession, CreatedAt: now})
	assert.ErrorIs(t, err, persistence.ErrConstraintViolation)

	room, err := store.CreateRoom(ctx, persistence.Room{
		PublicUUID: uuid.NewString(),
		Status:     persistence.RoomStatusScheduled,
		Type:       persistence.RoomTypeGroup,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	require.NoError(t, err)

	_, err = store.GetServiceSessionByRoom(ctx, room.ID)
	assert.ErrorIs(t, err, persistence.ErrNotFound)

	session, err := store.CreateServiceSession(ctx, persistence.ServiceSession{
		ServiceID: service.ID,
		RoomID:    ptr(room.ID),
		StartTime: now.Add(time.Hour),
		EndTime:   now.Add(2 * time.Hour),
		CreatedAt: now,
	})
	require.NoError(t, err)

	byRoom, err := store.GetServiceSessionByRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, session.ID, byRoom.ID)
	assert.Equal(t, service.ID, byRoom.ServiceID)
	assert.WithinDuration(t, now.Add(time.Hour), byRoom.StartTime, time.Millisecond)
	assert.WithinDuration(t, now.Add(2*time.Hour), byRoom.EndTime, time.Millisecond)

	_, err = store.CreateServiceSession(ctx, persistence.ServiceSession{
		ServiceID: service.ID,
		RoomID:    ptr(room.ID),
		StartTime: now,
		EndTime:   now.Add(time.Hour),
		CreatedAt: now,
	})
	assert.ErrorIs(t, err, persistence.ErrDuplicate)

	unscheduled, err := store.CreateServiceSession(ctx, persistence.ServiceSession{
		ServiceID: service.ID,
		StartTime: now,
		EndTime:   now.Add(time.Hour),
		CreatedAt: now,
	})
	require.NoError(t, err)
	assert.Nil(t, unscheduled.RoomID)
}

func testRooms(t *testing.T, store persistence.Store) {
	ctx := context.Background()
	now := base()

	creator, err := store.CreateUser(ctx, persistence.User{Email: "creator@example.com", CreatedAt: now, UpdatedAt: now})
	require.NoError(t, err)

	publicUUID := uuid.NewString()
	room, err := store.CreateRoom(ctx, persistence.Room{
		PublicUUID:       publicUUID,
		ProviderRoomName: "room-" + publicUUID,
		Status:           persistence.RoomStatusScheduled,
		Type:             persistence.RoomTypeIndividual,
		CreatedByID:      ptr(creator.ID),
		CreatedAt:        now,
		UpdatedAt:        now,
	})
	require.NoError(t, err)
	require.NotZero(t, room.ID)

	fetched, err := store.GetRoomByPublicUUID(ctx, publicUUID)
	require.NoError(t, err)
	assert.Equal(t, room.ID, fetched.ID)
	assert.Equal(t, "room-"+publicUUID, fetched.ProviderRoomName)
	assert.Equal(t, persistence.RoomTypeIndividual, fetched.Type)
	require.NotNil(t, fetched.CreatedByID)
	assert.Equal(t, creator.ID, *fetched.CreatedByID)

	_, err = store.CreateRoom(ctx, persistence.Room{
		PublicUUID: publicUUID,
		Status:     persistence.RoomStatusScheduled,
		Type:       persistence.RoomTypeGroup,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	assert.ErrorIs(t, err, persistence.ErrDuplicate)

	later := now.Add(30 * time.Minute)
	updated, err := store.UpdateRoomStatus(ctx, room.ID, persistence.RoomStatusActive, later)
	require.NoError(t, err)
	assert.Equal(t, persistence.RoomStatusActive, updated.Status)
	assert.WithinDuration(t, later, updated.UpdatedAt, time.Millisecond)

	byID, err := store.GetRoom(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, persistence.RoomStatusActive, byID.Status)

	_, err = store.UpdateRoomStatus(ctx, 9999, persistence.RoomStatusEnded, later)
	assert.ErrorIs(t, err, persistence.ErrNotFound)
	_, err = store.GetRoomByPublicUUID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, persistence.ErrNotFound)
	_, err = store.GetRoom(ctx, 9999)
	assert.ErrorIs(t, err, persistence.ErrNotFound)
}

func testBookings(t *testing.T, store persistence.Store) {
	ctx := context.Background()
	now := base()

	practitioner, err := store.CreatePractitioner(ctx, persistence.Practitioner{DisplayName: "Kai", CreatedAt: now})
	require.NoError(t, err)
	client, err := store.CreateUser(ctx, persistence.User{Email: "client@example.com", CreatedAt: now, UpdatedAt: now})
	require.NoError(t, err)
	other, err := store.CreateUser(ctx, persistence.User{Email: "other@example.com", CreatedAt: now, UpdatedAt: now})
	require.NoError(t, err)
	room, err := store.CreateRoom(ctx, persistence.Room{
		PublicUUID: uuid.NewString(),
		Status:     persistence.RoomStatusScheduled,
		Type:       persistence.RoomTypeIndividual,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	require.NoError(t, err)
	service, err := store.CreateService(ctx, persistence.Service{PractitionerID: practitioner.ID, Type: persistence.ServiceTypeSession, CreatedAt: now})
	require.NoError(t, err)

	first, err := store.CreateBooking(ctx, persistence.Booking{
		ClientID:       client.ID,
		PractitionerID: practitioner.ID,
		ServiceID:      ptr(service.ID),
		RoomID:         ptr(room.ID),
		Status:         persistence.BookingStatusConfirmed,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	require.NoError(t, err)
	second, err := store.CreateBooking(ctx, persistence.Booking{
		ClientID:       other.ID,
		PractitionerID: practitioner.ID,
		RoomID:         ptr(room.ID),
		Status:         persistence.BookingStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	require.NoError(t, err)
	third, err := store.CreateBooking(ctx, persistence.Booking{
		ClientID:       client.ID,
		PractitionerID: practitioner.ID,
		ServiceID:      ptr(service.ID),
		Status:         persistence.BookingStatusCancelled,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	require.NoError(t, err)

	byRoom, err := store.ListBookingsByRoom(ctx, room.ID)
	require.NoError(t, err)
	require.Len(t, byRoom, 2)
	assert.Equal(t, first.ID, byRoom[0].ID)
	assert.Equal(t, second.ID, byRoom[1].ID)
	assert.Equal(t, persistence.BookingStatusConfirmed, byRoom[0].Status)
	require.NotNil(t, byRoom[0].ServiceID)
	assert.Equal(t, service.ID, *byRoom[0].ServiceID)
	assert.Nil(t, byRoom[1].ServiceID)
	assert.Nil(t, byRoom[0].ServiceSessionID)

	byClient, err := store.ListBookingsByClient(ctx, client.ID)
	require.NoError(t, err)
	require.Len(t, byClient, 2)
	assert.Equal(t, first.ID, byClient[0].ID)
	assert.Equal(t, third.ID, byClient[1].ID)
	assert.Nil(t, byClient[1].RoomID)

	empty, err := store.ListBookingsByRoom(ctx, 9999)
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = store.CreateBooking(ctx, persistence.Booking{
		ClientID:       9999,
		PractitionerID: practitioner.ID,
		Status:         persistence.BookingStatusConfirmed,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	assert.ErrorIs(t, err, persistence.ErrConstraintViolation)
}

func testAuthSessions(t *testing.T, store persistence.Store) {
	ctx := context.Background()
	now := base()

	user, err := store.CreateUser(ctx, persistence.User{Email: "session@example.com", CreatedAt: now, UpdatedAt: now})
	require.NoError(t, err)

	session, err := store.CreateSession(ctx, persistence.Session{
		ID:          "session-1",
		UserID:      user.ID,
		Token:       "token-1",
		Fingerprint: "fp",
		ExpiresAt:   now.Add(time.Hour),
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	require.NoError(t, err)
	assert.Equal(t, "token-1", session.Token)

	_, err = store.CreateSession(ctx, persistence.Session{ID: "session-2", UserID: user.ID, Token: "token-1", ExpiresAt: now.Add(time.Hour), CreatedAt: now, UpdatedAt: now})
	assert.ErrorIs(t, err, persistence.ErrDuplicate)
	_, err = store.CreateSession(ctx, persistence.Session{ID: "session-3", UserID: user.ID, Token: " ", ExpiresAt: now, CreatedAt: now, UpdatedAt: now})
	assert.ErrorIs(t, err, persistence.ErrConstraintViolation)

	fetched, err := store.GetSession(ctx, "token-1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, fetched.UserID)
	assert.Nil(t, fetched.RevokedAt)
	assert.WithinDuration(t, now.Add(time.Hour), fetched.ExpiresAt, time.Millisecond)

	rotated := fetched
	rotated.Token = "token-rotated"
	rotated.ExpiresAt = now.Add(2 * time.Hour)
	rotated.UpdatedAt = now.Add(time.Minute)
	_, err = store.UpdateSession(ctx, rotated)
	require.NoError(t, err)

	_, err = store.GetSession(ctx, "token-1")
	assert.ErrorIs(t, err, persistence.ErrNotFound)
	afterRotation, err := store.GetSession(ctx, "token-rotated")
	require.NoError(t, err)
	assert.Equal(t, "session-1", afterRotation.ID)
	assert.WithinDuration(t, now.Add(2*time.Hour), afterRotation.ExpiresAt, time.Millisecond)

	_, err = store.UpdateSession(ctx, persistence.Session{ID: "missing", Token: "x", ExpiresAt: now})
	assert.ErrorIs(t, err, persistence.ErrNotFound)

	revokedAt := now.Add(5 * time.Minute)
	revoked, err := store.RevokeSession(ctx, "token-rotated", revokedAt)
	require.NoError(t, err)
	require.NotNil(t, revoked.RevokedAt)
	assert.WithinDuration(t, revokedAt, *revoked.RevokedAt, time.Millisecond)

	_, err = store.RevokeSession(ctx, "missing", revokedAt)
	assert.ErrorIs(t, err, persistence.ErrNotFound)

	_, err = store.CreateSession(ctx, persistence.Session{
		ID:        "session-expired",
		UserID:    user.ID,
		Token:     "token-expired",
		ExpiresAt: now.Add(-time.Minute),
		CreatedAt: now.Add(-time.Hour),
		UpdatedAt: now.Add(-time.Hour),
	})
	require.NoError(t, err)

	require.NoError(t, store.DeleteExpiredSessions(ctx, now))
	_, err = store.GetSession(ctx, "token-expired")
	assert.ErrorIs(t, err, persistence.ErrNotFound)
	_, err = store.GetSession(ctx, "token-rotated")
	assert.NoError(t, err)
}
