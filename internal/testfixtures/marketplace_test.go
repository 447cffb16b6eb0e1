package testfixtures

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/room-access/internal/persistence"
	"github.com/example/room-access/internal/persistence/memory"
)

func TestCourseScenarioLinksRecords(t *testing.T) {
	for name, store := range map[string]persistence.Store{
		"memory": memory.New(),
		"sqlite": NewSQLiteStore(t),
	} {
		t.Run(name, func(t *testing.T) {
			m := NewMarketplace(t, store)
			s := m.CourseScenario()

			require.NotNil(t, s.Practitioner.PractitionerID)
			assert.Equal(t, s.PractitionerProfile.ID, *s.Practitioner.PractitionerID)
			assert.Equal(t, persistence.ServiceTypeCourse, s.Service.Type)
			assert.NotEqual(t, s.Room1.PublicUUID, s.Room2.PublicUUID)

			ctx := context.Background()
			session, err := store.GetServiceSessionByRoom(ctx, s.Room2.ID)
			require.NoError(t, err)
			assert.Equal(t, s.Session2.ID, session.ID)

			bookings, err := store.ListBookingsByClient(ctx, s.Client.ID)
			require.NoError(t, err)
			require.Len(t, bookings, 1)
			assert.Equal(t, persistence.BookingStatusConfirmed, bookings[0].Status)
			assert.Nil(t, bookings[0].ServiceSessionID)
		})
	}
}

func TestRoomOptions(t *testing.T) {
	m := NewMarketplace(t, memory.New())
	owner := m.Client("owner@example.com")

	room := m.Room(CreatedBy(owner.ID), WithRoomType(persistence.RoomTypeWebinar), WithRoomStatus(persistence.RoomStatusActive))

	require.NotNil(t, room.CreatedByID)
	assert.Equal(t, owner.ID, *room.CreatedByID)
	assert.Equal(t, persistence.RoomTypeWebinar, room.Type)
	assert.Equal(t, persistence.RoomStatusActive, room.Status)
	assert.Equal(t, "room-"+room.PublicUUID, room.ProviderRoomName)
}
