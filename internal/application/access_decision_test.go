package application

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/room-access/internal/persistence"
)

func sampleRoom() persistence.Room {
	creator := int64(7)
	return persistence.Room{
		ID:               3,
		PublicUUID:       "00000000-0000-4000-8000-000000000003",
		ProviderRoomName: "provider-room-3",
		Status:           persistence.RoomStatusActive,
		Type:             persistence.RoomTypeGroup,
		CreatedByID:      &creator,
	}
}

func TestBuildAccessDecision_Denied(t *testing.T) {
	t.Parallel()

	decision := BuildAccessDecision(Evaluation{Role: RoleViewer, Reason: DenyNotAuthenticated})

	raw, err := json.Marshal(decision)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"can_join": false,
		"role": "viewer",
		"reason": "not authenticated",
		"room": null,
		"booking": null,
		"service_session": null
	}`, string(raw))
}

func TestBuildAccessDecision_DeniedForcesViewer(t *testing.T) {
	t.Parallel()

	room := sampleRoom()
	decision := BuildAccessDecision(Evaluation{Role: RoleHost, Room: &room})

	assert.False(t, decision.CanJoin)
	assert.Equal(t, RoleViewer, decision.Role)
	require.NotNil(t, decision.Reason)
	assert.Equal(t, DenyNoGrant.String(), *decision.Reason)
}

func TestBuildAccessDecision_GrantedWithSession(t *testing.T) {
	t.Parallel()

	room := sampleRoom()
	serviceID := int64(11)
	start := time.Date(2026, 3, 15, 10, 0, 0, 0, time.FixedZone("CET", 3600))
	session := persistence.ServiceSession{
		ID:        5,
		ServiceID: serviceID,
		RoomID:    &room.ID,
		StartTime: start,
		EndTime:   start.Add(time.Hour),
	}
	service := persistence.Service{ID: serviceID, PractitionerID: 2, Type: persistence.ServiceTypeCourse}
	booking := persistence.Booking{ID: 9, ClientID: 4, PractitionerID: 2, ServiceID: &serviceID, Status: persistence.BookingStatusConfirmed}

	decision := BuildAccessDecision(Evaluation{
		Rule:           ruleServiceSession,
		Granted:        true,
		Role:           RoleParticipant,
		Room:           &room,
		Booking:        &booking,
		ServiceSession: &session,
		Service:        &service,
	})

	raw, err := json.Marshal(decision)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"can_join": true,
		"role": "participant",
		"reason": null,
		"room": {
			"id": 3,
			"public_uuid": "00000000-0000-4000-8000-000000000003",
			"provider_room_name": "provider-room-3",
			"status": "active",
			"room_type": "group"
		},
		"booking": {
			"id": 9,
			"status": "confirmed",
			"client_id": 4,
			"practitioner_id": 2,
			"service_id": 11,
			"service_session_id": null
		},
		"service_session": {
			"id": 5,
			"service_id": 11,
			"service_type": "course",
			"room_id": 3,
			"start_time": "2026-03-15T09:00:00Z",
			"end_time": "2026-03-15T10:00:00Z"
		}
	}`, string(raw))
}

func TestBuildAccessDecision_CopiesIdentifiers(t *testing.T) {
	t.Parallel()

	serviceID := int64(11)
	booking := persistence.Booking{ID: 1, ServiceID: &serviceID, Status: persistence.BookingStatusConfirmed}
	room := sampleRoom()

	decision := BuildAccessDecision(Evaluation{Granted: true, Role: RoleParticipant, Room: &room, Booking: &booking})
	serviceID = 99

	require.NotNil(t, decision.Booking.ServiceID)
	assert.Equal(t, int64(11), *decision.Booking.ServiceID)
}

func TestAccessDecision_OmitsSecrets(t *testing.T) {
	t.Parallel()

	room := sampleRoom()
	raw, err := json.Marshal(BuildAccessDecision(Evaluation{Granted: true, Role: RoleHost, Room: &room}))
	require.NoError(t, err)

	var payload struct {
		Room map[string]any `json:"room"`
	}
	require.NoError(t, json.Unmarshal(raw, &payload))

	assert.Len(t, payload.Room, 5)
	for _, key := range []string{"created_by_id", "token", "password_hash", "secret"} {
		assert.NotContains(t, payload.Room, key)
	}
}

func TestDenyReasonStrings(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", DenyNone.String())
	assert.Equal(t, "not authenticated", DenyNotAuthenticated.String())
	assert.Equal(t, "room not found", DenyRoomNotFound.String())
	assert.Equal(t, "booking not confirmed", DenyBookingNotConfirmed.String())
	assert.Equal(t, "no confirmed booking for this session", DenyNoSessionBooking.String())
	assert.Equal(t, "no access grant for this room", DenyNoGrant.String())
}
