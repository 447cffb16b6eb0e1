package application

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/room-access/internal/persistence"
	"github.com/example/room-access/internal/persistence/memory"
	"github.com/example/room-access/internal/testfixtures"
)

type roomFixture struct {
	market *testfixtures.Marketplace
	svc    *RoomService
	owner  Principal
	other  Principal
	admin  Principal
}

func newRoomFixture(t *testing.T) *roomFixture {
	t.Helper()
	market := testfixtures.NewMarketplace(t, memory.New())
	ids := testfixtures.NewIDGenerator("")
	return &roomFixture{
		market: market,
		svc:    NewRoomService(market.Store, ids.UUIDFunc(), market.Clock.NowFunc()),
		owner:  principalOf(market.Client("owner@example.com")),
		other:  principalOf(market.Client("other@example.com")),
		admin:  principalOf(market.Client("admin@example.com", testfixtures.WithAdmin())),
	}
}

func TestRoomService_CreateRoom(t *testing.T) {
	t.Parallel()

	t.Run("creates a scheduled room owned by the caller", func(t *testing.T) {
		f := newRoomFixture(t)

		room, err := f.svc.CreateRoom(context.Background(), CreateRoomParams{Principal: f.owner, Input: RoomInput{Type: "Group"}})
		require.NoError(t, err)

		assert.Equal(t, testfixtures.SequentialUUID(1), room.PublicUUID)
		assert.Equal(t, "room-"+room.PublicUUID, room.ProviderRoomName)
		assert.Equal(t, persistence.RoomStatusScheduled, room.Status)
		assert.Equal(t, persistence.RoomTypeGroup, room.Type)
		require.NotNil(t, room.CreatedByID)
		assert.Equal(t, f.owner.UserID, *room.CreatedByID)
		assert.Equal(t, f.market.Clock.Now(), room.CreatedAt)
	})

	t.Run("defaults to an individual room", func(t *testing.T) {
		f := newRoomFixture(t)

		room, err := f.svc.CreateRoom(context.Background(), CreateRoomParams{Principal: f.owner, Input: RoomInput{ProviderRoomName: " consult-1 "}})
		require.NoError(t, err)
		assert.Equal(t, persistence.RoomTypeIndividual, room.Type)
		assert.Equal(t, "consult-1", room.ProviderRoomName)
	})

	t.Run("the creator may always join", func(t *testing.T) {
		f := newRoomFixture(t)
		room, err := f.svc.CreateRoom(context.Background(), CreateRoomParams{Principal: f.owner})
		require.NoError(t, err)

		decision, err := NewAccessService(f.market.Store).CheckAccess(context.Background(), room.PublicUUID, f.owner)
		require.NoError(t, err)
		assert.True(t, decision.CanJoin)
		assert.Equal(t, RoleHost, decision.Role)
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		f := newRoomFixture(t)

		_, err := f.svc.CreateRoom(context.Background(), CreateRoomParams{
			Principal: f.owner,
			Input:     RoomInput{Type: "stadium", ProviderRoomName: strings.Repeat("x", 129)},
		})
		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Contains(t, vErr.FieldErrors, "room_type")
		assert.Contains(t, vErr.FieldErrors, "provider_room_name")
	})

	t.Run("requires authentication", func(t *testing.T) {
		f := newRoomFixture(t)

		_, err := f.svc.CreateRoom(context.Background(), CreateRoomParams{Principal: Anonymous})
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("rejects a generator that does not yield UUIDs", func(t *testing.T) {
		f := newRoomFixture(t)
		svc := NewRoomService(f.market.Store, func() string { return "nope" }, nil)

		_, err := svc.CreateRoom(context.Background(), CreateRoomParams{Principal: f.owner})
		assert.Error(t, err)
	})

	t.Run("duplicate identifiers conflict", func(t *testing.T) {
		f := newRoomFixture(t)
		fixed := func() string { return testfixtures.SequentialUUID(77) }
		svc := NewRoomService(f.market.Store, fixed, nil)

		_, err := svc.CreateRoom(context.Background(), CreateRoomParams{Principal: f.owner})
		require.NoError(t, err)
		_, err = svc.CreateRoom(context.Background(), CreateRoomParams{Principal: f.owner})
		assert.ErrorIs(t, err, ErrAlreadyExists)
	})
}

func TestRoomService_GetRoom(t *testing.T) {
	t.Parallel()

	f := newRoomFixture(t)
	created, err := f.svc.CreateRoom(context.Background(), CreateRoomParams{Principal: f.owner})
	require.NoError(t, err)

	room, err := f.svc.GetRoom(context.Background(), f.other, strings.ToUpper(created.PublicUUID))
	require.NoError(t, err)
	assert.Equal(t, created.ID, room.ID)

	_, err = f.svc.GetRoom(context.Background(), Anonymous, created.PublicUUID)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = f.svc.GetRoom(context.Background(), f.other, testfixtures.SequentialUUID(500))
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.GetRoom(context.Background(), f.other, "bad")
	var vErr *ValidationError
	assert.ErrorAs(t, err, &vErr)
}

func TestRoomService_UpdateRoomStatus(t *testing.T) {
	t.Parallel()

	newRoom := func(t *testing.T, f *roomFixture) persistence.Room {
		room, err := f.svc.CreateRoom(context.Background(), CreateRoomParams{Principal: f.owner})
		require.NoError(t, err)
		return room
	}

	t.Run("creator walks the lifecycle", func(t *testing.T) {
		f := newRoomFixture(t)
		room := newRoom(t, f)
		f.market.Clock.Advance(time.Minute)

		active, err := f.svc.UpdateRoomStatus(context.Background(), UpdateRoomStatusParams{Principal: f.owner, PublicUUID: room.PublicUUID, Status: "active"})
		require.NoError(t, err)
		assert.Equal(t, persistence.RoomStatusActive, active.Status)
		assert.Equal(t, f.market.Clock.Now(), active.UpdatedAt)

		ended, err := f.svc.UpdateRoomStatus(context.Background(), UpdateRoomStatusParams{Principal: f.owner, PublicUUID: room.PublicUUID, Status: " ENDED "})
		require.NoError(t, err)
		assert.Equal(t, persistence.RoomStatusEnded, ended.Status)
	})

	t.Run("admins may end any room", func(t *testing.T) {
		f := newRoomFixture(t)
		room := newRoom(t, f)

		ended, err := f.svc.UpdateRoomStatus(context.Background(), UpdateRoomStatusParams{Principal: f.admin, PublicUUID: room.PublicUUID, Status: "ended"})
		require.NoError(t, err)
		assert.Equal(t, persistence.RoomStatusEnded, ended.Status)
	})

	t.Run("other users are refused", func(t *testing.T) {
		f := newRoomFixture(t)
		room := newRoom(t, f)

		_, err := f.svc.UpdateRoomStatus(context.Background(), UpdateRoomStatusParams{Principal: f.other, PublicUUID: room.PublicUUID, Status: "active"})
		assert.ErrorIs(t, err, ErrUnauthorized)

		_, err = f.svc.UpdateRoomStatus(context.Background(), UpdateRoomStatusParams{Principal: Anonymous, PublicUUID: room.PublicUUID, Status: "active"})
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("rooms without a creator are admin only", func(t *testing.T) {
		f := newRoomFixture(t)
		room := f.market.Room()

		_, err := f.svc.UpdateRoomStatus(context.Background(), UpdateRoomStatusParams{Principal: f.owner, PublicUUID: room.PublicUUID, Status: "active"})
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("illegal transitions are validation errors", func(t *testing.T) {
		f := newRoomFixture(t)
		room := newRoom(t, f)
		_, err := f.svc.UpdateRoomStatus(context.Background(), UpdateRoomStatusParams{Principal: f.owner, PublicUUID: room.PublicUUID, Status: "ended"})
		require.NoError(t, err)

		for _, status := range []string{"active", "scheduled", "ended"} {
			_, err := f.svc.UpdateRoomStatus(context.Background(), UpdateRoomStatusParams{Principal: f.owner, PublicUUID: room.PublicUUID, Status: status})
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr, status)
			assert.Contains(t, vErr.FieldErrors, "status")
		}
	})

	t.Run("collects uuid and status problems together", func(t *testing.T) {
		f := newRoomFixture(t)

		_, err := f.svc.UpdateRoomStatus(context.Background(), UpdateRoomStatusParams{Principal: f.owner, PublicUUID: "x", Status: "paused"})
		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Contains(t, vErr.FieldErrors, "room_uuid")
		assert.Contains(t, vErr.FieldErrors, "status")
	})

	t.Run("missing rooms are not found", func(t *testing.T) {
		f := newRoomFixture(t)

		_, err := f.svc.UpdateRoomStatus(context.Background(), UpdateRoomStatusParams{Principal: f.admin, PublicUUID: testfixtures.SequentialUUID(404), Status: "active"})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
