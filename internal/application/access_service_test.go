package application

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/example/room-access/internal/persistence/memory"
	"github.com/example/room-access/internal/testfixtures"
)

func TestAccessService_CheckAccess(t *testing.T) {
	t.Parallel()

	m := testfixtures.NewMarketplace(t, memory.New())
	s := m.CourseScenario()
	core, logs := observer.New(zap.InfoLevel)
	svc := NewAccessServiceWithLogger(m.Store, zap.New(core))
	ctx := context.Background()

	t.Run("grants the course client", func(t *testing.T) {
		decision, err := svc.CheckAccess(ctx, s.Room2.PublicUUID, principalOf(s.Client))
		require.NoError(t, err)
		assert.True(t, decision.CanJoin)
		assert.Equal(t, RoleParticipant, decision.Role)
		assert.Nil(t, decision.Reason)
		require.NotNil(t, decision.Room)
		assert.Equal(t, s.Room2.PublicUUID, decision.Room.PublicUUID)
		require.NotNil(t, decision.ServiceSession)
		assert.Equal(t, s.Session2.ID, decision.ServiceSession.ID)
	})

	t.Run("accepts upper case identifiers", func(t *testing.T) {
		decision, err := svc.CheckAccess(ctx, " "+strings.ToUpper(s.Room1.PublicUUID)+" ", principalOf(s.Practitioner))
		require.NoError(t, err)
		assert.True(t, decision.CanJoin)
		assert.Equal(t, RoleHost, decision.Role)
	})

	t.Run("anonymous callers are refused", func(t *testing.T) {
		decision, err := svc.CheckAccess(ctx, s.Room1.PublicUUID, Anonymous)
		require.NoError(t, err)
		assert.False(t, decision.CanJoin)
		assert.Equal(t, RoleViewer, decision.Role)
		require.NotNil(t, decision.Reason)
		assert.Equal(t, "not authenticated", *decision.Reason)
		assert.Nil(t, decision.Room)
	})

	t.Run("stranger sees a viewer decision", func(t *testing.T) {
		decision, err := svc.CheckAccess(ctx, s.Room1.PublicUUID, principalOf(s.Stranger))
		require.NoError(t, err)
		assert.False(t, decision.CanJoin)
		require.NotNil(t, decision.Reason)
		assert.Equal(t, "no confirmed booking for this session", *decision.Reason)
	})

	t.Run("malformed identifiers are validation errors", func(t *testing.T) {
		_, err := svc.CheckAccess(ctx, "not-a-uuid", principalOf(s.Client))
		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Contains(t, vErr.FieldErrors, "room_uuid")
	})

	t.Run("logs each decision", func(t *testing.T) {
		before := logs.FilterMessage("access decided").Len()
		_, err := svc.CheckAccess(ctx, s.Room1.PublicUUID, principalOf(s.Client))
		require.NoError(t, err)

		entries := logs.FilterMessage("access decided").All()
		require.Len(t, entries, before+1)
		fields := entries[len(entries)-1].ContextMap()
		assert.Equal(t, "AccessService", fields["service"])
		assert.Equal(t, ruleServiceSession, fields["rule"])
		assert.Equal(t, true, fields["can_join"])
		assert.Equal(t, "participant", fields["role"])
	})
}

func TestAccessService_StoreFailure(t *testing.T) {
	t.Parallel()

	m := testfixtures.NewMarketplace(t, memory.New())
	s := m.CourseScenario()
	reader := &failingReader{AccessReader: m.Store, err: errors.New("disk I/O error"), failRoomBookings: true}
	core, logs := observer.New(zap.ErrorLevel)

	_, err := NewAccessServiceWithLogger(reader, zap.New(core)).CheckAccess(context.Background(), s.Room1.PublicUUID, principalOf(s.Client))

	require.ErrorIs(t, err, ErrUnavailable)
	entries := logs.FilterMessage("access check failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "unavailable", entries[0].ContextMap()["error_kind"])
}

func TestAccessService_NotConfigured(t *testing.T) {
	t.Parallel()

	var svc *AccessService
	_, err := svc.CheckAccess(context.Background(), testfixtures.SequentialUUID(1), Anonymous)
	assert.Error(t, err)
}

func TestNormalizeRoomUUID(t *testing.T) {
	t.Parallel()

	got, err := NormalizeRoomUUID("{6F1C2D3E-4A5B-4C6D-8E9F-0A1B2C3D4E5F}")
	require.NoError(t, err)
	assert.Equal(t, "6f1c2d3e-4a5b-4c6d-8e9f-0a1b2c3d4e5f", got)

	for _, bad := range []string{"", "room-1", "6f1c2d3e-4a5b-4c6d-8e9f"} {
		_, err := NormalizeRoomUUID(bad)
		var vErr *ValidationError
		assert.ErrorAs(t, err, &vErr, bad)
	}
}
