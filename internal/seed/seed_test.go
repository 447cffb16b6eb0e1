package seed

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/room-access/internal/application"
	"github.com/example/room-access/internal/persistence"
	"github.com/example/room-access/internal/persistence/memory"
	"github.com/example/room-access/internal/testfixtures"
)

const courseFixture = `
practitioners:
  - key: maya
    display_name: Maya
users:
  - key: maya
    email: maya@example.com
    password: s3cret
    practitioner: maya
  - key: ana
    email: ana@example.com
    password: s3cret
  - key: ops
    email: ops@example.com
    admin: true
services:
  - key: breathwork
    practitioner: maya
    service_type: course
rooms:
  - key: week1
    uuid: 6F9619FF-8B86-4011-B42D-00C04FC964FF
    room_type: group
  - key: week2
    room_type: group
    created_by: ops
service_sessions:
  - key: week1
    service: breathwork
    room: week1
    start_time: 2026-03-15T09:00:00Z
  - key: week2
    service: breathwork
    room: week2
    start_time: 2026-03-22T09:00:00Z
    end_time: 2026-03-22T11:00:00Z
bookings:
  - client: ana
    practitioner: maya
    service: breathwork
    status: confirmed
`

func fakeHash(password string) (string, error) {
	return "hashed:" + password, nil
}

func newTestLoader(store persistence.Store) *Loader {
	ids := testfixtures.NewIDGenerator("room")
	clock := testfixtures.NewClock(testfixtures.ReferenceTime())
	return NewLoader(store,
		WithClock(clock.NowFunc()),
		WithPasswordHasher(fakeHash),
		WithUUIDGenerator(ids.UUIDFunc()),
	)
}

func TestLoad_CourseFixture(t *testing.T) {
	t.Parallel()

	fixture, err := Parse(strings.NewReader(courseFixture))
	require.NoError(t, err)

	store := memory.New()
	res, err := newTestLoader(store).Load(context.Background(), fixture)
	require.NoError(t, err)

	assert.Len(t, res.Users, 3)
	assert.Len(t, res.ServiceSessions, 2)
	assert.Len(t, res.Bookings, 1)

	ctx := context.Background()
	maya, err := store.GetUser(ctx, res.Users["maya"])
	require.NoError(t, err)
	require.NotNil(t, maya.PractitionerID)
	assert.Equal(t, res.Practitioners["maya"], *maya.PractitionerID)
	assert.Equal(t, "hashed:s3cret", maya.PasswordHash)

	ops, err := store.GetUser(ctx, res.Users["ops"])
	require.NoError(t, err)
	assert.True(t, ops.IsAdmin)
	assert.Empty(t, ops.PasswordHash)

	week1 := res.Rooms["week1"]
	assert.Equal(t, "6f9619ff-8b86-4011-b42d-00c04fc964ff", week1.PublicUUID)
	assert.Equal(t, persistence.RoomStatusScheduled, week1.Status)
	assert.Equal(t, testfixtures.SequentialUUID(1), res.Rooms["week2"].PublicUUID)
	require.NotNil(t, res.Rooms["week2"].CreatedByID)
	assert.Equal(t, res.Users["ops"], *res.Rooms["week2"].CreatedByID)

	session, err := store.GetServiceSessionByRoom(ctx, week1.ID)
	require.NoError(t, err)
	assert.Equal(t, session.StartTime.Add(defaultSessionLength), session.EndTime)

	// The loaded course grants the client both rooms through the service booking.
	access := application.NewAccessService(store)
	for _, key := range []string{"week1", "week2"} {
		decision, err := access.CheckAccess(ctx, res.Rooms[key].PublicUUID, application.Principal{UserID: res.Users["ana"]})
		require.NoError(t, err)
		assert.True(t, decision.CanJoin, key)
		assert.Equal(t, application.RoleParticipant, decision.Role, key)
	}
}

func TestLoad_SQLite(t *testing.T) {
	t.Parallel()

	fixture, err := Parse(strings.NewReader(courseFixture))
	require.NoError(t, err)

	store := testfixtures.NewSQLiteStore(t)
	res, err := newTestLoader(store).Load(context.Background(), fixture)
	require.NoError(t, err)

	room, err := store.GetRoomByPublicUUID(context.Background(), res.Rooms["week1"].PublicUUID)
	require.NoError(t, err)
	assert.Equal(t, persistence.RoomTypeGroup, room.Type)
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		fixture Fixture
		want    string
	}{
		{
			name:    "missing key",
			fixture: Fixture{Practitioners: []Practitioner{{DisplayName: "x"}}},
			want:    "practitioners[0]: key is required",
		},
		{
			name:    "duplicate user key",
			fixture: Fixture{Users: []User{{Key: "a", Email: "a@example.com"}, {Key: "a", Email: "b@example.com"}}},
			want:    `users[1]: duplicate key "a"`,
		},
		{
			name:    "password and hash",
			fixture: Fixture{Users: []User{{Key: "a", Email: "a@example.com", Password: "x", PasswordHash: "y"}}},
			want:    "not both",
		},
		{
			name:    "unknown practitioner",
			fixture: Fixture{Services: []Service{{Key: "s", Practitioner: "ghost", Type: "course"}}},
			want:    `unknown practitioner "ghost"`,
		},
		{
			name: "bad service type",
			fixture: Fixture{
				Practitioners: []Practitioner{{Key: "p"}},
				Services:      []Service{{Key: "s", Practitioner: "p", Type: "retreat"}},
			},
			want: `unknown service_type "retreat"`,
		},
		{
			name:    "malformed room uuid",
			fixture: Fixture{Rooms: []Room{{Key: "r", UUID: "nope"}}},
			want:    `rooms[0] "r"`,
		},
		{
			name: "session without start",
			fixture: Fixture{
				Practitioners:   []Practitioner{{Key: "p"}},
				Services:        []Service{{Key: "s", Practitioner: "p", Type: "workshop"}},
				ServiceSessions: []ServiceSession{{Key: "x", Service: "s"}},
			},
			want: "start_time is required",
		},
		{
			name: "bad booking status",
			fixture: Fixture{
				Practitioners: []Practitioner{{Key: "p"}},
				Users:         []User{{Key: "c", Email: "c@example.com"}},
				Bookings:      []Booking{{Client: "c", Practitioner: "p", Status: "paid"}},
			},
			want: `unknown status "paid"`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := newTestLoader(memory.New()).Load(context.Background(), tc.fixture)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestLoad_HasherFailure(t *testing.T) {
	t.Parallel()

	loader := NewLoader(memory.New(), WithPasswordHasher(func(string) (string, error) {
		return "", errors.New("no entropy")
	}))
	_, err := loader.Load(context.Background(), Fixture{Users: []User{{Key: "a", Email: "a@example.com", Password: "x"}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no entropy")
}

func TestParse(t *testing.T) {
	t.Parallel()

	t.Run("unknown fields are rejected", func(t *testing.T) {
		_, err := Parse(strings.NewReader("rooms:\n  - key: r\n    colour: red\n"))
		require.Error(t, err)
	})

	t.Run("empty document", func(t *testing.T) {
		fixture, err := Parse(strings.NewReader(""))
		require.NoError(t, err)
		assert.Empty(t, fixture.Users)
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "seed.yaml")
		require.NoError(t, os.WriteFile(path, []byte(courseFixture), 0o600))

		fixture, err := ParseFile(path)
		require.NoError(t, err)
		assert.Len(t, fixture.Rooms, 2)

		_, err = ParseFile(filepath.Join(t.TempDir(), "missing.yaml"))
		require.Error(t, err)
	})
}
