package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/room-access/internal/persistence"
	"github.com/example/room-access/internal/persistence/storetest"
)

func TestStorage(t *testing.T) {
	storetest.Run(t, func(t *testing.T) persistence.Store {
		return New()
	})
}

func TestStorageReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := New()

	practitioner, err := store.CreatePractitioner(ctx, persistence.Practitioner{DisplayName: "P"})
	require.NoError(t, err)
	pid := practitioner.ID
	user, err := store.CreateUser(ctx, persistence.User{Email: "a@example.com", PractitionerID: &pid})
	require.NoError(t, err)

	*user.PractitionerID = 42

	fetched, err := store.GetUser(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, fetched.PractitionerID)
	assert.Equal(t, practitioner.ID, *fetched.PractitionerID)
}

func TestStorageKeepsExplicitIDs(t *testing.T) {
	ctx := context.Background()
	store := New()

	explicit, err := store.CreateUser(ctx, persistence.User{ID: 10, Email: "ten@example.com"})
	require.NoError(t, err)
	assert.Equal(t, int64(10), explicit.ID)

	next, err := store.CreateUser(ctx, persistence.User{Email: "eleven@example.com"})
	require.NoError(t, err)
	assert.Equal(t, int64(11), next.ID)

	_, err = store.CreateUser(ctx, persistence.User{ID: 10, Email: "again@example.com"})
	assert.ErrorIs(t, err, persistence.ErrDuplicate)
}
