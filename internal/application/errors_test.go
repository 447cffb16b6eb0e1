package application

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/example/room-access/internal/persistence"
)

func TestValidationError_Error(t *testing.T) {
	t.Parallel()

	var nilErr *ValidationError
	assert.Equal(t, "validation failed", nilErr.Error())
	assert.False(t, nilErr.HasErrors())

	vErr := &ValidationError{}
	vErr.add("status", "bad")
	vErr.add("room_type", "bad")
	assert.Equal(t, "validation failed: room_type, status", vErr.Error())
	assert.True(t, vErr.HasErrors())
}

func TestValidationError_Merge(t *testing.T) {
	t.Parallel()

	base := &ValidationError{}
	base.add("first", "one")
	base.merge(&ValidationError{FieldErrors: map[string]string{"second": "two"}})
	base.merge(nil)

	assert.Equal(t, map[string]string{"first": "one", "second": "two"}, base.FieldErrors)
}

func TestMapRepoError(t *testing.T) {
	t.Parallel()

	assert.NoError(t, mapRepoError(nil, "room"))
	assert.ErrorIs(t, mapRepoError(fmt.Errorf("room: %w", persistence.ErrNotFound), "room"), ErrNotFound)
	assert.ErrorIs(t, mapRepoError(persistence.ErrDuplicate, "room"), ErrAlreadyExists)

	var vErr *ValidationError
	assert.ErrorAs(t, mapRepoError(persistence.ErrConstraintViolation, "client_id"), &vErr)
	assert.Contains(t, vErr.FieldErrors, "client_id")

	boom := errors.New("broken pipe")
	mapped := mapRepoError(boom, "room")
	assert.ErrorIs(t, mapped, ErrUnavailable)
	assert.ErrorIs(t, mapped, boom)

	assert.Same(t, mapped, mapRepoError(mapped, "room"))
}
