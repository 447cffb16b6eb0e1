package application

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashRoundTrip(t *testing.T) {
	t.Parallel()

	hash := mustHash(t, "correct horse")
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=1024,t=1,p=1$"))

	require.NoError(t, VerifyPassword(hash, "correct horse"))
	assert.ErrorIs(t, VerifyPassword(hash, "battery staple"), ErrInvalidCredentials)
}

func TestCreatePasswordHash_Salted(t *testing.T) {
	t.Parallel()

	assert.NotEqual(t, mustHash(t, "same"), mustHash(t, "same"))

	_, err := CreatePasswordHash("", testArgon2Params)
	assert.Error(t, err)
}

func TestVerifyPassword_MalformedHash(t *testing.T) {
	t.Parallel()

	cases := []struct {
		hash string
		want error
	}{
		{hash: "plain text", want: ErrInvalidPasswordHash},
		{hash: "$bcrypt$x$y", want: ErrInvalidPasswordHash},
		{hash: "$argon2id$v=18$m=1024,t=1,p=1$c2FsdA$a2V5", want: ErrIncompatiblePasswordVersion},
		{hash: "$argon2id$v=19$m=x,t=1,p=1$c2FsdA$a2V5", want: ErrInvalidPasswordHash},
		{hash: "$argon2id$v=19$m=1024,t=1,p=1$!!!$a2V5", want: ErrInvalidPasswordHash},
	}
	for _, tc := range cases {
		assert.ErrorIs(t, VerifyPassword(tc.hash, "pw"), tc.want, tc.hash)
	}
}
