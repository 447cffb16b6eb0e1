package application

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/room-access/internal/testfixtures"
)

func newTestIssuer(t *testing.T, clock *testfixtures.Clock) *TokenIssuer {
	t.Helper()
	issuer, err := NewTokenIssuer("test-secret", "room-access", 10*time.Minute, clock.NowFunc())
	require.NoError(t, err)
	return issuer
}

func TestNewTokenIssuer_Validates(t *testing.T) {
	t.Parallel()

	_, err := NewTokenIssuer("", "room-access", time.Minute, nil)
	assert.Error(t, err)

	_, err = NewTokenIssuer("secret", " ", time.Minute, nil)
	assert.Error(t, err)

	issuer, err := NewTokenIssuer("secret", "room-access", 0, nil)
	require.NoError(t, err)
	assert.Equal(t, 15*time.Minute, issuer.ttl)
}

func TestTokenIssuer_RoundTrip(t *testing.T) {
	t.Parallel()

	clock := testfixtures.NewClock(time.Time{})
	issuer := newTestIssuer(t, clock)

	issued, err := issuer.Issue(Principal{UserID: 42, PractitionerID: 7, IsAdmin: true})
	require.NoError(t, err)
	assert.True(t, looksLikeJWT(issued.Token))
	assert.Equal(t, clock.Now().Add(10*time.Minute), issued.ExpiresAt)

	claims, err := issuer.Verify(issued.Token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, int64(7), claims.PractitionerID)
	assert.True(t, claims.IsAdmin)
	assert.Equal(t, "room-access", claims.Issuer)
	assert.Equal(t, clock.Now(), claims.IssuedAt)
}

func TestTokenIssuer_RejectsAnonymous(t *testing.T) {
	t.Parallel()

	_, err := newTestIssuer(t, testfixtures.NewClock(time.Time{})).Issue(Anonymous)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestTokenIssuer_Verify(t *testing.T) {
	t.Parallel()

	clock := testfixtures.NewClock(time.Time{})
	issuer := newTestIssuer(t, clock)
	issued, err := issuer.Issue(Principal{UserID: 1})
	require.NoError(t, err)

	t.Run("expired", func(t *testing.T) {
		expiredClock := testfixtures.NewClock(clock.Now().Add(10 * time.Minute))
		_, err := newTestIssuer(t, expiredClock).Verify(issued.Token)
		assert.ErrorIs(t, err, ErrTokenExpired)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other, err := NewTokenIssuer("another-secret", "room-access", time.Minute, clock.NowFunc())
		require.NoError(t, err)
		_, err = other.Verify(issued.Token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other, err := NewTokenIssuer("test-secret", "someone-else", time.Minute, clock.NowFunc())
		require.NoError(t, err)
		_, err = other.Verify(issued.Token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("tampered payload", func(t *testing.T) {
		parts := strings.Split(issued.Token, ".")
		require.Len(t, parts, 3)
		tampered := parts[0] + "." + parts[1] + "x." + parts[2]
		_, err := issuer.Verify(tampered)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("unexpected algorithm", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{
			Subject:   "1",
			Issuer:    "room-access",
			ExpiresAt: jwt.NewNumericDate(clock.Now().Add(time.Minute)),
		})
		signed, err := token.SignedString([]byte("test-secret"))
		require.NoError(t, err)
		_, err = issuer.Verify(signed)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing subject", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
			Issuer:    "room-access",
			ExpiresAt: jwt.NewNumericDate(clock.Now().Add(time.Minute)),
		})
		signed, err := token.SignedString([]byte("test-secret"))
		require.NoError(t, err)
		_, err = issuer.Verify(signed)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := issuer.Verify("  ")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestLooksLikeJWT(t *testing.T) {
	t.Parallel()

	assert.True(t, looksLikeJWT("eyJhbGciOi.eyJzdWIi.c2ln"))
	assert.False(t, looksLikeJWT("tok-1"))
	assert.False(t, looksLikeJWT("a.b.c"))
	assert.False(t, looksLikeJWT("eyJhbGciOi.eyJzdWIi"))
}
