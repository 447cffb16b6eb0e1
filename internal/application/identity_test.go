package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/room-access/internal/persistence"
	"github.com/example/room-access/internal/persistence/memory"
)

type identityFixture struct {
	auth     *authFixture
	issuer   *TokenIssuer
	resolver *IdentityResolver
}

func newIdentityFixture(t *testing.T) *identityFixture {
	t.Helper()
	auth := newAuthFixture(t)
	issuer := newTestIssuer(t, auth.clock)
	return &identityFixture{
		auth:     auth,
		issuer:   issuer,
		resolver: NewIdentityResolver(auth.svc, issuer, auth.store, nil),
	}
}

func TestIdentityResolver_Resolve(t *testing.T) {
	t.Parallel()

	t.Run("empty credential is anonymous", func(t *testing.T) {
		f := newIdentityFixture(t)
		principal, err := f.resolver.Resolve(context.Background(), "   ")
		require.NoError(t, err)
		assert.Equal(t, Anonymous, principal)
	})

	t.Run("session token", func(t *testing.T) {
		f := newIdentityFixture(t)
		issued, err := f.auth.svc.Authenticate(context.Background(), AuthenticateParams{Email: "pr@example.com", Password: "s3cret"})
		require.NoError(t, err)

		principal, err := f.resolver.Resolve(context.Background(), issued.Session.Token)
		require.NoError(t, err)
		assert.Equal(t, f.auth.user.ID, principal.UserID)
		assert.True(t, principal.IsPractitioner(*f.auth.user.PractitionerID))
	})

	t.Run("expired or revoked sessions are anonymous", func(t *testing.T) {
		f := newIdentityFixture(t)
		a, err := f.auth.svc.Authenticate(context.Background(), AuthenticateParams{Email: "pr@example.com", Password: "s3cret"})
		require.NoError(t, err)
		b, err := f.auth.svc.Authenticate(context.Background(), AuthenticateParams{Email: "pr@example.com", Password: "s3cret"})
		require.NoError(t, err)
		require.NoError(t, f.auth.svc.RevokeSession(context.Background(), b.Session.Token))

		for _, token := range []string{b.Session.Token, "unknown-token"} {
			principal, err := f.resolver.Resolve(context.Background(), token)
			require.NoError(t, err)
			assert.Equal(t, Anonymous, principal)
		}

		f.auth.clock.Advance(time.Hour)
		principal, err := f.resolver.Resolve(context.Background(), a.Session.Token)
		require.NoError(t, err)
		assert.Equal(t, Anonymous, principal)
	})

	t.Run("access token reloads the account", func(t *testing.T) {
		f := newIdentityFixture(t)
		// Claims say admin, but the stored account is not.
		issued, err := f.issuer.Issue(Principal{UserID: f.auth.user.ID, IsAdmin: true})
		require.NoError(t, err)

		principal, err := f.resolver.Resolve(context.Background(), issued.Token)
		require.NoError(t, err)
		assert.Equal(t, principalFromUser(f.auth.user), principal)
		assert.False(t, principal.IsAdmin)
	})

	t.Run("invalid access tokens are anonymous", func(t *testing.T) {
		f := newIdentityFixture(t)
		issued, err := f.issuer.Issue(Principal{UserID: f.auth.user.ID})
		require.NoError(t, err)
		ghost, err := f.issuer.Issue(Principal{UserID: 9999})
		require.NoError(t, err)

		principal, err := f.resolver.Resolve(context.Background(), ghost.Token)
		require.NoError(t, err)
		assert.Equal(t, Anonymous, principal)

		f.auth.clock.Advance(time.Hour)
		principal, err = f.resolver.Resolve(context.Background(), issued.Token)
		require.NoError(t, err)
		assert.Equal(t, Anonymous, principal)
	})

	t.Run("store failures propagate", func(t *testing.T) {
		f := newIdentityFixture(t)
		broken := NewAuthService(f.auth.store, &brokenSessions{err: errors.New("connection refused")}, nil, nil, f.auth.clock.NowFunc(), time.Hour)
		resolver := NewIdentityResolver(broken, nil, f.auth.store, nil)

		_, err := resolver.Resolve(context.Background(), "some-session-token")
		assert.ErrorIs(t, err, ErrUnavailable)
	})

	t.Run("token subject lookup failures propagate", func(t *testing.T) {
		f := newIdentityFixture(t)
		issued, err := f.issuer.Issue(Principal{UserID: f.auth.user.ID})
		require.NoError(t, err)
		resolver := NewIdentityResolver(f.auth.svc, f.issuer, brokenUsers{err: errors.New("timeout")}, nil)

		_, err = resolver.Resolve(context.Background(), issued.Token)
		assert.ErrorIs(t, err, ErrUnavailable)
	})

	t.Run("session only resolver ignores jwt shape", func(t *testing.T) {
		resolver := NewIdentityResolver(nil, nil, memory.New(), nil)

		principal, err := resolver.Resolve(context.Background(), "eyJa.eyJb.c2ln")
		require.NoError(t, err)
		assert.Equal(t, Anonymous, principal)
	})
}

type brokenUsers struct {
	err error
}

func (b brokenUsers) GetUser(context.Context, int64) (persistence.User, error) {
	return persistence.User{}, b.err
}

func (b brokenUsers) GetUserByEmail(context.Context, string) (persistence.User, error) {
	return persistence.User{}, b.err
}
