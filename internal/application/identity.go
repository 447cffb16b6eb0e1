package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/example/room-access/internal/logging"
	"github.com/example/room-access/internal/persistence"
)

// SessionValidator resolves opaque session tokens.
type SessionValidator interface {
	ValidateSession(ctx context.Context, token string) (Principal, error)
}

// TokenVerifier checks signed access tokens.
type TokenVerifier interface {
	Verify(token string) (AccessClaims, error)
}

// IdentityResolver turns request credentials into a Principal. Invalid,
// expired and revoked credentials resolve to Anonymous; only data store
// failures surface as errors.
type IdentityResolver struct {
	sessions SessionValidator
	tokens   TokenVerifier
	users    UserStore
	logger   *zap.Logger
}

// NewIdentityResolver constructs a resolver. tokens may be nil to accept
// session tokens only.
func NewIdentityResolver(sessions SessionValidator, tokens TokenVerifier, users UserStore, logger *zap.Logger) *IdentityResolver {
	return &IdentityResolver{sessions: sessions, tokens: tokens, users: users, logger: logging.Default(logger)}
}

// Resolve returns the principal behind credential.
func (r *IdentityResolver) Resolve(ctx context.Context, credential string) (Principal, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return Anonymous, nil
	}

	if r.tokens != nil && looksLikeJWT(credential) {
		return r.resolveAccessToken(ctx, credential)
	}
	return r.resolveSession(ctx, credential)
}

func (r *IdentityResolver) resolveAccessToken(ctx context.Context, token string) (Principal, error) {
	logger := serviceLogger(ctx, r.logger, "IdentityResolver", "Resolve", zap.String("credential", "access_token"))

	claims, err := r.tokens.Verify(token)
	if err != nil {
		logger.Debug("access token rejected", zap.Error(err))
		return Anonymous, nil
	}
	if r.users == nil {
		return Principal{UserID: claims.UserID, PractitionerID: claims.PractitionerID, IsAdmin: claims.IsAdmin}, nil
	}

	user, err := r.users.GetUser(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			logger.Debug("access token subject no longer exists", zap.Int64("user_id", claims.UserID))
			return Anonymous, nil
		}
		err = mapRepoError(err, "user")
		logger.Error("failed to load token subject", errorFields(err)...)
		return Anonymous, err
	}
	return principalFromUser(user), nil
}

func (r *IdentityResolver) resolveSession(ctx context.Context, token string) (Principal, error) {
	if r.sessions == nil {
		return Anonymous, nil
	}

	principal, err := r.sessions.ValidateSession(ctx, token)
	switch {
	case err == nil:
		return principal, nil
	case errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrUnauthorized),
		errors.Is(err, ErrSessionExpired),
		errors.Is(err, ErrSessionRevoked):
		return Anonymous, nil
	default:
		return Anonymous, fmt.Errorf("resolve session: %w", err)
	}
}
