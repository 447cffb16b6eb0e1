package application

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is returned for access tokens that fail verification.
	ErrInvalidToken = errors.New("application: invalid access token")
	// ErrTokenExpired is returned for access tokens past their exp claim.
	ErrTokenExpired = errors.New("application: access token expired")
)

// AccessClaims is the verified content of an access token.
type AccessClaims struct {
	UserID         int64
	PractitionerID int64
	IsAdmin        bool
	Issuer         string
	IssuedAt       time.Time
	ExpiresAt      time.Time
}

// accessTokenClaims is the wire form parsed by the jwt library.
type accessTokenClaims struct {
	jwt.RegisteredClaims
	PractitionerID int64 `json:"pid,omitempty"`
	Admin          bool  `json:"adm,omitempty"`
}

// TokenIssuer signs and verifies HS256 access tokens.
type TokenIssuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer validates its inputs and returns an issuer. ttl defaults to 15 minutes.
func NewTokenIssuer(secret, issuer string, ttl time.Duration, now func() time.Time) (*TokenIssuer, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, fmt.Errorf("token issuer: secret is required")
	}
	issuer = strings.TrimSpace(issuer)
	if issuer == "" {
		return nil, fmt.Errorf("token issuer: issuer is required")
	}
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	if now == nil {
		now = time.Now
	}
	return &TokenIssuer{secret: []byte(secret), issuer: issuer, ttl: ttl, now: now}, nil
}

// Issue signs a token for an authenticated principal.
func (t *TokenIssuer) Issue(principal Principal) (IssuedToken, error) {
	if !principal.Authenticated() {
		return IssuedToken{}, ErrUnauthorized
	}

	issuedAt := t.now().UTC().Truncate(time.Second)
	expiresAt := issuedAt.Add(t.ttl)
	claims := accessTokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(principal.UserID, 10),
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		PractitionerID: principal.PractitionerID,
		Admin:          principal.IsAdmin,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return IssuedToken{}, fmt.Errorf("sign access token: %w", err)
	}
	return IssuedToken{Token: signed, ExpiresAt: expiresAt}, nil
}

// Verify checks the signature, issuer and expiry of token.
func (t *TokenIssuer) Verify(token string) (AccessClaims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return AccessClaims{}, ErrInvalidToken
	}

	var parsed accessTokenClaims
	_, err := jwt.ParseWithClaims(token, &parsed, func(*jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return AccessClaims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if parsed.Issuer != t.issuer {
		return AccessClaims{}, fmt.Errorf("%w: issuer mismatch", ErrInvalidToken)
	}
	if parsed.ExpiresAt == nil {
		return AccessClaims{}, fmt.Errorf("%w: exp is required", ErrInvalidToken)
	}
	if !parsed.ExpiresAt.Time.After(t.now()) {
		return AccessClaims{}, ErrTokenExpired
	}

	userID, err := strconv.ParseInt(parsed.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return AccessClaims{}, fmt.Errorf("%w: subject must be a user id", ErrInvalidToken)
	}

	claims := AccessClaims{
		UserID:         userID,
		PractitionerID: parsed.PractitionerID,
		IsAdmin:        parsed.Admin,
		Issuer:         parsed.Issuer,
		ExpiresAt:      parsed.ExpiresAt.Time.UTC(),
	}
	if parsed.IssuedAt != nil {
		claims.IssuedAt = parsed.IssuedAt.Time.UTC()
	}
	return claims, nil
}

// looksLikeJWT reports whether credential has the three segment compact form.
func looksLikeJWT(credential string) bool {
	return strings.Count(credential, ".") == 2 && strings.HasPrefix(credential, "eyJ")
}
