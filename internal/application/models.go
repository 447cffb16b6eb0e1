package application

import (
	"time"

	"github.com/example/room-access/internal/persistence"
)

// Principal represents the actor invoking a service method. The zero value
// is the anonymous principal.
type Principal struct {
	UserID         int64
	PractitionerID int64
	IsAdmin        bool
}

// Anonymous is the unauthenticated principal.
var Anonymous = Principal{}

// Authenticated reports whether the principal identifies a user.
func (p Principal) Authenticated() bool {
	return p.UserID > 0
}

// IsPractitioner reports whether the principal acts for practitionerID.
func (p Principal) IsPractitioner(practitionerID int64) bool {
	return p.PractitionerID > 0 && p.PractitionerID == practitionerID
}

// PrincipalFor returns the principal acting as user.
func PrincipalFor(user persistence.User) Principal {
	return principalFromUser(user)
}

// principalFromUser builds the principal for a stored account.
func principalFromUser(user persistence.User) Principal {
	principal := Principal{UserID: user.ID, IsAdmin: user.IsAdmin}
	if user.PractitionerID != nil {
		principal.PractitionerID = *user.PractitionerID
	}
	return principal
}

// AuthenticateParams captures the data required to authenticate a user.
type AuthenticateParams struct {
	Email       string
	Password    string
	Fingerprint string
}

// AuthenticateResult captures the outcome of a successful authentication attempt.
type AuthenticateResult struct {
	User      persistence.User
	Principal Principal
	Session   persistence.Session
}

// RefreshSessionParams captures the data required to refresh an existing session.
type RefreshSessionParams struct {
	Token       string
	Fingerprint string
}

// RefreshSessionResult captures the outcome of rotating a session token.
type RefreshSessionResult struct {
	Session persistence.Session
}

// RoomInput captures caller provided room fields.
type RoomInput struct {
	Type             string
	ProviderRoomName string
}

// CreateRoomParams wraps the data required to create an ad-hoc room.
type CreateRoomParams struct {
	Principal Principal
	Input     RoomInput
}

// UpdateRoomStatusParams wraps a room lifecycle transition request.
type UpdateRoomStatusParams struct {
	Principal  Principal
	PublicUUID string
	Status     string
}

// IssuedToken is a signed access token handed to a client.
type IssuedToken struct {
	Token     string
	ExpiresAt time.Time
}
