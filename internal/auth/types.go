package auth

import "errors"

// Identity is the authenticated caller extracted from a verified token.
type Identity struct {
	// ActorID is the stable identifier of the caller (JWT subject).
	ActorID string `json:"actor_id"`

	// Name is an optional display name claim.
	Name string `json:"name,omitempty"`

	// Role is an optional authorisation tier claim.
	Role string `json:"role,omitempty"`
}

// Sentinel errors for credential verification.
var (
	// ErrTokenMissing indicates no bearer credential was supplied.
	ErrTokenMissing = errors.New("no token supplied")

	// ErrTokenExpired indicates the token's validity window has passed.
	ErrTokenExpired = errors.New("token has expired")

	// ErrTokenInvalid indicates any other verification failure
	// (bad signature, malformed token, missing subject).
	ErrTokenInvalid = errors.New("invalid token")
)
