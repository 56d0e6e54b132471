// Package auth verifies bearer credentials for Luxgrid Core.
//
// Luxgrid does not manage users or issue tokens — an external identity
// service does that. This package is the guard in front of every
// protected endpoint: it extracts the bearer token from the
// Authorization header, verifies the HS256 signature and expiry against
// the shared secret, and yields the caller's identity.
//
// Three failure modes are distinguished, because the API reports them
// with different messages:
//
//   - ErrTokenMissing: no credential supplied
//   - ErrTokenExpired: the token's validity window has passed
//   - ErrTokenInvalid: anything else (bad signature, malformed token)
//
// Verification has no side effects; the guard never touches storage.
package auth
