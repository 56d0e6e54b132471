package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// CustomClaims extends JWT standard claims with the identity fields the
// external token issuer includes.
type CustomClaims struct {
	jwt.RegisteredClaims
	Name string `json:"name,omitempty"`
	Role string `json:"role,omitempty"`
}

// ParseToken validates and parses a JWT access token, returning the caller identity.
// It checks the signature, expiry, and required fields.
//
// Expiry is reported distinctly from other failures so the API can tell
// the caller whether to re-authenticate or to fix the credential.
func ParseToken(tokenString, secret string) (*Identity, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(_ *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %w", ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrTokenInvalid)
	}

	return &Identity{
		ActorID: claims.Subject,
		Name:    claims.Name,
		Role:    claims.Role,
	}, nil
}

// FromAuthHeader extracts the bearer token from an Authorization header value.
// Returns ErrTokenMissing when the header is absent or carries no token.
func FromAuthHeader(header string) (string, error) {
	if header == "" {
		return "", ErrTokenMissing
	}

	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", fmt.Errorf("%w: authorization header is not a bearer credential", ErrTokenInvalid)
	}

	token := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	if token == "" {
		return "", ErrTokenMissing
	}

	return token, nil
}
