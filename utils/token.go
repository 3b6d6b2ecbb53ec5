package utils

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims is what the client reads out of an access token. The client
// cannot verify the signature; these values are hints for display and
// bookkeeping only.
type TokenClaims struct {
	UserID    string
	ExpiresAt time.Time
}

// ParseTokenClaims decodes the claims of a JWT without verifying it.
func ParseTokenClaims(tokenString string) (TokenClaims, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return TokenClaims{}, fmt.Errorf("failed to parse token: %w", err)
	}

	var out TokenClaims
	if uid, ok := claims["user_id"].(string); ok {
		out.UserID = uid
	} else if sub, err := claims.GetSubject(); err == nil {
		out.UserID = sub
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	return out, nil
}
