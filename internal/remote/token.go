package remote

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// Claims decodes the token payload without verifying the signature. The client
// never holds the signing key; the server validates, we only read exp and
// identity fields for display.
func Claims(token string) (jwt.MapClaims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errors.New("empty token")
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// TokenExpired reports whether token carries an exp claim earlier than now.
// Opaque (non-JWT) tokens and tokens without exp never count as expired.
func TokenExpired(token string, now time.Time) bool {
	claims, err := Claims(token)
	if err != nil {
		return false
	}
	return !claims.VerifyExpiresAt(now.Unix(), false)
}

// Subject returns the best display identity in the token: email, then sub.
func Subject(claims jwt.MapClaims) string {
	for _, k := range []string{"email", "sub", "id"} {
		if v, ok := claims[k].(string); ok && strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
