package domain

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenExpiry extracts the exp claim from a bearer token, when the token
// happens to be a JWT. The token is treated as opaque everywhere else:
// the claim is never verified and never alters session behaviour, since
// only an explicit upstream rejection invalidates a credential. This exists
// purely so bootstrap can log a useful diagnostic for stale tokens.
func TokenExpiry(token string) (time.Time, bool) {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
