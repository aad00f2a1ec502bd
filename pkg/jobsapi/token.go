package jobsapi

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrTokenExpired is returned before sending a request whose bearer token is
// a JWT that has already expired.
var ErrTokenExpired = errors.New("api token expired")

// checkToken inspects the exp claim without verifying the signature; the
// server owns the key. Tokens that are not JWTs are passed through unchecked.
func checkToken(token string, now time.Time) error {
	exp, ok := TokenExpiry(token)
	if ok && !now.Before(exp) {
		return fmt.Errorf("%w at %s", ErrTokenExpired, exp.UTC().Format(time.RFC3339))
	}
	return nil
}

// TokenExpiry returns the exp claim of a JWT token, if any.
func TokenExpiry(token string) (time.Time, bool) {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, false
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
