package session

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Expired reports whether credential is a JWT whose exp claim has passed.
// The signature is not checked. Opaque credentials (session cookies) are
// never expired here.
func Expired(credential string, now time.Time) bool {
	if strings.Count(credential, ".") != 2 {
		return false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(credential, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !now.Before(exp.Time)
}
