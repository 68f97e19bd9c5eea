package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

// Subject returns the "sub" claim of a session token without verifying
// it. The result is only a display hint such as a default chat name; token
// validity is decided by the service.
func Subject(token string) (string, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return "", false
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", false
	}
	return sub, true
}
