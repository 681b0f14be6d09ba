// ABOUTME: Best-effort expiry peek at the access token
// ABOUTME: Claims are read without signature verification, never trusted for auth

package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccessTokenExpiry reads the exp claim out of an access token without
// verifying its signature. Only the backend can judge a token's validity;
// the expiry here is used solely to schedule a proactive refresh.
func AccessTokenExpiry(token string) (time.Time, bool) {
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())

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
