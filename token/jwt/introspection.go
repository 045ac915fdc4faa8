// Package jwt reads the claims of API-issued tokens without verifying them. The portal
// never holds the signing key; the API stays the only judge of a token's validity and
// these claims are used for housekeeping only.
package jwt

import (
	"errors"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

var ErrEmptyToken = errors.New("empty token")

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// TokenIntrospection holds the claims the API puts in its access and refresh tokens.
type TokenIntrospection struct {
	Sub       string    // user id
	Type      string    // "access" or "refresh"
	ExpiresAt time.Time // zero when the token carries no exp
}

// Expired reports whether exp has passed. Tokens without exp never expire here.
func (ti TokenIntrospection) Expired() bool {
	return !ti.ExpiresAt.IsZero() && !NowTimeFunc().Before(ti.ExpiresAt)
}

// Introspect parses rawToken without checking its signature.
func Introspect(rawToken string) (TokenIntrospection, error) {
	if strings.TrimSpace(rawToken) == "" {
		return TokenIntrospection{}, ErrEmptyToken
	}

	token, _, err := jwtlib.NewParser().ParseUnverified(rawToken, jwtlib.MapClaims{})
	if err != nil {
		return TokenIntrospection{}, err
	}
	claims, ok := token.Claims.(jwtlib.MapClaims)
	if !ok {
		return TokenIntrospection{}, errors.New("error extracting claims")
	}

	ti := TokenIntrospection{}
	ti.Sub, _ = claims.GetSubject()
	ti.Type, _ = claims["type"].(string)
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		ti.ExpiresAt = exp.Time
	}
	return ti, nil
}

// ExpiresAt returns the exp claim of rawToken, if it has a readable one.
func ExpiresAt(rawToken string) (time.Time, bool) {
	ti, err := Introspect(rawToken)
	if err != nil || ti.ExpiresAt.IsZero() {
		return time.Time{}, false
	}
	return ti.ExpiresAt, true
}

// TTL is how long a token stays usable from now, or fallback when that cannot be read.
func TTL(rawToken string, fallback time.Duration) time.Duration {
	exp, ok := ExpiresAt(rawToken)
	if !ok {
		return fallback
	}
	if ttl := exp.Sub(NowTimeFunc()); ttl > 0 {
		return ttl
	}
	return 0
}
