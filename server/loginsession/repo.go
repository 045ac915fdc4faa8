// Package loginsession persists the token pair of each browser session, keyed by the
// browser session id, so a session can be rehydrated after the portal forgets it.
package loginsession

import (
	"context"
	"time"

	apperrors "github.com/jrsteele09/calzado-portal/internal/errors"
	"github.com/jrsteele09/calzado-portal/session"
	"github.com/jrsteele09/calzado-portal/token/jwt"
)

// DefaultTTL bounds how long a pair is kept when its refresh token carries no readable exp.
const DefaultTTL = 7 * 24 * time.Hour

// Repo stores one token pair per browser session.
//
// Upsert refuses incomplete pairs with errors.ErrIncompletePair and pairs whose refresh
// token has expired with errors.ErrExpiredPair.
// Get returns errors.ErrNoTokens when nothing is stored (or the entry expired) and
// errors.ErrIncompletePair, together with whatever half survived, when the entry is damaged.
type Repo interface {
	Upsert(ctx context.Context, sessionID string, pair session.TokenPair) error
	Get(ctx context.Context, sessionID string) (session.TokenPair, error)
	Delete(ctx context.Context, sessionID string) error
}

// Purger is implemented by repos that have to drop expired entries themselves.
type Purger interface {
	PurgeExpired(now time.Time) int
}

// pairTTL keeps a pair for as long as its refresh token can mint new access tokens.
// A refresh token that is already past its exp cannot be stored at all.
func pairTTL(pair session.TokenPair) (time.Duration, error) {
	ttl := jwt.TTL(pair.Refresh, DefaultTTL)
	if ttl <= 0 {
		return 0, apperrors.ErrExpiredPair
	}
	return ttl, nil
}
