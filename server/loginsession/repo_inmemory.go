package loginsession

import (
	"context"
	"fmt"
	"sync"
	"time"

	apperrors "github.com/jrsteele09/calzado-portal/internal/errors"
	"github.com/jrsteele09/calzado-portal/session"
)

var (
	_ Repo   = (*InMemoryLoginSessionRepo)(nil)
	_ Purger = (*InMemoryLoginSessionRepo)(nil)
)

type entry struct {
	pair      session.TokenPair
	expiresAt time.Time
}

// InMemoryLoginSessionRepo is an in-memory implementation of Repo. Entries are lost on restart.
type InMemoryLoginSessionRepo struct {
	mu       sync.RWMutex
	sessions map[string]entry // sessionID -> entry
	nowTime  func() time.Time
}

// NewInMemoryLoginSessionRepo creates a new in-memory login session repository
func NewInMemoryLoginSessionRepo() *InMemoryLoginSessionRepo {
	return &InMemoryLoginSessionRepo{
		sessions: make(map[string]entry),
		nowTime:  time.Now,
	}
}

// Upsert creates or replaces the pair of a browser session
func (r *InMemoryLoginSessionRepo) Upsert(_ context.Context, sessionID string, pair session.TokenPair) error {
	if sessionID == "" {
		return fmt.Errorf("sessionID is required")
	}
	if !pair.Complete() {
		return apperrors.ErrIncompletePair
	}
	ttl, err := pairTTL(pair)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sessionID] = entry{pair: pair, expiresAt: r.nowTime().Add(ttl)}
	return nil
}

func (r *InMemoryLoginSessionRepo) Get(_ context.Context, sessionID string) (session.TokenPair, error) {
	if sessionID == "" {
		return session.TokenPair{}, fmt.Errorf("sessionID is required")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.sessions[sessionID]
	if !ok || !r.nowTime().Before(e.expiresAt) {
		return session.TokenPair{}, apperrors.ErrNoTokens
	}
	return e.pair, nil
}

// Delete removes a pair. Deleting a missing session is not an error.
func (r *InMemoryLoginSessionRepo) Delete(_ context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("sessionID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionID)
	return nil
}

// PurgeExpired drops every entry that expired before now and returns how many went.
func (r *InMemoryLoginSessionRepo) PurgeExpired(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	purged := 0
	for id, e := range r.sessions {
		if !now.Before(e.expiresAt) {
			delete(r.sessions, id)
			purged++
		}
	}
	return purged
}
