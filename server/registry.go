package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/calzado-portal/server/loginsession"
	"github.com/jrsteele09/calzado-portal/session"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const minJanitorInterval = time.Second

type registryEntry struct {
	manager     *session.Manager
	lastSeen    time.Time
	unsubscribe func()
}

// Registry maps browser session ids to their session managers. Managers are created on
// first use and dropped after sitting idle; the token pairs stay in the repo so a dropped
// session rehydrates on its next request.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*registryEntry
	api      session.AuthAPI
	repo     loginsession.Repo
	idleTTL  time.Duration
	nowTime  func() time.Time
}

type RegistryOption func(*Registry)

// WithRegistryNowTime sets the now time function (primarily for testing)
func WithRegistryNowTime(nowFunc func() time.Time) RegistryOption {
	return func(rg *Registry) {
		rg.nowTime = nowFunc
	}
}

func NewRegistry(api session.AuthAPI, repo loginsession.Repo, idleTTL time.Duration, options ...RegistryOption) *Registry {
	rg := &Registry{
		sessions: make(map[string]*registryEntry),
		api:      api,
		repo:     repo,
		idleTTL:  idleTTL,
		nowTime:  time.Now,
	}
	for _, opt := range options {
		opt(rg)
	}
	return rg
}

// Acquire returns the manager of the request's browser session, issuing a session cookie
// and starting a new manager when needed.
func (rg *Registry) Acquire(w http.ResponseWriter, r *http.Request) (*session.Manager, error) {
	sessionID := ""
	if cookie, err := r.Cookie(browserSessionCookieName); err == nil {
		if _, err := uuid.Parse(cookie.Value); err == nil {
			sessionID = cookie.Value
		}
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
		SetBrowserSessionCookie(w, r, sessionID)
	}
	return rg.Get(sessionID)
}

// Get returns the manager for sessionID, creating and starting it if it is not loaded.
func (rg *Registry) Get(sessionID string) (*session.Manager, error) {
	rg.mu.Lock()
	defer rg.mu.Unlock()

	now := rg.nowTime()
	if entry, ok := rg.sessions[sessionID]; ok {
		entry.lastSeen = now
		return entry.manager, nil
	}

	logger := log.With().Str("browser_session", shortID(sessionID)).Logger()
	m, err := session.NewManager(rg.api, loginsession.Scoped(rg.repo, sessionID), session.WithLogger(logger))
	if err != nil {
		return nil, errors.Wrap(err, "[Registry Get] failed to create session manager")
	}
	unsubscribe := m.Subscribe(func(snap session.Snapshot) {
		logger.Debug().Str("state", snap.State.String()).Bool("authenticated", snap.IsAuthenticated()).Msg("session state changed")
	})
	// rehydration belongs to the browser session, not to the request that triggered it
	if err := m.Start(context.Background()); err != nil {
		unsubscribe()
		return nil, errors.Wrap(err, "[Registry Get] failed to start session manager")
	}

	rg.sessions[sessionID] = &registryEntry{manager: m, lastSeen: now, unsubscribe: unsubscribe}
	return m, nil
}

func (rg *Registry) Len() int {
	rg.mu.Lock()
	defer rg.mu.Unlock()
	return len(rg.sessions)
}

// Evict drops managers not seen since now minus the idle TTL and returns how many went.
func (rg *Registry) Evict(now time.Time) int {
	rg.mu.Lock()
	defer rg.mu.Unlock()

	evicted := 0
	for id, entry := range rg.sessions {
		if now.Sub(entry.lastSeen) > rg.idleTTL {
			entry.unsubscribe()
			delete(rg.sessions, id)
			evicted++
		}
	}
	return evicted
}

// Run evicts idle managers, and purges expired token pairs when the repo needs it, until
// ctx is done.
func (rg *Registry) Run(ctx context.Context) error {
	interval := rg.idleTTL / 2
	if interval < minJanitorInterval {
		interval = minJanitorInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	purger, _ := rg.repo.(loginsession.Purger)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			now := rg.nowTime()
			evicted := rg.Evict(now)
			purged := 0
			if purger != nil {
				purged = purger.PurgeExpired(now)
			}
			if evicted > 0 || purged > 0 {
				log.Debug().Int("evicted", evicted).Int("purged", purged).Msg("session janitor pass")
			}
		}
	}
}

func shortID(sessionID string) string {
	if len(sessionID) > 8 {
		return sessionID[:8]
	}
	return sessionID
}
