package server

import (
	"context"
	"net/http"
	"time"

	"github.com/jrsteele09/calzado-portal/guard"
	"github.com/jrsteele09/calzado-portal/session"
	"github.com/rs/zerolog/log"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeySession stores the browser session's *session.Manager
	ContextKeySession ContextKey = "session"
)

// SessionMiddleware attaches the browser session's manager to the request context.
func (s *Server) SessionMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m, err := s.registry.Acquire(w, r)
		if err != nil {
			log.Err(err).Msg("failed to acquire browser session")
			http.Error(w, "Failed to start session", http.StatusInternalServerError)
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), ContextKeySession, m)))
	}
}

func managerFromContext(ctx context.Context) *session.Manager {
	m, _ := ctx.Value(ContextKeySession).(*session.Manager)
	return m
}

// RequireSession guards protected pages. It waits a little for rehydration, then shows
// the loading page, sends the visitor to the login page or serves the page.
func (s *Server) RequireSession() Middleware {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			m := managerFromContext(r.Context())
			if m == nil {
				redirectSuccess(w, r, RouteLogin)
				return
			}

			if !waitReady(r.Context(), m, s.config.GetGuardWait()) && r.Context().Err() != nil {
				return
			}

			switch guard.Decide(m.Snapshot()) {
			case guard.Loading:
				s.renderLoading(w, r)
			case guard.RedirectToLogin:
				redirectSuccess(w, r, RouteLogin)
			default:
				next(w, r)
			}
		}
	}
}

// waitReady blocks until m has resolved, wait has passed or ctx is done.
func waitReady(ctx context.Context, m *session.Manager, wait time.Duration) bool {
	select {
	case <-m.Ready():
		return true
	default:
	}
	if wait <= 0 {
		return false
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-m.Ready():
		return true
	case <-timer.C:
		return false
	case <-ctx.Done():
		return false
	}
}
