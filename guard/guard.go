// Package guard decides what a protected page shows for a given session snapshot.
package guard

import "github.com/jrsteele09/calzado-portal/session"

type Decision int

const (
	// Loading means rehydration has not resolved yet; show a loading indicator.
	Loading Decision = iota
	// RedirectToLogin means the session is resolved and anonymous.
	RedirectToLogin
	// Allow means the protected page may be rendered.
	Allow
)

func (d Decision) String() string {
	switch d {
	case Loading:
		return "loading"
	case RedirectToLogin:
		return "redirect_to_login"
	case Allow:
		return "allow"
	default:
		return "unknown"
	}
}

// Decide is a pure function of the snapshot.
func Decide(s session.Snapshot) Decision {
	if s.IsLoading() {
		return Loading
	}
	if !s.IsAuthenticated() {
		return RedirectToLogin
	}
	return Allow
}
