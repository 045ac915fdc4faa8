// Package session owns the authentication state of one browser session: the
// current user, the token pair and the rehydration lifecycle.
package session

import (
	"time"

	"github.com/jrsteele09/calzado-portal/users"
)

type State int

const (
	StateUninitialized State = iota
	StateRehydrating
	StateAnonymous
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateRehydrating:
		return "rehydrating"
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// TokenPair is always written and cleared as a unit.
type TokenPair struct {
	Access  string
	Refresh string
}

// Complete reports whether both halves are present.
func (p TokenPair) Complete() bool {
	return p.Access != "" && p.Refresh != ""
}

func (p TokenPair) Empty() bool {
	return p.Access == "" && p.Refresh == ""
}

// Snapshot is a read-only copy of the session handed to guards, pages and subscribers.
// User is shared with the manager and must not be modified.
type Snapshot struct {
	State        State
	User         *users.User
	AccessToken  string
	RefreshToken string
	ChangedAt    time.Time
}

func (s Snapshot) IsAuthenticated() bool {
	return s.User != nil && s.AccessToken != ""
}

func (s Snapshot) IsLoading() bool {
	return s.State == StateUninitialized || s.State == StateRehydrating
}
