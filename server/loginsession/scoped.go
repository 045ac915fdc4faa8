package loginsession

import (
	"context"

	"github.com/jrsteele09/calzado-portal/session"
)

var _ session.TokenStore = (*ScopedStore)(nil)

// ScopedStore is the view of a Repo that one browser session's manager sees.
type ScopedStore struct {
	repo      Repo
	sessionID string
}

func Scoped(repo Repo, sessionID string) *ScopedStore {
	return &ScopedStore{repo: repo, sessionID: sessionID}
}

func (s *ScopedStore) Load(ctx context.Context) (session.TokenPair, error) {
	return s.repo.Get(ctx, s.sessionID)
}

func (s *ScopedStore) Save(ctx context.Context, pair session.TokenPair) error {
	return s.repo.Upsert(ctx, s.sessionID, pair)
}

func (s *ScopedStore) Clear(ctx context.Context) error {
	return s.repo.Delete(ctx, s.sessionID)
}
