package fakestore

import (
	"context"
	"sync"

	apperrors "github.com/jrsteele09/calzado-portal/internal/errors"
	"github.com/jrsteele09/calzado-portal/session"
)

var _ session.TokenStore = (*FakeTokenStore)(nil)

// FakeTokenStore keeps one token pair in memory and can be told to fail.
type FakeTokenStore struct {
	lock    sync.Mutex
	pair    session.TokenPair
	loadErr error
	saveErr error
	writes  int
}

func NewFakeTokenStore() *FakeTokenStore {
	return &FakeTokenStore{}
}

// Put stores pair as is, incomplete pairs included, bypassing Save's checks.
func (s *FakeTokenStore) Put(pair session.TokenPair) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.pair = pair
}

func (s *FakeTokenStore) Peek() session.TokenPair {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.pair
}

func (s *FakeTokenStore) FailLoad(err error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.loadErr = err
}

func (s *FakeTokenStore) FailSave(err error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.saveErr = err
}

// Writes counts Save and Clear calls.
func (s *FakeTokenStore) Writes() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.writes
}

func (s *FakeTokenStore) Load(_ context.Context) (session.TokenPair, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.loadErr != nil {
		return session.TokenPair{}, s.loadErr
	}
	if s.pair.Empty() {
		return session.TokenPair{}, apperrors.ErrNoTokens
	}
	return s.pair, nil
}

func (s *FakeTokenStore) Save(_ context.Context, pair session.TokenPair) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.writes++
	if s.saveErr != nil {
		return s.saveErr
	}
	if !pair.Complete() {
		return apperrors.ErrIncompletePair
	}
	s.pair = pair
	return nil
}

func (s *FakeTokenStore) Clear(_ context.Context) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.writes++
	s.pair = session.TokenPair{}
	return nil
}
