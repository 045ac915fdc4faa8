package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/jrsteele09/calzado-portal/authapi"
	apperrors "github.com/jrsteele09/calzado-portal/internal/errors"
	"github.com/jrsteele09/calzado-portal/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// MissingResetTokenMessage is returned when a reset link arrives without its token.
const MissingResetTokenMessage = "Token de recuperación no encontrado en la URL."

// Manager is the single source of truth for one browser session's authentication state.
//
// Every state change happens under mu. Login, Logout and Start advance the generation;
// a result computed under an older generation is dropped instead of committed, so a
// login that completes after a logout cannot re-authenticate the session. Store writes
// happen under mu as well so that the generation check and the write are one step.
type Manager struct {
	api     AuthAPI
	store   TokenStore
	logger  zerolog.Logger
	nowTime func() time.Time

	mu          sync.Mutex
	started     bool
	resolved    bool
	state       State
	user        *users.User
	tokens      TokenPair
	changedAt   time.Time
	generation  uint64
	ready       chan struct{}
	nextSubID   uint64
	subscribers map[uint64]func(Snapshot)
}

type ManagerOption func(*Manager)

func WithLogger(logger zerolog.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowTime = nowFunc
	}
}

func NewManager(api AuthAPI, store TokenStore, options ...ManagerOption) (*Manager, error) {
	if api == nil {
		return nil, errors.New("[NewManager] auth api is required")
	}
	if store == nil {
		return nil, errors.New("[NewManager] token store is required")
	}

	m := &Manager{
		api:         api,
		store:       store,
		logger:      log.Logger,
		nowTime:     time.Now,
		state:       StateUninitialized,
		ready:       make(chan struct{}),
		subscribers: make(map[uint64]func(Snapshot)),
	}
	for _, opt := range options {
		opt(m)
	}
	m.changedAt = m.nowTime()
	return m, nil
}

// Start moves the session into rehydrating and restores it from the store in the
// background. It can only be called once.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return apperrors.ErrAlreadyStarted
	}
	m.started = true
	m.generation++
	gen := m.generation
	m.setStateLocked(StateRehydrating)
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.notify(snap)
	go m.rehydrate(ctx, gen)
	return nil
}

// Ready is closed once the session has left the loading states.
func (m *Manager) Ready() <-chan struct{} {
	return m.ready
}

// Initialize starts the session and waits for rehydration to resolve.
func (m *Manager) Initialize(ctx context.Context) error {
	if err := m.Start(ctx); err != nil {
		return err
	}
	select {
	case <-m.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) rehydrate(ctx context.Context, gen uint64) {
	pair, err := m.store.Load(ctx)
	switch {
	case errors.Is(err, apperrors.ErrNoTokens):
		m.finishRehydration(gen, nil, TokenPair{}, nil)
		return
	case err != nil:
		m.finishRehydration(gen, nil, TokenPair{}, apperrors.SessionCorruption(err))
		return
	case !pair.Complete():
		m.finishRehydration(gen, nil, TokenPair{}, apperrors.SessionCorruption(apperrors.ErrIncompletePair))
		return
	}

	user, err := m.api.GetCurrentUser(ctx, pair.Access)
	if err != nil {
		if apperrors.KindOf(err) == apperrors.KindDomain {
			// the server answered and refused the persisted token
			err = apperrors.SessionCorruption(err)
		}
		m.finishRehydration(gen, nil, TokenPair{}, err)
		return
	}
	m.finishRehydration(gen, user, pair, nil)
}

func (m *Manager) finishRehydration(gen uint64, user *users.User, pair TokenPair, cause error) {
	m.mu.Lock()
	if gen != m.generation {
		m.mu.Unlock()
		m.logger.Debug().Msg("rehydration superseded, result dropped")
		return
	}

	if cause != nil {
		m.logger.Warn().
			Err(cause).
			Str("kind", apperrors.KindOf(cause).String()).
			Msg("session rehydration failed, continuing anonymous")
		if err := m.store.Clear(context.Background()); err != nil {
			m.logger.Error().Err(err).Msg("failed to clear persisted tokens")
		}
	}

	if user != nil {
		m.user = user
		m.tokens = pair
		m.setStateLocked(StateAuthenticated)
	} else {
		m.user = nil
		m.tokens = TokenPair{}
		m.setStateLocked(StateAnonymous)
	}
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.notify(snap)
}

// Login exchanges credentials for a token pair, persists it and loads the user.
// Nothing changes unless every step succeeds.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	m.mu.Lock()
	if !m.started {
		m.mu.Unlock()
		return apperrors.ErrNotStarted
	}
	gen := m.generation
	m.mu.Unlock()

	resp, err := m.api.Login(ctx, authapi.LoginRequest{Email: email, Password: password})
	if err != nil {
		return errors.Wrap(err, "[Login] login request failed")
	}
	if !resp.Complete() {
		return errors.Wrap(apperrors.SessionCorruption(apperrors.ErrIncompletePair), "[Login] token response")
	}
	pair := TokenPair{Access: resp.AccessToken, Refresh: resp.RefreshToken}

	m.mu.Lock()
	if gen != m.generation {
		m.mu.Unlock()
		return apperrors.ErrSuperseded
	}
	prev := m.tokens
	if err := m.store.Save(ctx, pair); err != nil {
		m.mu.Unlock()
		return errors.Wrap(err, "[Login] failed to persist tokens")
	}
	m.generation++
	gen = m.generation
	m.mu.Unlock()

	user, err := m.api.GetCurrentUser(ctx, pair.Access)

	m.mu.Lock()
	// a newer Login or Logout has already rewritten the store
	if gen != m.generation {
		m.mu.Unlock()
		return apperrors.ErrSuperseded
	}
	if err != nil {
		m.restoreTokensLocked(context.WithoutCancel(ctx), prev)
		// the login replaced whatever rehydration was still waiting for
		var snap *Snapshot
		if m.state == StateRehydrating {
			m.setStateLocked(StateAnonymous)
			s := m.snapshotLocked()
			snap = &s
		}
		m.mu.Unlock()
		if snap != nil {
			m.notify(*snap)
		}
		return errors.Wrap(err, "[Login] failed to fetch current user")
	}

	m.user = user
	m.tokens = pair
	m.setStateLocked(StateAuthenticated)
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.notify(snap)
	m.logger.Info().Str("user_id", user.ID).Msg("login succeeded")
	return nil
}

// restoreTokensLocked puts the store back to the pair held before a failed login.
func (m *Manager) restoreTokensLocked(ctx context.Context, prev TokenPair) {
	if prev.Complete() {
		err := m.store.Save(ctx, prev)
		if err == nil {
			return
		}
		m.logger.Error().Err(err).Msg("failed to restore previous tokens")
	}
	if err := m.store.Clear(ctx); err != nil {
		m.logger.Error().Err(err).Msg("failed to roll back persisted tokens")
	}
}

// Register creates an account. New accounts wait for administrator validation,
// so the session is never changed.
func (m *Manager) Register(ctx context.Context, fullName, email, password string) error {
	_, err := m.api.Register(ctx, authapi.RegisterRequest{
		Email:    email,
		FullName: fullName,
		Password: password,
	})
	if err != nil {
		return errors.Wrap(err, "[Register] registration failed")
	}
	return nil
}

// Logout drops the user and both tokens, in memory and in the store. It never fails;
// a store error is logged.
func (m *Manager) Logout() {
	m.mu.Lock()
	m.generation++
	if err := m.store.Clear(context.Background()); err != nil {
		m.logger.Error().Err(err).Msg("failed to clear persisted tokens on logout")
	}
	m.user = nil
	m.tokens = TokenPair{}
	if m.state != StateUninitialized {
		m.setStateLocked(StateAnonymous)
	}
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.notify(snap)
}

// ChangePassword uses the current access token; the tokens stay valid afterwards.
func (m *Manager) ChangePassword(ctx context.Context, currentPassword, newPassword string) error {
	m.mu.Lock()
	bearer := m.tokens.Access
	m.mu.Unlock()

	_, err := m.api.ChangePassword(ctx, bearer, authapi.ChangePasswordRequest{
		CurrentPassword: currentPassword,
		NewPassword:     newPassword,
	})
	if err != nil {
		return errors.Wrap(err, "[ChangePassword] change password failed")
	}
	return nil
}

// ForgotPassword returns the server's generic answer. It is the same whether or not the
// email belongs to an account, and callers must present it the same way.
func (m *Manager) ForgotPassword(ctx context.Context, email string) (string, error) {
	resp, err := m.api.ForgotPassword(ctx, authapi.ForgotPasswordRequest{Email: email})
	if err != nil {
		return "", errors.Wrap(err, "[ForgotPassword] forgot password failed")
	}
	return resp.Message, nil
}

// ResetPassword uses the token from the emailed link, never the session's tokens.
func (m *Manager) ResetPassword(ctx context.Context, token, newPassword string) error {
	if strings.TrimSpace(token) == "" {
		return apperrors.Validation(MissingResetTokenMessage)
	}
	_, err := m.api.ResetPassword(ctx, authapi.ResetPasswordRequest{
		Token:       token,
		NewPassword: newPassword,
	})
	if err != nil {
		return errors.Wrap(err, "[ResetPassword] reset password failed")
	}
	return nil
}

func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// Subscribe registers fn to receive a snapshot after every state change. Callbacks run on
// the goroutine that made the change, outside the manager's lock.
func (m *Manager) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	m.mu.Lock()
	m.nextSubID++
	id := m.nextSubID
	m.subscribers[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.subscribers, id)
		m.mu.Unlock()
	}
}

func (m *Manager) setStateLocked(state State) {
	m.state = state
	m.changedAt = m.nowTime()
	if !m.resolved && state != StateUninitialized && state != StateRehydrating {
		m.resolved = true
		close(m.ready)
	}
}

func (m *Manager) snapshotLocked() Snapshot {
	return Snapshot{
		State:        m.state,
		User:         m.user,
		AccessToken:  m.tokens.Access,
		RefreshToken: m.tokens.Refresh,
		ChangedAt:    m.changedAt,
	}
}

func (m *Manager) notify(snap Snapshot) {
	m.mu.Lock()
	subs := make([]func(Snapshot), 0, len(m.subscribers))
	for _, fn := range m.subscribers {
		subs = append(subs, fn)
	}
	m.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}
