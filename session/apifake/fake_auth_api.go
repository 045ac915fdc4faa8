package fakeauthapi

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/calzado-portal/authapi"
	apperrors "github.com/jrsteele09/calzado-portal/internal/errors"
	"github.com/jrsteele09/calzado-portal/session"
	"github.com/jrsteele09/calzado-portal/token/jwt"
	"github.com/jrsteele09/calzado-portal/users"
)

var _ session.AuthAPI = (*FakeAuthAPI)(nil)

const (
	ForgotPasswordMessage = "Si el email está registrado, recibirás un enlace de recuperación"
	ResetPasswordMessage  = "Contraseña restablecida exitosamente"
	ChangePasswordMessage = "Contraseña actualizada exitosamente"
)

type account struct {
	user     users.User
	password string
}

// FakeAuthAPI answers like the real API, keeping accounts and issued tokens in memory.
// Tokens are HS256 JWTs with the API's claims, so their expiry can be read.
type FakeAuthAPI struct {
	lock        sync.Mutex
	accounts    map[string]*account // email -> account
	accessTo    map[string]string   // access token -> email
	resetTo     map[string]string   // reset token -> email
	calls       map[string]int
	tokens      *jwt.Creator
	loginHook   func(ctx context.Context) error
	currentHook func(ctx context.Context, bearer string) error
}

func NewFakeAuthAPI() *FakeAuthAPI {
	return &FakeAuthAPI{
		accounts: make(map[string]*account),
		accessTo: make(map[string]string),
		resetTo:  make(map[string]string),
		calls:    make(map[string]int),
		tokens:   jwt.NewCreator([]byte("fake-api-secret")),
	}
}

// AddUser seeds a validated, active account.
func (f *FakeAuthAPI) AddUser(email, fullName, password string) users.User {
	f.lock.Lock()
	defer f.lock.Unlock()

	now := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	role := "client"
	u := users.User{
		ID:          uuid.NewString(),
		Email:       email,
		FullName:    fullName,
		IsActive:    true,
		IsValidated: true,
		RoleName:    &role,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	f.accounts[email] = &account{user: u, password: password}
	return u
}

// IssueTokens hands out a token pair for email as if it had logged in earlier.
func (f *FakeAuthAPI) IssueTokens(email string) (access, refresh string) {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.issueLocked(email)
}

// RevokeAll invalidates every access token issued so far.
func (f *FakeAuthAPI) RevokeAll() {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.accessTo = make(map[string]string)
}

// ResetTokenFor returns the recovery token emailed after ForgotPassword, if any.
func (f *FakeAuthAPI) ResetTokenFor(email string) string {
	f.lock.Lock()
	defer f.lock.Unlock()
	for tok, e := range f.resetTo {
		if e == email {
			return tok
		}
	}
	return ""
}

// OnLogin runs hook before Login answers. A non-nil error is returned instead of tokens.
func (f *FakeAuthAPI) OnLogin(hook func(ctx context.Context) error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.loginHook = hook
}

// OnGetCurrentUser runs hook before GetCurrentUser answers.
func (f *FakeAuthAPI) OnGetCurrentUser(hook func(ctx context.Context, bearer string) error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.currentHook = hook
}

// Calls reports how many times the named method was invoked.
func (f *FakeAuthAPI) Calls(method string) int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.calls[method]
}

func (f *FakeAuthAPI) TotalCalls() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}

func (f *FakeAuthAPI) Register(_ context.Context, req authapi.RegisterRequest) (*users.User, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.calls["Register"]++

	if len(req.Password) < 8 {
		return nil, apperrors.Validation("String should have at least 8 characters")
	}
	if _, ok := f.accounts[req.Email]; ok {
		return nil, apperrors.Domain(http.StatusBadRequest, "El email ya está registrado")
	}
	role := "client"
	u := users.User{
		ID:       uuid.NewString(),
		Email:    req.Email,
		FullName: req.FullName,
		IsActive: true,
		RoleName: &role,
	}
	f.accounts[req.Email] = &account{user: u, password: req.Password}
	return &u, nil
}

func (f *FakeAuthAPI) Login(ctx context.Context, req authapi.LoginRequest) (*authapi.TokenResponse, error) {
	f.lock.Lock()
	f.calls["Login"]++
	hook := f.loginHook
	f.lock.Unlock()

	if hook != nil {
		if err := hook(ctx); err != nil {
			return nil, err
		}
	}

	f.lock.Lock()
	defer f.lock.Unlock()
	acc, ok := f.accounts[req.Email]
	if !ok || acc.password != req.Password {
		return nil, apperrors.Domain(http.StatusUnauthorized, "Credenciales inválidas")
	}
	if !acc.user.IsValidated {
		return nil, apperrors.Domain(http.StatusForbidden, "Cuenta pendiente de validación por el administrador.")
	}
	access, refresh := f.issueLocked(req.Email)
	return &authapi.TokenResponse{AccessToken: access, RefreshToken: refresh, TokenType: "bearer"}, nil
}

func (f *FakeAuthAPI) ChangePassword(_ context.Context, bearer string, req authapi.ChangePasswordRequest) (*authapi.MessageResponse, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.calls["ChangePassword"]++

	acc, err := f.accountForLocked(bearer)
	if err != nil {
		return nil, err
	}
	if acc.password != req.CurrentPassword {
		return nil, apperrors.Domain(http.StatusBadRequest, "La contraseña actual es incorrecta")
	}
	acc.password = req.NewPassword
	return &authapi.MessageResponse{Message: ChangePasswordMessage}, nil
}

func (f *FakeAuthAPI) ForgotPassword(_ context.Context, req authapi.ForgotPasswordRequest) (*authapi.MessageResponse, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.calls["ForgotPassword"]++

	if _, ok := f.accounts[req.Email]; ok {
		f.resetTo[uuid.NewString()] = req.Email
	}
	return &authapi.MessageResponse{Message: ForgotPasswordMessage}, nil
}

func (f *FakeAuthAPI) ResetPassword(_ context.Context, req authapi.ResetPasswordRequest) (*authapi.MessageResponse, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.calls["ResetPassword"]++

	email, ok := f.resetTo[req.Token]
	if !ok {
		return nil, apperrors.Domain(http.StatusBadRequest, "Token de recuperación inválido")
	}
	delete(f.resetTo, req.Token)
	f.accounts[email].password = req.NewPassword
	return &authapi.MessageResponse{Message: ResetPasswordMessage}, nil
}

func (f *FakeAuthAPI) GetCurrentUser(ctx context.Context, bearer string) (*users.User, error) {
	f.lock.Lock()
	f.calls["GetCurrentUser"]++
	hook := f.currentHook
	f.lock.Unlock()

	if hook != nil {
		if err := hook(ctx, bearer); err != nil {
			return nil, err
		}
	}

	f.lock.Lock()
	defer f.lock.Unlock()
	acc, err := f.accountForLocked(bearer)
	if err != nil {
		return nil, err
	}
	u := acc.user
	return &u, nil
}

func (f *FakeAuthAPI) issueLocked(email string) (string, string) {
	sub := email
	if acc, ok := f.accounts[email]; ok {
		sub = acc.user.ID
	}
	access, refresh, err := f.tokens.CreatePair(sub)
	if err != nil {
		panic(fmt.Sprintf("fake auth api: %v", err))
	}
	f.accessTo[access] = email
	return access, refresh
}

func (f *FakeAuthAPI) accountForLocked(bearer string) (*account, error) {
	email, ok := f.accessTo[bearer]
	if !ok {
		return nil, apperrors.Domain(http.StatusUnauthorized, "No se pudieron validar las credenciales")
	}
	return f.accounts[email], nil
}
