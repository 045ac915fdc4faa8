package session

import (
	"context"

	"github.com/jrsteele09/calzado-portal/authapi"
	"github.com/jrsteele09/calzado-portal/users"
)

// TokenStore persists the token pair of a single browser session.
//
// Load returns errors.ErrNoTokens when nothing is stored and errors.ErrIncompletePair
// when only one half survived. Save must reject incomplete pairs and write both
// halves in one operation.
type TokenStore interface {
	Load(ctx context.Context) (TokenPair, error)
	Save(ctx context.Context, pair TokenPair) error
	Clear(ctx context.Context) error
}

// AuthAPI is the subset of the remote API the manager calls.
type AuthAPI interface {
	Register(ctx context.Context, req authapi.RegisterRequest) (*users.User, error)
	Login(ctx context.Context, req authapi.LoginRequest) (*authapi.TokenResponse, error)
	ChangePassword(ctx context.Context, bearer string, req authapi.ChangePasswordRequest) (*authapi.MessageResponse, error)
	ForgotPassword(ctx context.Context, req authapi.ForgotPasswordRequest) (*authapi.MessageResponse, error)
	ResetPassword(ctx context.Context, req authapi.ResetPasswordRequest) (*authapi.MessageResponse, error)
	GetCurrentUser(ctx context.Context, bearer string) (*users.User, error)
}

var _ AuthAPI = (*authapi.API)(nil)
