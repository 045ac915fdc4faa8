// Package authapi wraps the API's auth and user endpoints in typed calls.
package authapi

import (
	"context"
	"net/http"

	"github.com/jrsteele09/calzado-portal/users"
)

const (
	authPrefix  = "/api/v1/auth"
	usersPrefix = "/api/v1/users"
)

// Doer is the transport the facade sends requests through; *apiclient.Client implements it.
type Doer interface {
	Do(ctx context.Context, method, path, bearer string, body, out any) error
}

type API struct {
	client Doer
}

func New(client Doer) *API {
	return &API{client: client}
}

func (a *API) Register(ctx context.Context, req RegisterRequest) (*users.User, error) {
	var user users.User
	if err := a.client.Do(ctx, http.MethodPost, authPrefix+"/register", "", req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (a *API) Login(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	var tokens TokenResponse
	if err := a.client.Do(ctx, http.MethodPost, authPrefix+"/login", "", req, &tokens); err != nil {
		return nil, err
	}
	return &tokens, nil
}

// Refresh exchanges a refresh token for a new pair. Nothing renews tokens automatically.
func (a *API) Refresh(ctx context.Context, req RefreshTokenRequest) (*TokenResponse, error) {
	var tokens TokenResponse
	if err := a.client.Do(ctx, http.MethodPost, authPrefix+"/refresh", "", req, &tokens); err != nil {
		return nil, err
	}
	return &tokens, nil
}

func (a *API) ChangePassword(ctx context.Context, bearer string, req ChangePasswordRequest) (*MessageResponse, error) {
	var msg MessageResponse
	if err := a.client.Do(ctx, http.MethodPost, authPrefix+"/change-password", bearer, req, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (a *API) ForgotPassword(ctx context.Context, req ForgotPasswordRequest) (*MessageResponse, error) {
	var msg MessageResponse
	if err := a.client.Do(ctx, http.MethodPost, authPrefix+"/forgot-password", "", req, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (a *API) ResetPassword(ctx context.Context, req ResetPasswordRequest) (*MessageResponse, error) {
	var msg MessageResponse
	if err := a.client.Do(ctx, http.MethodPost, authPrefix+"/reset-password", "", req, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// GetCurrentUser fetches the profile behind the access token.
func (a *API) GetCurrentUser(ctx context.Context, bearer string) (*users.User, error) {
	var user users.User
	if err := a.client.Do(ctx, http.MethodGet, usersPrefix+"/me", bearer, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
