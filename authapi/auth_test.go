package authapi_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/jrsteele09/calzado-portal/apiclient"
	"github.com/jrsteele09/calzado-portal/authapi"
	"github.com/stretchr/testify/require"
)

const testUserJSON = `{"id":"u-1","email":"a@b.com","full_name":"Ana Rojas","phone":null,"is_active":true,"is_validated":true,"role_name":"client","business_name":null,"occupation":null,"created_at":"2026-01-02T10:00:00+00:00","updated_at":"2026-01-02T10:00:00+00:00"}`

type recordedCall struct {
	Method        string
	Path          string
	Authorization string
	Body          map[string]string
}

// fakeAPI answers every known route and records what it received
type fakeAPI struct {
	mu    sync.Mutex
	calls []recordedCall
	srv   *httptest.Server
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()
	f := &fakeAPI{}
	f.srv = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeAPI) handle(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	body := map[string]string{}
	_ = json.Unmarshal(raw, &body)

	f.mu.Lock()
	f.calls = append(f.calls, recordedCall{
		Method:        r.Method,
		Path:          r.URL.Path,
		Authorization: r.Header.Get("Authorization"),
		Body:          body,
	})
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/api/v1/auth/register":
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(testUserJSON))
	case "/api/v1/auth/login", "/api/v1/auth/refresh":
		_, _ = w.Write([]byte(`{"access_token":"acc","refresh_token":"ref","token_type":"bearer"}`))
	case "/api/v1/auth/change-password":
		_, _ = w.Write([]byte(`{"message":"Contraseña actualizada exitosamente"}`))
	case "/api/v1/auth/forgot-password":
		_, _ = w.Write([]byte(`{"message":"Si el email está registrado, recibirás un enlace de recuperación"}`))
	case "/api/v1/auth/reset-password":
		_, _ = w.Write([]byte(`{"message":"Contraseña restablecida exitosamente"}`))
	case "/api/v1/users/me":
		_, _ = w.Write([]byte(testUserJSON))
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail":"Not Found"}`))
	}
}

func (f *fakeAPI) lastCall(t *testing.T) recordedCall {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.calls)
	return f.calls[len(f.calls)-1]
}

func newAPI(t *testing.T) (*authapi.API, *fakeAPI) {
	t.Helper()
	fake := newFakeAPI(t)
	return authapi.New(apiclient.New(fake.srv.URL)), fake
}

func TestAPI_Register(t *testing.T) {
	api, fake := newAPI(t)
	user, err := api.Register(context.Background(), authapi.RegisterRequest{Email: "a@b.com", FullName: "Ana Rojas", Password: "Secreto123"})
	require.NoError(t, err)
	require.Equal(t, "Ana Rojas", user.FullName)

	call := fake.lastCall(t)
	require.Equal(t, http.MethodPost, call.Method)
	require.Equal(t, "/api/v1/auth/register", call.Path)
	require.Equal(t, map[string]string{"email": "a@b.com", "full_name": "Ana Rojas", "password": "Secreto123"}, call.Body)
	require.Empty(t, call.Authorization)
}

func TestAPI_LoginAndRefresh(t *testing.T) {
	api, fake := newAPI(t)

	tokens, err := api.Login(context.Background(), authapi.LoginRequest{Email: "a@b.com", Password: "secret123"})
	require.NoError(t, err)
	require.True(t, tokens.Complete())
	require.Equal(t, "bearer", tokens.TokenType)
	require.Equal(t, "/api/v1/auth/login", fake.lastCall(t).Path)

	tokens, err = api.Refresh(context.Background(), authapi.RefreshTokenRequest{RefreshToken: "ref"})
	require.NoError(t, err)
	require.Equal(t, "acc", tokens.AccessToken)
	call := fake.lastCall(t)
	require.Equal(t, "/api/v1/auth/refresh", call.Path)
	require.Equal(t, "ref", call.Body["refresh_token"])
}

func TestAPI_PasswordFlows(t *testing.T) {
	api, fake := newAPI(t)
	ctx := context.Background()

	msg, err := api.ChangePassword(ctx, "acc", authapi.ChangePasswordRequest{CurrentPassword: "Old12345", NewPassword: "New12345"})
	require.NoError(t, err)
	require.Equal(t, "Contraseña actualizada exitosamente", msg.Message)
	call := fake.lastCall(t)
	require.Equal(t, "/api/v1/auth/change-password", call.Path)
	require.Equal(t, "Bearer acc", call.Authorization)
	require.Equal(t, "Old12345", call.Body["current_password"])
	require.Equal(t, "New12345", call.Body["new_password"])

	_, err = api.ForgotPassword(ctx, authapi.ForgotPasswordRequest{Email: "nobody@b.com"})
	require.NoError(t, err)
	require.Equal(t, "/api/v1/auth/forgot-password", fake.lastCall(t).Path)

	_, err = api.ResetPassword(ctx, authapi.ResetPasswordRequest{Token: "reset-tok", NewPassword: "New12345"})
	require.NoError(t, err)
	call = fake.lastCall(t)
	require.Equal(t, "/api/v1/auth/reset-password", call.Path)
	require.Equal(t, "reset-tok", call.Body["token"])
}

func TestAPI_GetCurrentUser(t *testing.T) {
	api, fake := newAPI(t)
	user, err := api.GetCurrentUser(context.Background(), "acc")
	require.NoError(t, err)
	require.Equal(t, "u-1", user.ID)

	call := fake.lastCall(t)
	require.Equal(t, http.MethodGet, call.Method)
	require.Equal(t, "/api/v1/users/me", call.Path)
	require.Equal(t, "Bearer acc", call.Authorization)
}

func TestTokenResponse_Complete(t *testing.T) {
	var nilTokens *authapi.TokenResponse
	require.False(t, nilTokens.Complete())
	require.False(t, (&authapi.TokenResponse{AccessToken: "a"}).Complete())
	require.False(t, (&authapi.TokenResponse{RefreshToken: "r"}).Complete())
	require.True(t, (&authapi.TokenResponse{AccessToken: "a", RefreshToken: "r"}).Complete())
}
