package apiclient_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jrsteele09/calzado-portal/apiclient"
	apperrors "github.com/jrsteele09/calzado-portal/internal/errors"
	"github.com/stretchr/testify/require"
)

type echoResponse struct {
	Authorization string `json:"authorization"`
	RequestID     string `json:"request_id"`
	ContentType   string `json:"content_type"`
	Body          string `json:"body"`
}

func newEchoServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(echoResponse{
			Authorization: r.Header.Get("Authorization"),
			RequestID:     r.Header.Get(apiclient.RequestIDHeader),
			ContentType:   r.Header.Get("Content-Type"),
			Body:          body["email"],
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newStatusServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestDo_AttachesBearerToken(t *testing.T) {
	srv := newEchoServer(t)
	c := apiclient.New(srv.URL)

	var out echoResponse
	err := c.Do(context.Background(), http.MethodGet, "/api/v1/users/me", "access-123", nil, &out)
	require.NoError(t, err)
	require.Equal(t, "Bearer access-123", out.Authorization)
	require.NotEmpty(t, out.RequestID)
}

func TestDo_NoBearerWhenTokenEmpty(t *testing.T) {
	srv := newEchoServer(t)
	c := apiclient.New(srv.URL + "/")

	var out echoResponse
	err := c.Do(context.Background(), http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": "a@b.com"}, &out)
	require.NoError(t, err)
	require.Empty(t, out.Authorization)
	require.Equal(t, "application/json", out.ContentType)
	require.Equal(t, "a@b.com", out.Body)
}

func TestDo_ForwardsRequestID(t *testing.T) {
	srv := newEchoServer(t)
	c := apiclient.New(srv.URL)

	ctx := apiclient.WithRequestID(context.Background(), "req-42")
	var out echoResponse
	require.NoError(t, c.Do(ctx, http.MethodGet, "/", "", nil, &out))
	require.Equal(t, "req-42", out.RequestID)
	require.Equal(t, "req-42", apiclient.RequestIDFromContext(ctx))
}

func TestDo_NormalizesErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		kind    apperrors.Kind
		message string
	}{
		{
			name:    "validation list joined",
			status:  http.StatusUnprocessableEntity,
			body:    `{"detail":[{"loc":["body","email"],"msg":"field required","type":"missing"},{"loc":["body","password"],"msg":"too short","type":"value_error"}]}`,
			kind:    apperrors.KindValidation,
			message: "field required. too short",
		},
		{
			name:    "detail string",
			status:  http.StatusUnauthorized,
			body:    `{"detail":"Credenciales inválidas"}`,
			kind:    apperrors.KindDomain,
			message: "Credenciales inválidas",
		},
		{
			name:    "pending validation",
			status:  http.StatusForbidden,
			body:    `{"detail":"Cuenta pendiente de validación por el administrador."}`,
			kind:    apperrors.KindDomain,
			message: "Cuenta pendiente de validación por el administrador.",
		},
		{
			name:    "422 with string detail",
			status:  http.StatusUnprocessableEntity,
			body:    `{"detail":"bad payload"}`,
			kind:    apperrors.KindDomain,
			message: "bad payload",
		},
		{
			name:    "no detail",
			status:  http.StatusInternalServerError,
			body:    `<html>oops</html>`,
			kind:    apperrors.KindDomain,
			message: "Request failed with status code 500",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newStatusServer(t, tt.status, tt.body)
			c := apiclient.New(srv.URL)

			err := c.Do(context.Background(), http.MethodPost, "/api/v1/auth/login", "", map[string]string{}, nil)
			require.Error(t, err)
			require.Equal(t, tt.kind, apperrors.KindOf(err))
			require.Equal(t, tt.message, err.Error())

			var typed *apperrors.Error
			require.True(t, apperrors.As(err, &typed))
			require.Equal(t, tt.status, typed.Status)
		})
	}
}

func TestDo_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := apiclient.New(url)
	err := c.Do(context.Background(), http.MethodGet, "/api/v1/users/me", "tok", nil, nil)
	require.Error(t, err)
	require.Equal(t, apperrors.KindTransport, apperrors.KindOf(err))
	require.Equal(t, "No se pudo conectar con el servidor", err.Error())
}

func TestDo_TimeoutIsTransportFailure(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	c := apiclient.New(srv.URL, apiclient.WithTimeout(50*time.Millisecond))
	err := c.Do(context.Background(), http.MethodGet, "/slow", "", nil, nil)
	require.Error(t, err)
	require.Equal(t, apperrors.KindTransport, apperrors.KindOf(err))
	require.Equal(t, apperrors.TransportMessage, err.Error())
}
