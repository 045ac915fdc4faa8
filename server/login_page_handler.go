package server

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	apperrors "github.com/jrsteele09/calzado-portal/internal/errors"
	"github.com/rs/zerolog/log"
)

const loginFailedMessage = "Error al iniciar sesión"

// LoginPageHandler displays the login page (GET /login)
func (s *Server) LoginPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := pageDataFromQuery(r)
		data.Title = "Iniciar sesión"
		data.Subtitle = "Ingresa tus credenciales para acceder a tu panel"
		s.render(w, pageLogin, http.StatusOK, data)
	}
}

// LoginSubmissionHandler processes the login form submission
func (s *Server) LoginSubmissionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m := managerFromContext(r.Context())
		if m == nil {
			http.Error(w, "session not started", http.StatusInternalServerError)
			return
		}

		// Parse form data
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}
		email := strings.TrimSpace(r.FormValue("email"))
		password := r.FormValue("password")

		// the login completes even if the browser navigates away mid-request
		if err := m.Login(context.WithoutCancel(r.Context()), email, password); err != nil {
			log.Debug().Err(err).Str("kind", apperrors.KindOf(err).String()).Msg("login failed")
			s.renderLoginError(w, r, apperrors.Message(err, loginFailedMessage), email)
			return
		}

		redirectSuccess(w, r, RouteDashboard)
	}
}

// LogoutHandler ends the browser session's authentication and returns to the login page.
// The browser session itself stays, so the cookie is kept.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if m := managerFromContext(r.Context()); m != nil {
			m.Logout()
		}
		redirectSuccess(w, r, RouteLogin)
	}
}

// renderLoginError redirects to login page with an error message
func (s *Server) renderLoginError(w http.ResponseWriter, r *http.Request, errorMsg, email string) {
	redirectWithParams(w, r, RouteLogin, url.Values{
		"error": {errorMsg},
		"email": {email},
	})
}
