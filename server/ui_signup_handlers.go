package server

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"strings"

	apperrors "github.com/jrsteele09/calzado-portal/internal/errors"
	"github.com/jrsteele09/calzado-portal/users"
	"github.com/rs/zerolog/log"
)

const (
	PasswordMismatchMessage = "Las contraseñas no coinciden"
	RegisterSuccessMessage  = "Cuenta creada exitosamente. Pendiente de validación por el administrador."
	registerFailedMessage   = "Error al crear la cuenta"
)

// ValidatePasswordHandler renders the live password strength hint for htmx
func (s *Server) ValidatePasswordHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		// register names its field "password", the other forms "new_password"
		password := r.FormValue("new_password")
		if password == "" {
			password = r.FormValue("password")
		}

		w.Header().Set("Content-Type", contentTypeHTML)
		if password == "" {
			w.WriteHeader(http.StatusOK)
			return
		}

		if err := users.ValidatePasswordStrength(password); err != nil {
			w.Header().Set("HX-Trigger", `{"passwordInvalid": ""}`)
			w.WriteHeader(http.StatusOK)
			fmt.Fprintf(w, `<span class="text-danger">%s</span>`, html.EscapeString(err.Error()))
			return
		}

		w.Header().Set("HX-Trigger", `{"passwordValid": ""}`)
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, `<span class="text-success">Contraseña segura</span>`)
	}
}

// RegisterPageHandler renders the registration page
func (s *Server) RegisterPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := pageDataFromQuery(r)
		data.Title = "Crear cuenta"
		data.Subtitle = "Completa tus datos para registrarte"
		data.FullName = r.URL.Query().Get("full_name")
		s.render(w, pageRegister, http.StatusOK, data)
	}
}

// RegisterSubmissionHandler creates the account. The session stays anonymous: new accounts
// wait for an administrator before they can sign in.
func (s *Server) RegisterSubmissionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m := managerFromContext(r.Context())
		if m == nil {
			http.Error(w, "session not started", http.StatusInternalServerError)
			return
		}

		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}
		fullName := strings.TrimSpace(r.FormValue("full_name"))
		email := strings.TrimSpace(r.FormValue("email"))
		password := r.FormValue("password")
		confirm := r.FormValue("confirm_password")

		keep := url.Values{"full_name": {fullName}, "email": {email}}
		if password != confirm {
			keep.Set("error", PasswordMismatchMessage)
			redirectWithParams(w, r, RouteRegister, keep)
			return
		}

		if err := m.Register(context.WithoutCancel(r.Context()), fullName, email, password); err != nil {
			log.Debug().Err(err).Str("kind", apperrors.KindOf(err).String()).Msg("registration failed")
			keep.Set("error", apperrors.Message(err, registerFailedMessage))
			redirectWithParams(w, r, RouteRegister, keep)
			return
		}

		redirectWithParams(w, r, RouteRegister, url.Values{"success": {RegisterSuccessMessage}})
	}
}
