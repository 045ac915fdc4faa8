package server

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	apperrors "github.com/jrsteele09/calzado-portal/internal/errors"
	"github.com/jrsteele09/calzado-portal/token/jwt"
	"github.com/jrsteele09/calzado-portal/users"
	"github.com/rs/zerolog/log"
)

const (
	ForgotPasswordSuccessMessage = "Si el email está registrado, recibirás un enlace de recuperación."
	ResetPasswordSuccessMessage  = "Contraseña restablecida exitosamente. Ya puedes iniciar sesión."
	ChangePasswordSuccessMessage = "Contraseña actualizada exitosamente."

	forgotPasswordFailedMessage = "Error al enviar el enlace"
	resetPasswordFailedMessage  = "Error al restablecer la contraseña"
	changePasswordFailedMessage = "Error al cambiar la contraseña"

	loadingRefreshSeconds = 1
)

// PageData is the template model shared by every page
type PageData struct {
	AppName  string
	Title    string
	Subtitle string
	Error    string
	Success  string

	// form values carried back after a failed submission
	Email    string
	FullName string
	Token    string

	User             *users.User
	Role             string
	SessionExpiresAt string

	Refresh int    // seconds, loading page only
	Path    string // loading page only
}

// pageDataFromQuery picks up the messages and form values of a post/redirect/get round trip
func pageDataFromQuery(r *http.Request) PageData {
	q := r.URL.Query()
	return PageData{
		Error:   q.Get("error"),
		Success: q.Get("success"),
		Email:   q.Get("email"),
	}
}

// ForgotPasswordPageHandler renders the forgot-password page
func (s *Server) ForgotPasswordPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := pageDataFromQuery(r)
		data.Title = "Recuperar contraseña"
		data.Subtitle = "Ingresa tu correo y te enviaremos un enlace de recuperación"
		s.render(w, pageForgotPassword, http.StatusOK, data)
	}
}

// ForgotPasswordSubmissionHandler asks the API to email a reset link. The answer is the
// same whether or not the address has an account.
func (s *Server) ForgotPasswordSubmissionHandler() http.HandlerFunc {
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
		email := strings.TrimSpace(r.FormValue("email"))

		msg, err := m.ForgotPassword(context.WithoutCancel(r.Context()), email)
		if err != nil {
			log.Debug().Err(err).Str("kind", apperrors.KindOf(err).String()).Msg("forgot password failed")
			redirectWithParams(w, r, RouteForgotPassword, url.Values{
				"error": {apperrors.Message(err, forgotPasswordFailedMessage)},
				"email": {email},
			})
			return
		}
		log.Debug().Str("api_message", msg).Msg("reset link requested")

		redirectWithParams(w, r, RouteForgotPassword, url.Values{"success": {ForgotPasswordSuccessMessage}})
	}
}

// ResetPasswordPageHandler renders the reset form for the token in the emailed link
func (s *Server) ResetPasswordPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := pageDataFromQuery(r)
		data.Title = "Restablecer contraseña"
		data.Subtitle = "Ingresa tu nueva contraseña"
		data.Token = r.URL.Query().Get("token")
		s.render(w, pageResetPassword, http.StatusOK, data)
	}
}

// ResetPasswordSubmissionHandler sets a new password with the emailed token
func (s *Server) ResetPasswordSubmissionHandler() http.HandlerFunc {
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
		token := r.FormValue("token")
		newPassword := r.FormValue("new_password")
		confirm := r.FormValue("confirm_password")

		fail := func(msg string) {
			redirectWithParams(w, r, RouteResetPassword, url.Values{"token": {token}, "error": {msg}})
		}

		// a missing token is reported before a mismatch
		if strings.TrimSpace(token) != "" && newPassword != confirm {
			fail(PasswordMismatchMessage)
			return
		}

		if err := m.ResetPassword(context.WithoutCancel(r.Context()), token, newPassword); err != nil {
			log.Debug().Err(err).Str("kind", apperrors.KindOf(err).String()).Msg("reset password failed")
			fail(apperrors.Message(err, resetPasswordFailedMessage))
			return
		}

		redirectWithParams(w, r, RouteResetPassword, url.Values{"success": {ResetPasswordSuccessMessage}})
	}
}

// ChangePasswordPageHandler renders the change-password form for the signed in user
func (s *Server) ChangePasswordPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := pageDataFromQuery(r)
		data.Title = "Cambiar contraseña"
		data.Subtitle = "Actualiza la contraseña de tu cuenta"
		if m := managerFromContext(r.Context()); m != nil {
			data.User = m.Snapshot().User
		}
		s.render(w, pageChangePassword, http.StatusOK, data)
	}
}

func (s *Server) ChangePasswordSubmissionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m := managerFromContext(r.Context())
		if m == nil {
			redirectSuccess(w, r, RouteLogin)
			return
		}

		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}
		currentPassword := r.FormValue("current_password")
		newPassword := r.FormValue("new_password")
		confirm := r.FormValue("confirm_password")

		if newPassword != confirm {
			redirectWithError(w, r, RouteChangePassword, PasswordMismatchMessage)
			return
		}

		if err := m.ChangePassword(context.WithoutCancel(r.Context()), currentPassword, newPassword); err != nil {
			log.Debug().Err(err).Str("kind", apperrors.KindOf(err).String()).Msg("change password failed")
			redirectWithError(w, r, RouteChangePassword, apperrors.Message(err, changePasswordFailedMessage))
			return
		}

		redirectWithParams(w, r, RouteChangePassword, url.Values{"success": {ChangePasswordSuccessMessage}})
	}
}

// DashboardHandler renders the protected landing page
func (s *Server) DashboardHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m := managerFromContext(r.Context())
		if m == nil {
			redirectSuccess(w, r, RouteLogin)
			return
		}
		snap := m.Snapshot()

		data := PageData{
			Title: "Panel",
			User:  snap.User,
			Role:  snap.User.DisplayRole(),
		}
		if exp, ok := jwt.ExpiresAt(snap.AccessToken); ok {
			data.SessionExpiresAt = exp.Local().Format("15:04")
		}
		s.render(w, pageDashboard, http.StatusOK, data)
	}
}

// renderLoading shows a page that reloads itself until the session has been restored
func (s *Server) renderLoading(w http.ResponseWriter, r *http.Request) {
	if isHTMXRequest(r) {
		// htmx swaps would embed a full page; ask it to reload instead
		w.Header().Set("HX-Refresh", "true")
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	s.render(w, pageLoading, http.StatusOK, PageData{
		Title:   "Cargando...",
		Refresh: loadingRefreshSeconds,
		Path:    r.URL.RequestURI(),
	})
}
