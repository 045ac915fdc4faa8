package server

import (
	"bytes"
	"embed"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

//go:embed templates/*
var templateFiles embed.FS

const layoutTemplate = "layout.html"

// Page templates rendered by the handlers
const (
	pageLogin          = "login.html"
	pageRegister       = "register.html"
	pageForgotPassword = "forgot_password.html"
	pageResetPassword  = "reset_password.html"
	pageChangePassword = "change_password.html"
	pageDashboard      = "dashboard.html"
	pageLoading        = "loading.html"
)

var pageNames = []string{
	pageLogin,
	pageRegister,
	pageForgotPassword,
	pageResetPassword,
	pageChangePassword,
	pageDashboard,
	pageLoading,
}

func TemplateFilesFS() fs.FS {
	// Create the sub filesystem once
	subFS, err := fs.Sub(templateFiles, "templates")
	if err != nil {
		panic("Failed to create templates sub filesystem: " + err.Error())
	}
	return subFS
}

// ParseTemplate parses a page together with the shared layout from the embedded filesystem
func ParseTemplate(name string) (*template.Template, error) {
	return template.New(name).ParseFS(TemplateFilesFS(), name, layoutTemplate)
}

type pageTemplates struct {
	pages map[string]*template.Template
}

func parsePageTemplates() (*pageTemplates, error) {
	pt := &pageTemplates{pages: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		tmpl, err := ParseTemplate(name)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse %s", name)
		}
		pt.pages[name] = tmpl
	}
	return pt, nil
}

// render executes the page into a buffer first so a template error never leaves a half
// written page behind.
func (s *Server) render(w http.ResponseWriter, name string, status int, data PageData) {
	tmpl, ok := s.pages.pages[name]
	if !ok {
		log.Error().Str("template", name).Msg("unknown template")
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}

	data.AppName = s.config.GetAppName()
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		log.Err(err).Str("template", name).Msg("Failed to render template")
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentTypeHTML)
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
