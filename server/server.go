package server

import (
	"net/http"
	"strings"

	"github.com/jrsteele09/calzado-portal/internal/config"
	"github.com/jrsteele09/calzado-portal/server/loginsession"
	"github.com/jrsteele09/calzado-portal/session"
	"github.com/pkg/errors"
)

const contentTypeHTML = "text/html; charset=utf-8"

type Server struct {
	env      string // Environment (e.g., "DEV", "PROD")
	mux      *http.ServeMux
	routes   []string
	config   config.Config
	api      session.AuthAPI
	registry *Registry
	limiter  *RateLimiter
	pages    *pageTemplates
}

func New(config config.Config, api session.AuthAPI, loginSessionRepo loginsession.Repo) (*Server, error) {
	if api == nil {
		return nil, errors.New("[Server New] auth api is required")
	}
	if loginSessionRepo == nil {
		return nil, errors.New("[Server New] login session repo is required")
	}

	pages, err := parsePageTemplates()
	if err != nil {
		return nil, errors.Wrap(err, "[Server New] failed to parse templates")
	}

	s := &Server{
		mux:      http.NewServeMux(),
		config:   config,
		api:      api,
		registry: NewRegistry(api, loginSessionRepo, config.GetMaxSessionAge()),
		pages:    pages,
	}
	s.env = config.GetEnv()
	if config.GetEnableRateLimiting() {
		s.limiter = NewRateLimiter(config.GetRateLimit(), config.GetRateLimitBurst(), WithTrustProxy(config.GetTrustProxy()))
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Registry exposes the browser session registry so its janitor can be run alongside the server.
func (s *Server) Registry() *Registry {
	return s.registry
}

// RateLimiter is nil when rate limiting is disabled.
func (s *Server) RateLimiter() *RateLimiter {
	return s.limiter
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}
