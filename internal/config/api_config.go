package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

type APIConfig interface {
	GetAPIBaseURL() string
	GetAPITimeout() time.Duration
}

// API describes the remote CALZADO J&R API the portal talks to.
type API struct {
	BaseURL string        `env:"API_URL" envDefault:"http://localhost:8000"`
	Timeout time.Duration `env:"API_TIMEOUT" envDefault:"10s"`
}

var _ APIConfig = API{}

func (a API) GetAPIBaseURL() string {
	return strings.TrimRight(a.BaseURL, "/")
}

func (a API) GetAPITimeout() time.Duration {
	if a.Timeout <= 0 {
		return 10 * time.Second
	}
	return a.Timeout
}

func (a API) validate() error {
	u, err := url.Parse(a.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid API_URL %q: %w", a.BaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid API_URL %q: scheme must be http or https", a.BaseURL)
	}
	return nil
}
