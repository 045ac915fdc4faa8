package config

import (
	"time"

	"golang.org/x/time/rate"
)

type SecurityConfig interface {
	GetMaxSessionAge() time.Duration
	GetGuardWait() time.Duration
	GetEnableRateLimiting() bool
	GetRateLimit() rate.Limit
	GetRateLimitBurst() int
	GetTrustProxy() bool
}

type Security struct {
	SessionIdleTTL   time.Duration `env:"SESSION_IDLE_TTL" envDefault:"30m"`
	GuardWait        time.Duration `env:"GUARD_WAIT" envDefault:"2s"`
	RateLimitEnabled bool          `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	RateLimitRPS     float64       `env:"RATE_LIMIT_RPS" envDefault:"1"`
	RateLimitBurst   int           `env:"RATE_LIMIT_BURST" envDefault:"5"`
	TrustProxy       bool          `env:"TRUST_PROXY" envDefault:"false"`
}

var _ SecurityConfig = Security{}

// GetMaxSessionAge is how long a browser session may sit idle before its manager is dropped
// from memory. Its persisted tokens are kept and rehydrated on the next request.
func (s Security) GetMaxSessionAge() time.Duration {
	if s.SessionIdleTTL <= 0 {
		return 30 * time.Minute
	}
	return s.SessionIdleTTL
}

// GetGuardWait bounds how long a protected page waits for rehydration before showing the loading page.
func (s Security) GetGuardWait() time.Duration {
	return s.GuardWait
}

func (s Security) GetEnableRateLimiting() bool {
	return s.RateLimitEnabled
}

func (s Security) GetRateLimit() rate.Limit {
	return rate.Limit(s.RateLimitRPS)
}

func (s Security) GetRateLimitBurst() int {
	if s.RateLimitBurst < 1 {
		return 1
	}
	return s.RateLimitBurst
}

// GetTrustProxy reports whether forwarding headers name the client. Set it only when
// the portal runs behind a proxy that rewrites them.
func (s Security) GetTrustProxy() bool {
	return s.TrustProxy
}
