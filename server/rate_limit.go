package server

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	limiterCleanupInterval = 3 * time.Minute
	limiterIdleTimeout     = 5 * time.Minute
)

// TooManyRequestsMessage is shown when a form is submitted too often.
const TooManyRequestsMessage = "Demasiados intentos. Espera un momento e inténtalo de nuevo."

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter throttles form submissions per client IP.
type RateLimiter struct {
	mu         sync.Mutex
	limiters   map[string]*ipLimiter
	rate       rate.Limit
	burst      int
	trustProxy bool
	nowTime    func() time.Time
}

// RateLimiterOption configures a RateLimiter
type RateLimiterOption func(*RateLimiter)

// WithTrustProxy keys clients by X-Forwarded-For / X-Real-IP. Only enable it behind a
// proxy that overwrites those headers, otherwise any client can pick its own key.
func WithTrustProxy(trust bool) RateLimiterOption {
	return func(rl *RateLimiter) {
		rl.trustProxy = trust
	}
}

func NewRateLimiter(r rate.Limit, burst int, options ...RateLimiterOption) *RateLimiter {
	rl := &RateLimiter{
		limiters: make(map[string]*ipLimiter),
		rate:     r,
		burst:    burst,
		nowTime:  time.Now,
	}
	for _, option := range options {
		option(rl)
	}
	return rl
}

// Allow reports whether ip may submit another request now.
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.nowTime()
	l, ok := rl.limiters[ip]
	if !ok {
		l = &ipLimiter{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.limiters[ip] = l
	}
	l.lastSeen = now
	return l.limiter.AllowN(now, 1)
}

// Cleanup forgets IPs that have been quiet for a while.
func (rl *RateLimiter) Cleanup(now time.Time) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	removed := 0
	for ip, l := range rl.limiters {
		if now.Sub(l.lastSeen) > limiterIdleTimeout {
			delete(rl.limiters, ip)
			removed++
		}
	}
	return removed
}

// Run calls Cleanup periodically until ctx is done.
func (rl *RateLimiter) Run(ctx context.Context) error {
	ticker := time.NewTicker(limiterCleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			rl.Cleanup(rl.nowTime())
		}
	}
}

// Middleware rejects requests over the limit. htmx requests get a redirect back to the
// form with a message, plain ones a 429.
func (rl *RateLimiter) Middleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r, rl.trustProxy)
		if rl.Allow(ip) {
			next(w, r)
			return
		}

		log.Warn().Str("ip", ip).Str("path", r.URL.Path).Msg("rate limit exceeded")
		retryAfter := 1
		if rl.rate > 0 && float64(rl.rate) < 1 {
			retryAfter = int(1.0 / float64(rl.rate))
		}
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
		if isHTMXRequest(r) {
			redirectWithError(w, r, r.URL.Path, TooManyRequestsMessage)
			return
		}
		http.Error(w, TooManyRequestsMessage, http.StatusTooManyRequests)
	}
}
