// Package apiclient is the single HTTP doorway to the CALZADO J&R API. It attaches
// bearer tokens and turns every failure into an *errors.Error with one display message.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/calzado-portal/internal/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

const (
	DefaultTimeout  = 10 * time.Second
	RequestIDHeader = "X-Request-ID"

	maxResponseBytes = 1 << 20
)

// sharedTransport is reused by every client so connections to the API are pooled.
var sharedTransport = &http.Transport{
	Proxy:               http.ProxyFromEnvironment,
	MaxIdleConns:        20,
	MaxIdleConnsPerHost: 10,
	IdleConnTimeout:     120 * time.Second,
}

type Client struct {
	baseURL   string
	timeout   time.Duration
	transport http.RoundTripper
	logger    zerolog.Logger
}

type Option func(*Client)

// WithTimeout overrides the per-request timeout (10s by default).
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithTransport sets the round tripper requests go through (tests use it to inject failures).
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		if rt != nil {
			c.transport = rt
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		timeout:   DefaultTimeout,
		transport: sharedTransport,
		logger:    log.Logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type requestIDKey struct{}

// WithRequestID stores a request id that Do forwards in the X-Request-ID header.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the request id stored by WithRequestID, if any.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// Do sends a JSON request to path (relative to the base URL) and decodes a 2xx body into out.
// bearer, when not empty, is sent as "Authorization: Bearer <bearer>".
func (c *Client) Do(ctx context.Context, method, path, bearer string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return apperrors.Wrapf(err, "[apiclient] encode %s %s", method, path)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return apperrors.Wrapf(err, "[apiclient] build %s %s", method, path)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	requestID := RequestIDFromContext(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	req.Header.Set(RequestIDHeader, requestID)

	started := time.Now()
	resp, err := c.httpClient(bearer).Do(req)
	if err != nil {
		c.logger.Warn().Err(err).
			Str("method", method).
			Str("path", path).
			Str("request_id", requestID).
			Dur("elapsed", time.Since(started)).
			Msg("api unreachable")
		return apperrors.Transport(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return apperrors.Transport(err)
	}

	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Str("request_id", requestID).
		Dur("elapsed", time.Since(started)).
		Msg("api call")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return normalizeError(resp.StatusCode, data)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return apperrors.Wrapf(err, "[apiclient] decode %s %s", method, path)
	}
	return nil
}

func (c *Client) httpClient(bearer string) *http.Client {
	rt := c.transport
	if bearer != "" {
		rt = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: bearer, TokenType: "Bearer"}),
			Base:   c.transport,
		}
	}
	return &http.Client{Transport: rt, Timeout: c.timeout}
}

type errorBody struct {
	Detail json.RawMessage `json:"detail"`
}

type validationIssue struct {
	Loc  []any  `json:"loc"`
	Msg  string `json:"msg"`
	Type string `json:"type"`
}

// normalizeError flattens the API's error payloads into a single message:
// 422 {"detail":[{"msg":..}]} joins every msg with ". ", {"detail":"..."} is used as is.
func normalizeError(status int, data []byte) error {
	fallback := apperrors.Domain(status, fmt.Sprintf("Request failed with status code %d", status))

	var body errorBody
	if err := json.Unmarshal(data, &body); err != nil || len(body.Detail) == 0 {
		return fallback
	}

	if status == http.StatusUnprocessableEntity {
		var issues []validationIssue
		if err := json.Unmarshal(body.Detail, &issues); err == nil {
			messages := make([]string, 0, len(issues))
			for _, issue := range issues {
				messages = append(messages, issue.Msg)
			}
			e := apperrors.Validation(strings.Join(messages, ". "))
			e.Status = status
			return e
		}
	}

	var detail string
	if err := json.Unmarshal(body.Detail, &detail); err == nil {
		return apperrors.Domain(status, detail)
	}
	return fallback
}
