// Package marketplace provides a typed HTTP client for the marketplace REST API.
//
// Every call goes through Client.Do, which builds the authenticated request,
// separates plain-text from JSON responses by Content-Type, and turns non-2xx
// statuses into *APIError values. Public and API-key endpoints live on Client;
// session-only endpoints live on the Session handle returned by Client.Login.
package marketplace

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is used when no base URL is configured anywhere.
	DefaultBaseURL = "http://localhost"
	// DefaultTimeout bounds each HTTP exchange.
	DefaultTimeout = 30 * time.Second
)

// Client holds the base URL, credential, and transport used for marketplace
// calls. A Client never carries a session cookie jar; see Session.
type Client struct {
	baseURL    string
	apiKey     string
	timeout    time.Duration
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
	newID      func() string
}

// New creates a client targeting baseURL. Trailing slashes are stripped so
// paths can be appended directly.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: DefaultTimeout,
		logger:  slog.New(slog.DiscardHandler),
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{}
	}
	return c
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithAPIKey authenticates requests flagged as authenticated with the given
// key, sent as both a Bearer token and an X-API-Key header.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithTimeout overrides DefaultTimeout. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithRateLimit paces outgoing requests through l. The limiter may be shared
// between clients. Pacing only delays calls; nothing is retried.
func WithRateLimit(l *rate.Limiter) Option {
	return func(c *Client) {
		c.limiter = l
	}
}

// WithLogger sets the logger used for per-request debug lines.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithRequestIDFunc overrides the X-Request-ID generator.
func WithRequestIDFunc(f func() string) Option {
	return func(c *Client) {
		c.newID = f
	}
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// HasAPIKey reports whether the client carries an API key.
func (c *Client) HasAPIKey() bool {
	return c.apiKey != ""
}
