package marketplace

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"

	"golang.org/x/net/publicsuffix"
)

// Session is a logged-in handle. It owns the cookie jar filled by Login and
// is the only way to reach session-authenticated endpoints. A Session is not
// safe for concurrent use; create one per logical operation and call Logout
// when done.
type Session struct {
	*Client

	// Message is the plain-text reply of the login call.
	Message string
}

// Health calls GET / and returns the plain-text reply ("OK").
func (c *Client) Health(ctx context.Context) (string, error) {
	return c.text(ctx, http.MethodGet, "/", nil)
}

// Register creates a user account and returns the server's plain-text reply.
func (c *Client) Register(ctx context.Context, username, password string) (string, error) {
	return c.text(ctx, http.MethodPost, "/register.php", url.Values{
		"username": {username},
		"password": {password},
	})
}

// Login posts the credentials on a fresh cookie jar and returns the session
// holding it. The API key, if any, is not carried over.
func (c *Client) Login(ctx context.Context, username, password string) (*Session, error) {
	jarred, err := c.withCookieJar()
	if err != nil {
		return nil, err
	}

	msg, err := jarred.text(ctx, http.MethodPost, "/login.php", url.Values{
		"username": {username},
		"password": {password},
	})
	if err != nil {
		return nil, err
	}

	return &Session{Client: jarred, Message: msg}, nil
}

// Logout calls GET /logout.php with the session cookie.
func (s *Session) Logout(ctx context.Context) (string, error) {
	return s.text(ctx, http.MethodGet, "/logout.php", nil)
}

func (c *Client) withCookieJar() (*Client, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}

	hc := *c.httpClient
	hc.Jar = jar

	clone := *c
	clone.httpClient = &hc
	clone.apiKey = ""
	return &clone, nil
}
