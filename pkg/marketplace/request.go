package marketplace

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"

	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/donaldgifford/marketplace/internal/metrics"
)

const (
	requestIDHeader = "X-Request-ID"
	formContentType = "application/x-www-form-urlencoded"

	// maxResponseSize limits response body reads.
	maxResponseSize = 10 * 1024 * 1024
)

var tracer = otel.Tracer("github.com/donaldgifford/marketplace/pkg/marketplace")

type requestIDKey struct{}

// ContextWithRequestID makes every call made with ctx carry id as its
// X-Request-ID instead of a freshly generated one.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the request ID stored by ContextWithRequestID.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey{}).(string)
	return id, ok && id != ""
}

// Request describes one marketplace call. A nil Form means no body; a
// non-nil Form is always sent form-encoded.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Form   url.Values
	// Auth attaches the API key headers when the client has a key.
	Auth bool
}

// Outcome is a successful response. Text is set for non-JSON content types,
// Body for application/json. Body is "null" when the payload did not parse.
type Outcome struct {
	StatusCode int
	JSON       bool
	Text       string
	Body       json.RawMessage
}

// Decode unmarshals a JSON outcome into dst. A null body leaves dst untouched.
func (o *Outcome) Decode(dst any) error {
	if !o.JSON {
		return &APIError{
			Kind:       KindGeneric,
			Message:    "expected a JSON response, got: " + o.Text,
			StatusCode: o.StatusCode,
			Body:       []byte(o.Text),
		}
	}
	if len(o.Body) == 0 || string(o.Body) == "null" {
		return nil
	}
	if err := json.Unmarshal(o.Body, dst); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// Do performs a single HTTP exchange and classifies the response. It never
// retries. Every failure is an *APIError.
func (c *Client) Do(ctx context.Context, r *Request) (*Outcome, error) {
	reqID, ok := RequestIDFromContext(ctx)
	if !ok {
		reqID = c.newID()
	}
	start := time.Now()

	ctx, span := tracer.Start(ctx, r.Method+" "+r.Path,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", r.Method),
			attribute.String("url.path", r.Path),
			attribute.String("marketplace.request_id", reqID),
		),
	)
	defer span.End()

	out, err := c.do(ctx, r, reqID)

	elapsed := time.Since(start)
	outcome := "ok"
	status := 0
	if out != nil {
		status = out.StatusCode
	}
	if err != nil {
		outcome = string(KindOf(err))
		if apiErr, ok := AsAPIError(err); ok {
			status = apiErr.StatusCode
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.SetAttributes(attribute.Int("http.response.status_code", status))

	metrics.ClientRequestsTotal.WithLabelValues(r.Method, r.Path, outcome).Inc()
	metrics.ClientRequestDuration.WithLabelValues(r.Method, r.Path).Observe(elapsed.Seconds())

	c.logger.DebugContext(ctx, "marketplace request",
		"method", r.Method,
		"path", r.Path,
		"status", status,
		"outcome", outcome,
		"duration_ms", elapsed.Milliseconds(),
		"request_id", reqID,
	)

	return out, err
}

func (c *Client) do(ctx context.Context, r *Request, reqID string) (*Outcome, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &APIError{
				Kind:    KindGeneric,
				Message: "rate limiter wait: " + err.Error(),
				Err:     err,
			}
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := c.newRequest(ctx, r, reqID)
	if err != nil {
		return nil, &APIError{Kind: KindGeneric, Message: "creating request: " + err.Error(), Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.transportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, c.transportError(fmt.Errorf("reading response body: %w", err))
	}

	return classify(resp.StatusCode, resp.Header.Get("Content-Type"), body)
}

func (c *Client) newRequest(ctx context.Context, r *Request, reqID string) (*http.Request, error) {
	target := c.baseURL + r.Path
	if len(r.Query) > 0 {
		target += "?" + r.Query.Encode()
	}

	var body io.Reader
	if r.Form != nil {
		body = strings.NewReader(r.Form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, target, body)
	if err != nil {
		return nil, err
	}

	if r.Form != nil {
		req.Header.Set("Content-Type", formContentType)
	}
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set(requestIDHeader, reqID)
	if r.Auth && c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("X-API-Key", c.apiKey)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	return req, nil
}

// classify turns a raw response into an Outcome or an *APIError. The
// Content-Type decides between text and JSON handling, the status code
// decides success and error kind.
func classify(status int, contentType string, body []byte) (*Outcome, error) {
	ok := status >= 200 && status < 300

	if !strings.Contains(contentType, "application/json") {
		text := string(body)
		if ok {
			return &Outcome{StatusCode: status, Text: strings.TrimSpace(text)}, nil
		}
		if text == "" {
			text = fmt.Sprintf("HTTP %d", status)
		}
		return nil, &APIError{Kind: KindGeneric, Message: text, StatusCode: status, Body: body}
	}

	decoded := json.RawMessage("null")
	if gjson.ValidBytes(body) {
		decoded = json.RawMessage(body)
	}

	if ok {
		return &Outcome{StatusCode: status, JSON: true, Body: decoded}, nil
	}

	return nil, &APIError{
		Kind:       KindForStatus(status),
		Message:    errorMessage(status, decoded, body),
		StatusCode: status,
		Body:       body,
	}
}

// errorMessage prefers the JSON "error" field, then the raw body, then a
// synthesized "HTTP {code}".
func errorMessage(status int, decoded json.RawMessage, raw []byte) string {
	if field := gjson.GetBytes(decoded, "error"); field.Exists() && field.Type != gjson.Null {
		return field.String()
	}
	if len(raw) > 0 {
		return string(raw)
	}
	return fmt.Sprintf("HTTP %d", status)
}

func (c *Client) transportError(err error) *APIError {
	msg := "sending request: " + err.Error()
	switch {
	case isTimeout(err):
		msg = fmt.Sprintf("request to %s timed out after %s", c.baseURL, c.timeout)
	case isConnectionRefused(err):
		msg = "marketplace not reachable at " + c.baseURL
	}
	return &APIError{Kind: KindGeneric, Message: msg, Err: err}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isConnectionRefused(err error) bool {
	if errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	return strings.Contains(err.Error(), "connection refused")
}

func (c *Client) get(ctx context.Context, path string, query url.Values, auth bool, dst any) error {
	out, err := c.Do(ctx, &Request{Method: http.MethodGet, Path: path, Query: query, Auth: auth})
	if err != nil {
		return err
	}
	return out.Decode(dst)
}

func (c *Client) post(ctx context.Context, path string, form url.Values, auth bool, dst any) error {
	if form == nil {
		form = url.Values{}
	}
	out, err := c.Do(ctx, &Request{Method: http.MethodPost, Path: path, Form: form, Auth: auth})
	if err != nil {
		return err
	}
	return out.Decode(dst)
}

func (c *Client) text(ctx context.Context, method, path string, form url.Values) (string, error) {
	out, err := c.Do(ctx, &Request{Method: method, Path: path, Form: form})
	if err != nil {
		return "", err
	}
	if out.JSON {
		return strings.TrimSpace(string(out.Body)), nil
	}
	return out.Text, nil
}
