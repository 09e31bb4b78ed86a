package marketplace

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failed marketplace call. It is derived from the HTTP
// status code alone, see KindForStatus.
type Kind string

// Error kinds.
const (
	KindValidation   Kind = "validation"
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
	KindRateLimit    Kind = "rate_limit"
	KindServer       Kind = "server"
	KindGeneric      Kind = "generic"
)

// Sentinel errors, one per kind. An *APIError matches the sentinel of its
// kind with errors.Is.
var (
	ErrValidation   = errors.New("marketplace: invalid parameters")
	ErrUnauthorized = errors.New("marketplace: missing or invalid authentication")
	ErrForbidden    = errors.New("marketplace: insufficient permissions")
	ErrNotFound     = errors.New("marketplace: resource not found")
	ErrConflict     = errors.New("marketplace: conflict")
	ErrRateLimit    = errors.New("marketplace: too many requests")
	ErrServer       = errors.New("marketplace: server error")
	ErrGeneric      = errors.New("marketplace: request failed")
)

var kindSentinels = map[Kind]error{
	KindValidation:   ErrValidation,
	KindUnauthorized: ErrUnauthorized,
	KindForbidden:    ErrForbidden,
	KindNotFound:     ErrNotFound,
	KindConflict:     ErrConflict,
	KindRateLimit:    ErrRateLimit,
	KindServer:       ErrServer,
	KindGeneric:      ErrGeneric,
}

// KindForStatus maps a non-2xx status code to its error kind. This table is
// the only place classification happens.
func KindForStatus(code int) Kind {
	switch {
	case code == http.StatusBadRequest:
		return KindValidation
	case code == http.StatusUnauthorized:
		return KindUnauthorized
	case code == http.StatusForbidden:
		return KindForbidden
	case code == http.StatusNotFound:
		return KindNotFound
	case code == http.StatusConflict:
		return KindConflict
	case code == http.StatusTooManyRequests:
		return KindRateLimit
	case code >= 500 && code < 600:
		return KindServer
	default:
		return KindGeneric
	}
}

// APIError is returned for every failed call: non-2xx responses and
// transport failures alike. Transport failures have StatusCode 0, kind
// KindGeneric, and wrap the underlying error.
type APIError struct {
	Kind       Kind
	Message    string
	StatusCode int
	Body       []byte
	Err        error
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("marketplace API error [%d %s]: %s", e.StatusCode, e.Kind, e.Message)
	}
	return "marketplace: " + e.Message
}

// Unwrap returns the transport error, if any.
func (e *APIError) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for e's kind.
func (e *APIError) Is(target error) bool {
	sentinel, ok := kindSentinels[e.Kind]
	return ok && target == sentinel
}

// AsAPIError unwraps err to an *APIError.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// KindOf returns the kind of err, or KindGeneric when err is not an *APIError.
func KindOf(err error) Kind {
	if apiErr, ok := AsAPIError(err); ok {
		return apiErr.Kind
	}
	return KindGeneric
}
