package command

import (
	"errors"
	"fmt"
	"strings"

	"github.com/donaldgifford/marketplace/pkg/marketplace"
)

// Envelope status values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// ErrorType is the envelope error_type.
type ErrorType string

// Envelope error types.
const (
	ErrTypeValidation   ErrorType = "validation_error"
	ErrTypeUnauthorized ErrorType = "unauthorized"
	ErrTypeNotFound     ErrorType = "not_found"
	ErrTypeRateLimit    ErrorType = "rate_limit"
	ErrTypeUnknown      ErrorType = "unknown_error"
	ErrTypeArgument     ErrorType = "argument_error"
)

// Fields are the result fields a handler contributes to a success envelope.
type Fields map[string]any

// Envelope is the structured result of every dispatch. It marshals with
// sorted keys, so repeated dispatches against unchanged data are
// byte-identical.
type Envelope map[string]any

// Success wraps result fields in a success envelope.
func Success(fields Fields) Envelope {
	env := Envelope{"status": StatusSuccess}
	for k, v := range fields {
		if k == "status" {
			continue
		}
		env[k] = v
	}
	return env
}

// Failure renders err as an error envelope.
func Failure(err error) Envelope {
	errType := ErrorTypeOf(err)
	env := Envelope{
		"status":     StatusError,
		"error":      errorMessage(err),
		"error_type": string(errType),
	}
	if errType == ErrTypeUnknown {
		env["traceback"] = Traceback(err)
	}
	return env
}

// Status returns the envelope status.
func (e Envelope) Status() string {
	s, _ := e["status"].(string)
	return s
}

// OK reports whether the envelope is a success envelope.
func (e Envelope) OK() bool {
	return e.Status() == StatusSuccess
}

// ErrorType returns the error_type of an error envelope, or "".
func (e Envelope) ErrorType() ErrorType {
	s, _ := e["error_type"].(string)
	return ErrorType(s)
}

// Message returns the error message of an error envelope, or "".
func (e Envelope) Message() string {
	s, _ := e["error"].(string)
	return s
}

// ErrorTypeOf maps err onto the envelope taxonomy. Only four API error kinds
// have dedicated types; everything else is unknown_error.
func ErrorTypeOf(err error) ErrorType {
	var argErr *ArgumentError
	if errors.As(err, &argErr) {
		return ErrTypeArgument
	}

	apiErr, ok := marketplace.AsAPIError(err)
	if !ok {
		return ErrTypeUnknown
	}
	switch apiErr.Kind {
	case marketplace.KindValidation:
		return ErrTypeValidation
	case marketplace.KindUnauthorized:
		return ErrTypeUnauthorized
	case marketplace.KindNotFound:
		return ErrTypeNotFound
	case marketplace.KindRateLimit:
		return ErrTypeRateLimit
	default:
		return ErrTypeUnknown
	}
}

// errorMessage returns the server-supplied message for any error carrying an
// HTTP status and the full error text for transport and non-API errors.
func errorMessage(err error) string {
	if apiErr, ok := marketplace.AsAPIError(err); ok && apiErr.StatusCode > 0 {
		return apiErr.Message
	}
	return err.Error()
}

// Traceback renders the wrapped error chain, outermost first, one line per
// link.
func Traceback(err error) string {
	var b strings.Builder
	for depth := 0; err != nil; depth++ {
		fmt.Fprintf(&b, "%s%T: %s\n", strings.Repeat("  ", depth), err, err.Error())
		err = errors.Unwrap(err)
	}
	return strings.TrimRight(b.String(), "\n")
}
