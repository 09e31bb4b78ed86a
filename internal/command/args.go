package command

import (
	"fmt"
	"strings"

	"github.com/spf13/cast"
)

// ArgumentError reports a malformed invocation detected before any network
// call: unknown command, missing required parameter, missing credentials, or
// a value that does not coerce to its declared type.
type ArgumentError struct {
	Param   string
	Message string
	Err     error
}

func (e *ArgumentError) Error() string {
	return e.Message
}

func (e *ArgumentError) Unwrap() error {
	return e.Err
}

func argErrorf(param, format string, a ...any) *ArgumentError {
	return &ArgumentError{Param: param, Message: fmt.Sprintf(format, a...)}
}

// Args holds coerced parameter values keyed by parameter name. Values are
// string, int64, float64, bool or map[string]string according to the
// parameter's declared type.
type Args map[string]any

// String returns the string parameter name, or "".
func (a Args) String(name string) string {
	s, _ := a[name].(string)
	return s
}

// Int returns the integer parameter name, or 0.
func (a Args) Int(name string) int64 {
	n, _ := a[name].(int64)
	return n
}

// Float returns the number parameter name, or 0.
func (a Args) Float(name string) float64 {
	f, _ := a[name].(float64)
	return f
}

// Bool returns the boolean parameter name, or false.
func (a Args) Bool(name string) bool {
	b, _ := a[name].(bool)
	return b
}

// Object returns the object parameter name, or nil.
func (a Args) Object(name string) map[string]string {
	m, _ := a[name].(map[string]string)
	return m
}

// Has reports whether name was supplied or defaulted.
func (a Args) Has(name string) bool {
	_, ok := a[name]
	return ok
}

// bind validates raw against the descriptor's parameters, filling defaults
// and coercing every value to its declared type. Unknown keys are ignored.
func (d *Descriptor) bind(raw map[string]any) (Args, error) {
	args := make(Args, len(d.Params))
	for _, p := range d.Params {
		v, present := raw[p.Name]
		if present && isBlank(v) {
			present = false
		}
		if !present {
			if p.Required {
				return nil, argErrorf(p.Name, "missing required parameter: %s", p.Name)
			}
			if p.Default == nil {
				continue
			}
			v = p.Default
		}

		coerced, err := coerce(p.Type, v)
		if err != nil {
			return nil, &ArgumentError{
				Param:   p.Name,
				Message: fmt.Sprintf("invalid value for %s: expected %s", p.Name, p.Type),
				Err:     err,
			}
		}
		if n, ok := coerced.(int64); ok && p.Positive && n < 1 {
			return nil, argErrorf(p.Name, "invalid value for %s: must be a positive integer", p.Name)
		}
		args[p.Name] = coerced
	}
	return args, nil
}

func isBlank(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) == ""
}

func coerce(t ParamType, v any) (any, error) {
	switch t {
	case TypeInteger:
		if s, ok := v.(string); ok {
			v = strings.TrimSpace(s)
		}
		return cast.ToInt64E(v)
	case TypeNumber:
		if s, ok := v.(string); ok {
			v = strings.TrimSpace(s)
		}
		return cast.ToFloat64E(v)
	case TypeBoolean:
		if s, ok := v.(string); ok {
			v = strings.TrimSpace(s)
		}
		return cast.ToBoolE(v)
	case TypeObject:
		return cast.ToStringMapStringE(v)
	default:
		return cast.ToStringE(v)
	}
}
