package command

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/marketplace/pkg/marketplace"
)

func TestErrorTypeOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"validation", &marketplace.APIError{Kind: marketplace.KindValidation}, ErrTypeValidation},
		{"unauthorized", &marketplace.APIError{Kind: marketplace.KindUnauthorized}, ErrTypeUnauthorized},
		{"not found", &marketplace.APIError{Kind: marketplace.KindNotFound}, ErrTypeNotFound},
		{"rate limit", &marketplace.APIError{Kind: marketplace.KindRateLimit}, ErrTypeRateLimit},
		{"forbidden", &marketplace.APIError{Kind: marketplace.KindForbidden}, ErrTypeUnknown},
		{"conflict", &marketplace.APIError{Kind: marketplace.KindConflict}, ErrTypeUnknown},
		{"server", &marketplace.APIError{Kind: marketplace.KindServer}, ErrTypeUnknown},
		{"generic", &marketplace.APIError{Kind: marketplace.KindGeneric}, ErrTypeUnknown},
		{"wrapped", fmt.Errorf("op: %w", &marketplace.APIError{Kind: marketplace.KindNotFound}), ErrTypeNotFound},
		{"argument", argErrorf("x", "bad"), ErrTypeArgument},
		{"plain", errors.New("boom"), ErrTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ErrorTypeOf(tt.err))
		})
	}
}

func TestFailure_Traceback(t *testing.T) {
	t.Parallel()

	cause := errors.New("dial tcp: connection refused")
	err := &marketplace.APIError{Kind: marketplace.KindGeneric, Message: "marketplace not reachable at http://x", Err: cause}

	env := Failure(err)
	assert.Equal(t, ErrTypeUnknown, env.ErrorType())
	assert.Equal(t, "marketplace: marketplace not reachable at http://x", env.Message())
	assert.Equal(t,
		"*marketplace.APIError: marketplace: marketplace not reachable at http://x\n"+
			"  *errors.errorString: dial tcp: connection refused",
		env["traceback"],
	)
}

func TestFailure_MessageForHTTPErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		kind   marketplace.Kind
		want   ErrorType
	}{
		{"forbidden", 403, marketplace.KindForbidden, ErrTypeUnknown},
		{"conflict", 409, marketplace.KindConflict, ErrTypeUnknown},
		{"server", 500, marketplace.KindServer, ErrTypeUnknown},
		{"generic", 418, marketplace.KindGeneric, ErrTypeUnknown},
		{"not found", 404, marketplace.KindNotFound, ErrTypeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := fmt.Errorf("listing stores: %w", &marketplace.APIError{
				StatusCode: tt.status,
				Kind:       tt.kind,
				Message:    "operation rejected",
			})

			env := Failure(err)
			assert.Equal(t, tt.want, env.ErrorType())
			assert.Equal(t, "operation rejected", env.Message())
		})
	}
}

func TestSuccess_StatusCannotBeOverridden(t *testing.T) {
	t.Parallel()

	env := Success(Fields{"status": "error", "message": "hi"})
	assert.True(t, env.OK())
	assert.Equal(t, "hi", env["message"])
}

func TestRegistry_Describe(t *testing.T) {
	t.Parallel()

	desc := Builtin().Describe()
	assert.Equal(t, "marketplace", desc.Plugin.Name)
	require.Len(t, desc.Commands, 19)

	byName := map[string]CommandInfo{}
	for _, c := range desc.Commands {
		byName[c.Name] = c
	}

	tx := byName["create-transaction"]
	names := make([]string, 0, len(tx.Parameters))
	for _, p := range tx.Parameters {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{
		"base_url", "username", "password",
		"package_uuid", "required_amount", "chain_id", "currency", "refund_address",
	}, names)

	out, err := json.Marshal(byName["get-auth-user"])
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"name": "get-auth-user",
		"description": "Get current user for API key",
		"parameters": [
			{"name": "base_url", "type": "string", "description": "API base URL (optional; env MARKETPLACE_BASE_URL or http://localhost)", "required": false, "default": null},
			{"name": "api_key", "type": "string", "description": "API key", "required": true, "default": null}
		]
	}`, string(out))
}

func TestRegistry_DuplicatePanics(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() {
		NewRegistry(Descriptor{Name: "a"}, Descriptor{Name: "a"})
	})
}

func TestBind_Coercion(t *testing.T) {
	t.Parallel()

	d, ok := Builtin().Lookup("create-store")
	require.True(t, ok)

	tests := []struct {
		name  string
		agree any
		want  bool
	}{
		{"default", nil, true},
		{"string zero", "0", false},
		{"string one", "1", true},
		{"json bool", false, false},
		{"json number", float64(1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			raw := map[string]any{"username": "u", "password": "p", "storename": "s"}
			if tt.agree != nil {
				raw["vendorship_agree"] = tt.agree
			}
			args, err := d.bind(raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, args.Bool("vendorship_agree"))
			assert.Equal(t, "", args.String("description"))
			assert.False(t, args.Has("base_url"))
		})
	}
}
