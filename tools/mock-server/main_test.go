package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/marketplace/pkg/marketplace"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(newBackend("admin", "secret").routes())
	t.Cleanup(srv.Close)
	return srv
}

func TestHealth(t *testing.T) {
	t.Parallel()

	c := marketplace.New(newTestServer(t).URL)
	msg, err := c.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "OK", msg)
}

func TestRegisterLoginAndStoreFlow(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := marketplace.New(newTestServer(t).URL)

	_, err := c.Register(ctx, "alice", "pw")
	require.NoError(t, err)

	_, err = c.Register(ctx, "alice", "pw")
	require.ErrorIs(t, err, marketplace.ErrGeneric)
	apiErr, ok := marketplace.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusConflict, apiErr.StatusCode)
	assert.Equal(t, "Username already taken", apiErr.Message)

	sess, err := c.Login(ctx, "alice", "pw")
	require.NoError(t, err)

	store, err := sess.CreateStore(ctx, "Shop1", "", true)
	require.NoError(t, err)
	require.NotEmpty(t, store.UUID)

	item, err := sess.CreateItem(ctx, "Widget", store.UUID, "blue")
	require.NoError(t, err)
	require.NotEmpty(t, item.UUID)

	items, err := c.ListItems(ctx, store.UUID)
	require.NoError(t, err)
	assert.Len(t, items.Items, 1)

	_, err = sess.Logout(ctx)
	require.NoError(t, err)

	_, err = sess.CreateStore(ctx, "Shop2", "", true)
	require.ErrorIs(t, err, marketplace.ErrUnauthorized)
}

func TestCreateStore_RequiresAgreement(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	sess, err := marketplace.New(newTestServer(t).URL).Login(ctx, "admin", "secret")
	require.NoError(t, err)

	_, err = sess.CreateStore(ctx, "Shop", "", false)
	require.ErrorIs(t, err, marketplace.ErrValidation)
}

func TestAPIKeyLifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	srv := newTestServer(t)

	sess, err := marketplace.New(srv.URL).Login(ctx, "admin", "secret")
	require.NoError(t, err)

	created, err := sess.CreateKey(ctx, "ci")
	require.NoError(t, err)
	require.NotEmpty(t, created.APIKey)

	keyed := marketplace.New(srv.URL, marketplace.WithAPIKey(created.APIKey))
	user, err := keyed.GetAuthUser(ctx)
	require.NoError(t, err)
	assert.Contains(t, string(user), `"username":"admin"`)

	id, err := created.ID.Int64()
	require.NoError(t, err)
	_, err = sess.RevokeKey(ctx, id)
	require.NoError(t, err)

	_, err = keyed.GetAuthUser(ctx)
	require.ErrorIs(t, err, marketplace.ErrUnauthorized)
}

func TestAdminOnly(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := marketplace.New(newTestServer(t).URL)

	_, err := c.Register(ctx, "bob", "pw")
	require.NoError(t, err)
	sess, err := c.Login(ctx, "bob", "pw")
	require.NoError(t, err)

	_, err = sess.GetConfig(ctx)
	var apiErr *marketplace.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
}

func TestTokensAndConfig(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	sess, err := marketplace.New(newTestServer(t).URL).Login(ctx, "admin", "secret")
	require.NoError(t, err)

	added, err := sess.AddToken(ctx, 1, "USDC", "0xabc")
	require.NoError(t, err)

	tokens, err := sess.ListTokens(ctx)
	require.NoError(t, err)
	assert.Len(t, tokens.Tokens, 1)

	id, err := added.ID.Int64()
	require.NoError(t, err)
	_, err = sess.RemoveToken(ctx, id)
	require.NoError(t, err)

	_, err = sess.RemoveToken(ctx, id)
	require.ErrorIs(t, err, marketplace.ErrNotFound)

	_, err = sess.UpdateConfig(ctx, map[string]string{"fee_percent": "2"})
	require.NoError(t, err)

	cfg, err := sess.GetConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2", cfg["fee_percent"])
}
