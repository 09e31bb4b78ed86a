package marketplace

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeMarketplace is a minimal session-aware stand-in for the marketplace.
type fakeMarketplace struct {
	mu    sync.Mutex
	calls []string
	forms map[string]map[string][]string
}

func newFakeMarketplace(t *testing.T) (*fakeMarketplace, *httptest.Server) {
	t.Helper()

	fm := &fakeMarketplace{forms: map[string]map[string][]string{}}
	srv := httptest.NewServer(http.HandlerFunc(fm.serve))
	t.Cleanup(srv.Close)
	return fm, srv
}

func (fm *fakeMarketplace) serve(w http.ResponseWriter, r *http.Request) {
	fm.mu.Lock()
	fm.calls = append(fm.calls, r.Method+" "+r.URL.Path)
	if r.Method == http.MethodPost {
		_ = r.ParseForm()
		fm.forms[r.URL.Path] = r.PostForm
	}
	fm.mu.Unlock()

	if r.URL.Path == "/login.php" {
		if r.PostFormValue("password") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte("Invalid credentials"))
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "PHPSESSID", Value: "abc", Path: "/"})
		_, _ = w.Write([]byte("Logged in\n"))
		return
	}
	if r.URL.Path == "/logout.php" {
		_, _ = w.Write([]byte("Logged out"))
		return
	}

	if c, err := r.Cookie("PHPSESSID"); err != nil || c.Value != "abc" {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"Login required"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/api/stores.php", "/api/items.php":
		_, _ = w.Write([]byte(`{"ok":true,"uuid":"u-1"}`))
	case "/api/transactions.php":
		_, _ = w.Write([]byte(`{"ok":true,"uuid":"t-1","escrow_address_pending":true}`))
	case "/api/keys.php":
		_, _ = w.Write([]byte(`{"id":"12","name":"ci","key_prefix":"sk_ab","api_key":"sk_abcdef","created_at":"2026-01-01"}`))
	case "/admin/tokens.php":
		_, _ = w.Write([]byte(`{"ok":true,"id":4}`))
	case "/admin/config.php":
		if r.Method == http.MethodGet {
			_, _ = w.Write([]byte(`{"pending_duration":"3600","stuck_duration":null}`))
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	default:
		_, _ = w.Write([]byte(`{"ok":true}`))
	}
}

func (fm *fakeMarketplace) form(path string) map[string][]string {
	fm.mu.Lock()
	defer fm.mu.Unlock()
	return fm.forms[path]
}

func TestLogin_SessionCookieAndLogout(t *testing.T) {
	t.Parallel()

	fm, srv := newFakeMarketplace(t)
	ctx := context.Background()

	sess, err := New(srv.URL, WithAPIKey("sk-ignored")).Login(ctx, "alice", "secret")
	require.NoError(t, err)
	assert.Equal(t, "Logged in", sess.Message)
	assert.False(t, sess.HasAPIKey())

	created, err := sess.CreateStore(ctx, "Shop", "desc", true)
	require.NoError(t, err)
	assert.Equal(t, "u-1", created.UUID)
	assert.Equal(t, []string{"1"}, fm.form("/api/stores.php")["vendorship_agree"])

	msg, err := sess.Logout(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Logged out", msg)

	assert.Equal(t, []string{
		"POST /login.php",
		"POST /api/stores.php",
		"GET /logout.php",
	}, fm.calls)
}

func TestLogin_BadCredentials(t *testing.T) {
	t.Parallel()

	_, srv := newFakeMarketplace(t)

	_, err := New(srv.URL).Login(context.Background(), "alice", "wrong")
	require.Error(t, err)
	assert.Equal(t, KindGeneric, KindOf(err))
	assert.Contains(t, err.Error(), "Invalid credentials")
}

func TestClient_NoSessionCookieOutsideLogin(t *testing.T) {
	t.Parallel()

	_, srv := newFakeMarketplace(t)
	ctx := context.Background()

	c := New(srv.URL)
	_, err := c.Login(ctx, "alice", "secret")
	require.NoError(t, err)

	// The parent client never sees the session jar.
	_, err = c.ListTransactions(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestSession_CreateTransactionDefaults(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		params TransactionParams
		want   map[string][]string
	}{
		{
			name:   "defaults",
			params: TransactionParams{PackageUUID: "p-1", RequiredAmount: 0.5},
			want: map[string][]string{
				"package_uuid":    {"p-1"},
				"required_amount": {"0.5"},
				"chain_id":        {"1"},
				"currency":        {"ETH"},
			},
		},
		{
			name: "explicit",
			params: TransactionParams{
				PackageUUID:    "p-2",
				RequiredAmount: 12,
				ChainID:        137,
				Currency:       "MATIC",
				RefundAddress:  "0xabc",
			},
			want: map[string][]string{
				"package_uuid":    {"p-2"},
				"required_amount": {"12"},
				"chain_id":        {"137"},
				"currency":        {"MATIC"},
				"refund_address":  {"0xabc"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			fm, srv := newFakeMarketplace(t)
			ctx := context.Background()

			sess, err := New(srv.URL).Login(ctx, "alice", "secret")
			require.NoError(t, err)

			resp, err := sess.CreateTransaction(ctx, &tt.params)
			require.NoError(t, err)
			assert.Equal(t, "t-1", resp.UUID)
			assert.True(t, resp.EscrowAddressPending)
			assert.Equal(t, tt.want, fm.form("/api/transactions.php"))
		})
	}
}

func TestSession_FormContentType(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		}
		if r.URL.Path == "/login.php" {
			_, _ = w.Write([]byte("ok"))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":3,"name":"","key_prefix":"sk_x","api_key":"sk_xyz","created_at":"now"}`))
	}))
	defer srv.Close()

	ctx := context.Background()
	sess, err := New(srv.URL).Login(ctx, "alice", "secret")
	require.NoError(t, err)

	key, err := sess.CreateKey(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "3", key.ID.String())
	assert.Equal(t, "sk_xyz", key.APIKey)
}

func TestSession_AdminCalls(t *testing.T) {
	t.Parallel()

	fm, srv := newFakeMarketplace(t)
	ctx := context.Background()

	sess, err := New(srv.URL).Login(ctx, "root", "secret")
	require.NoError(t, err)

	cfg, err := sess.GetConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, "3600", cfg["pending_duration"])
	assert.Nil(t, cfg["stuck_duration"])

	ack, err := sess.UpdateConfig(ctx, map[string]string{"stuck_duration": "7200"})
	require.NoError(t, err)
	assert.True(t, ack.OK)
	assert.Equal(t, []string{"7200"}, fm.form("/admin/config.php")["stuck_duration"])

	added, err := sess.AddToken(ctx, 1, "USDC", "")
	require.NoError(t, err)
	assert.Equal(t, "4", added.ID.String())
	assert.NotContains(t, fm.form("/admin/tokens.php"), "contract_address")

	_, err = sess.RemoveToken(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, []string{"4"}, fm.form("/admin/tokens-remove.php")["id"])

	_, err = sess.RevokeKey(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, []string{"9"}, fm.form("/api/keys-revoke.php")["id"])
}
