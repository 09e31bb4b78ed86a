// Package main implements an in-memory marketplace server for local
// development. It speaks the same form-in, JSON-out protocol as the real
// backend so the marketplace CLI, gateway and MCP host can be exercised
// without one.
package main

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const sessionCookie = "PHPSESSID"

type apiKey struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	KeyPrefix string `json:"key_prefix"`
	CreatedAt string `json:"created_at"`

	key   string
	owner string
}

type token struct {
	ID              int64  `json:"id"`
	ChainID         int    `json:"chain_id"`
	Symbol          string `json:"symbol"`
	ContractAddress string `json:"contract_address,omitempty"`
}

// backend is the mutable marketplace state. Every handler holds mu.
type backend struct {
	mu sync.Mutex

	users    map[string]string
	sessions map[string]string
	admins   map[string]bool

	stores       []map[string]any
	items        []map[string]any
	transactions []map[string]any
	keys         []*apiKey
	tokens       []*token
	config       map[string]string
	nextID       int64
}

func newBackend(admin, password string) *backend {
	return &backend{
		users:    map[string]string{admin: password},
		sessions: map[string]string{},
		admins:   map[string]bool{admin: true},
		config:   map[string]string{"site_name": "Local Marketplace"},
	}
}

func main() {
	port := flag.Int("port", 8089, "port to listen on")
	admin := flag.String("admin", "admin", "username of the seeded admin account")
	password := flag.String("password", "admin", "password of the seeded admin account")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	addr := fmt.Sprintf(":%d", *port)
	logger.Info("starting mock marketplace", "addr", addr, "admin", *admin)

	srv := &http.Server{
		Addr:         addr,
		Handler:      requestLogger(logger, newBackend(*admin, *password).routes()),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"query", r.URL.RawQuery,
			"request_id", r.Header.Get("X-Request-ID"),
		)
		next.ServeHTTP(w, r)
	})
}

func (m *backend) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, _ *http.Request) { writeText(w, http.StatusOK, "OK") })
	mux.HandleFunc("POST /register.php", m.register)
	mux.HandleFunc("POST /login.php", m.login)
	mux.HandleFunc("GET /logout.php", m.logout)

	mux.HandleFunc("GET /api/stores.php", m.listStores)
	mux.HandleFunc("POST /api/stores.php", m.session(m.createStore))
	mux.HandleFunc("GET /api/items.php", m.listItems)
	mux.HandleFunc("POST /api/items.php", m.session(m.createItem))
	mux.HandleFunc("GET /api/transactions.php", m.keyOrSession(m.listTransactions))
	mux.HandleFunc("POST /api/transactions.php", m.session(m.createTransaction))
	mux.HandleFunc("GET /api/keys.php", m.session(m.listKeys))
	mux.HandleFunc("POST /api/keys.php", m.session(m.createKey))
	mux.HandleFunc("POST /api/keys-revoke.php", m.session(m.revokeKey))
	mux.HandleFunc("GET /api/auth-user.php", m.keyOrSession(m.authUser))
	mux.HandleFunc("GET /api/deposits.php", m.session(m.listDeposits))
	mux.HandleFunc("GET /api/disputes.php", m.session(m.listDisputes))

	mux.HandleFunc("GET /admin/config.php", m.session(m.admin(m.getConfig)))
	mux.HandleFunc("POST /admin/config.php", m.session(m.admin(m.updateConfig)))
	mux.HandleFunc("GET /admin/tokens.php", m.session(m.admin(m.listTokens)))
	mux.HandleFunc("POST /admin/tokens.php", m.session(m.admin(m.addToken)))
	mux.HandleFunc("POST /admin/tokens-remove.php", m.session(m.admin(m.removeToken)))
	return mux
}

type userHandler func(w http.ResponseWriter, r *http.Request, user string)

// session resolves the caller from the session cookie.
func (m *backend) session(next userHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := m.sessionUser(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "Login required")
			return
		}
		next(w, r, user)
	}
}

// keyOrSession accepts an API key header or a session cookie.
func (m *backend) keyOrSession(next userHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if key := r.Header.Get("X-API-Key"); key != "" || r.Header.Get("Authorization") != "" {
			if key == "" {
				key = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			}
			user, ok := m.keyOwner(key)
			if !ok {
				writeError(w, http.StatusUnauthorized, "Invalid API key")
				return
			}
			next(w, r, user)
			return
		}
		m.session(next)(w, r)
	}
}

func (m *backend) admin(next userHandler) userHandler {
	return func(w http.ResponseWriter, r *http.Request, user string) {
		m.mu.Lock()
		isAdmin := m.admins[user]
		m.mu.Unlock()
		if !isAdmin {
			writeError(w, http.StatusForbidden, "Admin only")
			return
		}
		next(w, r, user)
	}
}

func (m *backend) sessionUser(r *http.Request) (string, bool) {
	c, err := r.Cookie(sessionCookie)
	if err != nil {
		return "", false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.sessions[c.Value]
	return user, ok
}

func (m *backend) keyOwner(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range m.keys {
		if k.key == key {
			return k.owner, true
		}
	}
	return "", false
}

func (m *backend) register(w http.ResponseWriter, r *http.Request) {
	user, pass := r.PostFormValue("username"), r.PostFormValue("password")
	if user == "" || pass == "" {
		writeText(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.users[user]; exists {
		writeText(w, http.StatusConflict, "Username already taken")
		return
	}
	m.users[user] = pass
	writeText(w, http.StatusOK, "Registered "+user)
}

func (m *backend) login(w http.ResponseWriter, r *http.Request) {
	user, pass := r.PostFormValue("username"), r.PostFormValue("password")

	m.mu.Lock()
	defer m.mu.Unlock()
	if want, ok := m.users[user]; !ok || want != pass {
		writeText(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	sid := randomHex(16)
	m.sessions[sid] = user
	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: sid, Path: "/", HttpOnly: true})
	writeText(w, http.StatusOK, "Logged in as "+user)
}

func (m *backend) logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(sessionCookie); err == nil {
		m.mu.Lock()
		delete(m.sessions, c.Value)
		m.mu.Unlock()
	}
	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: "", Path: "/", MaxAge: -1})
	writeText(w, http.StatusOK, "Logged out")
}

func (m *backend) listStores(w http.ResponseWriter, _ *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"stores": nonNil(m.stores)})
}

func (m *backend) createStore(w http.ResponseWriter, r *http.Request, user string) {
	name := strings.TrimSpace(r.PostFormValue("storename"))
	if name == "" {
		writeError(w, http.StatusBadRequest, "storename is required")
		return
	}
	if r.PostFormValue("vendorship_agree") != "1" {
		writeError(w, http.StatusBadRequest, "You must agree to the vendorship terms")
		return
	}

	id := uuid.NewString()
	m.mu.Lock()
	m.stores = append(m.stores, map[string]any{
		"uuid":        id,
		"storename":   name,
		"description": r.PostFormValue("description"),
		"owner":       user,
	})
	m.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "uuid": id})
}

func (m *backend) listItems(w http.ResponseWriter, r *http.Request) {
	store := r.URL.Query().Get("store_uuid")

	m.mu.Lock()
	defer m.mu.Unlock()
	items := make([]map[string]any, 0, len(m.items))
	for _, it := range m.items {
		if store == "" || it["store_uuid"] == store {
			items = append(items, it)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (m *backend) createItem(w http.ResponseWriter, r *http.Request, user string) {
	name, store := r.PostFormValue("name"), r.PostFormValue("store_uuid")
	if name == "" || store == "" {
		writeError(w, http.StatusBadRequest, "name and store_uuid are required")
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.ownsStore(user, store) {
		writeError(w, http.StatusNotFound, "Store not found")
		return
	}

	id := uuid.NewString()
	m.items = append(m.items, map[string]any{
		"uuid":        id,
		"name":        name,
		"store_uuid":  store,
		"description": r.PostFormValue("description"),
	})
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "uuid": id})
}

func (m *backend) ownsStore(user, store string) bool {
	for _, s := range m.stores {
		if s["uuid"] == store && s["owner"] == user {
			return true
		}
	}
	return false
}

func (m *backend) listTransactions(w http.ResponseWriter, _ *http.Request, user string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	txs := make([]map[string]any, 0)
	for _, tx := range m.transactions {
		if tx["buyer"] == user {
			txs = append(txs, tx)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"transactions": txs})
}

func (m *backend) createTransaction(w http.ResponseWriter, r *http.Request, user string) {
	pkg := r.PostFormValue("package_uuid")
	amount, err := strconv.ParseFloat(r.PostFormValue("required_amount"), 64)
	if pkg == "" || err != nil || amount <= 0 {
		writeError(w, http.StatusBadRequest, "package_uuid and a positive required_amount are required")
		return
	}

	id := uuid.NewString()
	m.mu.Lock()
	m.transactions = append(m.transactions, map[string]any{
		"uuid":            id,
		"package_uuid":    pkg,
		"required_amount": amount,
		"chain_id":        r.PostFormValue("chain_id"),
		"currency":        r.PostFormValue("currency"),
		"refund_address":  r.PostFormValue("refund_address"),
		"buyer":           user,
		"status":          "pending",
	})
	m.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "uuid": id, "escrow_address_pending": true})
}

func (m *backend) listKeys(w http.ResponseWriter, _ *http.Request, user string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]*apiKey, 0)
	for _, k := range m.keys {
		if k.owner == user {
			keys = append(keys, k)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"keys": keys})
}

func (m *backend) createKey(w http.ResponseWriter, r *http.Request, user string) {
	secret := "mk_" + randomHex(20)

	m.mu.Lock()
	m.nextID++
	k := &apiKey{
		ID:        m.nextID,
		Name:      r.PostFormValue("name"),
		KeyPrefix: secret[:8],
		CreatedAt: time.Now().UTC().Format(time.DateTime),
		key:       secret,
		owner:     user,
	}
	m.keys = append(m.keys, k)
	m.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"id":         k.ID,
		"name":       k.Name,
		"key_prefix": k.KeyPrefix,
		"api_key":    secret,
		"created_at": k.CreatedAt,
	})
}

func (m *backend) revokeKey(w http.ResponseWriter, r *http.Request, user string) {
	id, err := strconv.ParseInt(r.PostFormValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for i, k := range m.keys {
		if k.ID == id && k.owner == user {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]any{"ok": true})
			return
		}
	}
	writeError(w, http.StatusNotFound, "API key not found")
}

func (m *backend) authUser(w http.ResponseWriter, _ *http.Request, user string) {
	m.mu.Lock()
	isAdmin := m.admins[user]
	m.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"username": user, "is_admin": isAdmin})
}

func (m *backend) listDeposits(w http.ResponseWriter, _ *http.Request, _ string) {
	writeJSON(w, http.StatusOK, map[string]any{"deposits": []any{}})
}

func (m *backend) listDisputes(w http.ResponseWriter, _ *http.Request, _ string) {
	writeJSON(w, http.StatusOK, map[string]any{"disputes": []any{}})
}

func (m *backend) getConfig(w http.ResponseWriter, _ *http.Request, _ string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	writeJSON(w, http.StatusOK, m.config)
}

func (m *backend) updateConfig(w http.ResponseWriter, r *http.Request, _ string) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form")
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range r.PostForm {
		m.config[k] = r.PostForm.Get(k)
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (m *backend) listTokens(w http.ResponseWriter, _ *http.Request, _ string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"tokens": nonNil(m.tokens)})
}

func (m *backend) addToken(w http.ResponseWriter, r *http.Request, _ string) {
	chain, err := strconv.Atoi(r.PostFormValue("chain_id"))
	symbol := r.PostFormValue("symbol")
	if err != nil || symbol == "" {
		writeError(w, http.StatusBadRequest, "chain_id and symbol are required")
		return
	}

	m.mu.Lock()
	m.nextID++
	t := &token{ID: m.nextID, ChainID: chain, Symbol: symbol, ContractAddress: r.PostFormValue("contract_address")}
	m.tokens = append(m.tokens, t)
	m.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "id": t.ID})
}

func (m *backend) removeToken(w http.ResponseWriter, r *http.Request, _ string) {
	id, err := strconv.ParseInt(r.PostFormValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for i, t := range m.tokens {
		if t.ID == id {
			m.tokens = append(m.tokens[:i], m.tokens[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]any{"ok": true})
			return
		}
	}
	writeError(w, http.StatusNotFound, "Token not found")
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func randomHex(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func writeText(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	//nolint:errcheck,gosec // best-effort write to HTTP response in mock server
	w.Write([]byte(msg + "\n"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck,gosec // best-effort write to HTTP response in mock server
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
