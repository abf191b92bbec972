// ABOUTME: Test helpers for command tests
// ABOUTME: Provides a fake platform backend and per-test configuration

package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/markalston/ridectl/internal/config"
	"github.com/markalston/ridectl/internal/models"
	"github.com/markalston/ridectl/internal/store"
)

// fakeBackend implements the platform endpoints ridectl calls
type fakeBackend struct {
	t *testing.T

	mu         sync.Mutex
	token      string
	profile    models.Profile
	orders     []models.Order
	rejectAuth bool
	requests   []string
}

func newFakeBackend(t *testing.T, profile models.Profile) *fakeBackend {
	t.Helper()
	return &fakeBackend{
		t:       t,
		token:   signedCredential(t, time.Now().Add(time.Hour)),
		profile: profile,
	}
}

func (b *fakeBackend) server() *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": "1.2.3"})
	})
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req models.LoginRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Email != b.profile.Email || req.Password != "secret" {
			writeJSON(w, http.StatusUnauthorized, map[string]any{
				"success": false,
				"error":   map[string]string{"message": "Invalid email or password", "code": "INVALID_CREDENTIALS"},
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data":    models.AuthResponse{Token: b.token, Profile: b.profile},
		})
	})
	mux.HandleFunc("POST /api/auth/register", func(w http.ResponseWriter, r *http.Request) {
		var req models.RegisterRequest
		json.NewDecoder(r.Body).Decode(&req)
		b.mu.Lock()
		b.profile = models.Profile{ID: "u-new", Email: req.Email, Role: req.Role, Name: req.Name}
		p := b.profile
		b.mu.Unlock()
		writeJSON(w, http.StatusCreated, models.AuthResponse{Token: b.token, Profile: p})
	})
	mux.HandleFunc("GET /api/auth/me", b.authed(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		writeJSON(w, http.StatusOK, b.profile)
	}))
	mux.HandleFunc("PATCH /api/users/me", b.authed(func(w http.ResponseWriter, r *http.Request) {
		var upd models.ProfileUpdate
		json.NewDecoder(r.Body).Decode(&upd)
		b.mu.Lock()
		defer b.mu.Unlock()
		if upd.Email != "" {
			b.profile.Email = upd.Email
		}
		if upd.Name != "" {
			b.profile.Name = upd.Name
		}
		if upd.Phone != "" {
			b.profile.Phone = upd.Phone
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": b.profile})
	}))
	mux.HandleFunc("GET /api/orders", b.authed(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		writeJSON(w, http.StatusOK, b.orders)
	}))
	mux.HandleFunc("POST /api/orders", b.authed(func(w http.ResponseWriter, r *http.Request) {
		var req models.OrderRequest
		json.NewDecoder(r.Body).Decode(&req)
		o := models.Order{ID: "o-9", Pickup: req.Pickup, Destination: req.Destination, Price: 12.5, Status: models.OrderPending}
		b.mu.Lock()
		b.orders = append(b.orders, o)
		b.mu.Unlock()
		writeJSON(w, http.StatusCreated, o)
	}))
	mux.HandleFunc("POST /api/orders/{id}/{action}", b.authed(func(w http.ResponseWriter, r *http.Request) {
		status := models.OrderCancelled
		if r.PathValue("action") == "complete" {
			status = models.OrderCompleted
		}
		writeJSON(w, http.StatusOK, models.Order{ID: r.PathValue("id"), Status: status})
	}))
	mux.HandleFunc("GET /api/wallet", b.authed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, models.Wallet{Balance: 42.5, Currency: "EUR"})
	}))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.requests = append(b.requests, r.Method+" "+r.URL.Path)
		b.mu.Unlock()
		mux.ServeHTTP(w, r)
	}))
	b.t.Cleanup(srv.Close)
	return srv
}

// authed rejects requests without the issued bearer credential
func (b *fakeBackend) authed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		reject := b.rejectAuth || r.Header.Get("Authorization") != "Bearer "+b.token
		b.mu.Unlock()
		if reject {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Token invalid"})
			return
		}
		next(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func signedCredential(t *testing.T, exp time.Time) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": exp.Unix()}).SignedString([]byte("k"))
	if err != nil {
		t.Fatalf("failed to sign credential: %v", err)
	}
	return s
}

// useConfig installs a test configuration backed by a temp file store
func useConfig(t *testing.T, apiURL string) *config.Config {
	t.Helper()
	c := &config.Config{
		APIURL:           apiURL,
		RequestTimeout:   5 * time.Second,
		Store:            config.StoreFile,
		StoreDir:         t.TempDir(),
		SignInPath:       "/login",
		HomePath:         "/",
		UnauthorizedPath: "/unauthorized",
		LogLevel:         "warn",
		LogFormat:        "text",
	}
	prev := cfg
	cfg = c
	resetMemoryKV()
	t.Cleanup(func() {
		cfg = prev
		resetMemoryKV()
	})
	return c
}

func resetMemoryKV() {
	memoryMu.Lock()
	memoryKV = nil
	memoryMu.Unlock()
}

// seedSession stores a session as if another process had signed in
func seedSession(t *testing.T, c *config.Config, subject models.Subject, credential string) {
	t.Helper()
	store.NewAdapter(store.NewFileKV(c.StoreDir)).Save(context.Background(), credential, &subject)
}

// storedCredential reads the credential from the test store
func storedCredential(t *testing.T, c *config.Config) (string, bool) {
	t.Helper()
	return store.NewAdapter(store.NewFileKV(c.StoreDir)).LoadCredential(context.Background())
}

// withJSON enables JSON output for the duration of the test
func withJSON(t *testing.T) {
	t.Helper()
	jsonOutput = true
	t.Cleanup(func() { jsonOutput = false })
}

// syncBuffer is a bytes.Buffer safe for concurrent writers
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

func (s *syncBuffer) Contains(sub string) bool {
	return strings.Contains(s.String(), sub)
}

var riderProfile = models.Profile{ID: "u-1", Email: "rider@example.com", Role: models.RoleRider, Name: "Rita"}
