// ABOUTME: Tests for command wiring and the terminal navigator
// ABOUTME: Covers store selection, including redis via miniredis

package cmd

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/markalston/ridectl/internal/config"
	"github.com/markalston/ridectl/internal/tui/loginform"
)

func TestTerminalNavigator_Messages(t *testing.T) {
	c := &config.Config{SignInPath: "/login", HomePath: "/", UnauthorizedPath: "/unauthorized"}

	tests := []struct {
		to   string
		want string
	}{
		{"/login?reason=token_expired", "Session expired"},
		{"/login?reason=unauthorized", "rejected by the backend"},
		{"/login", "Not signed in"},
		{"/unauthorized", "not allowed"},
		{"/", ""},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		n := newTerminalNavigator(&buf, c, "/orders/list")
		n.Navigate(tt.to)

		got := strings.TrimSpace(buf.String())
		if tt.want == "" && got != "" {
			t.Errorf("Navigate(%q) printed %q, want nothing", tt.to, got)
		}
		if !strings.Contains(got, tt.want) {
			t.Errorf("Navigate(%q) printed %q, want %q", tt.to, got, tt.want)
		}
		if n.Location() != tt.to {
			t.Errorf("Location() = %q after Navigate(%q)", n.Location(), tt.to)
		}
		if v := n.Visited(); len(v) != 1 || v[0] != tt.to {
			t.Errorf("Visited() = %v", v)
		}
	}
}

func TestOpenEnv_RequiresConfig(t *testing.T) {
	prev := cfg
	cfg = nil
	defer func() { cfg = prev }()

	if _, err := openEnv(context.Background(), "/", &bytes.Buffer{}); err == nil {
		t.Error("expected error without configuration")
	}
}

func TestOpenEnv_RedisStoreSharesSession(t *testing.T) {
	mr := miniredis.RunT(t)
	b := newFakeBackend(t, riderProfile)
	c := useConfig(t, b.server().URL)
	c.Store = config.StoreRedis
	c.RedisAddr = mr.Addr()
	c.RedisPrefix = "test:"

	first, err := openEnv(context.Background(), "/login", &bytes.Buffer{})
	if err != nil {
		t.Fatalf("openEnv failed: %v", err)
	}
	first.session.Login(riderProfile.Subject(), b.token)
	first.Close()

	if !mr.Exists("test:token") {
		t.Error("expected credential under the configured prefix")
	}

	second, err := openEnv(context.Background(), "/wallet", &bytes.Buffer{})
	if err != nil {
		t.Fatalf("openEnv failed: %v", err)
	}
	defer second.Close()
	if !second.session.IsAuthenticated() {
		t.Error("expected second process to hydrate the shared session")
	}
	if w, err := second.client.Wallet(context.Background()); err != nil || w.Currency != "EUR" {
		t.Errorf("Wallet() = (%+v, %v)", w, err)
	}
}

func TestOpenEnv_RedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	c := useConfig(t, "http://localhost:1")
	c.Store = config.StoreRedis
	c.RedisAddr = addr

	_, err := openEnv(context.Background(), "/", &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "cannot connect to redis") {
		t.Errorf("expected redis connection error, got %v", err)
	}
}

func TestOpenEnv_MemoryStore(t *testing.T) {
	c := useConfig(t, "http://localhost:1")
	c.Store = config.StoreMemory

	e, err := openEnv(context.Background(), "/", &bytes.Buffer{})
	if err != nil {
		t.Fatalf("openEnv failed: %v", err)
	}
	defer e.Close()
	if e.session.IsAuthenticated() {
		t.Error("expected fresh memory store to be anonymous")
	}
}

func TestMemoryStore_SessionOutlivesCommand(t *testing.T) {
	b := newFakeBackend(t, riderProfile)
	c := useConfig(t, b.server().URL)
	c.Store = config.StoreMemory
	nonInteractive(t)
	withAuthValues(t, loginform.Values{Email: "rider@example.com", Password: "secret"})

	var buf bytes.Buffer
	if exitCode := runLogin(context.Background(), &buf); exitCode != exitOK {
		t.Fatalf("expected exit code 0, got %d: %s", exitCode, buf.String())
	}

	e, err := openEnv(context.Background(), "/orders", &bytes.Buffer{})
	if err != nil {
		t.Fatalf("openEnv failed: %v", err)
	}
	defer e.Close()
	if !e.session.IsAuthenticated() {
		t.Fatalf("expected session from login to be visible, state=%s", e.session.State())
	}

	buf.Reset()
	if exitCode := runWhoami(context.Background(), &buf); exitCode != exitOK {
		t.Fatalf("expected whoami to succeed, got %d: %s", exitCode, buf.String())
	}
	if !strings.Contains(buf.String(), "rider@example.com") {
		t.Errorf("expected subject in output, got %q", buf.String())
	}
}
