// ABOUTME: Tests for session inspection commands
// ABOUTME: Covers status output and following sign-out from another process

package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/markalston/ridectl/internal/store"
)

func TestSessionStatus_Anonymous(t *testing.T) {
	useConfig(t, "http://localhost:1")
	withJSON(t)

	var buf bytes.Buffer
	if exitCode := runSessionStatus(context.Background(), &buf); exitCode != exitOK {
		t.Fatalf("expected exit code 0, got %d", exitCode)
	}
	var status sessionStatus
	if err := json.Unmarshal(buf.Bytes(), &status); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if status.State != "anonymous" || status.ExpiresInMS != nil {
		t.Errorf("unexpected status %+v", status)
	}
}

func TestSessionStatus_Authenticated(t *testing.T) {
	c := useConfig(t, "http://localhost:1")
	seedSession(t, c, riderProfile.Subject(), signedCredential(t, time.Now().Add(time.Hour)))
	withJSON(t)

	var buf bytes.Buffer
	if exitCode := runSessionStatus(context.Background(), &buf); exitCode != exitOK {
		t.Fatalf("expected exit code 0, got %d", exitCode)
	}
	var status sessionStatus
	if err := json.Unmarshal(buf.Bytes(), &status); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if status.State != "authenticated" || status.Email != "rider@example.com" || status.Role != "rider" {
		t.Errorf("unexpected status %+v", status)
	}
	if status.ExpiresInMS == nil || *status.ExpiresInMS <= 0 || *status.ExpiresInMS > time.Hour.Milliseconds() {
		t.Errorf("expected expiry within the hour, got %v", status.ExpiresInMS)
	}
}

func TestSessionStatus_Human(t *testing.T) {
	c := useConfig(t, "http://localhost:1")
	seedSession(t, c, riderProfile.Subject(), "opaque-token")

	var buf bytes.Buffer
	runSessionStatus(context.Background(), &buf)

	out := buf.String()
	for _, want := range []string{"authenticated", "rider@example.com", "unknown", "file"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestSessionWatch_EndsOnSignOutElsewhere(t *testing.T) {
	c := useConfig(t, "http://localhost:1")
	nonInteractive(t)
	seedSession(t, c, riderProfile.Subject(), signedCredential(t, time.Now().Add(time.Hour)))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	out := &syncBuffer{}
	done := make(chan int, 1)
	go func() { done <- runSessionWatch(ctx, out) }()

	deadline := time.Now().Add(5 * time.Second)
	for !out.Contains("Watching session") {
		if time.Now().After(deadline) {
			t.Fatalf("watch did not start: %q", out.String())
		}
		time.Sleep(10 * time.Millisecond)
	}
	store.NewAdapter(store.NewFileKV(c.StoreDir)).Clear(context.Background())

	select {
	case code := <-done:
		if code != exitOK {
			t.Errorf("expected exit code 0, got %d", code)
		}
	case <-ctx.Done():
		t.Fatalf("watch did not end after sign-out elsewhere: %q", out.String())
	}
	if !out.Contains("Session ended.") {
		t.Errorf("expected end notice, got %q", out.String())
	}
}

func TestSessionWatch_NotSignedIn(t *testing.T) {
	useConfig(t, "http://localhost:1")
	nonInteractive(t)

	var buf bytes.Buffer
	if exitCode := runSessionWatch(context.Background(), &buf); exitCode != exitRedirect {
		t.Errorf("expected exit code 3, got %d", exitCode)
	}
}
