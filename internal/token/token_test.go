// ABOUTME: Tests for credential expiry decoding
// ABOUTME: Covers valid, expired, malformed and hostile credentials

package token

import (
	"encoding/base64"
	"strconv"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// signed builds a real HS256 credential with the given claims
func signed(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return tok
}

// rawCredential builds header.payload.sig with an arbitrary payload segment
func rawCredential(payload string) string {
	enc := base64.RawURLEncoding
	return enc.EncodeToString([]byte(`{"alg":"HS256"}`)) + "." + enc.EncodeToString([]byte(payload)) + ".sig"
}

func TestMillisecondsUntilExpiry_Future(t *testing.T) {
	cred := signed(t, jwt.MapClaims{"exp": time.Now().Unix() + 60})

	ms, ok := MillisecondsUntilExpiry(cred)
	if !ok {
		t.Fatal("expected expiry to be known")
	}
	if ms <= 59000 || ms > 60000 {
		t.Errorf("expected ms in (59000, 60000], got %d", ms)
	}
}

func TestMillisecondsUntilExpiry_Expired(t *testing.T) {
	cred := signed(t, jwt.MapClaims{"exp": time.Now().Unix() - 1})

	ms, ok := MillisecondsUntilExpiry(cred)
	if !ok {
		t.Fatal("expected expiry to be known for expired token")
	}
	if ms != 0 {
		t.Errorf("expected 0 for expired token, got %d", ms)
	}
}

func TestMillisecondsUntilExpiry_Unknown(t *testing.T) {
	tests := []struct {
		name       string
		credential string
	}{
		{"empty", ""},
		{"no delimiter", "not-a-token"},
		{"empty payload segment", "abc..def"},
		{"payload not base64", "abc.!!!.def"},
		{"payload not json", rawCredential("hello")},
		{"payload json array", rawCredential("[1,2,3]")},
		{"payload json null", rawCredential("null")},
		{"no exp claim", rawCredential(`{"sub":"u-1"}`)},
		{"exp wrong type", rawCredential(`{"exp":"tomorrow"}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ms, ok := MillisecondsUntilExpiry(tt.credential)
			if ok {
				t.Errorf("expected unknown expiry, got %d", ms)
			}
		})
	}
}

func TestUntilExpiry_InjectedClock(t *testing.T) {
	exp := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	cred := rawCredential(`{"exp":` + strconv.FormatInt(exp.Unix(), 10) + `}`)

	d, ok := UntilExpiry(cred, exp.Add(-90*time.Second))
	if !ok {
		t.Fatal("expected expiry to be known")
	}
	if d != 90*time.Second {
		t.Errorf("expected 90s, got %v", d)
	}

	d, ok = UntilExpiry(cred, exp)
	if !ok || d != 0 {
		t.Errorf("expected (0, true) at exact expiry, got (%v, %v)", d, ok)
	}
}

func TestExpiresAt_IgnoresHeaderAndSignature(t *testing.T) {
	enc := base64.RawURLEncoding
	cred := "garbage-header." + enc.EncodeToString([]byte(`{"exp":1700000000}`)) + ".garbage-sig"

	exp, ok := ExpiresAt(cred)
	if !ok {
		t.Fatal("expected payload to decode regardless of header")
	}
	if exp.Unix() != 1700000000 {
		t.Errorf("expected exp 1700000000, got %d", exp.Unix())
	}
}

func TestExpiresAt_PaddedPayload(t *testing.T) {
	payload := base64.URLEncoding.EncodeToString([]byte(`{"exp": 1700000000}`))
	if _, ok := ExpiresAt("h." + payload + ".s"); !ok {
		t.Error("expected padded base64url payload to decode")
	}
}

func TestUntilExpiry_EdgeExpValues(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		payload string
		want    time.Duration
	}{
		{"exp zero", `{"exp":0}`, 0},
		{"exp negative", `{"exp":-1}`, 0},
		{"exp huge", `{"exp":1e300}`, maxRemaining},
		{"exp fractional", `{"exp":` + strconv.FormatInt(now.Unix(), 10) + `.5}`, 500 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, ok := UntilExpiry(rawCredential(tt.payload), now)
			if !ok {
				t.Fatal("expected a present exp to be known")
			}
			if d != tt.want {
				t.Errorf("expected %v, got %v", tt.want, d)
			}
		})
	}
}

func TestMillisecondsUntilExpiry_HugeExpIsPositive(t *testing.T) {
	ms, ok := MillisecondsUntilExpiry(rawCredential(`{"exp":1e300}`))
	if !ok || ms <= 0 {
		t.Errorf("expected strictly positive remaining time, got (%d, %v)", ms, ok)
	}
}
