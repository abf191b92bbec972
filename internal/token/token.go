// ABOUTME: Reads the expiry claim of a bearer credential without verifying it
// ABOUTME: Used only to schedule proactive sign-out; the backend stays authoritative

package token

import (
	"encoding/json"
	"math"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// parser only decodes segments; it is never asked to verify a signature.
var parser = jwt.NewParser(jwt.WithPaddingAllowed())

// maxUnixSeconds bounds exp so that time arithmetic cannot overflow.
const maxUnixSeconds = 1 << 40

// maxRemaining is the longest duration UntilExpiry reports.
const maxRemaining = time.Duration(math.MaxInt64 / int64(time.Millisecond) * int64(time.Millisecond))

// ExpiresAt returns the credential's exp claim.
// Returns false when the credential is malformed, the payload is not a JSON
// object, or no usable exp claim is present.
func ExpiresAt(credential string) (time.Time, bool) {
	parts := strings.Split(credential, ".")
	if len(parts) < 2 || parts[1] == "" {
		return time.Time{}, false
	}

	payload, err := parser.DecodeSegment(parts[1])
	if err != nil {
		return time.Time{}, false
	}

	var claims jwt.MapClaims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return time.Time{}, false
	}

	// MapClaims.GetExpirationTime reports exp == 0 as absent, so read it directly
	exp, ok := claims["exp"].(float64)
	if !ok {
		return time.Time{}, false
	}
	exp = math.Max(-maxUnixSeconds, math.Min(exp, maxUnixSeconds))
	sec, frac := math.Modf(exp)
	return time.Unix(int64(sec), int64(frac*1e9)), true
}

// UntilExpiry returns how long the credential remains valid relative to now,
// truncated to whole milliseconds. An already expired credential yields 0 and
// true, meaning "expire immediately". false means the expiry is unknown and
// the credential should be treated as non-expiring.
func UntilExpiry(credential string, now time.Time) (time.Duration, bool) {
	exp, ok := ExpiresAt(credential)
	if !ok {
		return 0, false
	}
	ms := exp.UnixMilli() - now.UnixMilli()
	if ms <= 0 {
		return 0, true
	}
	if ms > int64(maxRemaining/time.Millisecond) {
		return maxRemaining, true
	}
	return time.Duration(ms) * time.Millisecond, true
}

// MillisecondsUntilExpiry is UntilExpiry against the wall clock, in milliseconds.
func MillisecondsUntilExpiry(credential string) (int64, bool) {
	d, ok := UntilExpiry(credential, time.Now())
	if !ok {
		return 0, false
	}
	return d.Milliseconds(), true
}
