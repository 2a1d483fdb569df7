package tokens

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mkorolev/gatekeeper/internal/common"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestSignAndParse_Success(t *testing.T) {
	t.Parallel()

	secret := []byte("super-secret")
	issued := time.Now()

	tok, err := signToken("user-123", "admin", "jti-1", secret, issued, time.Hour)
	if err != nil {
		t.Fatalf("signToken error: %v", err)
	}

	// three dot-separated base64url segments
	if parts := strings.Split(tok, "."); len(parts) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(parts))
	}

	claims, err := parseToken(tok, secret, fixedClock(issued.Add(time.Minute)))
	if err != nil {
		t.Fatalf("parseToken error: %v", err)
	}
	if claims.Subject != "user-123" || claims.Role != "admin" || claims.ID != "jti-1" {
		t.Fatalf("claims mismatch: %+v", claims)
	}
}

func TestParse_ExpiryBoundary(t *testing.T) {
	t.Parallel()

	secret := []byte("secret")
	issued := time.Now()

	tok, err := signToken("u1", "user", "j1", secret, issued, time.Hour)
	if err != nil {
		t.Fatalf("signToken error: %v", err)
	}

	// one second before expiry succeeds
	if _, err := parseToken(tok, secret, fixedClock(issued.Add(time.Hour-time.Second))); err != nil {
		t.Fatalf("token should still be valid, got %v", err)
	}

	// after expiry fails with ErrExpiredToken
	_, err = parseToken(tok, secret, fixedClock(issued.Add(time.Hour+time.Second)))
	if !errors.Is(err, common.ErrExpiredToken) {
		t.Fatalf("expected common.ErrExpiredToken, got %v", err)
	}
}

func TestParse_WrongSecret(t *testing.T) {
	t.Parallel()

	issued := time.Now()
	tok, err := signToken("u2", "user", "j2", []byte("right-secret"), issued, time.Hour)
	if err != nil {
		t.Fatalf("signToken error: %v", err)
	}

	_, err = parseToken(tok, []byte("wrong-secret"), fixedClock(issued))
	if !errors.Is(err, common.ErrInvalidSignature) {
		t.Fatalf("expected common.ErrInvalidSignature, got %v", err)
	}
}

func TestParse_TamperedPayload(t *testing.T) {
	t.Parallel()

	secret := []byte("k")
	issued := time.Now()
	tok, err := signToken("u3", "user", "j3", secret, issued, time.Hour)
	if err != nil {
		t.Fatalf("signToken error: %v", err)
	}

	parts := strings.Split(tok, ".")
	// flip a character in the payload segment; the signature no longer covers it
	payload := []byte(parts[1])
	if payload[0] == 'A' {
		payload[0] = 'B'
	} else {
		payload[0] = 'A'
	}
	tampered := parts[0] + "." + string(payload) + "." + parts[2]

	_, err = parseToken(tampered, secret, fixedClock(issued))
	if !errors.Is(err, common.ErrInvalidSignature) {
		t.Fatalf("expected common.ErrInvalidSignature, got %v", err)
	}
}

func TestParse_MalformedString(t *testing.T) {
	t.Parallel()

	_, err := parseToken("not.a.jwt", []byte("k"), time.Now)
	if !errors.Is(err, common.ErrInvalidSignature) {
		t.Fatalf("expected common.ErrInvalidSignature, got %v", err)
	}
}

func TestParseSkipExpiry(t *testing.T) {
	t.Parallel()

	secret := []byte("k")
	issued := time.Now().Add(-2 * time.Hour)

	tok, err := signToken("u4", "user", "j4", secret, issued, time.Hour)
	if err != nil {
		t.Fatalf("signToken error: %v", err)
	}

	// expired, but the signature still verifies
	claims, err := parseTokenSkipExpiry(tok, secret)
	if err != nil {
		t.Fatalf("parseTokenSkipExpiry error: %v", err)
	}
	if claims.ID != "j4" {
		t.Fatalf("jti mismatch: %q", claims.ID)
	}

	// wrong secret is still rejected
	if _, err := parseTokenSkipExpiry(tok, []byte("other")); !errors.Is(err, common.ErrInvalidSignature) {
		t.Fatalf("expected common.ErrInvalidSignature, got %v", err)
	}
}
