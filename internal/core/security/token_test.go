package security

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/todoapp/tasktracker/internal/core/domain"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func mustKey(t *testing.T, secret string) SigningKey {
	t.Helper()
	k, err := NewSigningKey(secret)
	if err != nil {
		t.Fatalf("NewSigningKey: %v", err)
	}
	return k
}

func fixedClock(ts time.Time) Clock {
	return func() time.Time { return ts }
}

func TestNewSigningKey_TooShort(t *testing.T) {
	t.Parallel()

	if _, err := NewSigningKey("short"); err == nil {
		t.Fatalf("expected error for short secret")
	}
}

func TestIssueAndVerify_RoundTrip(t *testing.T) {
	t.Parallel()
	key := mustKey(t, testSecret)

	tok, err := NewTokenIssuer(key, 0, nil).Issue("alice", 42)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if parts := strings.Split(tok.Value, "."); len(parts) != 3 {
		t.Fatalf("expected three segments, got %d", len(parts))
	}
	if tok.ID == "" {
		t.Fatalf("expected token id")
	}

	got, err := NewTokenVerifier(key, nil).Verify(tok.Value)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if got.Identity != (domain.Identity{Username: "alice", ID: 42}) {
		t.Fatalf("identity = %+v", got.Identity)
	}
	if got.ID != tok.ID {
		t.Fatalf("token id = %q, want %q", got.ID, tok.ID)
	}
}

func TestIssue_DefaultTTL(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)

	tok, err := NewTokenIssuer(mustKey(t, testSecret), 0, fixedClock(now)).Issue("alice", 1)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if want := now.Add(DefaultTokenTTL); !tok.ExpiresAt.Equal(want) {
		t.Fatalf("ExpiresAt = %v, want %v", tok.ExpiresAt, want)
	}
}

func TestVerify_ZeroTTLIsExpired(t *testing.T) {
	t.Parallel()
	key := mustKey(t, testSecret)
	now := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)

	tok, err := NewTokenIssuer(key, time.Hour, fixedClock(now)).IssueWithTTL("alice", 1, 0)
	if err != nil {
		t.Fatalf("IssueWithTTL: %v", err)
	}

	_, err = NewTokenVerifier(key, fixedClock(now)).Verify(tok.Value)
	if !errors.Is(err, ErrTokenExpired) || !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected expired/unauthenticated, got %v", err)
	}
}

func TestVerify_ClockPastExpiry(t *testing.T) {
	t.Parallel()
	key := mustKey(t, testSecret)
	now := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)

	tok, _ := NewTokenIssuer(key, 15*time.Minute, fixedClock(now)).Issue("alice", 1)

	if _, err := NewTokenVerifier(key, fixedClock(now.Add(14*time.Minute))).Verify(tok.Value); err != nil {
		t.Fatalf("token should still be valid: %v", err)
	}
	_, err := NewTokenVerifier(key, fixedClock(now.Add(16*time.Minute))).Verify(tok.Value)
	if !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected unauthenticated after expiry, got %v", err)
	}
}

func TestVerify_NoToken(t *testing.T) {
	t.Parallel()

	_, err := NewTokenVerifier(mustKey(t, testSecret), nil).Verify("")
	if !errors.Is(err, ErrNoToken) {
		t.Fatalf("expected ErrNoToken, got %v", err)
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, _ := NewTokenIssuer(mustKey(t, testSecret), time.Hour, nil).Issue("alice", 1)
	_, err := NewTokenVerifier(mustKey(t, strings.Repeat("z", 32)), nil).Verify(tok.Value)
	if !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerify_Malformed(t *testing.T) {
	t.Parallel()
	v := NewTokenVerifier(mustKey(t, testSecret), nil)

	for _, raw := range []string{"not.a.jwt", "abc", "a.b", "...."} {
		if _, err := v.Verify(raw); !errors.Is(err, domain.ErrInvalidToken) {
			t.Fatalf("Verify(%q): expected ErrInvalidToken, got %v", raw, err)
		}
	}
}

// flip returns s with the byte at i replaced by a different base64url character.
func flip(s string, i int) string {
	repl := byte('A')
	if s[i] == 'A' {
		repl = 'B'
	}
	return s[:i] + string(repl) + s[i+1:]
}

func TestVerify_TamperedPayloadOrSignature(t *testing.T) {
	t.Parallel()
	key := mustKey(t, testSecret)
	v := NewTokenVerifier(key, nil)

	tok, err := NewTokenIssuer(key, time.Hour, nil).Issue("alice", 7)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	headerEnd := strings.Index(tok.Value, ".")
	for i := headerEnd + 1; i < len(tok.Value); i++ {
		if tok.Value[i] == '.' {
			continue
		}
		_, err := v.Verify(flip(tok.Value, i))
		if !errors.Is(err, domain.ErrInvalidToken) {
			t.Fatalf("byte %d flipped: expected ErrInvalidToken, got %v", i, err)
		}
	}
}

func TestVerify_RejectsOtherAlgorithms(t *testing.T) {
	t.Parallel()
	key := mustKey(t, testSecret)
	id := int64(1)
	claims := tokenClaims{
		UserID: &id,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "alice",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(key.secret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}

	v := NewTokenVerifier(key, nil)
	for name, raw := range map[string]string{"HS512": hs512, "none": none} {
		if _, err := v.Verify(raw); !errors.Is(err, domain.ErrInvalidToken) {
			t.Fatalf("%s: expected ErrInvalidToken, got %v", name, err)
		}
	}
}

func TestVerify_MissingClaims(t *testing.T) {
	t.Parallel()
	key := mustKey(t, testSecret)
	v := NewTokenVerifier(key, nil)
	exp := jwt.NewNumericDate(time.Now().Add(time.Hour))
	id := int64(3)

	cases := map[string]tokenClaims{
		"no sub": {UserID: &id, RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: exp}},
		"no id":  {RegisteredClaims: jwt.RegisteredClaims{Subject: "alice", ExpiresAt: exp}},
	}
	for name, claims := range cases {
		raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key.secret)
		if err != nil {
			t.Fatalf("%s: sign: %v", name, err)
		}
		_, err = v.Verify(raw)
		if !errors.Is(err, ErrMissingClaims) {
			t.Fatalf("%s: expected ErrMissingClaims, got %v", name, err)
		}
	}
}

func TestVerify_MissingExpiry(t *testing.T) {
	t.Parallel()
	key := mustKey(t, testSecret)
	id := int64(3)

	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		UserID:           &id,
		RegisteredClaims: jwt.RegisteredClaims{Subject: "alice"},
	}).SignedString(key.secret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := NewTokenVerifier(key, nil).Verify(raw); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}
