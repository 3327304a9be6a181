package security

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHasher_HashAndVerify(t *testing.T) {
	t.Parallel()
	h := NewPasswordHasher(bcrypt.MinCost)

	for _, pw := range []string{"P@ss1", "correct horse battery staple", "ünïcødé", " "} {
		hash, err := h.Hash(pw)
		if err != nil {
			t.Fatalf("Hash(%q): %v", pw, err)
		}
		if hash == pw {
			t.Fatalf("hash must not equal the password")
		}
		if !h.Verify(pw, hash) {
			t.Fatalf("Verify(%q) = false, want true", pw)
		}
		if h.Verify(pw+"x", hash) {
			t.Fatalf("Verify(%q+x) = true, want false", pw)
		}
	}
}

func TestPasswordHasher_SaltedHashesDiffer(t *testing.T) {
	t.Parallel()
	h := NewPasswordHasher(bcrypt.MinCost)

	a, _ := h.Hash("same")
	b, _ := h.Hash("same")
	if a == b {
		t.Fatalf("expected different salts to give different hashes")
	}
}

func TestPasswordHasher_MalformedHash(t *testing.T) {
	t.Parallel()
	h := NewPasswordHasher(bcrypt.MinCost)

	for _, hash := range []string{"", "not-a-hash", "$2a$04$short"} {
		if h.Verify("anything", hash) {
			t.Fatalf("Verify against %q = true, want false", hash)
		}
	}
}

func TestPasswordHasher_TooLong(t *testing.T) {
	t.Parallel()
	h := NewPasswordHasher(bcrypt.MinCost)

	if _, err := h.Hash(strings.Repeat("a", 73)); err == nil {
		t.Fatalf("expected error for 73-byte password")
	}

	pw := strings.Repeat("b", 72)
	hash, err := h.Hash(pw)
	if err != nil {
		t.Fatalf("Hash 72 bytes: %v", err)
	}
	if h.Verify(pw+"x", hash) {
		t.Fatalf("a password past the bcrypt limit must not verify")
	}
}

func TestNewPasswordHasher_CostFallback(t *testing.T) {
	t.Parallel()

	if got := NewPasswordHasher(0).cost; got != bcrypt.DefaultCost {
		t.Fatalf("cost = %d, want %d", got, bcrypt.DefaultCost)
	}
	if got := NewPasswordHasher(bcrypt.MaxCost + 1).cost; got != bcrypt.DefaultCost {
		t.Fatalf("cost = %d, want %d", got, bcrypt.DefaultCost)
	}
}
