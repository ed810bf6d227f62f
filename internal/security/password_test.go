package security

import (
	"errors"
	"strings"
	"testing"
)

// Cheap parameters keep the suite fast; the format is the same.
func testPasswordHasher() PasswordHasher {
	return PasswordHasher{N: 1024, R: 8, P: 1, KeyLen: 64}
}

func TestPasswordHasherRoundTrip(t *testing.T) {
	t.Parallel()

	hasher := testPasswordHasher()
	stored, err := hasher.Hash("correct horse")
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}

	key, salt, found := strings.Cut(stored, ".")
	if !found {
		t.Fatalf("expected hash.salt format, got %q", stored)
	}
	if len(key) != 128 {
		t.Fatalf("expected 64-byte key as 128 hex chars, got %d", len(key))
	}
	if len(salt) != 32 {
		t.Fatalf("expected 16-byte salt as 32 hex chars, got %d", len(salt))
	}
	if strings.Contains(stored, "correct horse") {
		t.Fatal("stored hash must not contain the plaintext password")
	}

	ok, err := hasher.Compare(stored, "correct horse")
	if err != nil || !ok {
		t.Fatalf("expected matching password, ok=%v err=%v", ok, err)
	}
	ok, err = hasher.Compare(stored, "wrong horse")
	if err != nil || ok {
		t.Fatalf("expected mismatch for wrong password, ok=%v err=%v", ok, err)
	}
}

func TestPasswordHasherUsesFreshSalt(t *testing.T) {
	t.Parallel()

	hasher := testPasswordHasher()
	first, err := hasher.Hash("same-password")
	if err != nil {
		t.Fatalf("first Hash returned error: %v", err)
	}
	second, err := hasher.Hash("same-password")
	if err != nil {
		t.Fatalf("second Hash returned error: %v", err)
	}
	if first == second {
		t.Fatal("expected different salts to produce different stored hashes")
	}
}

func TestPasswordHasherRejectsMalformedHash(t *testing.T) {
	t.Parallel()

	hasher := testPasswordHasher()
	for _, stored := range []string{"", "nosalt", ".salt", "abcd.", "zz-not-hex.salt"} {
		ok, err := hasher.Compare(stored, "anything")
		if ok {
			t.Fatalf("Compare(%q) unexpectedly matched", stored)
		}
		if !errors.Is(err, ErrMalformedPasswordHash) {
			t.Fatalf("Compare(%q) error = %v, want ErrMalformedPasswordHash", stored, err)
		}
	}
}

func TestPasswordHasherShortKeyNeverMatches(t *testing.T) {
	t.Parallel()

	hasher := testPasswordHasher()
	ok, err := hasher.Compare("abcd.0011", "anything")
	if err != nil {
		t.Fatalf("Compare returned error: %v", err)
	}
	if ok {
		t.Fatal("expected a truncated key never to match")
	}
}
