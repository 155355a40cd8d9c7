package auth

import (
	"strings"
	"testing"
)

func TestHashPasswordAndCheckPasswordBcrypt(t *testing.T) {
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if !strings.HasPrefix(hash, "$2a$10$") {
		t.Fatalf("expected bcrypt cost 10 hash, got %q", hash)
	}
	if !CheckPassword("s3cret", hash) {
		t.Fatalf("expected bcrypt password check to pass")
	}
	if CheckPassword("wrong", hash) {
		t.Fatalf("expected bcrypt password check to fail")
	}
}

func TestHashPasswordIsSalted(t *testing.T) {
	a, err := HashPassword("same")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	b, err := HashPassword("same")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if a == b {
		t.Fatalf("expected different salts to produce different hashes")
	}
}

func TestCheckPasswordRejectsGarbage(t *testing.T) {
	if CheckPassword("x", "") {
		t.Fatal("empty hash must not match")
	}
	if CheckPassword("x", "not-a-bcrypt-hash") {
		t.Fatal("malformed hash must not match")
	}
	if BurnPasswordCheck("anything") {
		t.Fatal("dummy check must never succeed")
	}
}
