package auth

import (
	"context"
	"errors"
	"strings"
	"testing"

	"catgallery/pkg/domain"
)

func TestCookieSignerRoundTrip(t *testing.T) {
	s, err := NewCookieSigner("session-secret")
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	signed := s.Sign("abc-123")
	if !strings.HasPrefix(signed, "s%3Aabc-123.") {
		t.Fatalf("unexpected signed form %q", signed)
	}
	got, err := s.Unsign(signed)
	if err != nil {
		t.Fatalf("unsign: %v", err)
	}
	if got != "abc-123" {
		t.Fatalf("value = %q", got)
	}
}

func TestCookieSignerRejectsTampering(t *testing.T) {
	s, _ := NewCookieSigner("session-secret")
	other, _ := NewCookieSigner("other-secret")

	cases := map[string]string{
		"foreign secret": other.Sign("abc"),
		"unsigned":       "abc",
		"no mac":         "s%3Aabc",
		"swapped value":  strings.Replace(s.Sign("abc"), "abc", "abd", 1),
		"bad escape":     "s%3Aabc.%zz",
	}
	for name, raw := range cases {
		if _, err := s.Unsign(raw); !errors.Is(err, ErrBadSignature) {
			t.Fatalf("%s: expected ErrBadSignature, got %v", name, err)
		}
	}
}

func TestIdentityContext(t *testing.T) {
	if _, ok := IdentityFromContext(context.Background()); ok {
		t.Fatal("expected no identity on empty context")
	}
	want := domain.PublicUser{ID: 3, Username: "tom", Email: "tom@example.com"}
	got, ok := IdentityFromContext(ContextWithIdentity(context.Background(), want))
	if !ok || got != want {
		t.Fatalf("identity = %+v ok=%v", got, ok)
	}
}
