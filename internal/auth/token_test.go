package auth

import (
	"errors"
	"testing"
	"time"
)

func TestGenerateAndValidatePanelToken(t *testing.T) {
	sec := "secret123"
	exp := time.Now().Add(5 * time.Minute)

	tok, err := GeneratePanelToken(sec, "panel", exp)
	if err != nil {
		t.Fatalf("gen: %v", err)
	}
	sub, err := ValidatePanelToken(sec, tok, time.Now(), time.Minute)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if sub != "panel" {
		t.Fatalf("subject = %q", sub)
	}
}

func TestBadSignature(t *testing.T) {
	tok, _ := GeneratePanelToken("secret123", "panel", time.Now().Add(5*time.Minute))
	if _, err := ValidatePanelToken("other", tok, time.Now(), time.Minute); !errors.Is(err, ErrTokenSig) {
		t.Fatalf("expected signature error, got %v", err)
	}
	if tok[0] == 'A' {
		tok = "B" + tok[1:]
	} else {
		tok = "A" + tok[1:]
	}
	if _, err := ValidatePanelToken("secret123", tok, time.Now(), time.Minute); err == nil {
		t.Fatalf("expected error for tampered token")
	}
}

func TestExpiryWithSkew(t *testing.T) {
	exp := time.Now().Add(-30 * time.Second)
	tok, _ := GeneratePanelToken("s", "panel", exp)
	if _, err := ValidatePanelToken("s", tok, time.Now(), time.Minute); err != nil {
		t.Fatalf("within skew should pass: %v", err)
	}
	if _, err := ValidatePanelToken("s", tok, time.Now(), 0); !errors.Is(err, ErrTokenExp) {
		t.Fatalf("expected expiry, got %v", err)
	}
}

func TestNoSecretAndFormat(t *testing.T) {
	if _, err := GeneratePanelToken("", "panel", time.Now()); !errors.Is(err, ErrNoSecret) {
		t.Fatalf("expected ErrNoSecret, got %v", err)
	}
	if _, err := GeneratePanelToken("s", "a.b", time.Now()); !errors.Is(err, ErrTokenFormat) {
		t.Fatalf("dotted subject should be rejected, got %v", err)
	}
	if _, err := ValidatePanelToken("s", "!!!", time.Now(), 0); !errors.Is(err, ErrTokenFormat) {
		t.Fatalf("expected format error, got %v", err)
	}
}
