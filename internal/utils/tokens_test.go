package utils

import (
	"regexp"
	"testing"
)

func TestNewResetTokenIsHex(t *testing.T) {
	token, err := NewResetToken(32)
	if err != nil {
		t.Fatalf("NewResetToken failed: %v", err)
	}
	if len(token) != 64 {
		t.Fatalf("expected 64 hex chars for 32 bytes, got %d", len(token))
	}
	if !regexp.MustCompile(`^[0-9a-f]+$`).MatchString(token) {
		t.Fatalf("token is not lowercase hex: %q", token)
	}

	other, err := NewResetToken(32)
	if err != nil {
		t.Fatalf("NewResetToken failed: %v", err)
	}
	if token == other {
		t.Fatal("two tokens must not collide")
	}
}

func TestNewVerificationCodeRange(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := NewVerificationCode()
		if err != nil {
			t.Fatalf("NewVerificationCode failed: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("expected 6 digits, got %q", code)
		}
		if code[0] == '0' {
			t.Fatalf("code below 100000: %q", code)
		}
	}
}

func TestNormalizeEmail(t *testing.T) {
	cases := map[string]string{
		"  A@X.com ":    "a@x.com",
		"ann@x.com":     "ann@x.com",
		"\tANN@X.COM\n": "ann@x.com",
	}
	for in, want := range cases {
		if got := NormalizeEmail(in); got != want {
			t.Fatalf("NormalizeEmail(%q) = %q, want %q", in, got, want)
		}
	}
}
