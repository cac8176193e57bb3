package utils

import (
	"strings"
	"testing"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Fresh Kicks", "fresh-kicks"},
		{"Ada's Fashion House!", "ada-s-fashion-house"},
		{"  padded  ", "padded"},
		{"UPPER case 123", "upper-case-123"},
		{"multi---dash___name", "multi-dash-name"},
		{"émile's café", "émile-s-café"},
	}
	for _, tt := range tests {
		if got := Slugify(tt.in); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSlugifyFallsBackWhenEmpty(t *testing.T) {
	for _, in := range []string{"", "!!!", "   ", "---"} {
		got := Slugify(in)
		if !strings.HasPrefix(got, "store-") {
			t.Errorf("Slugify(%q) = %q, want timestamped fallback", in, got)
		}
	}
}

func TestGenerateToken(t *testing.T) {
	a, err := GenerateToken(32)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(a) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(a))
	}
	b, err := GenerateToken(32)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if a == b {
		t.Fatal("tokens must not repeat")
	}
}

func TestGenerateNumericCode(t *testing.T) {
	code, err := GenerateNumericCode(6)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(code) != 6 {
		t.Fatalf("expected 6 digits, got %q", code)
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			t.Fatalf("non-digit in code %q", code)
		}
	}
}
