package domain

import (
	"testing"
	"unicode/utf8"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{"short", "abc", 5, "abc"},
		{"ascii", "abcdef", 3, "abc"},
		{"inside two-byte rune", "aé", 2, "a"},
		{"on rune boundary", "éé", 2, "é"},
		{"inside four-byte rune", "x🍜", 3, "x"},
		{"zero", "abc", 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Truncate(tt.in, tt.n)
			if got != tt.want || !utf8.ValidString(got) {
				t.Fatalf("Truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
			}
		})
	}
}

func TestIsMalformed(t *testing.T) {
	if !IsMalformed(&ProviderError{Provider: "p", Reason: ReasonMalformedResponse}) {
		t.Fatal("malformed reason should be detected")
	}
	if IsMalformed(&ProviderError{Provider: "p", StatusCode: 503}) {
		t.Fatal("status failure is not malformed")
	}
}
