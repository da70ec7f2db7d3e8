package utils

import (
	"strings"
	"testing"
)

func TestGenerateTenantID_Unique(t *testing.T) {
	a := GenerateTenantID()
	b := GenerateTenantID()
	if a == b {
		t.Error("GenerateTenantID() returned duplicate values")
	}
	if len(a) != 36 {
		t.Errorf("GenerateTenantID() length = %d, want 36 (uuid)", len(a))
	}
}

func TestGenerateEventID_Prefix(t *testing.T) {
	id := GenerateEventID()
	if !strings.HasPrefix(id, "evt_") {
		t.Errorf("GenerateEventID() = %v, want evt_ prefix", id)
	}
	if id == GenerateEventID() {
		t.Error("GenerateEventID() returned duplicate values")
	}
}

func TestGenerateSecret_HexLength(t *testing.T) {
	s := GenerateSecret()
	if len(s) != 64 {
		t.Errorf("GenerateSecret() length = %d, want 64", len(s))
	}
}

func TestTrimBaseURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"http://mc.example.com/", "http://mc.example.com"},
		{"http://mc.example.com///", "http://mc.example.com"},
		{"  http://mc.example.com ", "http://mc.example.com"},
		{"http://mc.example.com", "http://mc.example.com"},
	}
	for _, tt := range tests {
		if got := TrimBaseURL(tt.in); got != tt.want {
			t.Errorf("TrimBaseURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("abcdef", 3); got != "abc..." {
		t.Errorf("Truncate() = %q, want abc...", got)
	}
	if got := Truncate("ab", 3); got != "ab" {
		t.Errorf("Truncate() = %q, want ab", got)
	}
}
