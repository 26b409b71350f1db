package util

import "testing"

func TestSecureCompare(t *testing.T) {
	if !SecureCompare("s3cret", "s3cret") {
		t.Error("equal tokens should match")
	}
	if SecureCompare("s3cret", "other") {
		t.Error("different tokens should not match")
	}
	if SecureCompare("", "") {
		t.Error("empty tokens must never match")
	}
	if SecureCompare("", "s3cret") || SecureCompare("s3cret", "") {
		t.Error("empty side must never match")
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Bearer abc123", "abc123"},
		{"bearer abc123", "abc123"},
		{"BEARER  abc123 ", "abc123"},
		{"Basic abc123", ""},
		{"Bearer", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := BearerToken(tt.in); got != tt.want {
			t.Errorf("BearerToken(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
