package logging

import (
	"errors"
	"strings"
	"testing"
)

func TestSanitizeError(t *testing.T) {
	tests := []struct {
		name     string
		input    error
		expected string
	}{
		{
			name:     "nil error",
			input:    nil,
			expected: "",
		},
		{
			name:     "api key in URL",
			input:    errors.New("POST https://generativelanguage.googleapis.com/v1beta/models/x:generateContent?key=AIzaSyA1234567890abcdefghij failed"),
			expected: "POST https://generativelanguage.googleapis.com/v1beta/models/x:generateContent?key=[REDACTED] failed",
		},
		{
			name:     "bearer token",
			input:    errors.New("request rejected: Bearer sk-proj-abcdef123456"),
			expected: "request rejected: Bearer [REDACTED]",
		},
		{
			name:     "no sensitive data",
			input:    errors.New("connection refused"),
			expected: "connection refused",
		},
		{
			name:     "short key not matched",
			input:    errors.New("key=short"),
			expected: "key=short",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeError(tt.input); got != tt.expected {
				t.Errorf("SanitizeError() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestSanitizeQuery(t *testing.T) {
	short := "SELECT AVG(price) FROM products"
	if got := SanitizeQuery(short); got != short {
		t.Errorf("short query should be unchanged, got %q", got)
	}

	long := strings.Repeat("x", MaxQueryLogLength+1)
	got := SanitizeQuery(long)
	if len(got) != MaxQueryLogLength+3 || !strings.HasSuffix(got, "...") {
		t.Errorf("long query should be truncated with ellipsis, got len %d", len(got))
	}
}
