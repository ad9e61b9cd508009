package validator

import (
	"errors"
	"strings"
	"testing"
)

func TestValidate(t *testing.T) {
	v := NewInputValidator()

	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"short question", "hi", nil},
		{"single char", "?", nil},
		{"empty", "", ErrEmptyInput},
		{"whitespace", " \t\n ", ErrEmptyInput},
		{"at limit", strings.Repeat("a", MaxInputLength), nil},
		{"over limit", strings.Repeat("a", MaxInputLength+1), ErrInputTooLong},
		{"bad utf8", "caf\xe9", ErrInvalidUTF8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.input)
			if tt.want == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestSanitize(t *testing.T) {
	v := NewInputValidator()
	if got := v.Sanitize("  who won\n\n the   2024  Nobel?  "); got != "who won the 2024 Nobel?" {
		t.Fatalf("unexpected sanitized text %q", got)
	}
}

func TestClean(t *testing.T) {
	v := NewInputValidator()
	if _, err := v.Clean("   "); !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("expected empty error, got %v", err)
	}
	got, err := v.Clean(" a  b ")
	if err != nil || got != "a b" {
		t.Fatalf("got %q, %v", got, err)
	}
}
