// Package validator checks user input before it enters a conversation.
package validator

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxInputLength is the largest accepted query, in bytes.
const MaxInputLength = 2000

var (
	ErrEmptyInput   = errors.New("query is empty")
	ErrInputTooLong = errors.New("query too long")
	ErrInvalidUTF8  = errors.New("invalid UTF-8 encoding")
)

// spaceRegexp is compiled once at package init and reused across all Sanitize calls.
var spaceRegexp = regexp.MustCompile(`\s+`)

type InputValidator struct {
	maxLength int
}

func NewInputValidator() *InputValidator {
	return &InputValidator{maxLength: MaxInputLength}
}

// Validate rejects blank, oversized or malformed input.
func (v *InputValidator) Validate(query string) error {
	if !utf8.ValidString(query) {
		return ErrInvalidUTF8
	}

	if strings.TrimSpace(query) == "" {
		return ErrEmptyInput
	}

	if len(query) > v.maxLength {
		return fmt.Errorf("%w: maximum %d characters", ErrInputTooLong, v.maxLength)
	}

	return nil
}

func (v *InputValidator) Sanitize(query string) string {
	query = strings.TrimSpace(query)
	query = spaceRegexp.ReplaceAllString(query, " ")
	return query
}

// Clean validates and sanitizes in one step.
func (v *InputValidator) Clean(query string) (string, error) {
	if err := v.Validate(query); err != nil {
		return "", err
	}
	return v.Sanitize(query), nil
}
