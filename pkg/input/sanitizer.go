// Package input cleans user turns before they reach the conversation layer.
package input

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultMaxSize is the byte limit applied when none is configured.
const DefaultMaxSize = 4096

// EnvMaxSize overrides the limit of sanitizers built with FromEnv.
const EnvMaxSize = "PRESSLINE_MAX_INPUT_SIZE"

var (
	ErrTooLarge    = errors.New("input exceeds maximum allowed size")
	ErrInvalidUTF8 = errors.New("input contains invalid UTF-8 sequences")
)

// Sanitizer enforces a size limit, validates UTF-8 and strips control
// characters other than newline, tab and carriage return.
type Sanitizer struct {
	maxSize int
}

// New returns a sanitizer limited to maxSize bytes. Non-positive sizes
// select DefaultMaxSize.
func New(maxSize int) *Sanitizer {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &Sanitizer{maxSize: maxSize}
}

// FromEnv returns a sanitizer limited by EnvMaxSize, else DefaultMaxSize.
func FromEnv() *Sanitizer {
	if val := os.Getenv(EnvMaxSize); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			return New(size)
		}
	}
	return New(DefaultMaxSize)
}

// MaxSize returns the byte limit.
func (s *Sanitizer) MaxSize() int {
	return s.maxSize
}

// Sanitize returns the cleaned input. Oversized input is rejected, never
// truncated, so a turn is either applied whole or not at all.
func (s *Sanitizer) Sanitize(in string) (string, error) {
	if len(in) > s.maxSize {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrTooLarge, len(in), s.maxSize)
	}
	if !utf8.ValidString(in) {
		return "", ErrInvalidUTF8
	}

	clean := true
	for _, r := range in {
		if unicode.IsControl(r) && !isSafeControl(r) {
			clean = false
			break
		}
	}
	if clean {
		return in, nil
	}

	var b strings.Builder
	b.Grow(len(in))
	for _, r := range in {
		if !unicode.IsControl(r) || isSafeControl(r) {
			b.WriteRune(r)
		}
	}
	return b.String(), nil
}

func isSafeControl(r rune) bool {
	return r == '\n' || r == '\t' || r == '\r'
}
