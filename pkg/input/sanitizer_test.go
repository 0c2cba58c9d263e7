package input

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitize_SizeLimit(t *testing.T) {
	s := New(16)

	_, err := s.Sanitize(strings.Repeat("a", 16))
	require.NoError(t, err)

	_, err = s.Sanitize(strings.Repeat("a", 17))
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestSanitize_ControlChars(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Services", "Services"},
		{"safe controls", "Line1\nLine2\tTabbed", "Line1\nLine2\tTabbed"},
		{"ansi escape", "\x1b[31mRed\x1b[0m", "[31mRed[0m"},
		{"null byte", "Ye\x00s", "Yes"},
	}
	s := New(0)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Sanitize(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSanitize_InvalidUTF8(t *testing.T) {
	_, err := New(0).Sanitize("\xbd\xb2\x3d\xbc")
	assert.ErrorIs(t, err, ErrInvalidUTF8)
}

func TestFromEnv(t *testing.T) {
	t.Setenv(EnvMaxSize, "10")
	assert.Equal(t, 10, FromEnv().MaxSize())

	t.Setenv(EnvMaxSize, "junk")
	assert.Equal(t, DefaultMaxSize, FromEnv().MaxSize())
}
