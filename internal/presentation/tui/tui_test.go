package tui

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRenderer_Plain(t *testing.T) {
	render := NewRenderer(false)
	assert.Equal(t, "**bold**", render("**bold**"))
}

func TestNewRenderer_Rich(t *testing.T) {
	render := NewRenderer(true)
	out := render("Hello **there**")
	assert.Contains(t, out, "Hello")
	assert.Contains(t, out, "there")
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf, "v1.0.0")
	assert.Contains(t, buf.String(), "v1.0.0")
}
