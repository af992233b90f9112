package highlight

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHighlightAddsEscapes(t *testing.T) {
	h := New("python", "monokai")
	got := h.Highlight("def f():\n    return 1")
	assert.Contains(t, got, "\x1b[")
	assert.Contains(t, stripANSI(got), "def f():")
}

func TestHighlightPreservesLineCount(t *testing.T) {
	h := New("python", "monokai")
	source := "a = 1\nb = 2\nc = 3"
	got := h.Highlight(source)
	assert.Equal(t, len(strings.Split(source, "\n")), len(strings.Split(got, "\n")))
}

func TestHighlightUnknownLanguageFallsBack(t *testing.T) {
	h := New("no-such-language", "monokai")
	got := h.Highlight("plain text")
	assert.Contains(t, stripANSI(got), "plain text")
}

func TestHighlightUnknownStyleFallsBack(t *testing.T) {
	h := New("python", "no-such-style")
	assert.NotNil(t, h)
	assert.NotEmpty(t, h.Highlight("x = 1"))
}

func TestFormatterForTerm(t *testing.T) {
	assert.NotNil(t, formatterForTerm("xterm-kitty"))
	assert.NotNil(t, formatterForTerm("xterm-256color"))
	assert.NotNil(t, formatterForTerm("dumb"))
}

func stripANSI(s string) string {
	var b strings.Builder
	inEscape := false
	for _, r := range s {
		switch {
		case inEscape:
			if r == 'm' {
				inEscape = false
			}
		case r == '\x1b':
			inEscape = true
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
