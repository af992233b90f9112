package pdbpp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetColorWrapsPlainText(t *testing.T) {
	assert.Equal(t, "\x1b[31mhello\x1b[00m", setColor("hello", colorRed))
}

func TestSetColorExtendsExistingEscapes(t *testing.T) {
	colored := "\x1b[36mword\x1b[00m"
	got := setColor(colored, "33")
	assert.Equal(t, "\x1b[33m\x1b[36;33mword\x1b[00;33m\x1b[00m", got)
}

func TestStripEscapes(t *testing.T) {
	assert.Equal(t, "hello", stripEscapes("\x1b[31mhello\x1b[00m"))
	assert.Equal(t, "plain", stripEscapes("plain"))
}

func TestVisibleLen(t *testing.T) {
	assert.Equal(t, 5, visibleLen("\x1b[31mhello\x1b[00m"))
	assert.Equal(t, 0, visibleLen(""))
}

func TestTruncateToVisibleLengthPlain(t *testing.T) {
	assert.Equal(t, "abc", truncateToVisibleLength("abcdef", 3))
	assert.Equal(t, "abc", truncateToVisibleLength("abc", 10))
}

func TestTruncateToVisibleLengthKeepsEscapes(t *testing.T) {
	s := "\x1b[31mabcdef\x1b[00m"
	got := truncateToVisibleLength(s, 3)
	assert.Equal(t, 3, visibleLen(got))
	assert.Contains(t, got, "\x1b[31m")
	// The trailing reset survives the cut.
	assert.Contains(t, got, "\x1b[00m")
}

func TestTruncateToVisibleLengthAcrossSegments(t *testing.T) {
	s := "ab\x1b[31mcd\x1b[00mef"
	got := truncateToVisibleLength(s, 5)
	assert.Equal(t, 5, visibleLen(got))
	assert.Equal(t, "abcde", stripEscapes(got))
}
