package pdbpp

import (
	"os"
	"strings"
	"unicode/utf8"
)

// lineCache caches source files by path for the lifetime of a session,
// so stepping through a function does not re-read it on every render.
type lineCache struct {
	files     map[string][]string
	encodings []string
}

func newLineCache(encodings []string) *lineCache {
	return &lineCache{
		files:     make(map[string][]string),
		encodings: encodings,
	}
}

func (c *lineCache) Lines(path string) ([]string, error) {
	if lines, ok := c.files[path]; ok {
		return lines, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	text := c.decode(data)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	c.files[path] = lines
	return lines, nil
}

// Line returns the 1-based line n, or "" when unavailable.
func (c *lineCache) Line(path string, n int) string {
	lines, err := c.Lines(path)
	if err != nil || n < 1 || n > len(lines) {
		return ""
	}
	return lines[n-1]
}

func (c *lineCache) Invalidate() {
	c.files = make(map[string][]string)
}

// decode tries the configured encodings in order. Only utf-8 and
// latin-1 are meaningful here: latin-1 never fails and maps bytes to
// code points one to one.
func (c *lineCache) decode(data []byte) string {
	for _, enc := range c.encodings {
		switch strings.ToLower(enc) {
		case "utf-8", "utf8":
			if utf8.Valid(data) {
				return string(data)
			}
		case "latin-1", "latin1", "iso-8859-1":
			runes := make([]rune, len(data))
			for i, b := range data {
				runes[i] = rune(b)
			}
			return string(runes)
		}
	}
	return string(data)
}
