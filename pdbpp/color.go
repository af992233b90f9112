package pdbpp

import (
	"regexp"
	"strings"
)

const (
	colorTurquoise = "36"
	colorYellow    = "33"
	colorRed       = "31"
)

// clearScreen moves the cursor home after clearing.
const clearScreen = "\033[2J\033[1;1H"

var (
	reColorEscapes  = regexp.MustCompile(`(?:\x1b\[[^m]*m)+`)
	reEscapePrefix  = regexp.MustCompile(`(\x1b\[.*?)m`)
	reCompleterSeqs = regexp.MustCompile(`\x1b\[[\d;]+m`)
)

// setColor wraps line in the given color, adding the color to every
// escape sequence already present so highlighted text keeps it too.
func setColor(line, color string) string {
	set := "\x1b[" + color + "m"
	result := reEscapePrefix.ReplaceAllString(line, "${1};"+color+"m")
	return set + result + "\x1b[00m"
}

func stripEscapes(s string) string {
	return reColorEscapes.ReplaceAllString(s, "")
}

func visibleLen(s string) int {
	return len(stripEscapes(s))
}

// truncateToVisibleLength cuts s to maxLength visible characters,
// keeping escape sequences intact and preserving a trailing reset.
func truncateToVisibleLength(s string, maxLength int) string {
	matches := reColorEscapes.FindAllStringIndex(s, -1)
	if matches == nil {
		if len(s) <= maxLength {
			return s
		}
		return s[:maxLength]
	}

	var b strings.Builder
	visible := 0
	pos := 0
	done := false
	for _, m := range matches {
		seg := s[pos:m[0]]
		if visible+len(seg) >= maxLength {
			b.WriteString(seg[:maxLength-visible])
			b.WriteString(s[m[0]:m[1]])
			visible = maxLength
			done = true
			pos = m[1]
			break
		}
		visible += len(seg)
		b.WriteString(seg)
		b.WriteString(s[m[0]:m[1]])
		pos = m[1]
	}
	if !done {
		rest := s[pos:]
		if len(rest) > maxLength-visible {
			rest = rest[:maxLength-visible]
		}
		b.WriteString(rest)
	}

	ret := b.String()
	if len(ret) != len(s) {
		// Keep the reset sequence when it ended the original line.
		last := matches[len(matches)-1]
		if last[1] == len(s) {
			reset := s[last[0]:last[1]]
			if !strings.HasSuffix(ret, reset) {
				ret += reset
			}
		}
	}
	return ret
}
