package pdbpp

import (
	"fmt"
	"regexp"
	"strings"

	e "github.com/bretello/pdbpp/error"
)

// minListingLines is the smallest window the long-listing ever uses.
const minListingLines = 6

// numberedLine is one output line of the listing window. No is 0 for
// ellipsis lines inserted at a cut boundary.
type numberedLine struct {
	No   int
	Text string
}

var (
	reDecoratorHead = regexp.MustCompile(`^(?:\x1b\[[^m]*m|\s)*@`)
	reLambdaHead    = regexp.MustCompile(`(?:^|[^0-9A-Za-z_])lambda(?::|\s|\x1b\[[^m]*m)`)
)

func isKeepHeadLine(line string) bool {
	return reDecoratorHead.MatchString(line) || reLambdaHead.MatchString(line)
}

// cutLines bounds lines to maxLines of output, keeping a short header
// run (decorators or a lambda) and placing the current-line marker
// within the first two thirds of the window. curLine and excLine are
// absolute line numbers; lineno is the number of lines[0]. maxLines <=
// 0 means unbounded; the effective window never drops below
// minListingLines.
func cutLines(lines []string, lineno, maxLines, curLine, excLine int) []numberedLine {
	if maxLines <= 0 {
		maxLines = len(lines)
	}
	if maxLines < minListingLines {
		maxLines = minListingLines
	}

	out := make([]numberedLine, 0, maxLines+2)
	if len(lines) <= maxLines {
		for i, line := range lines {
			out = append(out, numberedLine{lineno + i, line})
		}
		return out
	}

	cutoff := len(lines) - maxLines

	// Keep decorator/lambda header lines; functions themselves are
	// already shown at the top via the stack entry.
	keepHead := 0
	for keepHead < len(lines) && isKeepHeadLine(lines[keepHead]) {
		keepHead++
	}
	if keepHead > 3 {
		out = append(out,
			numberedLine{lineno, lines[0]},
			numberedLine{0, "..."},
			numberedLine{lineno + keepHead - 1, lines[keepHead-1]})
		cutoff -= keepHead - 3
	} else {
		for i := 0; i < keepHead; i++ {
			out = append(out, numberedLine{lineno + i, lines[i]})
		}
	}

	lastMarkerLine := curLine
	if excLine > lastMarkerLine {
		lastMarkerLine = excLine
	}
	lastMarkerLine -= lineno

	// Place the marker in the first two thirds of the window.
	cutBefore := lastMarkerLine - maxLines + maxLines/3*2
	if cutBefore < 0 {
		cutBefore = 0
	}
	if cutBefore > cutoff {
		cutBefore = cutoff
	}
	cutAfter := cutoff - cutBefore

	// Adjust for the "..." lines that replace a cut.
	if cutAfter > 0 {
		cutAfter++
	}
	if cutBefore > 0 {
		cutBefore++
	}

	for i := keepHead; i < len(lines); i++ {
		if cutBefore > 0 {
			cutBefore--
			if cutBefore == 0 {
				out = append(out, numberedLine{0, "..."})
			}
			continue
		}
		if cutAfter > 0 && i >= len(lines)-cutAfter {
			out = append(out, numberedLine{0, "..."})
			break
		}
		out = append(out, numberedLine{lineno + i, lines[i]})
	}
	return out
}

// formatLine renders one numbered source line with its marker column.
func (s *Session) formatLine(lineno int, marker, line string, linenoWidth int) string {
	num := fmt.Sprintf("%*d", linenoWidth, lineno)
	if s.config.Highlight {
		num = setColor(num, s.config.LineNumberColor)
	}
	return fmt.Sprintf("%s  %2s %s", num, marker, line)
}

// sourceForFrame returns the source lines of the current frame's
// function and the number of the first one. Frames that expose their
// function bounds get a function listing, others fall back to the whole
// file.
func (s *Session) sourceForFrame() ([]string, int, error) {
	f := s.currentFrame()
	if f == nil {
		return nil, 0, e.ErrNoSourceAvailable
	}
	lines, err := s.lines.Lines(f.File())
	if err != nil {
		return nil, 0, err
	}
	if b, ok := f.(interface{ FuncBounds() (int, int) }); ok {
		start, end := b.FuncBounds()
		if start >= 1 && end >= start && end <= len(lines) {
			return lines[start-1 : end], start, nil
		}
	}
	return lines, 1, nil
}

// printLongList shows the source of the current function, bounded to
// maxLines when positive and to linerange when non-nil.
func (s *Session) printLongList(linerange *[2]int, maxLines int) {
	lines, lineno, err := s.sourceForFrame()
	if err != nil {
		fmt.Fprintf(s.out, "** Error: %s **\n", err)
		return
	}
	if linerange != nil {
		start, end := linerange[0], linerange[1]
		if start < lineno {
			start = lineno
		}
		if end > lineno+len(lines) {
			end = lineno + len(lines)
		}
		if start > end {
			return
		}
		lines = lines[start-lineno : end-lineno]
		lineno = start
	}
	s.printLines(lines, lineno, true, maxLines)
}

// printLines renders source lines with line numbers, optionally with
// current-line and exception markers and a line budget.
func (s *Session) printLines(lines []string, lineno int, printMarkers bool, maxLines int) {
	expanded := make([]string, len(lines))
	for i, line := range lines {
		expanded[i] = strings.ReplaceAll(strings.TrimRight(line, "\n"), "\t", "    ")
	}
	lines = expanded
	width, _ := s.terminalSize()

	if s.highlighter != nil {
		lines = strings.Split(s.formatSource(strings.Join(lines, "\n")), "\n")
	}

	if s.config.TruncateLongLines {
		maxLength := width - 9
		if maxLength < 16 {
			maxLength = 16
		}
		for i, line := range lines {
			lines[i] = truncateToVisibleLength(line, maxLength)
		}
	}

	linenoWidth := len(fmt.Sprint(lineno + len(lines) - 1))
	frame := s.currentFrame()
	curLine, excLine := 0, 0
	if frame != nil {
		curLine = frame.Line()
		excLine = s.tbLineno[frame.ID()]
	}

	var rendered []string
	if printMarkers {
		setBg := s.config.Highlight && s.config.CurrentLineColor != ""
		for _, nl := range cutLines(lines, lineno, maxLines, curLine, excLine) {
			if nl.No == 0 {
				rendered = append(rendered, nl.Text)
				continue
			}
			marker := ""
			switch nl.No {
			case curLine:
				marker = "->"
			case excLine:
				marker = ">>"
			}
			line := s.formatLine(nl.No, marker, nl.Text, linenoWidth)
			if marker == "->" && setBg {
				line += strings.Repeat(" ", max(0, width-visibleLen(line)))
				line = setColor(line, s.config.CurrentLineColor)
			}
			rendered = append(rendered, line)
		}
	} else {
		for i, line := range lines {
			rendered = append(rendered, s.formatLine(lineno+i, "", line, linenoWidth))
		}
	}
	fmt.Fprintln(s.out, strings.Join(rendered, "\n"))
}

// formatSource colorizes source text through the highlighter, keeping
// the text unchanged when highlighting fails or is disabled.
func (s *Session) formatSource(src string) string {
	if s.highlighter == nil {
		return src
	}
	return s.highlighter.Highlight(src)
}
