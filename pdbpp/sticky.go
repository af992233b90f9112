package pdbpp

import (
	"fmt"
	"strings"
)

// handleCls performs the screen clear owed by sticky mode. The skip
// flag wins once over the need flag: clearing right after a breakpoint
// hit or an explicit continue/quit would destroy just-printed output.
func (s *Session) handleCls() {
	if s.stickySkipCls {
		s.stickySkipCls = false
		return
	}
	if !s.stickyNeedCls {
		return
	}
	fmt.Fprint(s.out, clearScreen)
	s.out.Flush()
	s.stickyNeedCls = false
}

// flushStickyMessages prints queued status messages when the sticky
// screen is not about to be repainted.
func (s *Session) flushStickyMessages() {
	for _, msg := range s.stickyMessages {
		fmt.Fprintln(s.out, msg)
	}
	s.stickyMessages = nil
}

// printIfSticky repaints the pinned full-source view: header line with
// status tags and hidden-frame count, a bounded source window, and a
// footer carrying the frame's exception or return value.
func (s *Session) printIfSticky() {
	if !s.sticky || len(s.stack) == 0 {
		return
	}
	s.handleCls()
	width, height := s.terminalSize()

	entry := s.currentEntry()
	frame := entry.Frame
	header := s.formatStackEntryLocation(entry)

	var topLines []string
	if len(s.stickyMessages) > 0 {
		for _, msg := range s.stickyMessages {
			if msg == "--Return--" && (s.returnValues[frame.ID()] != "" || s.excInfo[frame.ID()] != nil) {
				// Rendered in the footer instead.
				continue
			}
			if strings.HasPrefix(msg, "--") && strings.HasSuffix(msg, "--") {
				header += ", " + msg
			} else {
				topLines = append(topLines, msg)
			}
		}
		s.stickyMessages = nil
	}

	if s.config.ShowHiddenFramesCount {
		if n := len(s.hiddenFrames); n > 0 {
			header += fmt.Sprintf(", %d frame%s hidden", n, plural(n))
		}
	}
	topLines = append(topLines, header)

	var stickyRange *[2]int
	if r, ok := s.stickyRanges[frame.ID()]; ok {
		r := r
		stickyRange = &r
	}

	var afterLines []string
	if exc := s.excInfo[frame.ID()]; exc != nil {
		if line := s.formatExcForSticky(exc.Type, exc.Message, width); line != "" {
			afterLines = append(afterLines, line)
		}
	} else if rv, ok := s.returnValues[frame.ID()]; ok {
		line := " return " + rv
		if s.config.Highlight {
			line = setColor(line, s.config.LineNumberColor)
		}
		afterLines = append(afterLines, line)
	}

	topExtraLines := 0
	for _, line := range topLines {
		fmt.Fprintln(s.out, line)
		topExtraLines += (visibleLen(line)-1)/width + 2
	}
	fmt.Fprintln(s.out)

	// Budget for prompt, the header block and the footer, keeping one
	// blank line after the prompt so output lands at the top.
	maxLines := height - topExtraLines - len(afterLines) - 2

	s.printLongList(stickyRange, maxLines)

	for _, line := range afterLines {
		fmt.Fprintln(s.out, line)
	}
	s.stickyNeedCls = true
}

// formatExcForSticky renders an exception as a single footer line,
// bounded to the terminal width.
func (s *Session) formatExcForSticky(excType, excValue string, width int) string {
	line := excType
	if excValue != "" {
		line += ": " + excValue
	}
	line = strings.ReplaceAll(line, "\r", `\r`)
	line = strings.ReplaceAll(line, "\n", `\n`)
	if len(line) > width && width > 1 {
		line = line[:width-1] + "…"
	}
	if s.config.Highlight {
		line = setColor(line, s.config.LineNumberColor)
	}
	return line
}

func plural(n int) string {
	if n > 1 {
		return "s"
	}
	return ""
}
