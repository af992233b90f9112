package pdbpp

import (
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// TermReader reads command lines from a terminal with line editing and
// tab completion. It satisfies debugger.LineReader.
type TermReader struct {
	fd       int
	isTerm   bool
	term     *term.Terminal
	complete func(text string, state int) (string, bool)
}

// NewTermReader builds a reader over the given streams, typically
// os.Stdin and os.Stdout. Raw mode is only used when in is a terminal,
// so piped input keeps working.
func NewTermReader(in, out *os.File) *TermReader {
	rw := struct {
		io.Reader
		io.Writer
	}{in, out}
	r := &TermReader{
		fd:     int(in.Fd()),
		isTerm: term.IsTerminal(int(in.Fd())),
		term:   term.NewTerminal(rw, ""),
	}
	r.term.AutoCompleteCallback = r.autoComplete
	return r
}

func (r *TermReader) ReadLine(prompt string) (string, error) {
	r.term.SetPrompt(prompt)
	if r.isTerm {
		old, err := term.MakeRaw(r.fd)
		if err == nil {
			defer term.Restore(r.fd, old)
		}
	}
	return r.term.ReadLine()
}

func (r *TermReader) SetCompleter(complete func(text string, state int) (string, bool)) {
	r.complete = complete
}

func isCompletionChar(c byte) bool {
	return c == '_' || c == '.' ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9')
}

// autoComplete handles the tab key: a unique candidate is inserted,
// several candidates extend to their common prefix or get listed.
func (r *TermReader) autoComplete(line string, pos int, key rune) (string, int, bool) {
	if key != '\t' || r.complete == nil || pos > len(line) {
		return "", 0, false
	}
	start := pos
	for start > 0 && isCompletionChar(line[start-1]) {
		start--
	}
	text := line[start:pos]

	var candidates []string
	for i := 0; ; i++ {
		c, ok := r.complete(text, i)
		if !ok {
			break
		}
		candidates = append(candidates, c)
	}
	if len(candidates) == 0 {
		return "", 0, false
	}

	clean := make([]string, len(candidates))
	for i, c := range candidates {
		clean[i] = stripEscapes(c)
	}

	if len(candidates) == 1 {
		c := clean[0]
		if c == fillerCandidate {
			c = "    "
		}
		newLine := line[:start] + c + line[pos:]
		return newLine, start + len(c), true
	}

	if prefix := commonPrefix(clean); len(prefix) > len(text) {
		newLine := line[:start] + prefix + line[pos:]
		return newLine, start + len(prefix), true
	}

	r.term.Write([]byte(strings.Join(candidates, "  ") + "\r\n"))
	return "", 0, false
}
