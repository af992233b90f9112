// Package highlight colorizes source text for terminal display.
package highlight

import (
	"os"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/sirupsen/logrus"
)

// Highlighter renders source text with ANSI colors. The zero value is
// not usable, use New.
type Highlighter struct {
	lexer     chroma.Lexer
	formatter chroma.Formatter
	style     *chroma.Style
}

// New builds a highlighter for the given language ("python", "go",
// ...) and style name. Unknown languages fall back to analysis-based
// detection, unknown styles to the default one. The ANSI profile is
// picked from $TERM.
func New(language, styleName string) *Highlighter {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := styles.Get(styleName)
	if style == nil {
		style = styles.Fallback
	}

	return &Highlighter{
		lexer:     lexer,
		formatter: formatterForTerm(os.Getenv("TERM")),
		style:     style,
	}
}

func formatterForTerm(termName string) chroma.Formatter {
	switch {
	case termName == "xterm-kitty" || strings.Contains(termName, "truecolor"):
		return formatters.Get("terminal16m")
	case strings.Contains(termName, "256color"):
		return formatters.Get("terminal256")
	default:
		return formatters.Get("terminal")
	}
}

// Highlight colorizes source. Any failure degrades to the plain text.
func (h *Highlighter) Highlight(source string) string {
	iterator, err := h.lexer.Tokenise(nil, source)
	if err != nil {
		logrus.WithError(err).Debug("tokenise failed")
		return source
	}
	var b strings.Builder
	if err := h.formatter.Format(&b, h.style, iterator); err != nil {
		logrus.WithError(err).Debug("format failed")
		return source
	}
	// The formatter appends a trailing newline the caller did not ask
	// for.
	out := b.String()
	if !strings.HasSuffix(source, "\n") {
		out = strings.TrimSuffix(out, "\n")
	}
	return out
}
