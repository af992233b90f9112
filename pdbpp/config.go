package pdbpp

import (
	"os"
	"regexp"
)

// Config holds the recognized session options.
type Config struct {
	// Prompt text. A "++" marker is always enforced, see ensurePrompt.
	Prompt string
	// Highlight enables ANSI decorations for line numbers, file names
	// and the current-line marker. Source colorization additionally
	// requires a Highlighter collaborator.
	Highlight bool
	// StickyByDefault starts sessions in sticky mode.
	StickyByDefault bool
	// Editor command template. "{filename}"-style or "%s"/"%d"
	// placeholders; autodetected from $EDITOR when empty.
	Editor string
	// TruncateLongLines cuts source lines at terminal width.
	TruncateLongLines bool
	// Encodings tried, in order, when decoding source files.
	Encodings []string

	EnableHiddenFrames    bool
	ShowHiddenFramesCount bool
	// SkipPatterns hide frames whose function name matches.
	SkipPatterns []string

	LineNumberColor  string
	FilenameColor    string
	CurrentLineColor string

	// ShowTracebackOnError prints evaluation failure details after the
	// one-line summary, at most ShowTracebackOnErrorLimit lines (0 for
	// no limit).
	ShowTracebackOnError      bool
	ShowTracebackOnErrorLimit int
}

func DefaultConfig() *Config {
	c := &Config{
		Prompt:                "(Pdb++) ",
		Highlight:             true,
		TruncateLongLines:     true,
		Encodings:             []string{"utf-8", "latin-1"},
		EnableHiddenFrames:    true,
		ShowHiddenFramesCount: true,
		LineNumberColor:       colorTurquoise,
		FilenameColor:         colorYellow,
		CurrentLineColor:      "39;49;7",
		ShowTracebackOnError:  true,
	}
	if v, ok := os.LookupEnv("PDBPP_COLORS"); ok {
		c.Highlight = v != "0"
	}
	return c
}

var rePromptWord = regexp.MustCompile(`^(.*\w)(\s*\W\s*)?$`)

// ensurePrompt rewrites value so that it always contains "++".
func ensurePrompt(value string) string {
	if !containsPlusPlus(value) {
		if m := rePromptWord.FindStringSubmatch(value); m != nil {
			value = m[1] + "++" + m[2]
		}
	}
	return value
}

func containsPlusPlus(s string) bool {
	for i := 0; i+1 < len(s); i++ {
		if s[i] == '+' && s[i+1] == '+' {
			return true
		}
	}
	return false
}
