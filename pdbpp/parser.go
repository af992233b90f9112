package pdbpp

import (
	"regexp"
	"strconv"
	"strings"
)

// CommandToken is the result of disambiguating one input line. An empty
// Cmd means the whole line is an expression or statement to evaluate.
// Count carries the "<N><cmd>" repeat/width prefix, 0 when absent.
type CommandToken struct {
	Cmd   string
	Arg   string
	Line  string
	Count int
}

var reCountedCmd = regexp.MustCompile(`^(\d+)(\w+)$`)

func isIdentChar(c byte) bool {
	return c == '_' ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9')
}

// baselineParse is the classic tokenization: leading identifier
// characters form the command, the rest is the argument.
func baselineParse(line string) (cmd, arg, newline string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", "", line
	}
	if line[0] == '?' {
		line = "help " + line[1:]
	}
	i := 0
	for i < len(line) && isIdentChar(line[i]) {
		i++
	}
	if i == 0 {
		return "", "", line
	}
	return line[:i], strings.TrimSpace(line[i:]), line
}

// parseLine classifies one input line, preferring variable/expression
// interpretation over a same-named command ("smart command mode").
func (s *Session) parseLine(line string) CommandToken {
	if strings.HasPrefix(line, "!!") {
		// Force literal command parsing.
		cmd, arg, newline := baselineParse(line[2:])
		return CommandToken{Cmd: cmd, Arg: arg, Line: "!!" + newline}
	}

	if strings.HasSuffix(line, "?") && !strings.HasPrefix(line, "!") {
		arg := strings.SplitN(line, "?", 2)[0]
		if strings.HasSuffix(line, "??") {
			return CommandToken{Cmd: "inspect_with_source", Arg: arg, Line: line}
		}
		if arg == "" || (s.hasCommand(arg) && !s.inFrameBindings(arg)) {
			return CommandToken{Cmd: "help", Arg: arg, Line: line}
		}
		return CommandToken{Cmd: "inspect", Arg: arg, Line: line}
	}

	cmd, arg, newline := baselineParse(line)
	count := 0
	if cmd != "" {
		// Single-letter aliases followed by a quote are string
		// literals, e.g. b"x" and b 'x' are not the break command.
		if isQuotePrefixAlias(cmd) &&
			((len(newline) > 1 && (newline[1] == '\'' || newline[1] == '"')) ||
				strings.HasPrefix(arg, "'") || strings.HasPrefix(arg, `"`)) {
			return CommandToken{Line: line}
		}

		if m := reCountedCmd.FindStringSubmatch(cmd); m != nil {
			count, _ = strconv.Atoi(m[1])
			cmd = m[2]
		}

		if s.hasCommand(cmd) {
			shadowed := s.currentFrame() != nil && s.inFrameBindings(cmd) && cmd+arg == line
			if shadowed || strings.HasPrefix(arg, "=") {
				return CommandToken{Line: line}
			}
			if strings.HasPrefix(arg, "(") && (cmd == "list" || cmd == "next") {
				// Heuristic: "list(..." and "next(..." are builtin calls.
				return CommandToken{Line: line}
			}
		}
	}

	return CommandToken{Cmd: cmd, Arg: arg, Line: newline, Count: count}
}

func isQuotePrefixAlias(cmd string) bool {
	switch cmd {
	case "b", "f", "r", "u":
		return true
	}
	return false
}

func (s *Session) hasCommand(name string) bool {
	_, ok := s.commands[name]
	return ok
}

func (s *Session) inFrameBindings(name string) bool {
	f := s.currentFrame()
	if f == nil {
		return false
	}
	if _, ok := f.Locals()[name]; ok {
		return true
	}
	_, ok := f.Globals()[name]
	return ok
}
