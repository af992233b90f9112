package pdbpp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func parserSession(locals map[string]string) *Session {
	s, _ := newTestSession(&fakeTracer{}, &scriptReader{})
	frame := newFakeFrame("f1", "work", 3)
	frame.locals = locals
	s.selectStack(entryOf(frame), 0)
	return s
}

func TestParseLinePlainCommand(t *testing.T) {
	s := parserSession(nil)
	tok := s.parseLine("next")
	assert.Equal(t, "next", tok.Cmd)
	assert.Equal(t, "", tok.Arg)
}

func TestParseLineVariableShadowsCommand(t *testing.T) {
	// "r" names a variable here, so it must be evaluated, not run the
	// return command.
	s := parserSession(map[string]string{"r": "42"})
	tok := s.parseLine("r")
	assert.Equal(t, "", tok.Cmd)
	assert.Equal(t, "r", tok.Line)
}

func TestParseLineCommandWithArgumentNotShadowed(t *testing.T) {
	// With an argument the command interpretation wins even though a
	// same-named variable exists.
	s := parserSession(map[string]string{"b": "1"})
	tok := s.parseLine("b 15")
	assert.Equal(t, "b", tok.Cmd)
	assert.Equal(t, "15", tok.Arg)
}

func TestParseLineDoubleBang(t *testing.T) {
	s := parserSession(map[string]string{"r": "42"})
	tok := s.parseLine("!!r")
	assert.Equal(t, "r", tok.Cmd)
}

func TestParseLineCountPrefix(t *testing.T) {
	s := parserSession(map[string]string{"x": "1"})
	tok := s.parseLine("10pp x")
	assert.Equal(t, "pp", tok.Cmd)
	assert.Equal(t, "x", tok.Arg)
	assert.Equal(t, 10, tok.Count)
}

func TestParseLineQuestionMark(t *testing.T) {
	s := parserSession(map[string]string{"x": "1"})

	tok := s.parseLine("x?")
	assert.Equal(t, "inspect", tok.Cmd)
	assert.Equal(t, "x", tok.Arg)

	tok = s.parseLine("x??")
	assert.Equal(t, "inspect_with_source", tok.Cmd)
	assert.Equal(t, "x", tok.Arg)

	// A bare command name with ? asks for help.
	tok = s.parseLine("next?")
	assert.Equal(t, "help", tok.Cmd)
	assert.Equal(t, "next", tok.Arg)

	tok = s.parseLine("?")
	assert.Equal(t, "help", tok.Cmd)
}

func TestParseLineQuoteAfterAlias(t *testing.T) {
	s := parserSession(nil)
	for _, line := range []string{`b"x"`, `b'x'`, `b 'x'`, `f"y"`} {
		tok := s.parseLine(line)
		assert.Equal(t, "", tok.Cmd, "line %q", line)
	}
}

func TestParseLineAssignment(t *testing.T) {
	s := parserSession(nil)
	tok := s.parseLine("c = 42")
	assert.Equal(t, "", tok.Cmd)
	assert.Equal(t, "c = 42", tok.Line)
}

func TestParseLineBuiltinCall(t *testing.T) {
	s := parserSession(nil)
	for _, line := range []string{"list(x)", "next(it)"} {
		tok := s.parseLine(line)
		assert.Equal(t, "", tok.Cmd, "line %q", line)
	}
	// A parenthesized argument of another command stays a command.
	tok := s.parseLine("p (1, 2)")
	assert.Equal(t, "p", tok.Cmd)
}

func TestBaselineParseSplitsIdentifierPrefix(t *testing.T) {
	cmd, arg, _ := baselineParse("list 1, 10")
	assert.Equal(t, "list", cmd)
	assert.Equal(t, "1, 10", arg)
}
