package pdbpp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/bretello/pdbpp/constants"
	"github.com/bretello/pdbpp/debugger"
	e "github.com/bretello/pdbpp/error"
)

// fakeFrame is an in-memory debugger.Frame for tests.
type fakeFrame struct {
	id      string
	file    string
	fn      string
	line    int
	locals  map[string]string
	globals map[string]string
	parent  *fakeFrame
	hidden  bool
}

func (f *fakeFrame) ID() string                 { return f.id }
func (f *fakeFrame) File() string               { return f.file }
func (f *fakeFrame) Func() string               { return f.fn }
func (f *fakeFrame) Line() int                  { return f.line }
func (f *fakeFrame) Locals() map[string]string  { return f.locals }
func (f *fakeFrame) Globals() map[string]string { return f.globals }
func (f *fakeFrame) MarkedHidden() bool         { return f.hidden }

func (f *fakeFrame) Parent() debugger.Frame {
	if f.parent == nil {
		return nil
	}
	return f.parent
}

func newFakeFrame(id, fn string, line int) *fakeFrame {
	return &fakeFrame{
		id:      id,
		file:    "/tmp/" + id + ".py",
		fn:      fn,
		line:    line,
		locals:  map[string]string{},
		globals: map[string]string{},
	}
}

func entryOf(frames ...*fakeFrame) []debugger.StackEntry {
	entries := make([]debugger.StackEntry, len(frames))
	for i, f := range frames {
		entries[i] = debugger.StackEntry{Frame: f, Line: f.line}
	}
	return entries
}

// fakeTracer evaluates expressions against the frame's bindings and
// records the commands it receives.
type fakeTracer struct {
	calls       []string
	breakpoints []*debugger.Breakpoint
	values      map[string]string
}

func (t *fakeTracer) Start(ctx context.Context, option *debugger.StartOption) error {
	t.calls = append(t.calls, "start")
	return nil
}

func (t *fakeTracer) StepOver(ctx context.Context) error { t.calls = append(t.calls, "next"); return nil }
func (t *fakeTracer) StepIn(ctx context.Context) error   { t.calls = append(t.calls, "step"); return nil }
func (t *fakeTracer) StepOut(ctx context.Context) error {
	t.calls = append(t.calls, "return")
	return nil
}
func (t *fakeTracer) Continue(ctx context.Context) error {
	t.calls = append(t.calls, "continue")
	return nil
}
func (t *fakeTracer) Quit(ctx context.Context) error { t.calls = append(t.calls, "quit"); return nil }

func (t *fakeTracer) GetStackTrace(ctx context.Context) ([]debugger.StackEntry, error) {
	return nil, nil
}

func (t *fakeTracer) Evaluate(ctx context.Context, frame debugger.Frame, expr string) (string, error) {
	t.calls = append(t.calls, "eval "+expr)
	if t.values != nil {
		if v, ok := t.values[expr]; ok {
			return v, nil
		}
	}
	if frame != nil {
		if v, ok := frame.Locals()[expr]; ok {
			return v, nil
		}
		if v, ok := frame.Globals()[expr]; ok {
			return v, nil
		}
	}
	return "", fmt.Errorf("%q: %w", expr, e.ErrUndefinedName)
}

func (t *fakeTracer) AddBreakpoints(ctx context.Context, bps []*debugger.Breakpoint) error {
	t.breakpoints = append(t.breakpoints, bps...)
	return nil
}

func (t *fakeTracer) RemoveBreakpoints(ctx context.Context, bps []*debugger.Breakpoint) error {
	return nil
}

// scriptReader feeds a fixed command script, then EOF.
type scriptReader struct {
	lines    []string
	complete func(text string, state int) (string, bool)
}

func (r *scriptReader) ReadLine(prompt string) (string, error) {
	if len(r.lines) == 0 {
		return "", io.EOF
	}
	line := r.lines[0]
	r.lines = r.lines[1:]
	return line, nil
}

func (r *scriptReader) SetCompleter(complete func(text string, state int) (string, bool)) {
	r.complete = complete
}

// newTestSession wires a session to the fakes with colors off and a
// fixed terminal size.
func newTestSession(tracer debugger.Tracer, reader debugger.LineReader) (*Session, *bytes.Buffer) {
	var buf bytes.Buffer
	config := DefaultConfig()
	config.Highlight = false
	s := NewSession(nil, SessionOptions{
		Tracer: tracer,
		Reader: reader,
		Out:    &buf,
		Config: config,
	})
	s.size = func() (int, int) { return 80, 24 }
	return s, &buf
}

func errLines(lines ...string) error {
	return errors.New(strings.Join(lines, "\n"))
}

func stoppedAt(frame *fakeFrame) *debugger.StoppedEvent {
	return debugger.NewStoppedEvent(constants.StepStopped, frame, entryOf(frame))
}

// output flushes the session's buffered writer and returns what was
// printed so far.
func output(s *Session, buf *bytes.Buffer) string {
	s.out.Flush()
	return buf.String()
}

func (s *Session) selectStack(entries []debugger.StackEntry, idx int) {
	s.fullStack = entries
	s.stack, s.hiddenFrames, s.curIndex = s.computeStack(entries, idx)
}
