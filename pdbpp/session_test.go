package pdbpp

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bretello/pdbpp/constants"
	"github.com/bretello/pdbpp/debugger"
)

func writeSource(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "main.py")
	assert.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func twoFrameStop() (*debugger.StoppedEvent, *fakeFrame, *fakeFrame) {
	a := newFakeFrame("a", "outer", 1)
	b := newFakeFrame("b", "inner", 2)
	b.parent = a
	return debugger.NewStoppedEvent(constants.StepStopped, b, entryOf(a, b)), a, b
}

func TestInteractionNavigatesAndResumes(t *testing.T) {
	tracer := &fakeTracer{}
	reader := &scriptReader{lines: []string{"w", "u", "d", "n"}}
	s, buf := newTestSession(tracer, reader)

	event, _, _ := twoFrameStop()
	err := s.Interaction(context.Background(), event)
	assert.NoError(t, err)

	out := output(s, buf)
	assert.Contains(t, out, "[0]")
	assert.Contains(t, out, "[1]")
	assert.Contains(t, out, "outer()")
	assert.Contains(t, out, "inner()")
	assert.Equal(t, []string{"next"}, tracer.calls)
}

func TestInteractionEmptyLineRepeatsLastCommand(t *testing.T) {
	tracer := &fakeTracer{values: map[string]string{"x": "7"}}
	reader := &scriptReader{lines: []string{"p x", "", "c"}}
	s, _ := newTestSession(tracer, reader)

	event, _, _ := twoFrameStop()
	assert.NoError(t, s.Interaction(context.Background(), event))
	assert.Equal(t, []string{"eval x", "eval x", "continue"}, tracer.calls)
}

func TestInteractionEOFQuits(t *testing.T) {
	tracer := &fakeTracer{}
	s, _ := newTestSession(tracer, &scriptReader{})

	event, _, _ := twoFrameStop()
	assert.NoError(t, s.Interaction(context.Background(), event))
	assert.Equal(t, []string{"quit"}, tracer.calls)
}

func TestInteractionPrintsHiddenFrameCount(t *testing.T) {
	tracer := &fakeTracer{}
	reader := &scriptReader{lines: []string{"c"}}
	s, buf := newTestSession(tracer, reader)

	a := newFakeFrame("a", "outer", 1)
	a.hidden = true
	b := newFakeFrame("b", "inner", 2)
	event := debugger.NewStoppedEvent(constants.StepStopped, b, entryOf(a, b))

	assert.NoError(t, s.Interaction(context.Background(), event))
	assert.Contains(t, output(s, buf), "1 frame hidden (try 'help hidden_frames')")
}

func TestInteractionRemembersEntryFrame(t *testing.T) {
	tracer := &fakeTracer{}
	s, _ := newTestSession(tracer, &scriptReader{lines: []string{"c"}})

	event, _, b := twoFrameStop()
	assert.NoError(t, s.Interaction(context.Background(), event))
	assert.Equal(t, b.ID(), s.entryFrameID)
}

func TestDefaultCmdReportsUndefinedName(t *testing.T) {
	tracer := &fakeTracer{}
	s, buf := newTestSession(tracer, &scriptReader{lines: []string{"ghost", "c"}})

	event, _, _ := twoFrameStop()
	assert.NoError(t, s.Interaction(context.Background(), event))
	assert.Contains(t, output(s, buf), "***")
}

func TestBreakCommand(t *testing.T) {
	tracer := &fakeTracer{}
	s, buf := newTestSession(tracer, &scriptReader{lines: []string{"b 12", "b", "c"}})

	event, _, b := twoFrameStop()
	assert.NoError(t, s.Interaction(context.Background(), event))

	assert.Len(t, tracer.breakpoints, 1)
	assert.Equal(t, b.File(), tracer.breakpoints[0].File)
	assert.Equal(t, 12, tracer.breakpoints[0].Line)
	assert.Contains(t, output(s, buf), "Breakpoint 1 at")
}

func TestQuitCommand(t *testing.T) {
	tracer := &fakeTracer{}
	s, _ := newTestSession(tracer, &scriptReader{lines: []string{"q"}})

	event, _, _ := twoFrameStop()
	assert.NoError(t, s.Interaction(context.Background(), event))
	assert.Equal(t, []string{"quit"}, tracer.calls)
}

func TestDebugCommandBanners(t *testing.T) {
	tracer := &fakeTracer{values: map[string]string{"1+1": "2"}}
	s, buf := newTestSession(tracer, &scriptReader{lines: []string{"debug 1+1"}})

	event, _, _ := twoFrameStop()
	assert.NoError(t, s.Interaction(context.Background(), event))

	out := output(s, buf)
	assert.Contains(t, out, "ENTERING RECURSIVE DEBUGGER")
	assert.Contains(t, out, "2")
	assert.Contains(t, out, "LEAVING RECURSIVE DEBUGGER")
}

func TestFrameCommandNegativeIndex(t *testing.T) {
	tracer := &fakeTracer{}
	s, _ := newTestSession(tracer, &scriptReader{lines: []string{"f -2", "c"}})

	event, _, _ := twoFrameStop()
	assert.NoError(t, s.Interaction(context.Background(), event))
	assert.Equal(t, []string{"continue"}, tracer.calls)
}

func TestUpBeyondOldestFrame(t *testing.T) {
	tracer := &fakeTracer{}
	s, buf := newTestSession(tracer, &scriptReader{lines: []string{"u", "u", "c"}})

	event, _, _ := twoFrameStop()
	assert.NoError(t, s.Interaction(context.Background(), event))
	assert.Contains(t, output(s, buf), "*** Oldest frame")
}

func TestListCommandShowsSource(t *testing.T) {
	source := "a = 1\nb = 2\nc = 3\nd = 4\n"
	path := writeSource(t, source)

	tracer := &fakeTracer{}
	s, buf := newTestSession(tracer, &scriptReader{lines: []string{"l", "c"}})

	frame := newFakeFrame("f1", "module", 2)
	frame.file = path
	event := debugger.NewStoppedEvent(constants.StepStopped, frame, entryOf(frame))
	assert.NoError(t, s.Interaction(context.Background(), event))

	out := output(s, buf)
	assert.Contains(t, out, "a = 1")
	assert.Contains(t, out, "-> b = 2")
}

func TestLongListUsesFuncBounds(t *testing.T) {
	source := "x = 0\ndef f():\n    a = 1\n    b = 2\ny = 9\n"
	path := writeSource(t, source)

	tracer := &fakeTracer{}
	s, buf := newTestSession(tracer, &scriptReader{lines: []string{"ll", "c"}})

	frame := &boundedFrame{fakeFrame: newFakeFrame("f1", "f", 3), start: 2, end: 4}
	frame.file = path
	event := debugger.NewStoppedEvent(constants.StepStopped, frame, []debugger.StackEntry{{Frame: frame, Line: 3}})
	assert.NoError(t, s.Interaction(context.Background(), event))

	out := output(s, buf)
	assert.Contains(t, out, "def f():")
	assert.Contains(t, out, "->")
	assert.Contains(t, out, "a = 1")
	assert.NotContains(t, out, "y = 9")
}

// boundedFrame also reports the extent of its function.
type boundedFrame struct {
	*fakeFrame
	start, end int
}

func (f *boundedFrame) FuncBounds() (int, int) { return f.start, f.end }

func TestReportEvalErrorTracebackLimit(t *testing.T) {
	s, buf := newTestSession(&fakeTracer{}, &scriptReader{})
	s.config.ShowTracebackOnErrorLimit = 2

	s.reportEvalError(errLines("one", "two", "three", "four", "Boom: bad"))
	out := output(s, buf)
	assert.Contains(t, out, "*** Boom: bad")
	assert.Contains(t, out, "one")
	assert.Contains(t, out, "two")
	assert.NotContains(t, out, "three")
	assert.Contains(t, out, "... (truncated)")
}

func TestPostMortemNilTracerCommands(t *testing.T) {
	frame := newFakeFrame("f1", "boom", 3)
	reader := &scriptReader{lines: []string{"n", "p x", "x", "q"}}
	s, buf := newTestSession(nil, reader)

	exc := &debugger.ExceptionInfo{Type: "ValueError", Message: "boom"}
	assert.NoError(t, s.PostMortem(context.Background(), exc, entryOf(frame)))

	out := output(s, buf)
	assert.Contains(t, out, "*** no process")
}

func TestHistoryRecordsEvaluatedExpressions(t *testing.T) {
	tracer := &fakeTracer{values: map[string]string{
		"x":           "1",
		"x.append(2)": "None",
		"data[0]":     "7",
	}}
	reader := &scriptReader{lines: []string{"x", "x.append(2)", "data[0]"}}
	s, _ := newTestSession(tracer, reader)

	event, _, _ := twoFrameStop()
	assert.NoError(t, s.Interaction(context.Background(), event))
	assert.Equal(t, []string{"x", "x.append(2)", "data[0]"}, s.History())
	assert.Equal(t, []string{"x", "data[0]"}, s.SideEffectsFreeHistory())
}
