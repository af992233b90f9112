package pdbpp

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bretello/pdbpp/constants"
	"github.com/bretello/pdbpp/debugger"
)

func stickySession(t *testing.T, source string) (*Session, *strings.Builder, *fakeFrame) {
	t.Helper()
	var buf strings.Builder
	config := DefaultConfig()
	config.Highlight = false
	s := NewSession(nil, SessionOptions{
		Tracer: &fakeTracer{},
		Reader: &scriptReader{},
		Out:    &buf,
		Config: config,
	})
	s.size = func() (int, int) { return 80, 24 }

	frame := newFakeFrame("f1", "work", 2)
	frame.file = writeSource(t, source)
	s.selectStack(entryOf(frame), 0)
	s.sticky = true
	return s, &buf, frame
}

func stickyOutput(s *Session, buf *strings.Builder) string {
	s.out.Flush()
	return buf.String()
}

func TestHandleClsSkipWinsOnce(t *testing.T) {
	s, buf, _ := stickySession(t, "a = 1\n")
	s.stickyNeedCls = true
	s.stickySkipCls = true

	s.handleCls()
	assert.NotContains(t, stickyOutput(s, buf), clearScreen)
	assert.False(t, s.stickySkipCls)
	assert.True(t, s.stickyNeedCls)

	s.handleCls()
	assert.Contains(t, stickyOutput(s, buf), clearScreen)
	assert.False(t, s.stickyNeedCls)
}

func TestPrintIfStickyRendersHeaderAndSource(t *testing.T) {
	s, buf, frame := stickySession(t, "a = 1\nb = 2\nc = 3\n")
	s.printIfSticky()

	out := stickyOutput(s, buf)
	assert.Contains(t, out, frame.File())
	assert.Contains(t, out, "work()")
	assert.Contains(t, out, "-> b = 2")
	assert.True(t, s.stickyNeedCls)
}

func TestPrintIfStickyHiddenFrameCountInHeader(t *testing.T) {
	s, buf, frame := stickySession(t, "a = 1\n")
	hidden := newFakeFrame("h", "helper", 9)
	hidden.hidden = true
	s.hiddenFrames = entryOf(hidden)
	_ = frame

	s.printIfSticky()
	assert.Contains(t, stickyOutput(s, buf), ", 1 frame hidden")
}

func TestPrintIfStickyReturnValueFooter(t *testing.T) {
	s, buf, frame := stickySession(t, "a = 1\n")
	s.returnValues[frame.ID()] = "42"

	s.printIfSticky()
	assert.Contains(t, stickyOutput(s, buf), " return 42")
}

func TestPrintIfStickyExceptionFooter(t *testing.T) {
	s, buf, frame := stickySession(t, "a = 1\n")
	s.excInfo[frame.ID()] = &debugger.ExceptionInfo{Type: "ValueError", Message: "bad input"}

	s.printIfSticky()
	assert.Contains(t, stickyOutput(s, buf), "ValueError: bad input")
}

func TestPrintIfStickyBannerJoinsHeader(t *testing.T) {
	s, buf, _ := stickySession(t, "a = 1\n")
	s.stickyMessages = []string{"--Call--"}

	s.printIfSticky()
	out := stickyOutput(s, buf)
	assert.Contains(t, out, ", --Call--")
	assert.Empty(t, s.stickyMessages)
}

func TestFormatExcForSticky(t *testing.T) {
	s, _, _ := stickySession(t, "a = 1\n")

	line := s.formatExcForSticky("ValueError", "first\nsecond", 80)
	assert.Equal(t, `ValueError: first\nsecond`, line)

	long := s.formatExcForSticky("E", strings.Repeat("x", 200), 40)
	assert.LessOrEqual(t, len([]rune(long)), 40)
	assert.True(t, strings.HasSuffix(long, "…"))
}

func TestStickyCommandTogglesMode(t *testing.T) {
	source := "a = 1\nb = 2\nc = 3\n"
	path := writeSource(t, source)

	tracer := &fakeTracer{}
	reader := &scriptReader{lines: []string{"sticky", "sticky", "c"}}
	s, buf := newTestSession(tracer, reader)

	frame := newFakeFrame("f1", "work", 2)
	frame.file = path
	event := debugger.NewStoppedEvent(constants.StepStopped, frame, entryOf(frame))
	assert.NoError(t, s.Interaction(context.Background(), event))

	out := output(s, buf)
	assert.Contains(t, out, "-> b = 2")
	assert.False(t, s.sticky)
}

func TestStickyRangeCommand(t *testing.T) {
	source := "a = 1\nb = 2\nc = 3\nd = 4\n"
	path := writeSource(t, source)

	tracer := &fakeTracer{}
	reader := &scriptReader{lines: []string{"sticky 1 2", "c"}}
	s, buf := newTestSession(tracer, reader)

	frame := newFakeFrame("f1", "work", 2)
	frame.file = path
	event := debugger.NewStoppedEvent(constants.StepStopped, frame, entryOf(frame))
	assert.NoError(t, s.Interaction(context.Background(), event))

	out := output(s, buf)
	assert.Contains(t, out, "a = 1")
	assert.NotContains(t, out, "d = 4")
	assert.True(t, s.sticky)
}
