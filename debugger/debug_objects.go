package debugger

import (
	"github.com/bretello/pdbpp/constants"
)

// StartOption carries the launch parameters for a tracer.
type StartOption struct {
	// ExecFile is the debuggee binary or script.
	ExecFile string
	// Args are passed to the debuggee.
	Args []string
	// WorkPath is the working directory for the debuggee.
	WorkPath string
	// BreakPoints installed before the first continue.
	BreakPoints []*Breakpoint
	// Callback receives asynchronous events.
	Callback NotificationCallback
}

// Breakpoint identifies a source location.
type Breakpoint struct {
	File string
	Line int
}

func NewBreakpoint(file string, line int) *Breakpoint {
	return &Breakpoint{file, line}
}

// StackEntry pairs a frame handle with its resolved line number. Line
// may differ from Frame.Line for frames that are mid-call. ExcLine is
// the line where an exception was raised in this frame, or 0.
type StackEntry struct {
	Frame   Frame
	Line    int
	ExcLine int
}

// ExceptionInfo describes an exception captured at a stop.
type ExceptionInfo struct {
	Type    string
	Message string
}

// StoppedEvent reports that the debuggee stopped. Stack is the full
// call stack at the stop, oldest frame first; Frame is the stop frame.
type StoppedEvent struct {
	Reason constants.StoppedReasonType
	Frame  Frame
	Stack  []StackEntry
	// Exception is set when the stop was caused by a raised error.
	Exception *ExceptionInfo
	// ReturnValue is the rendered return value when stopping at a
	// function return, with HasReturn set.
	ReturnValue string
	HasReturn   bool
}

func NewStoppedEvent(reason constants.StoppedReasonType, frame Frame, stack []StackEntry) *StoppedEvent {
	return &StoppedEvent{
		Reason: reason,
		Frame:  frame,
		Stack:  stack,
	}
}

// OutputEvent carries debuggee output.
type OutputEvent struct {
	Output string
}

func NewOutputEvent(output string) *OutputEvent {
	return &OutputEvent{
		Output: output,
	}
}

// ContinuedEvent reports that execution resumed.
type ContinuedEvent struct {
}

func NewContinuedEvent() *ContinuedEvent {
	return &ContinuedEvent{}
}

// ExitedEvent reports that the debuggee exited.
type ExitedEvent struct {
	ExitCode int
	Message  string
}

func NewExitedEvent(code int, message string) *ExitedEvent {
	return &ExitedEvent{
		ExitCode: code,
		Message:  message,
	}
}
