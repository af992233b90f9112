package debugger

import (
	"context"
)

type NotificationCallback func(interface{})

// Tracer is the execution engine behind an interactive session.
// It owns single-stepping and breakpoint hit detection; the session core
// only consumes stack snapshots and drives it with step/continue
// commands. A session never calls a tracer concurrently.
type Tracer interface {
	// Start launches the debuggee. The callback receives *StoppedEvent,
	// *OutputEvent and *ExitedEvent notifications asynchronously.
	Start(ctx context.Context, option *StartOption) error
	// StepOver executes the next line without entering calls.
	StepOver(ctx context.Context) error
	// StepIn executes the next line, entering calls.
	StepIn(ctx context.Context) error
	// StepOut runs until the current function returns.
	StepOut(ctx context.Context) error
	// Continue resumes until the next breakpoint or exit.
	Continue(ctx context.Context) error
	// Quit detaches from and terminates the debuggee.
	Quit(ctx context.Context) error
	// GetStackTrace returns the full call stack, oldest frame first.
	GetStackTrace(ctx context.Context) ([]StackEntry, error)
	// Evaluate evaluates an expression in the scope of the given frame
	// and returns its rendered value.
	Evaluate(ctx context.Context, frame Frame, expr string) (string, error)
	// AddBreakpoints installs breakpoints.
	AddBreakpoints(ctx context.Context, breakpoints []*Breakpoint) error
	// RemoveBreakpoints removes breakpoints.
	RemoveBreakpoints(ctx context.Context, breakpoints []*Breakpoint) error
}

// Frame is an opaque handle into the live call stack of the debuggee.
// The handle is owned by the tracer: the session only reads locations
// and variable snapshots, and compares identity via ID.
type Frame interface {
	// ID identifies the frame for the lifetime of one stop. Two handles
	// refer to the same frame iff their IDs are equal.
	ID() string
	// File returns the path of the source file.
	File() string
	// Func returns the function name.
	Func() string
	// Line returns the current execution line.
	Line() int
	// Locals returns a snapshot of local variables, rendered.
	Locals() map[string]string
	// Globals returns a snapshot of module-level variables, rendered.
	Globals() map[string]string
	// Parent returns the caller frame, or nil for the oldest frame.
	Parent() Frame
	// MarkedHidden reports whether the frame's function was explicitly
	// marked to be excluded from stack display.
	MarkedHidden() bool
}

// LineReader is the read side of the interactive loop. ReadLine blocks
// until a full line is available; io.EOF ends the session.
type LineReader interface {
	ReadLine(prompt string) (string, error)
	// SetCompleter installs the tab-completion source. complete is
	// called with increasing state until it reports no more candidates.
	SetCompleter(complete func(text string, state int) (string, bool))
}

// Highlighter colorizes source text for terminal display. Optional: a
// nil highlighter degrades to plain text.
type Highlighter interface {
	Highlight(source string) string
}
