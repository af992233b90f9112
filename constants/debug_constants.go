package constants

// StoppedReasonType is why the debuggee stopped.
type StoppedReasonType string

const (
	BreakpointStopped StoppedReasonType = "breakpoint"
	StepStopped       StoppedReasonType = "step"
	ExceptionStopped  StoppedReasonType = "exception"
	ReturnStopped     StoppedReasonType = "return"
	ExitedNormally    StoppedReasonType = "exited-normally"
)

// HideReasonType is why a frame was filtered from the visible stack.
type HideReasonType string

const (
	HiddenByMarker          HideReasonType = "marker"
	HiddenByTracebackLocal  HideReasonType = "tracebackhide-local"
	HiddenByTracebackGlobal HideReasonType = "tracebackhide-global"
	HiddenByUnittest        HideReasonType = "unittest"
	HiddenBySkipPattern     HideReasonType = "skip-pattern"
)

// Variable names with conventional meaning in frame snapshots.
const (
	// TracebackHideLocal set truthy in a frame's locals hides it.
	TracebackHideLocal = "__tracebackhide__"
	// UnittestGlobal set truthy in a frame's globals hides it.
	UnittestGlobal = "__unittest"
	// ReturnLocal holds the rendered return value at a return stop.
	ReturnLocal = "__return__"
	// ExceptionLocal holds the rendered exception at an exception stop.
	ExceptionLocal = "__exception__"
)
