package error

import "errors"

var (
	ErrUndefinedName       = errors.New("name is not defined")
	ErrEvaluateFailed      = errors.New("evaluate error")
	ErrTracerNotStopped    = errors.New("the program is running")
	ErrTracerFinished      = errors.New("debug is closed")
	ErrNoSourceAvailable   = errors.New("no source available")
	ErrEditorNotConfigured = errors.New("could not detect editor, configure it or set $EDITOR")
)
