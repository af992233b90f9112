package daptracer

import (
	"testing"

	"github.com/google/go-dap"
	"github.com/stretchr/testify/assert"

	e "github.com/bretello/pdbpp/error"
)

func errorResponse(format string) *dap.ErrorResponse {
	r := &dap.ErrorResponse{}
	r.Success = false
	r.Command = "evaluate"
	r.Body.Error = &dap.ErrorMessage{Format: format}
	return r
}

func TestResponseErrorMapsUndefinedNames(t *testing.T) {
	err := responseError(errorResponse(`name 'foo' is not defined`))
	assert.ErrorIs(t, err, e.ErrUndefinedName)

	err = responseError(errorResponse(`could not find symbol value for foo`))
	assert.ErrorIs(t, err, e.ErrUndefinedName)
}

func TestResponseErrorDefaultsToEvaluateFailure(t *testing.T) {
	err := responseError(errorResponse("division by zero"))
	assert.ErrorIs(t, err, e.ErrEvaluateFailed)
	assert.Contains(t, err.Error(), "division by zero")
}

func TestResponseErrorEmptyMessage(t *testing.T) {
	r := &dap.ErrorResponse{}
	r.Success = false
	r.Command = "evaluate"
	err := responseError(r)
	assert.Contains(t, err.Error(), `request "evaluate" failed`)
}

func TestNewDAPFrameFields(t *testing.T) {
	frame := newDAPFrame(nil, dap.StackFrame{
		Id:               7,
		Name:             "work",
		Line:             12,
		Source:           &dap.Source{Path: "/src/app.py"},
		PresentationHint: "subtle",
	})
	assert.Equal(t, "7", frame.ID())
	assert.Equal(t, "work", frame.Func())
	assert.Equal(t, 12, frame.Line())
	assert.Equal(t, "/src/app.py", frame.File())
	assert.True(t, frame.MarkedHidden())
	assert.Nil(t, frame.Parent())
}

func TestNewDAPFrameNoSource(t *testing.T) {
	frame := newDAPFrame(nil, dap.StackFrame{Id: 1, Name: "builtin"})
	assert.Equal(t, "", frame.File())
	assert.False(t, frame.MarkedHidden())
}

func TestIsGlobalScope(t *testing.T) {
	assert.True(t, isGlobalScope("Globals"))
	assert.True(t, isGlobalScope("Package variables"))
	assert.False(t, isGlobalScope("Locals"))
	assert.False(t, isGlobalScope("Arguments"))
}

func TestBreakpointBookkeeping(t *testing.T) {
	tracer := NewDAPTracer([]string{"true"})
	tracer.breakpoints["/src/app.py"] = []int{3, 9}

	assert.True(t, containsInt(tracer.breakpoints["/src/app.py"], 3))
	assert.False(t, containsInt(tracer.breakpoints["/src/app.py"], 4))
}
