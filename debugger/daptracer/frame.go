package daptracer

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/google/go-dap"
	"github.com/sirupsen/logrus"

	"github.com/bretello/pdbpp/debugger"
)

// dapFrame adapts one protocol stack frame to debugger.Frame. Variable
// snapshots are fetched from the adapter on first use and cached for
// the lifetime of the stop.
type dapFrame struct {
	tracer *DAPTracer

	id       int
	file     string
	funcName string
	line     int
	hidden   bool

	parent *dapFrame

	once    sync.Once
	locals  map[string]string
	globals map[string]string
}

func newDAPFrame(t *DAPTracer, frame dap.StackFrame) *dapFrame {
	file := ""
	if frame.Source != nil {
		file = frame.Source.Path
	}
	return &dapFrame{
		tracer:   t,
		id:       frame.Id,
		file:     file,
		funcName: frame.Name,
		line:     frame.Line,
		hidden:   frame.PresentationHint == "subtle",
	}
}

func (f *dapFrame) ID() string   { return strconv.Itoa(f.id) }
func (f *dapFrame) File() string { return f.file }
func (f *dapFrame) Func() string { return f.funcName }
func (f *dapFrame) Line() int    { return f.line }

func (f *dapFrame) Locals() map[string]string {
	f.load()
	return f.locals
}

func (f *dapFrame) Globals() map[string]string {
	f.load()
	return f.globals
}

func (f *dapFrame) Parent() debugger.Frame {
	if f.parent == nil {
		return nil
	}
	return f.parent
}

func (f *dapFrame) MarkedHidden() bool { return f.hidden }

func (f *dapFrame) load() {
	f.once.Do(func() {
		f.locals = map[string]string{}
		f.globals = map[string]string{}
		scopes, err := f.tracer.scopes(f.id)
		if err != nil {
			logrus.Errorf("[load] scopes fail, err = %v", err)
			return
		}
		for _, scope := range scopes {
			variables, err := f.tracer.variables(scope.VariablesReference)
			if err != nil {
				logrus.Errorf("[load] variables fail, err = %v", err)
				continue
			}
			target := f.locals
			if isGlobalScope(scope.Name) {
				target = f.globals
			}
			for _, v := range variables {
				target[v.Name] = v.Value
			}
		}
	})
}

func isGlobalScope(name string) bool {
	name = strings.ToLower(name)
	return strings.Contains(name, "global") || strings.Contains(name, "package")
}

func (t *DAPTracer) scopes(frameID int) ([]dap.Scope, error) {
	request := &dap.ScopesRequest{
		Request:   t.newRequest("scopes"),
		Arguments: dap.ScopesArguments{FrameId: frameID},
	}
	message, err := t.sendWithTimeout(RequestTimeout, request)
	if err != nil {
		return nil, err
	}
	response, ok := message.(*dap.ScopesResponse)
	if !ok {
		return nil, errUnexpected("scopes", message)
	}
	return response.Body.Scopes, nil
}

func (t *DAPTracer) variables(reference int) ([]dap.Variable, error) {
	request := &dap.VariablesRequest{
		Request:   t.newRequest("variables"),
		Arguments: dap.VariablesArguments{VariablesReference: reference},
	}
	message, err := t.sendWithTimeout(RequestTimeout, request)
	if err != nil {
		return nil, err
	}
	response, ok := message.(*dap.VariablesResponse)
	if !ok {
		return nil, errUnexpected("variables", message)
	}
	return response.Body.Variables, nil
}

func errUnexpected(command string, message dap.Message) error {
	return fmt.Errorf("unexpected %s response %T", command, message)
}
