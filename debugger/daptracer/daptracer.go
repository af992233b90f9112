// Package daptracer drives a Debug Adapter Protocol adapter child
// process (debugpy, dlv dap, ...) over stdio and exposes it as a
// debugger.Tracer.
package daptracer

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/creack/pty"
	"github.com/google/go-dap"
	"github.com/sirupsen/logrus"
	"golang.org/x/term"

	"github.com/bretello/pdbpp/constants"
	. "github.com/bretello/pdbpp/debugger"
	e "github.com/bretello/pdbpp/error"
	"github.com/bretello/pdbpp/utils"
	"github.com/bretello/pdbpp/utils/gosync"
)

const (
	// RequestTimeout bounds every adapter round trip.
	RequestTimeout = 10 * time.Second
	// LaunchTimeout bounds adapter startup up to the first stop.
	LaunchTimeout = 30 * time.Second
)

// DAPTracer talks to one adapter process for one debuggee.
type DAPTracer struct {
	adapterArgv []string

	startOption *StartOption
	callback    NotificationCallback

	statusManager  *utils.StatusManager
	timeoutManager *utils.TimeoutManager

	cmd    *exec.Cmd
	stdin  *bufio.Writer
	stdout *bufio.Reader

	writeMu sync.Mutex
	seq     int64

	pendingMu sync.Mutex
	pending   map[int]chan dap.Message

	ptm *os.File
	pts *os.File

	threadID int64

	// breakpoints by file; the protocol replaces per source, so the
	// whole set is kept and resent.
	bpMu        sync.Mutex
	breakpoints map[string][]int
}

func NewDAPTracer(adapterArgv []string) *DAPTracer {
	return &DAPTracer{
		adapterArgv:    adapterArgv,
		statusManager:  utils.NewStatusManager(),
		timeoutManager: utils.NewTimeoutManager(),
		pending:        make(map[int]chan dap.Message),
		breakpoints:    make(map[string][]int),
	}
}

func (t *DAPTracer) Start(ctx context.Context, option *StartOption) error {
	logrus.Infof("[DAPTracer] Start %s", option.ExecFile)
	t.startOption = option
	t.callback = option.Callback

	gosync.Go(context.Background(), func(ctx context.Context) {
		t.start(ctx)
	})
	return nil
}

// start launches the console pty, the adapter process and performs the
// initialize/launch/configurationDone handshake.
func (t *DAPTracer) start(ctx context.Context) {
	ptm, pts, err := pty.Open()
	if err != nil {
		logrus.Errorf("[start] pty open fail, err = %v", err)
		t.fail("cannot open console pty")
		return
	}
	if _, err = term.MakeRaw(int(ptm.Fd())); err != nil {
		logrus.Errorf("[start] pty raw mode fail, err = %v", err)
		t.fail("cannot open console pty")
		return
	}
	if err = syscall.SetNonblock(int(ptm.Fd()), false); err != nil {
		logrus.Errorf("[start] SetNonblock fail, err = %v", err)
	}
	t.ptm = ptm
	t.pts = pts

	cmd := exec.Command(t.adapterArgv[0], t.adapterArgv[1:]...)
	cmd.Dir = t.startOption.WorkPath
	stdin, err := cmd.StdinPipe()
	if err != nil {
		t.fail(err.Error())
		return
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		t.fail(err.Error())
		return
	}
	cmd.Stderr = os.Stderr
	if err = cmd.Start(); err != nil {
		logrus.Errorf("[start] adapter start fail, err = %v", err)
		t.fail(err.Error())
		return
	}
	t.cmd = cmd
	t.stdin = bufio.NewWriter(stdin)
	t.stdout = bufio.NewReader(stdout)

	gosync.Go(ctx, func(ctx context.Context) { t.receiveLoop() })
	gosync.Go(ctx, func(ctx context.Context) { t.consoleLoop() })

	// Kill the adapter if the handshake stalls.
	t.timeoutManager.Start(ctx, LaunchTimeout, func() {
		logrus.Errorf("[start] adapter handshake timed out")
		t.fail("adapter handshake timed out")
		cmd.Process.Kill()
	})
	defer t.timeoutManager.Cancel()

	if err = t.handshake(ctx); err != nil {
		logrus.Errorf("[start] handshake fail, err = %v", err)
		t.fail(err.Error())
		return
	}
	t.statusManager.Set(utils.Running)
}

func (t *DAPTracer) handshake(ctx context.Context) error {
	initReq := &dap.InitializeRequest{
		Request: t.newRequest("initialize"),
		Arguments: dap.InitializeRequestArguments{
			AdapterID:       "pdbpp",
			LinesStartAt1:   true,
			ColumnsStartAt1: true,
			PathFormat:      "path",
		},
	}
	if _, err := t.sendWithTimeout(RequestTimeout, initReq); err != nil {
		return err
	}
	t.timeoutManager.Reset()

	launchArgs, err := json.Marshal(map[string]interface{}{
		"request": "launch",
		"program": t.startOption.ExecFile,
		"args":    t.startOption.Args,
		"cwd":     t.startOption.WorkPath,
		"tty":     t.pts.Name(),
		"console": "externalTerminal",
	})
	if err != nil {
		return err
	}
	launchReq := &dap.LaunchRequest{
		Request:   t.newRequest("launch"),
		Arguments: launchArgs,
	}
	if _, err = t.sendWithTimeout(LaunchTimeout, launchReq); err != nil {
		return err
	}
	t.timeoutManager.Reset()

	if err = t.AddBreakpoints(ctx, t.startOption.BreakPoints); err != nil {
		return err
	}

	doneReq := &dap.ConfigurationDoneRequest{
		Request: t.newRequest("configurationDone"),
	}
	_, err = t.sendWithTimeout(RequestTimeout, doneReq)
	return err
}

func (t *DAPTracer) fail(message string) {
	t.statusManager.Set(utils.Finish)
	if t.callback != nil {
		t.callback(NewExitedEvent(1, message))
	}
}

// consoleLoop forwards debuggee terminal output as output events.
func (t *DAPTracer) consoleLoop() {
	buf := make([]byte, 4096)
	for {
		n, err := t.ptm.Read(buf)
		if n > 0 && t.callback != nil {
			t.callback(NewOutputEvent(string(buf[:n])))
		}
		if err != nil {
			return
		}
	}
}

// receiveLoop is the only reader of the adapter's stdout. Responses are
// routed to their waiting request, events are handled here.
func (t *DAPTracer) receiveLoop() {
	for {
		message, err := dap.ReadProtocolMessage(t.stdout)
		if err != nil {
			logrus.Infof("[receiveLoop] adapter closed, err = %v", err)
			t.statusManager.Set(utils.Finish)
			return
		}
		if response, ok := message.(dap.ResponseMessage); ok {
			t.resolve(response.GetResponse().RequestSeq, message)
			continue
		}
		t.handleEvent(message)
	}
}

func (t *DAPTracer) resolve(requestSeq int, message dap.Message) {
	t.pendingMu.Lock()
	channel := t.pending[requestSeq]
	delete(t.pending, requestSeq)
	t.pendingMu.Unlock()
	if channel != nil {
		channel <- message
	}
}

func (t *DAPTracer) newRequest(command string) dap.Request {
	return dap.Request{
		ProtocolMessage: dap.ProtocolMessage{
			Seq:  int(atomic.AddInt64(&t.seq, 1)),
			Type: "request",
		},
		Command: command,
	}
}

// sendWithTimeout writes one request and waits for its response.
func (t *DAPTracer) sendWithTimeout(timeout time.Duration, request dap.RequestMessage) (dap.Message, error) {
	seq := request.GetSeq()
	channel := make(chan dap.Message, 1)
	t.pendingMu.Lock()
	t.pending[seq] = channel
	t.pendingMu.Unlock()

	t.writeMu.Lock()
	err := dap.WriteProtocolMessage(t.stdin, request)
	if err == nil {
		err = t.stdin.Flush()
	}
	t.writeMu.Unlock()
	if err != nil {
		t.resolve(seq, nil)
		return nil, err
	}

	select {
	case message := <-channel:
		if message == nil {
			return nil, fmt.Errorf("request %q aborted", request.GetRequest().Command)
		}
		if response, ok := message.(dap.ResponseMessage); ok && !response.GetResponse().Success {
			return nil, responseError(response)
		}
		return message, nil
	case <-time.After(timeout):
		t.pendingMu.Lock()
		delete(t.pending, seq)
		t.pendingMu.Unlock()
		return nil, fmt.Errorf("request %q timed out", request.GetRequest().Command)
	}
}

func responseError(response dap.ResponseMessage) error {
	r := response.GetResponse()
	message := r.Message
	if er, ok := response.(*dap.ErrorResponse); ok && er.Body.Error != nil {
		message = er.Body.Error.Format
	}
	if message == "" {
		message = fmt.Sprintf("request %q failed", r.Command)
	}
	lower := strings.ToLower(message)
	if strings.Contains(lower, "not defined") || strings.Contains(lower, "undefined") ||
		strings.Contains(lower, "could not find symbol") {
		return fmt.Errorf("%s: %w", message, e.ErrUndefinedName)
	}
	return fmt.Errorf("%s: %w", message, e.ErrEvaluateFailed)
}

// handleEvent reacts to adapter-initiated events.
func (t *DAPTracer) handleEvent(message dap.Message) {
	switch event := message.(type) {
	case *dap.InitializedEvent:
		// Handshake continues in start.
	case *dap.StoppedEvent:
		t.statusManager.Set(utils.Stopped)
		atomic.StoreInt64(&t.threadID, int64(event.Body.ThreadId))
		gosync.Go(context.Background(), func(ctx context.Context) {
			t.publishStop(ctx, event)
		})
	case *dap.ContinuedEvent:
		t.statusManager.Set(utils.Running)
		if t.callback != nil {
			t.callback(NewContinuedEvent())
		}
	case *dap.OutputEvent:
		if t.callback != nil && event.Body.Category != "telemetry" {
			t.callback(NewOutputEvent(event.Body.Output))
		}
	case *dap.TerminatedEvent:
		t.statusManager.Set(utils.Finish)
		if t.callback != nil {
			t.callback(NewExitedEvent(0, "terminated"))
		}
	case *dap.ExitedEvent:
		t.statusManager.Set(utils.Finish)
		if t.callback != nil {
			t.callback(NewExitedEvent(event.Body.ExitCode, ""))
		}
	default:
		logrus.Debugf("[handleEvent] ignoring %T", message)
	}
}

// publishStop assembles the stack snapshot for a stop and notifies the
// session.
func (t *DAPTracer) publishStop(ctx context.Context, event *dap.StoppedEvent) {
	stack, err := t.GetStackTrace(ctx)
	if err != nil {
		logrus.Errorf("[publishStop] stack trace fail, err = %v", err)
		return
	}
	if len(stack) == 0 {
		return
	}

	reason := constants.StepStopped
	switch event.Body.Reason {
	case "breakpoint":
		reason = constants.BreakpointStopped
	case "exception":
		reason = constants.ExceptionStopped
	}

	top := stack[len(stack)-1]
	stopped := NewStoppedEvent(reason, top.Frame, stack)

	if reason == constants.ExceptionStopped {
		if info := t.exceptionInfo(ctx); info != nil {
			stopped.Exception = info
		}
		for i := range stack {
			stack[i].ExcLine = stack[i].Frame.Line()
		}
	}
	if value, ok := top.Frame.Locals()[constants.ReturnLocal]; ok {
		stopped.ReturnValue = value
		stopped.HasReturn = true
	}
	if t.callback != nil {
		t.callback(stopped)
	}
}

func (t *DAPTracer) exceptionInfo(ctx context.Context) *ExceptionInfo {
	request := &dap.ExceptionInfoRequest{
		Request: t.newRequest("exceptionInfo"),
		Arguments: dap.ExceptionInfoArguments{
			ThreadId: int(atomic.LoadInt64(&t.threadID)),
		},
	}
	message, err := t.sendWithTimeout(RequestTimeout, request)
	if err != nil {
		return nil
	}
	response, ok := message.(*dap.ExceptionInfoResponse)
	if !ok {
		return nil
	}
	return &ExceptionInfo{
		Type:    response.Body.ExceptionId,
		Message: response.Body.Description,
	}
}

// GetStackTrace returns the stack oldest frame first.
func (t *DAPTracer) GetStackTrace(ctx context.Context) ([]StackEntry, error) {
	if t.statusManager.Is(utils.Finish) {
		return nil, e.ErrTracerFinished
	}
	request := &dap.StackTraceRequest{
		Request: t.newRequest("stackTrace"),
		Arguments: dap.StackTraceArguments{
			ThreadId: int(atomic.LoadInt64(&t.threadID)),
		},
	}
	message, err := t.sendWithTimeout(RequestTimeout, request)
	if err != nil {
		return nil, err
	}
	response, ok := message.(*dap.StackTraceResponse)
	if !ok {
		return nil, fmt.Errorf("unexpected stackTrace response %T", message)
	}

	frames := response.Body.StackFrames
	entries := make([]StackEntry, 0, len(frames))
	// The adapter reports newest first.
	for i := len(frames) - 1; i >= 0; i-- {
		frame := newDAPFrame(t, frames[i])
		entries = append(entries, StackEntry{Frame: frame, Line: frame.Line()})
	}
	for i := 1; i < len(entries); i++ {
		entries[i].Frame.(*dapFrame).parent = entries[i-1].Frame.(*dapFrame)
	}
	return entries, nil
}

func (t *DAPTracer) Evaluate(ctx context.Context, frame Frame, expr string) (string, error) {
	if t.statusManager.Is(utils.Finish) {
		return "", e.ErrTracerFinished
	}
	frameID := 0
	if f, ok := frame.(*dapFrame); ok && f != nil {
		frameID = f.id
	}
	request := &dap.EvaluateRequest{
		Request: t.newRequest("evaluate"),
		Arguments: dap.EvaluateArguments{
			Expression: expr,
			FrameId:    frameID,
			Context:    "repl",
		},
	}
	message, err := t.sendWithTimeout(RequestTimeout, request)
	if err != nil {
		return "", err
	}
	response, ok := message.(*dap.EvaluateResponse)
	if !ok {
		return "", fmt.Errorf("unexpected evaluate response %T", message)
	}
	return response.Body.Result, nil
}

func (t *DAPTracer) StepOver(ctx context.Context) error {
	return t.step(&dap.NextRequest{
		Request:   t.newRequest("next"),
		Arguments: dap.NextArguments{ThreadId: int(atomic.LoadInt64(&t.threadID))},
	})
}

func (t *DAPTracer) StepIn(ctx context.Context) error {
	return t.step(&dap.StepInRequest{
		Request:   t.newRequest("stepIn"),
		Arguments: dap.StepInArguments{ThreadId: int(atomic.LoadInt64(&t.threadID))},
	})
}

func (t *DAPTracer) StepOut(ctx context.Context) error {
	return t.step(&dap.StepOutRequest{
		Request:   t.newRequest("stepOut"),
		Arguments: dap.StepOutArguments{ThreadId: int(atomic.LoadInt64(&t.threadID))},
	})
}

func (t *DAPTracer) Continue(ctx context.Context) error {
	return t.step(&dap.ContinueRequest{
		Request:   t.newRequest("continue"),
		Arguments: dap.ContinueArguments{ThreadId: int(atomic.LoadInt64(&t.threadID))},
	})
}

func (t *DAPTracer) step(request dap.RequestMessage) error {
	if t.statusManager.Is(utils.Finish) {
		return e.ErrTracerFinished
	}
	if !t.statusManager.Is(utils.Stopped) {
		return e.ErrTracerNotStopped
	}
	t.statusManager.Set(utils.Running)
	_, err := t.sendWithTimeout(RequestTimeout, request)
	if err != nil {
		t.statusManager.Set(utils.Stopped)
	}
	return err
}

func (t *DAPTracer) Quit(ctx context.Context) error {
	request := &dap.DisconnectRequest{
		Request: t.newRequest("disconnect"),
		Arguments: &dap.DisconnectArguments{
			TerminateDebuggee: true,
		},
	}
	_, err := t.sendWithTimeout(RequestTimeout, request)
	t.statusManager.Set(utils.Finish)
	if t.ptm != nil {
		t.ptm.Close()
	}
	if t.pts != nil {
		t.pts.Close()
	}
	if t.cmd != nil && t.cmd.Process != nil {
		gosync.Go(ctx, func(ctx context.Context) {
			t.cmd.Wait()
		})
	}
	return err
}

func (t *DAPTracer) AddBreakpoints(ctx context.Context, breakpoints []*Breakpoint) error {
	if len(breakpoints) == 0 {
		return nil
	}
	t.bpMu.Lock()
	files := make(map[string]bool)
	for _, bp := range breakpoints {
		if !containsInt(t.breakpoints[bp.File], bp.Line) {
			t.breakpoints[bp.File] = append(t.breakpoints[bp.File], bp.Line)
		}
		files[bp.File] = true
	}
	t.bpMu.Unlock()
	return t.syncBreakpoints(files)
}

func (t *DAPTracer) RemoveBreakpoints(ctx context.Context, breakpoints []*Breakpoint) error {
	if len(breakpoints) == 0 {
		return nil
	}
	t.bpMu.Lock()
	files := make(map[string]bool)
	for _, bp := range breakpoints {
		lines := t.breakpoints[bp.File]
		kept := lines[:0]
		for _, line := range lines {
			if line != bp.Line {
				kept = append(kept, line)
			}
		}
		t.breakpoints[bp.File] = kept
		files[bp.File] = true
	}
	t.bpMu.Unlock()
	return t.syncBreakpoints(files)
}

// syncBreakpoints resends the full breakpoint set of each file.
func (t *DAPTracer) syncBreakpoints(files map[string]bool) error {
	for file := range files {
		t.bpMu.Lock()
		lines := append([]int(nil), t.breakpoints[file]...)
		t.bpMu.Unlock()

		sourceBps := make([]dap.SourceBreakpoint, len(lines))
		for i, line := range lines {
			sourceBps[i] = dap.SourceBreakpoint{Line: line}
		}
		request := &dap.SetBreakpointsRequest{
			Request: t.newRequest("setBreakpoints"),
			Arguments: dap.SetBreakpointsArguments{
				Source:      dap.Source{Path: file},
				Breakpoints: sourceBps,
			},
		}
		if _, err := t.sendWithTimeout(RequestTimeout, request); err != nil {
			return err
		}
	}
	return nil
}

func containsInt(list []int, v int) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
