package pdbpp

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"golang.org/x/term"

	"github.com/bretello/pdbpp/constants"
	"github.com/bretello/pdbpp/debugger"
	"github.com/bretello/pdbpp/utils"
)

// SessionOptions carries the collaborators of a session. Tracer is
// mandatory, everything else has a workable zero value.
type SessionOptions struct {
	Tracer      debugger.Tracer
	Reader      debugger.LineReader
	Highlighter debugger.Highlighter
	Out         io.Writer
	Config      *Config
	// Kind distinguishes sessions for global reuse, e.g. a plain
	// post-mortem session is not reused for an interactive stop.
	Kind string
	// ForceGlobal makes the registry reuse this session even across
	// kinds.
	ForceGlobal bool
}

// Session is one interactive debugging session: a command loop bound to
// a tracer, with stack navigation, watches and the sticky renderer.
type Session struct {
	id       string
	registry *Registry
	config   *Config
	status   *utils.StatusManager

	tracer      debugger.Tracer
	reader      debugger.LineReader
	highlighter debugger.Highlighter
	out         *bufio.Writer
	lines       *lineCache

	kind        string
	forceGlobal bool
	prompt      string

	fullStack        []debugger.StackEntry
	stack            []debugger.StackEntry
	hiddenFrames     []debugger.StackEntry
	curIndex         int
	entryFrameID     string
	showHiddenFrames bool

	sticky          bool
	firstTimeSticky bool
	stickyRanges    map[string][2]int
	stickyMessages  []string
	stickyNeedCls   bool
	stickySkipCls   bool

	displays     map[string]map[string]string
	tbLineno     map[string]int
	excInfo      map[string]*debugger.ExceptionInfo
	returnValues map[string]string
	history      []string

	completions    []string
	lastCompText   string
	lastCompCount  int
	lastCompSeen   bool
	richCompleter  CompletionSource
	basicCompleter CompletionSource
	richColors     bool
	richMatches    []string
	basicMatches   []string

	commands      map[string]*commandEntry
	lastCmd       string
	lastListLine  int
	breakpoints   []*debugger.Breakpoint
	inInteraction bool

	// size overrides terminal size detection, nil outside of tests.
	size func() (width, height int)
}

// NewSession builds a session without registering it. Use
// Registry.Acquire for the reuse and recursion behavior of set_trace.
func NewSession(registry *Registry, opts SessionOptions) *Session {
	config := opts.Config
	if config == nil {
		config = DefaultConfig()
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	s := &Session{
		id:              utils.GetUUID(),
		registry:        registry,
		config:          config,
		status:          utils.NewStatusManager(),
		tracer:          opts.Tracer,
		reader:          opts.Reader,
		highlighter:     opts.Highlighter,
		out:             bufio.NewWriter(out),
		lines:           newLineCache(config.Encodings),
		kind:            opts.Kind,
		forceGlobal:     opts.ForceGlobal,
		prompt:          ensurePrompt(config.Prompt),
		firstTimeSticky: config.StickyByDefault,
		stickyRanges:    make(map[string][2]int),
		displays:        make(map[string]map[string]string),
		tbLineno:        make(map[string]int),
		excInfo:         make(map[string]*debugger.ExceptionInfo),
		returnValues:    make(map[string]string),
		richColors:      config.Highlight,
	}
	s.richCompleter = &namespaceCompleter{session: s}
	s.basicCompleter = &commandCompleter{session: s}
	s.registerCommands()
	return s
}

// Interaction runs the read-eval loop for one stop. It returns when a
// command resumes execution or the input ends.
func (s *Session) Interaction(ctx context.Context, event *debugger.StoppedEvent) error {
	if s.registry != nil && s.registry.isDisabled() {
		return nil
	}
	s.inInteraction = true
	s.status.Set(utils.Interacting)
	defer func() {
		s.inInteraction = false
	}()

	s.setup(event)

	if !s.sticky {
		for _, msg := range s.stickyMessages {
			fmt.Fprintln(s.out, msg)
		}
		s.stickyMessages = nil
		s.printCurrentStackEntry()
		s.printHiddenFramesCount()
	}

	if s.reader != nil {
		s.reader.SetCompleter(s.Complete)
		defer s.reader.SetCompleter(nil)
	}

	s.preLoop(ctx)
	s.out.Flush()
	err := s.commandLoop(ctx)
	s.forget()
	s.out.Flush()
	return err
}

// PostMortem inspects a dead stack: navigation and evaluation work,
// stepping does not.
func (s *Session) PostMortem(ctx context.Context, exc *debugger.ExceptionInfo, stack []debugger.StackEntry) error {
	event := debugger.NewStoppedEvent(constants.ExceptionStopped, nil, stack)
	event.Exception = exc
	if len(stack) > 0 {
		event.Frame = stack[len(stack)-1].Frame
	}
	return s.Interaction(ctx, event)
}

func (s *Session) setup(event *debugger.StoppedEvent) {
	if s.firstTimeSticky {
		s.sticky = true
		s.stickySkipCls = true
		s.firstTimeSticky = false
	} else if s.sticky && (event.Frame == nil || event.Reason == constants.BreakpointStopped) {
		// Breakpoint output and the hit banner stay on screen.
		s.stickySkipCls = true
	}

	s.fullStack = event.Stack
	idx := len(event.Stack) - 1
	if event.Frame != nil {
		for i, entry := range event.Stack {
			if entry.Frame.ID() == event.Frame.ID() {
				idx = i
				break
			}
		}
	}
	if s.entryFrameID == "" && event.Frame != nil {
		s.entryFrameID = event.Frame.ID()
	}
	s.stack, s.hiddenFrames, s.curIndex = s.computeStack(s.fullStack, idx)

	for _, entry := range event.Stack {
		if entry.ExcLine > 0 {
			s.tbLineno[entry.Frame.ID()] = entry.ExcLine
		}
	}
	frame := s.currentFrame()
	if frame != nil {
		if event.Exception != nil {
			s.excInfo[frame.ID()] = event.Exception
		}
		if event.HasReturn {
			s.returnValues[frame.ID()] = event.ReturnValue
			s.stickyMessages = append(s.stickyMessages, "--Return--")
		}
	}
}

// preLoop renders the per-stop output that precedes the first prompt.
func (s *Session) preLoop(ctx context.Context) {
	s.printIfSticky()
	s.printDisplayChanges(ctx)
}

func (s *Session) commandLoop(ctx context.Context) error {
	for {
		line, err := s.readLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(s.out)
				if s.tracer != nil {
					s.tracer.Quit(ctx)
				}
				s.status.Set(utils.Finish)
				return nil
			}
			return err
		}
		resume := s.oneCmd(ctx, line)
		s.postCmd()
		if resume {
			return nil
		}
	}
}

func (s *Session) readLine() (string, error) {
	if s.reader == nil {
		return "", io.EOF
	}
	s.out.Flush()
	return s.reader.ReadLine(s.prompt)
}

// oneCmd disambiguates and dispatches one input line. The return value
// reports whether execution should resume.
func (s *Session) oneCmd(ctx context.Context, line string) bool {
	line = strings.TrimRight(line, "\r\n")
	if strings.TrimSpace(line) == "" {
		if s.lastCmd == "" {
			return false
		}
		line = s.lastCmd
	} else {
		s.lastCmd = line
	}

	tok := s.parseLine(line)
	if tok.Cmd == "" || !s.hasCommand(tok.Cmd) {
		s.defaultCmd(ctx, tok.Line)
		return false
	}
	return s.commands[tok.Cmd].fn(ctx, tok.Arg, tok.Count)
}

func (s *Session) postCmd() {
	if !s.sticky {
		s.flushStickyMessages()
	}
	s.out.Flush()
}

// requireTracer reports whether a live process is attached. Post-mortem
// sessions have none; commands that need one report an error instead.
func (s *Session) requireTracer() bool {
	if s.tracer == nil {
		s.errorf("no process")
		return false
	}
	return true
}

// defaultCmd evaluates line as an expression in the current frame.
func (s *Session) defaultCmd(ctx context.Context, line string) {
	if !s.requireTracer() {
		return
	}
	value, err := s.tracer.Evaluate(ctx, s.currentFrame(), line)
	if err != nil {
		s.reportEvalError(err)
		return
	}
	s.history = append(s.history, line)
	if value != "" {
		fmt.Fprintln(s.out, value)
	}
}

// reSideEffectsFree matches plain name, attribute and subscript
// expressions, the ones safe to re-evaluate.
var reSideEffectsFree = regexp.MustCompile(`^ *[_0-9a-zA-Z\[\].]* *$`)

// History returns the expressions evaluated at the prompt so far, blank
// entries dropped.
func (s *Session) History() []string {
	out := make([]string, 0, len(s.history))
	for _, h := range s.history {
		if strings.TrimSpace(h) != "" {
			out = append(out, h)
		}
	}
	return out
}

// SideEffectsFreeHistory filters History down to expressions that can
// be replayed without running arbitrary code, e.g. for put-style
// exporters.
func (s *Session) SideEffectsFreeHistory() []string {
	var out []string
	for _, h := range s.History() {
		if reSideEffectsFree.MatchString(h) {
			out = append(out, h)
		}
	}
	return out
}

// reportEvalError prints the last line of a multi-line evaluation error
// as the summary, optionally followed by the full detail.
func (s *Session) reportEvalError(err error) {
	lines := strings.Split(strings.TrimRight(err.Error(), "\n"), "\n")
	s.errorf("%s", lines[len(lines)-1])
	if !s.config.ShowTracebackOnError || len(lines) < 2 {
		return
	}
	detail := lines[:len(lines)-1]
	limit := s.config.ShowTracebackOnErrorLimit
	truncated := false
	if limit > 0 && len(detail) > limit {
		detail = detail[:limit]
		truncated = true
	}
	for _, l := range detail {
		fmt.Fprintln(s.out, l)
	}
	if truncated {
		fmt.Fprintln(s.out, "... (truncated)")
	}
}

func (s *Session) message(format string, args ...interface{}) {
	fmt.Fprintf(s.out, format+"\n", args...)
}

func (s *Session) errorf(format string, args ...interface{}) {
	fmt.Fprintf(s.out, "*** "+format+"\n", args...)
}

func (s *Session) error(err error) {
	s.errorf("%s", err)
}

func (s *Session) terminalSize() (width, height int) {
	if s.size != nil {
		return s.size()
	}
	if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 && h > 0 {
		return w, h
	}
	return 80, 24
}

// formatStackEntryLocation renders "file(lineno)funcname()" with the
// configured colors.
func (s *Session) formatStackEntryLocation(entry debugger.StackEntry) string {
	f := entry.Frame
	filename := f.File()
	lineno := fmt.Sprint(f.Line())
	if s.config.Highlight {
		filename = setColor(filename, s.config.FilenameColor)
		lineno = setColor(lineno, s.config.LineNumberColor)
	}
	return fmt.Sprintf("%s(%s)%s()", filename, lineno, f.Func())
}

// printStackEntry prints one stack line, "[idx] > location" for the
// selected frame, followed by the current source line.
func (s *Session) printStackEntry(idx int, withIndex bool) {
	if idx < 0 || idx >= len(s.stack) {
		return
	}
	entry := s.stack[idx]
	marker := "  "
	if idx == s.curIndex {
		marker = "> "
	}
	prefix := marker
	if withIndex {
		width := len(fmt.Sprint(len(s.stack) - 1))
		prefix = fmt.Sprintf("[%*d] %s", width, idx, marker)
	}
	fmt.Fprintf(s.out, "%s%s\n", prefix, s.formatStackEntryLocation(entry))
	if line := s.lines.Line(entry.Frame.File(), entry.Frame.Line()); line != "" {
		fmt.Fprintf(s.out, "-> %s\n", strings.TrimSpace(line))
	}
}

func (s *Session) printCurrentStackEntry() {
	if len(s.stack) == 0 {
		return
	}
	s.printStackEntry(s.curIndex, false)
}

func (s *Session) printHiddenFramesCount() {
	if !s.config.ShowHiddenFramesCount {
		return
	}
	if n := len(s.hiddenFrames); n > 0 {
		s.message("   %d frame%s hidden (try 'help hidden_frames')", n, plural(n))
	}
}

// forget drops the per-stop state. A completion evaluation in flight
// keeps the stack alive, the prompt still refers to it.
func (s *Session) forget() {
	if s.registry != nil && s.registry.isCompleting() {
		return
	}
	s.fullStack = nil
	s.stack = nil
	s.hiddenFrames = nil
	s.curIndex = 0
	s.lines.Invalidate()
}
