package pdbpp

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/bretello/pdbpp/constants"
	"github.com/bretello/pdbpp/debugger"
	"github.com/bretello/pdbpp/utils"
)

// commandFunc runs one command. count carries the "<N><cmd>" prefix (0
// when absent); the return value reports whether execution resumes.
type commandFunc func(ctx context.Context, arg string, count int) bool

type commandEntry struct {
	fn   commandFunc
	help string
}

func (s *Session) registerCommands() {
	s.commands = make(map[string]*commandEntry)
	reg := func(help string, fn commandFunc, names ...string) {
		entry := &commandEntry{fn: fn, help: help}
		for _, name := range names {
			s.commands[name] = entry
		}
	}

	reg("h(elp) [command]\nList commands, or show the help of one command.",
		s.doHelp, "help", "h")
	reg("w(here)\nPrint the stack trace, newest frame last.",
		s.doWhere, "where", "w", "bt")
	reg("u(p) [count]\nMove the selection count frames up (towards the caller).",
		s.doUp, "up", "u")
	reg("d(own) [count]\nMove the selection count frames down (away from the caller).",
		s.doDown, "down", "d")
	reg("f(rame) [index]\nSelect the frame with the given index; negative counts from the newest.",
		s.doFrame, "frame", "f")
	reg("top\nSelect the oldest frame.", s.doTop, "top")
	reg("bottom\nSelect the newest frame.", s.doBottom, "bottom")
	reg("l(ist) [first[, last]]\nList source around the current line; repeat to continue.",
		s.doList, "list", "l")
	reg("ll | longlist\nList the whole current function.",
		s.doLongList, "longlist", "ll")
	reg("sticky [start end]\nToggle sticky mode, optionally bounded to a line range.",
		s.doSticky, "sticky")
	reg("display expression\nRe-evaluate the expression at every stop and print it when it changed.",
		s.doDisplayCmd, "display")
	reg("undisplay expression\nStop displaying the expression.",
		s.doUndisplayCmd, "undisplay")
	reg("p expression\nEvaluate the expression and print its value.",
		s.doP, "p")
	reg("pp expression\nEvaluate the expression and pretty-print its value; a count prefix sets the width.",
		s.doPP, "pp")
	reg("inspect expression, or expression?\nShow the value of the expression.",
		s.doInspect, "inspect")
	reg("inspect_with_source expression, or expression??\nShow the value and, when found, the definition of the expression.",
		s.doInspectWithSource, "inspect_with_source")
	reg("hf_hide\nFilter hidden frames out of the stack (default).",
		s.doHfHide, "hf_hide")
	reg("hf_unhide\nShow hidden frames in the stack.",
		s.doHfUnhide, "hf_unhide")
	reg("hf_list\nList the currently hidden frames.",
		s.doHfList, "hf_list")
	reg("edit [expression]\nOpen the configured editor at the current line.",
		s.doEdit, "edit", "ed")
	reg("source name\nShow the definition of name in the current file.",
		s.doSource, "source")
	reg("n(ext)\nExecute the next line, stepping over calls.",
		s.doNext, "next", "n")
	reg("s(tep)\nExecute the next line, stepping into calls.",
		s.doStep, "step", "s")
	reg("r(eturn)\nRun until the current function returns.",
		s.doReturn, "return", "r")
	reg("c(ont(inue))\nResume execution until the next breakpoint.",
		s.doContinue, "continue", "cont", "c")
	reg("unt(il) [line]\nRun until a line greater than the current (or the given) one is reached.",
		s.doUntil, "until", "unt")
	reg("b(reak) [[file:]line]\nSet a breakpoint, or list the known ones.",
		s.doBreak, "break", "b")
	reg("q(uit)\nQuit the debugger and terminate the debuggee.",
		s.doQuit, "quit", "q", "exit")
	reg("debug expression\nEvaluate the expression inside a nested, recursive session.",
		s.doDebug, "debug")
}

const helpHiddenFrames = `Some frames are hidden from the stack by default:
 * frames whose function carries the hide marker
 * frames with a truthy __tracebackhide__ local or global
 * frames whose globals carry a truthy __unittest
 * frames whose function name matches a configured skip pattern
The frame the session was entered from is never hidden by the
environmental rules, and the stack is never left empty: when every
frame would be hidden, the newest one stays visible.

Use hf_unhide to show hidden frames, hf_hide to filter them again and
hf_list to list the ones currently filtered out.`

func (s *Session) doHelp(_ context.Context, arg string, _ int) bool {
	if arg == "" {
		names := make([]string, 0, len(s.commands))
		seen := make(map[*commandEntry]bool)
		for name, entry := range s.commands {
			if seen[entry] {
				continue
			}
			seen[entry] = true
			names = append(names, name)
		}
		sort.Strings(names)
		s.message("Documented commands (type help <topic>):")
		s.message("%s", strings.Join(names, "  "))
		s.message("")
		s.message("Undocumented topics: hidden_frames")
		return false
	}
	if arg == "hidden_frames" {
		s.message("%s", helpHiddenFrames)
		return false
	}
	entry, ok := s.commands[arg]
	if !ok {
		s.errorf("No help for %q", arg)
		return false
	}
	s.message("%s", entry.help)
	return false
}

func (s *Session) doWhere(_ context.Context, _ string, _ int) bool {
	for i := range s.stack {
		s.printStackEntry(i, true)
	}
	s.printHiddenFramesCount()
	return false
}

// afterMove re-renders the position after a selection change.
func (s *Session) afterMove() {
	if s.sticky {
		s.stickyNeedCls = true
		s.printIfSticky()
	} else {
		s.printCurrentStackEntry()
	}
}

func moveCount(arg string, count int) (int, error) {
	if count > 0 {
		return count, nil
	}
	if arg == "" {
		return 1, nil
	}
	return strconv.Atoi(arg)
}

func (s *Session) doUp(_ context.Context, arg string, count int) bool {
	n, err := moveCount(arg, count)
	if err != nil {
		s.errorf("Invalid count (%s)", arg)
		return false
	}
	if s.curIndex == 0 {
		s.errorf("Oldest frame")
		return false
	}
	s.curIndex = max(0, s.curIndex-n)
	s.afterMove()
	return false
}

func (s *Session) doDown(_ context.Context, arg string, count int) bool {
	n, err := moveCount(arg, count)
	if err != nil {
		s.errorf("Invalid count (%s)", arg)
		return false
	}
	if s.curIndex >= len(s.stack)-1 {
		s.errorf("Newest frame")
		return false
	}
	s.curIndex = min(len(s.stack)-1, s.curIndex+n)
	s.afterMove()
	return false
}

func (s *Session) doFrame(_ context.Context, arg string, _ int) bool {
	if arg == "" {
		s.printCurrentStackEntry()
		return false
	}
	idx, err := strconv.Atoi(arg)
	if err != nil {
		s.errorf("Invalid frame index (%s)", arg)
		return false
	}
	if idx < 0 {
		idx += len(s.stack)
	}
	if idx < 0 || idx >= len(s.stack) {
		s.errorf("Out of range")
		return false
	}
	s.curIndex = idx
	s.afterMove()
	return false
}

func (s *Session) doTop(_ context.Context, _ string, _ int) bool {
	if s.curIndex == 0 {
		s.errorf("Oldest frame")
		return false
	}
	s.curIndex = 0
	s.afterMove()
	return false
}

func (s *Session) doBottom(_ context.Context, _ string, _ int) bool {
	if s.curIndex == len(s.stack)-1 {
		s.errorf("Newest frame")
		return false
	}
	s.curIndex = len(s.stack) - 1
	s.afterMove()
	return false
}

func (s *Session) doList(_ context.Context, arg string, _ int) bool {
	frame := s.currentFrame()
	if frame == nil {
		s.errorf("No stack")
		return false
	}
	lines, err := s.lines.Lines(frame.File())
	if err != nil {
		s.error(err)
		return false
	}

	first := 0
	last := 0
	switch {
	case arg == ".":
		s.lastListLine = 0
		fallthrough
	case arg == "":
		if s.lastListLine > 0 {
			first = s.lastListLine + 1
		} else {
			first = max(1, frame.Line()-5)
		}
		last = first + 10
	default:
		parts := strings.SplitN(arg, ",", 2)
		first, err = strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil {
			s.errorf("Error in argument: %q", arg)
			return false
		}
		if len(parts) == 2 {
			last, err = strconv.Atoi(strings.TrimSpace(parts[1]))
			if err != nil {
				s.errorf("Error in argument: %q", arg)
				return false
			}
			if last < first {
				// The second number is a count.
				last = first + last
			}
		} else {
			last = first + 10
		}
	}

	first = max(1, first)
	last = min(len(lines), last)
	if first > len(lines) {
		s.errorf("End of file")
		s.lastListLine = 0
		return false
	}
	s.printLines(lines[first-1:last], first, true, 0)
	s.lastListLine = last
	return false
}

func (s *Session) doLongList(_ context.Context, _ string, _ int) bool {
	s.printLongList(nil, 0)
	return false
}

func (s *Session) doSticky(_ context.Context, arg string, _ int) bool {
	frame := s.currentFrame()
	if frame == nil {
		s.errorf("No stack")
		return false
	}
	if arg != "" {
		fields := strings.Fields(arg)
		if len(fields) != 2 {
			s.errorf("Usage: sticky [start end]")
			return false
		}
		start, err1 := strconv.Atoi(fields[0])
		end, err2 := strconv.Atoi(fields[1])
		if err1 != nil || err2 != nil || start > end {
			s.errorf("Usage: sticky [start end]")
			return false
		}
		s.stickyRanges[frame.ID()] = [2]int{start, end}
		s.sticky = true
		s.stickyNeedCls = true
		s.printIfSticky()
		return false
	}
	if s.sticky {
		s.sticky = false
		delete(s.stickyRanges, frame.ID())
		s.printCurrentStackEntry()
	} else {
		s.sticky = true
		s.stickyNeedCls = true
		s.printIfSticky()
	}
	return false
}

func (s *Session) doDisplayCmd(ctx context.Context, arg string, _ int) bool {
	if arg == "" {
		list := s.displayList()
		if len(list) == 0 {
			s.message("No expressions in the display list")
			return false
		}
		exprs := make([]string, 0, len(list))
		for expr := range list {
			exprs = append(exprs, expr)
		}
		sort.Strings(exprs)
		for _, expr := range exprs {
			s.message("%s: %s", expr, list[expr])
		}
		return false
	}
	s.doDisplay(ctx, arg)
	return false
}

func (s *Session) doUndisplayCmd(_ context.Context, arg string, _ int) bool {
	s.doUndisplay(arg)
	return false
}

func (s *Session) doP(ctx context.Context, arg string, _ int) bool {
	if !s.requireTracer() {
		return false
	}
	value, err := s.tracer.Evaluate(ctx, s.currentFrame(), arg)
	if err != nil {
		s.reportEvalError(err)
		return false
	}
	s.message("%s", value)
	return false
}

// doPP pretty-prints: values wider than the terminal (or the count
// prefix) wrap at that width.
func (s *Session) doPP(ctx context.Context, arg string, count int) bool {
	if !s.requireTracer() {
		return false
	}
	value, err := s.tracer.Evaluate(ctx, s.currentFrame(), arg)
	if err != nil {
		s.reportEvalError(err)
		return false
	}
	width := count
	if width <= 0 {
		width, _ = s.terminalSize()
	}
	for _, line := range wrapValue(value, width) {
		s.message("%s", line)
	}
	return false
}

func wrapValue(value string, width int) []string {
	if width < 8 {
		width = 8
	}
	var out []string
	for _, line := range strings.Split(value, "\n") {
		for len(line) > width {
			out = append(out, line[:width])
			line = line[width:]
		}
		out = append(out, line)
	}
	return out
}

func (s *Session) doInspect(ctx context.Context, arg string, _ int) bool {
	return s.inspect(ctx, arg, false)
}

func (s *Session) doInspectWithSource(ctx context.Context, arg string, _ int) bool {
	return s.inspect(ctx, arg, true)
}

func (s *Session) inspect(ctx context.Context, arg string, withSource bool) bool {
	if arg == "" {
		s.errorf("Nothing to inspect")
		return false
	}
	if !s.requireTracer() {
		return false
	}
	value, err := s.tracer.Evaluate(ctx, s.currentFrame(), arg)
	if err != nil {
		s.reportEvalError(err)
		return false
	}
	s.message("%s", value)
	if withSource {
		s.printDefinition(arg)
	}
	return false
}

// printDefinition shows the definition of name when it can be found in
// the current file.
func (s *Session) printDefinition(name string) {
	frame := s.currentFrame()
	if frame == nil {
		return
	}
	lineno, lines := findDefinition(s.lines, frame.File(), name)
	if lineno == 0 {
		s.errorf("Could not get source for %q", name)
		return
	}
	s.printLines(lines, lineno, false, 0)
}

func (s *Session) doSource(_ context.Context, arg string, _ int) bool {
	if arg == "" {
		s.errorf("Usage: source name")
		return false
	}
	s.printDefinition(arg)
	return false
}

func (s *Session) doHfHide(_ context.Context, _ string, _ int) bool {
	s.showHiddenFrames = false
	s.refreshStack()
	return false
}

func (s *Session) doHfUnhide(_ context.Context, _ string, _ int) bool {
	s.showHiddenFrames = true
	s.refreshStack()
	return false
}

func (s *Session) doHfList(_ context.Context, _ string, _ int) bool {
	if len(s.hiddenFrames) == 0 {
		s.message("No frames hidden")
		return false
	}
	for _, entry := range s.hiddenFrames {
		s.message("%s", s.formatStackEntryLocation(entry))
	}
	return false
}

func (s *Session) doEdit(_ context.Context, arg string, _ int) bool {
	frame := s.currentFrame()
	if frame == nil {
		s.errorf("No stack")
		return false
	}
	filename, lineno := frame.File(), frame.Line()
	if arg != "" {
		// "file:lineno" or a bare file name.
		filename = arg
		lineno = 1
		if i := strings.LastIndex(arg, ":"); i > 0 {
			if n, err := strconv.Atoi(arg[i+1:]); err == nil {
				filename, lineno = arg[:i], n
			}
		}
	}
	if err := s.launchEditor(filename, lineno); err != nil {
		s.error(err)
	}
	return false
}

func (s *Session) doNext(ctx context.Context, _ string, _ int) bool {
	if !s.requireTracer() {
		return false
	}
	return s.resume(s.tracer.StepOver(ctx))
}

func (s *Session) doStep(ctx context.Context, _ string, _ int) bool {
	if !s.requireTracer() {
		return false
	}
	return s.resume(s.tracer.StepIn(ctx))
}

func (s *Session) doReturn(ctx context.Context, _ string, _ int) bool {
	if !s.requireTracer() {
		return false
	}
	return s.resume(s.tracer.StepOut(ctx))
}

func (s *Session) doContinue(ctx context.Context, _ string, _ int) bool {
	if !s.requireTracer() {
		return false
	}
	// Breakpoint output printed on the next stop stays readable.
	s.stickySkipCls = true
	return s.resume(s.tracer.Continue(ctx))
}

func (s *Session) doUntil(ctx context.Context, arg string, _ int) bool {
	if !s.requireTracer() {
		return false
	}
	frame := s.currentFrame()
	if frame == nil {
		s.errorf("No stack")
		return false
	}
	lineno := frame.Line() + 1
	if arg != "" {
		n, err := strconv.Atoi(arg)
		if err != nil {
			s.errorf("Error in argument: %q", arg)
			return false
		}
		lineno = n
	}
	bp := debugger.NewBreakpoint(frame.File(), lineno)
	if err := s.tracer.AddBreakpoints(ctx, []*debugger.Breakpoint{bp}); err != nil {
		s.error(err)
		return false
	}
	return s.resume(s.tracer.Continue(ctx))
}

func (s *Session) doBreak(ctx context.Context, arg string, _ int) bool {
	if arg == "" {
		if len(s.breakpoints) == 0 {
			s.message("No breakpoints")
			return false
		}
		for i, bp := range s.breakpoints {
			s.message("%d   breakpoint at %s:%d", i+1, bp.File, bp.Line)
		}
		return false
	}
	file := ""
	lineStr := arg
	if i := strings.LastIndex(arg, ":"); i >= 0 {
		file, lineStr = arg[:i], arg[i+1:]
	}
	lineno, err := strconv.Atoi(lineStr)
	if err != nil {
		s.errorf("Error in argument: %q", arg)
		return false
	}
	if file == "" {
		frame := s.currentFrame()
		if frame == nil {
			s.errorf("No stack")
			return false
		}
		file = frame.File()
	}
	if !s.requireTracer() {
		return false
	}
	bp := debugger.NewBreakpoint(file, lineno)
	if err := s.tracer.AddBreakpoints(ctx, []*debugger.Breakpoint{bp}); err != nil {
		s.error(err)
		return false
	}
	s.breakpoints = append(s.breakpoints, bp)
	s.message("Breakpoint %d at %s:%d", len(s.breakpoints), bp.File, bp.Line)
	return false
}

func (s *Session) doQuit(ctx context.Context, _ string, _ int) bool {
	s.stickySkipCls = true
	if s.tracer != nil {
		if err := s.tracer.Quit(ctx); err != nil {
			s.error(err)
		}
	}
	s.status.Set(utils.Finish)
	return true
}

// doDebug runs the expression inside a nested session sharing the
// current stop, so it can be inspected without disturbing this one.
func (s *Session) doDebug(ctx context.Context, arg string, _ int) bool {
	nested := s.nestedSession()
	s.message("ENTERING RECURSIVE DEBUGGER")
	event := debugger.NewStoppedEvent(constants.StepStopped, s.currentFrame(), s.fullStack)
	if arg != "" {
		nested.lastCmd = arg
		nested.defaultCmd(ctx, arg)
	}
	if err := nested.Interaction(ctx, event); err != nil {
		s.error(err)
	}
	s.message("LEAVING RECURSIVE DEBUGGER")
	return false
}

func (s *Session) nestedSession() *Session {
	if s.registry != nil {
		return s.registry.acquireNested(s, s.tracer)
	}
	nested := NewSession(nil, SessionOptions{
		Tracer:      s.tracer,
		Reader:      s.reader,
		Highlighter: s.highlighter,
		Out:         s.out,
		Config:      s.config,
		Kind:        s.kind,
	})
	nested.sticky = s.sticky
	nested.firstTimeSticky = false
	return nested
}

// resume ends the command loop unless the step request itself failed.
func (s *Session) resume(err error) bool {
	if err != nil {
		s.error(err)
		return false
	}
	return true
}

var defRegexpFormats = []string{
	`def %s`, `class %s`, `func %s`, `%s =`, `%s:`,
}

// findDefinition locates the definition of name in path, returning the
// 1-based line number and the definition's consecutive indented block.
func findDefinition(cache *lineCache, path, name string) (int, []string) {
	lines, err := cache.Lines(path)
	if err != nil {
		return 0, nil
	}
	for i, line := range lines {
		trimmed := strings.TrimLeft(line, " \t")
		for _, format := range defRegexpFormats {
			prefix := fmt.Sprintf(format, name)
			if strings.HasPrefix(trimmed, prefix) {
				return i + 1, definitionBlock(lines, i)
			}
		}
	}
	return 0, nil
}

func definitionBlock(lines []string, start int) []string {
	indent := indentOf(lines[start])
	end := start + 1
	for end < len(lines) {
		line := lines[end]
		if strings.TrimSpace(line) != "" && indentOf(line) <= indent {
			break
		}
		end++
	}
	// Trim trailing blank lines.
	for end > start+1 && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	return lines[start:end]
}

func indentOf(line string) int {
	n := 0
	for _, c := range line {
		switch c {
		case ' ':
			n++
		case '\t':
			n += 4
		default:
			return n
		}
	}
	return n
}
