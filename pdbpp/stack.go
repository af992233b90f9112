package pdbpp

import (
	"path"
	"strings"

	"github.com/bretello/pdbpp/constants"
	"github.com/bretello/pdbpp/debugger"
)

// HidePredicate decides whether a frame is excluded from default stack
// display and navigation. reason tells the hf_list command why.
type HidePredicate func(f debugger.Frame) (hidden bool, reason constants.HideReasonType)

// hideByMarker is the only predicate that may hide the entry frame.
func hideByMarker(f debugger.Frame) (bool, constants.HideReasonType) {
	return f.MarkedHidden(), constants.HiddenByMarker
}

func hideByTracebackHide(f debugger.Frame) (bool, constants.HideReasonType) {
	if v, ok := f.Locals()[constants.TracebackHideLocal]; ok {
		return truthy(v), constants.HiddenByTracebackLocal
	}
	if v, ok := f.Globals()[constants.TracebackHideLocal]; ok {
		return truthy(v), constants.HiddenByTracebackGlobal
	}
	return false, constants.HiddenByTracebackLocal
}

func hideByUnittest(f debugger.Frame) (bool, constants.HideReasonType) {
	return truthy(f.Globals()[constants.UnittestGlobal]), constants.HiddenByUnittest
}

func hideBySkipPatterns(patterns []string) HidePredicate {
	return func(f debugger.Frame) (bool, constants.HideReasonType) {
		for _, pat := range patterns {
			if ok, err := path.Match(pat, f.Func()); err == nil && ok {
				return true, constants.HiddenBySkipPattern
			}
		}
		return false, constants.HiddenBySkipPattern
	}
}

func truthy(v string) bool {
	switch strings.ToLower(v) {
	case "", "0", "false", "nil", "none", "<nil>":
		return false
	}
	return true
}

// isHidden evaluates the hide predicates for one frame. The frame that
// contains the initial entry into the session is only ever hidden by
// the explicit marker, not by the environmental predicates.
func (s *Session) isHidden(f debugger.Frame) bool {
	if !s.config.EnableHiddenFrames {
		return false
	}
	if hidden, _ := hideByMarker(f); hidden {
		return true
	}
	if s.entryFrameID != "" && f.ID() == s.entryFrameID {
		return false
	}
	if hidden, _ := hideByUnittest(f); hidden {
		return true
	}
	if hidden, _ := hideByTracebackHide(f); hidden {
		return true
	}
	if len(s.config.SkipPatterns) > 0 {
		if hidden, _ := hideBySkipPatterns(s.config.SkipPatterns)(f); hidden {
			return true
		}
	}
	return false
}

// computeStack partitions fullstack into visible and hidden frames,
// keeping original order on both sides, and maps idx into the visible
// stack. A stack is never fully hidden: when everything would be
// hidden, the most recently hidden frame is moved back; when the
// current frame itself would be hidden it is moved back instead, so the
// selection survives the filtering.
func (s *Session) computeStack(fullstack []debugger.StackEntry, idx int) (visible, hidden []debugger.StackEntry, newIdx int) {
	if len(fullstack) == 0 {
		return fullstack, nil, 0
	}
	if idx < 0 || idx >= len(fullstack) {
		idx = len(fullstack) - 1
	}
	if s.showHiddenFrames {
		return fullstack, nil, idx
	}

	keep := make([]bool, len(fullstack))
	anyVisible := false
	for i, entry := range fullstack {
		keep[i] = !s.isHidden(entry.Frame)
		anyVisible = anyVisible || keep[i]
	}

	if !anyVisible {
		// Un-hide the most recently hidden frame.
		keep[len(fullstack)-1] = true
	} else if !keep[idx] {
		keep[idx] = true
	}

	currentID := fullstack[idx].Frame.ID()
	newIdx = -1
	for i, entry := range fullstack {
		if keep[i] {
			if entry.Frame.ID() == currentID {
				newIdx = len(visible)
			}
			visible = append(visible, entry)
		} else {
			hidden = append(hidden, entry)
		}
	}
	if newIdx < 0 {
		newIdx = len(visible) - 1
	}
	return visible, hidden, newIdx
}

// refreshStack recomputes the visible stack, e.g. after the hidden
// frame mode was toggled. The selected frame stays selected when it is
// still visible, else selection falls back to the newest frame.
func (s *Session) refreshStack() {
	currentID := ""
	if s.curIndex >= 0 && s.curIndex < len(s.stack) {
		currentID = s.stack[s.curIndex].Frame.ID()
	}
	visible, hidden, _ := s.computeStack(s.fullStack, len(s.fullStack)-1)
	s.stack, s.hiddenFrames = visible, hidden

	for i, entry := range s.stack {
		if entry.Frame.ID() == currentID {
			s.curIndex = i
			return
		}
	}
	s.curIndex = len(s.stack) - 1
	s.printCurrentStackEntry()
}

func (s *Session) currentEntry() debugger.StackEntry {
	return s.stack[s.curIndex]
}

func (s *Session) currentFrame() debugger.Frame {
	if s.curIndex < 0 || s.curIndex >= len(s.stack) {
		return nil
	}
	return s.stack[s.curIndex].Frame
}

// frameBindings overlays the current frame's locals over its globals,
// the namespace expressions are evaluated in.
func (s *Session) frameBindings() map[string]string {
	f := s.currentFrame()
	if f == nil {
		return nil
	}
	ns := make(map[string]string)
	for k, v := range f.Globals() {
		ns[k] = v
	}
	for k, v := range f.Locals() {
		ns[k] = v
	}
	return ns
}
