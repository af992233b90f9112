package pdbpp

import (
	"sort"
	"strings"

	"github.com/bretello/pdbpp/utils"
)

// CompletionSource produces completion candidates one at a time: it is
// called with increasing state until ok is false. This matches the
// readline calling convention both providers use.
type CompletionSource interface {
	Complete(text string, state int) (candidate string, ok bool)
}

// fillerCandidate is what the rich completer yields when it has nothing
// to offer and the text is blank (insert a literal tab).
const fillerCandidate = "\t"

// Complete merges the rich and basic completion sources into one
// de-duplicated, underscore-filtered candidate list. state 0 rebuilds
// the list for text; higher states index into the cached list.
// Completion never fails: provider errors become zero candidates.
func (s *Session) Complete(text string, state int) (string, bool) {
	if state == 0 {
		s.registry.setCompleting(true)
		s.buildCompletions(text)
		s.registry.setCompleting(false)
	}
	if state >= 0 && state < len(s.completions) {
		return s.completions[state], true
	}
	return "", false
}

func (s *Session) buildCompletions(text string) {
	rich := s.drainCompleter(s.richCompleter, text)
	basic := s.drainCompleter(s.basicCompleter, text)

	// A lone filler from the rich side loses against real results.
	if len(rich) == 1 && rich[0] == fillerCandidate && len(basic) > 0 {
		rich = nil
	}

	cleanRich := make([]string, len(rich))
	for i, x := range rich {
		if s.richColors {
			cleanRich[i] = reCompleterSeqs.ReplaceAllString(x, "")
		} else {
			cleanRich[i] = x
		}
	}
	cleanSet := utils.List2set(cleanRich)

	completions := make([]string, len(rich))
	copy(completions, rich)

	if len(basic) > 0 {
		basicPrefix := commonPrefix(basic)
		if strings.Contains(text, ".") && basicPrefix != "" && len(basic) > 1 {
			// Strip the dotted prefix already implied by text.
			dotted := strings.Split(text, ".")
			prefix := strings.Join(dotted[:len(dotted)-1], ".") + "."
			for i, x := range basic {
				if strings.HasPrefix(x, prefix) {
					basic[i] = x[len(prefix):]
				}
			}
		}
		if len(rich) == 1 && strings.Contains(cleanRich[0], ".") && basicPrefix != "" {
			// A single dotted rich result wins over ambiguous basic ones.
			basic = nil
		}
		for _, x := range basic {
			if !cleanSet.Contains(x) {
				completions = append(completions, x)
			}
		}
	}

	s.completions = completions
	s.filterCompletions(text)
}

// drainCompleter collects every candidate from one source. Source
// errors (panics) are reported as a warning and yield no candidates.
func (s *Session) drainCompleter(source CompletionSource, text string) (all []string) {
	if source == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			s.errorf("error during completion: %v", r)
			all = nil
		}
	}()
	for i := 0; ; i++ {
		candidate, ok := source.Complete(text, i)
		if !ok {
			break
		}
		all = append(all, candidate)
	}
	return all
}

// filterCompletions hides underscore-prefixed names by default.
// Requesting the same text again reveals single-underscore names, a
// third request also reveals double-underscore names. The escalation
// counter resets as soon as the text changes.
func (s *Session) filterCompletions(text string) {
	if s.lastCompSeen && text == s.lastCompText {
		if s.lastCompCount < 2 {
			s.lastCompCount++
		}
	} else {
		s.lastCompSeen = true
		s.lastCompText = text
		s.lastCompCount = 0
	}

	hidePrefix := ""
	switch s.lastCompCount {
	case 0:
		if !strings.HasSuffix(text, "_") {
			hidePrefix = "_"
		} else if !strings.HasSuffix(text, "__") {
			hidePrefix = "__"
		}
	case 1:
		if !strings.HasSuffix(text, "__") {
			hidePrefix = "__"
		}
	default:
		return
	}
	if hidePrefix == "" {
		return
	}

	kept := s.completions[:0]
	for _, x := range s.completions {
		if !strings.HasPrefix(stripEscapes(x), hidePrefix) {
			kept = append(kept, x)
		}
	}
	s.completions = kept
}

func commonPrefix(names []string) string {
	if len(names) == 0 {
		return ""
	}
	prefix := names[0]
	for _, name := range names[1:] {
		for !strings.HasPrefix(name, prefix) {
			prefix = prefix[:len(prefix)-1]
			if prefix == "" {
				return ""
			}
		}
	}
	return prefix
}

// namespaceCompleter is the default rich source: names from the current
// frame's locals overlaid on its globals, optionally colorized.
type namespaceCompleter struct {
	session *Session
}

func (c *namespaceCompleter) Complete(text string, state int) (string, bool) {
	if state == 0 {
		c.session.richMatches = c.matches(text)
	}
	if state < len(c.session.richMatches) {
		return c.session.richMatches[state], true
	}
	return "", false
}

func (c *namespaceCompleter) matches(text string) []string {
	ns := c.session.frameBindings()
	var names []string
	for name := range ns {
		if strings.HasPrefix(name, text) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	if len(names) == 0 && text == "" {
		return []string{fillerCandidate}
	}
	if c.session.richColors {
		for i, name := range names {
			names[i] = setColor(name, c.session.config.LineNumberColor)
		}
	}
	return names
}

// commandCompleter is the default basic source: registered command
// names.
type commandCompleter struct {
	session *Session
}

func (c *commandCompleter) Complete(text string, state int) (string, bool) {
	if state == 0 {
		var names []string
		for name := range c.session.commands {
			if strings.HasPrefix(name, text) {
				names = append(names, name)
			}
		}
		sort.Strings(names)
		c.session.basicMatches = names
	}
	if state < len(c.session.basicMatches) {
		return c.session.basicMatches[state], true
	}
	return "", false
}
