package pdbpp

// NewPlainSession builds a bare session: no colors, no sticky mode, no
// hidden-frame filtering and no namespace completion. The registry
// falls back to it when acquiring a session re-enters the debugger, so
// a broken fancy setup still leaves a usable prompt.
func NewPlainSession(opts SessionOptions) *Session {
	config := opts.Config
	if config == nil {
		config = DefaultConfig()
	}
	plain := *config
	plain.Prompt = "(Pdb) "
	plain.Highlight = false
	plain.StickyByDefault = false
	plain.EnableHiddenFrames = false
	plain.CurrentLineColor = ""
	opts.Config = &plain
	opts.Highlighter = nil

	s := NewSession(nil, opts)
	s.prompt = plain.Prompt
	s.richCompleter = nil
	s.richColors = false
	return s
}
