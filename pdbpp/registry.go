package pdbpp

import (
	"bufio"
	"os"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/bretello/pdbpp/debugger"
)

// reuseEnvVar disables global session reuse when set to "0".
const reuseEnvVar = "PDBPP_REUSE_GLOBAL_PDB"

// Registry owns the process-wide session slot and the guards around
// it: entering a session while one is being constructed falls back to a
// plain session instead of recursing, and evaluations triggered by tab
// completion are flagged so they do not tear down the stack they run
// against.
type Registry struct {
	mu         sync.Mutex
	global     *Session
	inInit     bool
	completing bool
	disabled   bool
	// home fingerprints the environment the global session was built
	// in. A changed $HOME means new per-user config, no reuse.
	home string
}

func NewRegistry() *Registry {
	return &Registry{}
}

// AcquireOptions extends SessionOptions with registry behavior.
type AcquireOptions struct {
	SessionOptions
	// NoGlobal keeps the acquired session out of the reuse slot.
	NoGlobal bool
}

// Acquire returns a session for a new stop, reusing the global one when
// safe: it must not be mid-interaction, reuse must not be disabled via
// the environment, the kind must match (or the session demands reuse),
// and $HOME must be unchanged. Reused sessions are rebound to the
// given tracer, reader and output.
func (r *Registry) Acquire(opts AcquireOptions) *Session {
	r.mu.Lock()
	if r.inInit {
		// Session construction re-entered the debugger.
		r.mu.Unlock()
		logrus.Debug("recursive session acquisition, falling back to a plain session")
		return NewPlainSession(opts.SessionOptions)
	}
	if s := r.global; s != nil && r.canReuse(s, opts) {
		r.rebind(s, opts.SessionOptions)
		r.mu.Unlock()
		return s
	}
	r.inInit = true
	r.mu.Unlock()
	// Released on every exit path: a panic escaping construction that
	// the host recovers must not leave the guard stuck.
	defer r.endInit()

	s := NewSession(r, opts.SessionOptions)

	r.mu.Lock()
	if !opts.NoGlobal {
		r.global = s
		r.home = os.Getenv("HOME")
	}
	r.mu.Unlock()
	return s
}

func (r *Registry) endInit() {
	r.mu.Lock()
	r.inInit = false
	r.mu.Unlock()
}

func (r *Registry) canReuse(s *Session, opts AcquireOptions) bool {
	if s.inInteraction {
		return false
	}
	if os.Getenv(reuseEnvVar) == "0" {
		return false
	}
	if r.home != os.Getenv("HOME") {
		return false
	}
	return s.kind == opts.Kind || s.forceGlobal
}

// rebind points a reused session at the collaborators of the new stop.
// Stack state from the previous stop is dropped, sticky mode and
// watches survive.
func (r *Registry) rebind(s *Session, opts SessionOptions) {
	if opts.Tracer != nil {
		s.tracer = opts.Tracer
	}
	if opts.Reader != nil {
		s.reader = opts.Reader
	}
	if opts.Out != nil {
		s.out.Flush()
		s.out = bufio.NewWriter(opts.Out)
	}
	if opts.Highlighter != nil {
		s.highlighter = opts.Highlighter
	}
	s.fullStack = nil
	s.stack = nil
	s.hiddenFrames = nil
	s.curIndex = 0
	// Frame ids are per-stop, the entry frame is re-established on the
	// next setup.
	s.entryFrameID = ""
}

// acquireNested builds the child session for the debug command. It
// shares the parent's reader, output and config but never touches the
// reuse slot.
func (r *Registry) acquireNested(parent *Session, tracer debugger.Tracer) *Session {
	s := NewSession(r, SessionOptions{
		Tracer:      tracer,
		Reader:      parent.reader,
		Highlighter: parent.highlighter,
		Out:         parent.out,
		Config:      parent.config,
		Kind:        parent.kind,
	})
	s.sticky = parent.sticky
	s.firstTimeSticky = false
	return s
}

// Cleanup drops the global session, forcing the next Acquire to build a
// fresh one.
func (r *Registry) Cleanup() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.global = nil
}

// Disable turns every subsequent Interaction into a no-op, Enable
// restores them.
func (r *Registry) Disable() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.disabled = true
}

func (r *Registry) Enable() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.disabled = false
}

func (r *Registry) isDisabled() bool {
	if r == nil {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.disabled
}

func (r *Registry) setCompleting(v bool) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completing = v
}

func (r *Registry) isCompleting() bool {
	if r == nil {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.completing
}
