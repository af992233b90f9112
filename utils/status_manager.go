package utils

import "sync"

const (
	// Init session created, no interaction yet
	Init = "Init"
	// Interacting the read-eval loop is running
	Interacting = "interacting"
	// Completing a tab-completion evaluation is in flight
	Completing = "completing"
	// Running the debuggee is executing
	Running = "running"
	// Stopped the debuggee is paused at a stop
	Stopped = "stopped"
	// Finish the session ended
	Finish = "finish"
)

// StatusManager records the state of an interactive session.
type StatusManager struct {
	lock   sync.RWMutex
	status string
}

func NewStatusManager() *StatusManager {
	return &StatusManager{
		status: Init,
	}
}

func (s *StatusManager) Set(status string) {
	defer s.lock.Unlock()
	s.lock.Lock()
	s.status = status
}

func (s *StatusManager) Get() string {
	defer s.lock.RUnlock()
	s.lock.RLock()
	return s.status
}

func (s *StatusManager) Is(statusList ...string) bool {
	defer s.lock.RUnlock()
	s.lock.RLock()
	for _, status := range statusList {
		if s.status == status {
			return true
		}
	}
	return false
}
