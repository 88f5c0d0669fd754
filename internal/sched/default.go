package sched

import "sync"

var (
	defaultMu        sync.RWMutex
	defaultScheduler *Scheduler
)

// SetDefault installs s as the process-wide default scheduler and returns
// the previous one. Nothing is installed at package load: the application
// builds its scheduler once its frame clock exists, calls SetDefault before
// any producer calls Default, and closes the scheduler on shutdown.
func SetDefault(s *Scheduler) *Scheduler {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	prev := defaultScheduler
	defaultScheduler = s
	return prev
}

// Default returns the scheduler installed by SetDefault, or nil.
func Default() *Scheduler {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultScheduler
}
