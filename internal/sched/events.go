package sched

import (
	"fmt"
	"sync"
)

// EventKind names a scheduler lifecycle event.
type EventKind int

const (
	// EventStart fires when the scheduler goes from idle to active.
	EventStart EventKind = iota + 1
	// EventEnd fires when the last item of the last batch reports mounted.
	EventEnd
)

func (k EventKind) String() string {
	switch k {
	case EventStart:
		return "start"
	case EventEnd:
		return "end"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Listener is notified of a lifecycle event.
type Listener func()

type listener struct {
	id uint64
	fn Listener
}

// AddEventListener registers fn for kind. Listeners of one kind run in
// registration order and are not de-duplicated. The returned function
// removes the listener; calling it more than once has no effect.
func (s *Scheduler) AddEventListener(kind EventKind, fn Listener) (func(), error) {
	if kind != EventStart && kind != EventEnd {
		return nil, fmt.Errorf("%w: %s", ErrInvalidEvent, kind)
	}
	if fn == nil {
		return nil, fmt.Errorf("%w: nil listener", ErrInvalidEvent)
	}

	s.mu.Lock()
	s.nextListener++
	id := s.nextListener
	s.listeners[kind] = append(s.listeners[kind], listener{id: id, fn: fn})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { s.removeListener(kind, id) })
	}, nil
}

func (s *Scheduler) removeListener(kind EventKind, id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ls := s.listeners[kind]
	for i, l := range ls {
		if l.id == id {
			// copy so a fire in progress keeps its snapshot intact
			s.listeners[kind] = append(ls[:i:i], ls[i+1:]...)
			return
		}
	}
}

// fire runs the listeners registered for kind. It must be called without
// holding s.mu, since listeners may call back into the scheduler.
func (s *Scheduler) fire(kind EventKind) {
	s.mu.Lock()
	snapshot := s.listeners[kind]
	status := StatusStart
	if kind == EventEnd {
		status = StatusEnd
	}
	ev := s.status(status)
	s.mu.Unlock()

	s.emit(ev)
	for _, l := range snapshot {
		l.fn()
	}
}
