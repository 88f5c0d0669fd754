package sched

import "errors"

// Scheduler errors.
var (
	// ErrInvalidMode is returned by Register and ParseMode for a mode other
	// than append or prepend.
	ErrInvalidMode = errors.New("sched: invalid mode")

	// ErrInvalidEvent is returned by AddEventListener for an unknown event kind.
	ErrInvalidEvent = errors.New("sched: invalid event")

	// ErrInvalidConfig is returned when a Config holds negative values.
	ErrInvalidConfig = errors.New("sched: invalid config")

	// ErrNilResolver is returned when registering a nil resolver.
	ErrNilResolver = errors.New("sched: nil resolver")

	// ErrClosed is returned when registering on a closed scheduler.
	ErrClosed = errors.New("sched: closed")
)
