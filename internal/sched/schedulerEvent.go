// internal/sched/schedulerEvent.go

package sched

import (
	"time"
)

// StatusKind represents the type of scheduler trace event
type StatusKind int

const (
	StatusEnqueue StatusKind = iota
	StatusDispatch
	StatusMounted
	StatusStart
	StatusEnd
	StatusIgnored // Mounted called with nothing in flight
)

// StatusEvent is recorded on every queue transition
type StatusEvent struct {
	Time       time.Time
	Kind       StatusKind
	Queued     int     // queue length after the transition
	Batch      int     // size of the batch in flight
	Awaiting   int     // items of the batch not yet mounted
	ItemCostMS float64 // per-item cost the batch was sized from, 0 if none
}

func (sk StatusKind) String() string {
	switch sk {
	case StatusEnqueue:
		return "Enqueue"
	case StatusDispatch:
		return "Dispatch"
	case StatusMounted:
		return "Mounted"
	case StatusStart:
		return "Start"
	case StatusEnd:
		return "End"
	case StatusIgnored:
		return "Ignored"
	default:
		return "Unknown"
	}
}
