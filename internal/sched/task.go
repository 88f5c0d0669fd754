package sched

// Resolver is one unit of deferred work. The scheduler invokes it when its
// batch is drained; the producer must then call Scheduler.Mounted exactly
// once, when the work has actually completed. That call may happen inside
// the resolver or any time later.
//
// A returned error aborts the rest of the batch and is handed to the frame
// clock. Items of that batch that never report mounted keep the scheduler
// active until it is closed.
type Resolver func() error
