// Package job adapts units of work to the scheduler's resolver protocol.
//
// A Deferred is a future-like handle: Ready closes when the scheduler
// activates the item, Done closes when the item has reported mounted.
package job

import (
	"context"
	"sync"

	"mountq/internal/sched"
)

// Registrar is the part of *sched.Scheduler a producer talks to.
type Registrar interface {
	Register(r sched.Resolver, mode sched.Mode) error
	Mounted()
}

// Deferred tracks one registered item.
type Deferred struct {
	reg   Registrar
	ready chan struct{}
	done  chan struct{}

	mu        sync.Mutex
	activated bool
	completed bool
	err       error
}

func newDeferred(reg Registrar) *Deferred {
	return &Deferred{
		reg:   reg,
		ready: make(chan struct{}),
		done:  make(chan struct{}),
	}
}

// Defer registers work with reg. When its batch is drained, work runs and
// the item reports mounted as soon as work returns. An error from work is
// kept on the handle and does not stop the scheduler.
func Defer(reg Registrar, mode sched.Mode, work func() error) (*Deferred, error) {
	d := newDeferred(reg)
	err := reg.Register(func() error {
		d.activate()
		d.finish(work())
		return nil
	}, mode)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// Activate registers an item whose completion is reported by its owner:
// wait for Ready, do the work, then call Mounted once the work's effects
// have settled.
func Activate(reg Registrar, mode sched.Mode) (*Deferred, error) {
	d := newDeferred(reg)
	err := reg.Register(func() error {
		d.activate()
		return nil
	}, mode)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// Mounted reports completion to the scheduler. Only the first call counts.
// A call made before Ready is held back until the item is activated.
func (d *Deferred) Mounted() {
	d.finish(nil)
}

// Fail records err and reports completion. Only the first call counts.
func (d *Deferred) Fail(err error) {
	d.finish(err)
}

func (d *Deferred) activate() {
	d.mu.Lock()
	d.activated = true
	close(d.ready)
	report := d.completed
	d.mu.Unlock()

	if report {
		d.reg.Mounted()
	}
}

func (d *Deferred) finish(err error) {
	d.mu.Lock()
	if d.completed {
		d.mu.Unlock()
		return
	}
	d.completed = true
	d.err = err
	close(d.done)
	report := d.activated
	d.mu.Unlock()

	if report {
		d.reg.Mounted()
	}
}

// Ready is closed once the scheduler has invoked the item's resolver.
func (d *Deferred) Ready() <-chan struct{} { return d.ready }

// Done is closed once the item's work has completed.
func (d *Deferred) Done() <-chan struct{} { return d.done }

// Err returns the error the work finished with, or nil before Done.
func (d *Deferred) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.err
}

// Wait blocks until the item is done or ctx ends.
func (d *Deferred) Wait(ctx context.Context) error {
	select {
	case <-d.done:
		return d.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}
