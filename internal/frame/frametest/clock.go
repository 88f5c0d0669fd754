// Package frametest provides a deterministic frame.Clock for tests.
package frametest

import (
	"sort"
	"time"

	"mountq/internal/frame"
)

// Epoch is the time a new Clock starts at.
var Epoch = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

type request struct {
	token frame.Token
	due   time.Time
	fn    frame.Func
}

// Clock is a manually driven frame.Clock. Nothing runs until the test calls
// Frame or Advance. It is not safe for concurrent use.
type Clock struct {
	now    time.Time
	next   frame.Token
	frames []request
	timers []request
	frameN int
}

// New returns a Clock set to Epoch.
func New() *Clock {
	return &Clock{now: Epoch}
}

// Now implements frame.Clock.
func (c *Clock) Now() time.Time { return c.now }

// RequestFrame implements frame.Clock.
func (c *Clock) RequestFrame(fn frame.Func) frame.Token {
	c.next++
	c.frames = append(c.frames, request{token: c.next, fn: fn})
	return c.next
}

// RequestAfter implements frame.Clock.
func (c *Clock) RequestAfter(d time.Duration, fn frame.Func) frame.Token {
	c.next++
	c.timers = append(c.timers, request{token: c.next, due: c.now.Add(d), fn: fn})
	return c.next
}

// Cancel implements frame.Clock.
func (c *Clock) Cancel(t frame.Token) {
	c.frames = remove(c.frames, t)
	c.timers = remove(c.timers, t)
}

// Frame runs the frame callbacks pending when it is called, in request order,
// and returns the first error. Callbacks after a failing one still run.
func (c *Clock) Frame() error {
	c.frameN++
	pending := c.frames
	c.frames = nil
	var first error
	for _, r := range pending {
		if err := r.fn(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Advance moves the clock forward by d and fires every timer that became due,
// earliest first. It returns the first timer error.
func (c *Clock) Advance(d time.Duration) error {
	c.now = c.now.Add(d)
	sort.SliceStable(c.timers, func(i, j int) bool { return c.timers[i].due.Before(c.timers[j].due) })
	var first error
	for len(c.timers) > 0 && !c.timers[0].due.After(c.now) {
		r := c.timers[0]
		c.timers = c.timers[1:]
		if err := r.fn(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// PendingFrames reports how many frame callbacks are waiting.
func (c *Clock) PendingFrames() int { return len(c.frames) }

// PendingTimers reports how many delay timers are waiting.
func (c *Clock) PendingTimers() int { return len(c.timers) }

// Frames reports how many times Frame has been called.
func (c *Clock) Frames() int { return c.frameN }

func remove(rs []request, t frame.Token) []request {
	for i, r := range rs {
		if r.token == t {
			return append(rs[:i:i], rs[i+1:]...)
		}
	}
	return rs
}
