// internal/frame/clock.go

// Package frame abstracts the rendering frame clock that drives deferred work.
//
// A Clock hands out one-shot callbacks: RequestFrame runs a callback at the
// next rendering opportunity, RequestAfter runs it once a delay has elapsed.
// Both return a Token that Cancel accepts. FrameLoop is the ticker-backed
// implementation; frametest.Clock is a deterministic one for tests.
package frame

import "time"

// Token identifies one outstanding frame or timer request. The zero Token
// never identifies a request.
type Token uint64

// Func is a one-shot callback run by a Clock. A returned error is reported
// by the clock to whoever owns it.
type Func func() error

// Clock is the capability a scheduler needs from the rendering loop.
type Clock interface {
	// RequestFrame schedules fn for the next frame.
	RequestFrame(fn Func) Token
	// RequestAfter schedules fn to run once d has elapsed.
	RequestAfter(d time.Duration, fn Func) Token
	// Cancel drops a pending request. Unknown or already fired tokens are ignored.
	Cancel(t Token)
	// Now reports the clock's current time.
	Now() time.Time
}
