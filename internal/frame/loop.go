// internal/frame/loop.go

package frame

import (
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/emirpasic/gods/maps/linkedhashmap"
	"github.com/emirpasic/gods/trees/redblacktree"
)

// FrameLoop emits frames at a fixed interval and runs every requested
// callback on its own goroutine, one at a time.
type FrameLoop struct {
	mu       sync.Mutex
	next     Token
	frames   *linkedhashmap.Map  // Token -> Func, in request order
	timers   *redblacktree.Tree  // timerKey -> Func, earliest first
	timerDue map[Token]time.Time // lets Cancel find a timer's tree key
	count    atomic.Int64        // frames emitted so far
	errs     chan error          // callback failures, dropped when full
	log      *slog.Logger
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// LoopOption configures a FrameLoop.
type LoopOption func(*FrameLoop)

// WithLogger sets the logger used to report failing callbacks.
func WithLogger(l *slog.Logger) LoopOption {
	return func(c *FrameLoop) {
		if l != nil {
			c.log = l
		}
	}
}

// WithErrorBuffer sets the capacity of the Errors channel.
func WithErrorBuffer(n int) LoopOption {
	return func(c *FrameLoop) {
		if n > 0 {
			c.errs = make(chan error, n)
		}
	}
}

// NewFrameLoop creates a loop but does not start it.
func NewFrameLoop(opts ...LoopOption) *FrameLoop {
	c := &FrameLoop{
		frames:   linkedhashmap.New(),
		timers:   redblacktree.NewWith(cmp),
		timerDue: make(map[Token]time.Time),
		errs:     make(chan error, 64),
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start begins emitting frames at the given interval.
func (c *FrameLoop) Start(interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer close(c.done)
		defer ticker.Stop()
		for {
			select {
			case now := <-ticker.C:
				c.tick(now)
			case <-c.stop:
				return
			}
		}
	}()
}

// Stop halts the loop and waits for the frame in progress to finish.
// Pending requests are discarded. Stop must follow Start.
func (c *FrameLoop) Stop() {
	c.stopOnce.Do(func() {
		close(c.stop)
		<-c.done
	})
}

// Count returns the number of frames emitted so far.
func (c *FrameLoop) Count() int64 {
	return c.count.Load()
}

// Errors exposes errors returned by callbacks.
func (c *FrameLoop) Errors() <-chan error { return c.errs }

// Now implements Clock.
func (c *FrameLoop) Now() time.Time { return time.Now() }

// RequestFrame implements Clock.
func (c *FrameLoop) RequestFrame(fn Func) Token {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.next++
	c.frames.Put(c.next, fn)
	return c.next
}

// RequestAfter implements Clock. The callback runs on the first frame at or
// after its due time, ahead of that frame's RequestFrame callbacks.
func (c *FrameLoop) RequestAfter(d time.Duration, fn Func) Token {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.next++
	due := time.Now().Add(d)
	c.timers.Put(timerKey{due: due, token: c.next}, fn)
	c.timerDue[c.next] = due
	return c.next
}

// Cancel implements Clock.
func (c *FrameLoop) Cancel(t Token) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if due, ok := c.timerDue[t]; ok {
		c.timers.Remove(timerKey{due: due, token: t})
		delete(c.timerDue, t)
		return
	}
	c.frames.Remove(t)
}

// tick runs due timers, then the frames that were pending when it began.
// Frames requested while it runs wait for the next tick.
func (c *FrameLoop) tick(now time.Time) {
	c.count.Add(1)

	c.mu.Lock()
	var due []Func
	for node := c.timers.Left(); node != nil; node = c.timers.Left() {
		key := node.Key.(timerKey)
		if key.due.After(now) {
			break
		}
		due = append(due, node.Value.(Func))
		c.timers.Remove(key)
		delete(c.timerDue, key.token)
	}
	pending := c.frames.Keys()
	c.mu.Unlock()

	for _, fn := range due {
		c.run(fn)
	}
	for _, key := range pending {
		// an earlier callback in this frame may have cancelled it
		c.mu.Lock()
		v, ok := c.frames.Get(key)
		if ok {
			c.frames.Remove(key)
		}
		c.mu.Unlock()
		if ok {
			c.run(v.(Func))
		}
	}
}

func (c *FrameLoop) run(fn Func) {
	err := fn()
	if err == nil {
		return
	}
	c.log.Error("frame callback failed", slog.Int64("frame", c.Count()), slog.Any("error", err))
	select {
	case c.errs <- err:
	default:
	}
}

// timerKey orders delay timers in the red-black tree.
type timerKey struct {
	due   time.Time
	token Token
}

// cmp implements the tree comparator for timerKey: due time, then token.
func cmp(a, b any) int {
	ka, kb := a.(timerKey), b.(timerKey)
	switch {
	case ka.due.Before(kb.due):
		return -1
	case ka.due.After(kb.due):
		return 1
	case ka.token < kb.token:
		return -1
	case ka.token > kb.token:
		return 1
	default:
		return 0
	}
}
