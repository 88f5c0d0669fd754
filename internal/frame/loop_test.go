package frame

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startLoop(t *testing.T, opts ...LoopOption) *FrameLoop {
	t.Helper()
	c := NewFrameLoop(opts...)
	c.Start(2 * time.Millisecond)
	t.Cleanup(c.Stop)
	return c
}

func TestFrameLoopRunsRequestedFrames(t *testing.T) {
	t.Parallel()

	c := startLoop(t)
	var ran atomic.Int32
	tok := c.RequestFrame(func() error { ran.Add(1); return nil })
	assert.NotZero(t, tok)

	require.Eventually(t, func() bool { return ran.Load() == 1 }, time.Second, time.Millisecond)
	assert.Positive(t, c.Count())

	// one-shot
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, int32(1), ran.Load())
}

func TestFrameLoopRunsFramesInRequestOrder(t *testing.T) {
	t.Parallel()

	c := NewFrameLoop()
	var mu sync.Mutex
	var order []int
	for i := 0; i < 5; i++ {
		i := i
		c.RequestFrame(func() error {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			return nil
		})
	}
	c.tick(time.Now())

	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestFrameLoopDefersFramesRequestedDuringTick(t *testing.T) {
	t.Parallel()

	c := NewFrameLoop()
	var second bool
	c.RequestFrame(func() error {
		c.RequestFrame(func() error { second = true; return nil })
		return nil
	})

	c.tick(time.Now())
	assert.False(t, second)
	c.tick(time.Now())
	assert.True(t, second)
}

func TestFrameLoopCancel(t *testing.T) {
	t.Parallel()

	c := NewFrameLoop()
	var ran bool
	tok := c.RequestFrame(func() error { ran = true; return nil })
	timer := c.RequestAfter(time.Millisecond, func() error { ran = true; return nil })
	c.Cancel(tok)
	c.Cancel(timer)
	c.Cancel(Token(999))

	c.tick(time.Now().Add(time.Second))
	assert.False(t, ran)
}

func TestFrameLoopCallbackCanCancelLaterFrame(t *testing.T) {
	t.Parallel()

	c := NewFrameLoop()
	var later Token
	var ran bool
	c.RequestFrame(func() error { c.Cancel(later); return nil })
	later = c.RequestFrame(func() error { ran = true; return nil })

	c.tick(time.Now())
	assert.False(t, ran)
}

func TestFrameLoopTimersFireWhenDue(t *testing.T) {
	t.Parallel()

	c := NewFrameLoop()
	var order []string
	c.RequestAfter(20*time.Millisecond, func() error { order = append(order, "late"); return nil })
	c.RequestAfter(10*time.Millisecond, func() error { order = append(order, "early"); return nil })
	c.RequestFrame(func() error { order = append(order, "frame"); return nil })

	now := time.Now()
	c.tick(now)
	assert.Equal(t, []string{"frame"}, order)

	c.tick(now.Add(15 * time.Millisecond))
	assert.Equal(t, []string{"frame", "early"}, order)

	c.tick(now.Add(25 * time.Millisecond))
	assert.Equal(t, []string{"frame", "early", "late"}, order)
}

func TestFrameLoopReportsErrors(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	c := startLoop(t, WithErrorBuffer(1))
	c.RequestFrame(func() error { return boom })

	select {
	case err := <-c.Errors():
		assert.ErrorIs(t, err, boom)
	case <-time.After(time.Second):
		t.Fatal("no error reported")
	}
}

func TestFrameLoopDropsErrorsWhenFull(t *testing.T) {
	t.Parallel()

	c := NewFrameLoop(WithErrorBuffer(1))
	for i := 0; i < 3; i++ {
		c.RequestFrame(func() error { return errors.New("boom") })
	}
	c.tick(time.Now())

	assert.Len(t, c.Errors(), 1)
}

func TestFrameLoopStopIsIdempotent(t *testing.T) {
	t.Parallel()

	c := NewFrameLoop()
	c.Start(time.Millisecond)
	c.Stop()
	c.Stop()
}
