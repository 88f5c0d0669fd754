// internal/sched/scheduler.go

package sched

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/emirpasic/gods/lists/doublylinkedlist"

	"mountq/internal/frame"
)

// Scheduler drains registered resolvers in small batches, one batch per
// frame, and waits for every item of a batch to report Mounted before it
// asks the clock for the next frame.
//
// Batch size is MaxBatchSize (default 1) until a batch has completed end to
// end; after that, when BudgetMS is set, it is BudgetMS divided by the
// observed per-item cost of the previous batch, at least 1 and at most
// MaxBatchSize.
//
// Listeners and resolvers always run without the internal lock held, so they
// may call back into the scheduler. A Scheduler is meant to be driven by one
// clock; when producers register from other goroutines, start and end
// listeners of adjacent activity windows may interleave.
type Scheduler struct {
	mu     sync.Mutex // protects the scheduler state
	clock  frame.Clock
	cfg    Config
	queue  *doublylinkedlist.List // pending Resolvers, head drains first
	active bool                   // between a start and its end event
	closed bool

	frameToken           frame.Token // outstanding frame or delay request
	scheduleTimestamp    time.Time   // when the last batch was dispatched
	lastMountedTimestamp time.Time   // when the last batch fully mounted
	prevBatchSize        int
	awaitingMountCount   int
	itemCostMS           float64 // cost the current batch was sized from

	listeners    map[EventKind][]listener
	nextListener uint64

	log      *slog.Logger
	recorder Recorder
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the logger used when Config.Trace is on.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.log = l
		}
	}
}

// WithRecorder sends every status event to r, regardless of Config.Trace.
func WithRecorder(r Recorder) Option {
	return func(s *Scheduler) {
		s.recorder = r
	}
}

// New creates a Scheduler driven by clock.
func New(clock frame.Clock, cfg Config, opts ...Option) (*Scheduler, error) {
	if clock == nil {
		return nil, fmt.Errorf("%w: nil clock", ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Scheduler{
		clock:     clock,
		cfg:       cfg,
		queue:     doublylinkedlist.New(),
		listeners: make(map[EventKind][]listener),
		log:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Register queues r at the tail (Append) or head (Prepend). When the
// scheduler is idle it opens an activity window: start listeners fire and a
// frame is requested. Otherwise the item waits for a pending or later batch.
func (s *Scheduler) Register(r Resolver, mode Mode) error {
	if !mode.valid() {
		return fmt.Errorf("%w: %s", ErrInvalidMode, mode)
	}
	if r == nil {
		return ErrNilResolver
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if mode == Prepend {
		s.queue.Prepend(r)
	} else {
		s.queue.Append(r)
	}
	opening := !s.active
	s.active = true
	ev := s.status(StatusEnqueue)
	s.mu.Unlock()

	s.emit(ev)
	if !opening {
		return nil
	}

	s.fire(EventStart)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed && s.frameToken == 0 {
		s.frameToken = s.clock.RequestFrame(s.tick)
	}
	return nil
}

// Mounted reports that one item of the current batch has completed. The
// last report of a batch either requests the next frame (after DelayMS, if
// set) or, when the queue is empty, closes the activity window and fires end.
//
// Each dispatched resolver must report at most once. A report that arrives
// while no item is outstanding is ignored.
func (s *Scheduler) Mounted() {
	s.mu.Lock()
	if s.closed || s.awaitingMountCount <= 0 {
		ev := s.status(StatusIgnored)
		s.mu.Unlock()
		s.emit(ev)
		return
	}

	s.awaitingMountCount--
	if s.awaitingMountCount > 0 {
		ev := s.status(StatusMounted)
		s.mu.Unlock()
		s.emit(ev)
		return
	}

	if s.queue.Empty() {
		s.frameToken = 0
		s.active = false
		ev := s.status(StatusMounted)
		s.mu.Unlock()
		s.emit(ev)
		s.fire(EventEnd)
		return
	}

	s.lastMountedTimestamp = s.clock.Now()
	if d := s.cfg.delay(); d > 0 {
		s.frameToken = s.clock.RequestAfter(d, s.afterDelay)
	} else {
		s.frameToken = s.clock.RequestFrame(s.tick)
	}
	ev := s.status(StatusMounted)
	s.mu.Unlock()
	s.emit(ev)
}

func (s *Scheduler) afterDelay() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.frameToken = s.clock.RequestFrame(s.tick)
	return nil
}

// tick drains one batch from the head of the queue and invokes it.
func (s *Scheduler) tick() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}

	if s.queue.Empty() {
		s.frameToken = 0
		closing := s.active
		s.active = false
		s.mu.Unlock()
		if closing {
			s.fire(EventEnd)
		}
		return nil
	}

	cost := s.prevItemCost()
	size := batchSize(s.cfg, cost)
	batch := make([]Resolver, 0, size)
	for len(batch) < size {
		v, ok := s.queue.Get(0)
		if !ok {
			break
		}
		s.queue.Remove(0)
		batch = append(batch, v.(Resolver))
	}

	s.prevBatchSize = len(batch)
	s.awaitingMountCount = len(batch)
	s.scheduleTimestamp = s.clock.Now()
	s.itemCostMS = cost
	ev := s.status(StatusDispatch)
	s.mu.Unlock()

	s.emit(ev)
	for i, r := range batch {
		if err := r(); err != nil {
			return fmt.Errorf("sched: resolver %d of %d: %w", i+1, len(batch), err)
		}
	}
	return nil
}

// prevItemCost is the per-item cost in milliseconds of the previous batch,
// or 0 when there is no usable measurement.
func (s *Scheduler) prevItemCost() float64 {
	if s.prevBatchSize <= 0 || s.scheduleTimestamp.IsZero() || s.lastMountedTimestamp.IsZero() {
		return 0
	}
	elapsed := s.lastMountedTimestamp.Sub(s.scheduleTimestamp)
	cost := float64(elapsed) / float64(time.Millisecond) / float64(s.prevBatchSize)
	if cost <= 0 {
		return 0
	}
	return cost
}

// batchSize picks how many items to drain given the previous per-item cost.
func batchSize(cfg Config, costMS float64) int {
	if cfg.BudgetMS > 0 && costMS > 0 {
		n := math.Floor(cfg.BudgetMS / costMS)
		size := 1
		if n > 1 {
			size = int(math.Min(n, math.MaxInt32))
		}
		if cfg.MaxBatchSize > 0 && size > cfg.MaxBatchSize {
			size = cfg.MaxBatchSize
		}
		return size
	}
	if cfg.MaxBatchSize > 0 {
		return cfg.MaxBatchSize
	}
	return 1
}

// Close cancels the outstanding frame or delay request. Later registrations
// fail with ErrClosed and later Mounted calls are ignored. End listeners do
// not fire.
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	if s.frameToken != 0 {
		s.clock.Cancel(s.frameToken)
		s.frameToken = 0
	}
}

// Config returns the active configuration.
func (s *Scheduler) Config() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// SetConfig replaces the configuration. It takes effect at the next drain,
// including a drain whose frame is already requested.
func (s *Scheduler) SetConfig(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg
	return nil
}

// Len returns the number of queued, not yet dispatched resolvers.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.Size()
}

// Awaiting returns how many items of the current batch have not reported Mounted.
func (s *Scheduler) Awaiting() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.awaitingMountCount
}

// Active reports whether an activity window is open.
func (s *Scheduler) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// status snapshots the state for a trace event. Callers hold s.mu.
func (s *Scheduler) status(kind StatusKind) StatusEvent {
	return StatusEvent{
		Time:       s.clock.Now(),
		Kind:       kind,
		Queued:     s.queue.Size(),
		Batch:      s.prevBatchSize,
		Awaiting:   s.awaitingMountCount,
		ItemCostMS: s.itemCostMS,
	}
}

func (s *Scheduler) emit(ev StatusEvent) {
	if s.recorder != nil {
		s.recorder.Record(ev)
	}

	s.mu.Lock()
	trace := s.cfg.Trace
	s.mu.Unlock()
	if !trace {
		return
	}
	s.log.Info("sched: "+ev.Kind.String(),
		slog.Int("queued", ev.Queued),
		slog.Int("batch", ev.Batch),
		slog.Int("awaiting", ev.Awaiting),
		slog.Float64("item_cost_ms", ev.ItemCostMS),
	)
}
