package sched

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"
)

// Recorder receives every StatusEvent a Scheduler produces.
type Recorder interface {
	Record(ev StatusEvent)
}

// CSVRecorder writes status events as CSV rows.
type CSVRecorder struct {
	mu  sync.Mutex
	w   *csv.Writer
	err error
}

// NewCSVRecorder writes the header row and returns a recorder appending to w.
func NewCSVRecorder(w io.Writer) *CSVRecorder {
	cw := csv.NewWriter(w)
	r := &CSVRecorder{w: cw}
	r.write([]string{"timestamp", "event", "queued", "batch", "awaiting", "item_cost_ms"})
	return r
}

// Record implements Recorder.
func (r *CSVRecorder) Record(ev StatusEvent) {
	r.write([]string{
		ev.Time.Format(time.RFC3339Nano),
		ev.Kind.String(),
		strconv.Itoa(ev.Queued),
		strconv.Itoa(ev.Batch),
		strconv.Itoa(ev.Awaiting),
		fmt.Sprintf("%.4f", ev.ItemCostMS),
	})
}

// Err returns the first write error, if any.
func (r *CSVRecorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

func (r *CSVRecorder) write(rec []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return
	}
	if err := r.w.Write(rec); err != nil {
		r.err = err
		return
	}
	r.w.Flush()
	r.err = r.w.Error()
}
