package job

import (
	"time"
)

// SleepWork returns work that blocks for d, standing in for the cost of
// mounting one item on the render goroutine.
func SleepWork(d time.Duration) func() error {
	return func() error {
		if d > 0 {
			time.Sleep(d)
		}
		return nil
	}
}

// StaggeredWork returns n works whose cost grows by step from base, so a
// budgeted scheduler has to keep re-estimating its batch size.
func StaggeredWork(n int, base, step time.Duration) []func() error {
	works := make([]func() error, 0, n)
	for i := 0; i < n; i++ {
		works = append(works, SleepWork(base+time.Duration(i)*step))
	}
	return works
}
