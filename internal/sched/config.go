package sched

import (
	"fmt"
	"os"
	"time"

	yaml "github.com/goccy/go-yaml"
)

// Config controls how a Scheduler sizes and paces its batches.
// Zero values mean "unset".
type Config struct {
	MaxBatchSize int     `yaml:"max_batch_size"` // cap on items drained per tick
	BudgetMS     float64 `yaml:"budget_ms"`      // target milliseconds per batch
	DelayMS      int     `yaml:"delay_ms"`       // pause after a batch completes
	Trace        bool    `yaml:"trace"`          // diagnostic logging
}

// Validate rejects negative values.
func (c Config) Validate() error {
	if c.MaxBatchSize < 0 {
		return fmt.Errorf("%w: max_batch_size %d is negative", ErrInvalidConfig, c.MaxBatchSize)
	}
	if c.BudgetMS < 0 {
		return fmt.Errorf("%w: budget_ms %g is negative", ErrInvalidConfig, c.BudgetMS)
	}
	if c.DelayMS < 0 {
		return fmt.Errorf("%w: delay_ms %d is negative", ErrInvalidConfig, c.DelayMS)
	}
	return nil
}

func (c Config) delay() time.Duration {
	return time.Duration(c.DelayMS) * time.Millisecond
}

// Settings mirrors config.yml.
type Settings struct {
	FrameMS   int    `yaml:"frame_ms"` // 16 (by default), roughly 60 frames per second
	CSVPath   string `yaml:"csv_path"` // empty disables the CSV trace
	Scheduler Config `yaml:"scheduler"`
}

// If the config file is not found, we use default values
func defaultSettings() Settings {
	return Settings{
		FrameMS: 16,
		Scheduler: Config{
			MaxBatchSize: 1,
		},
	}
}

// Load reads YAML and overrides defaults; empty path = defaults only
func Load(path string) Settings {
	s := defaultSettings()

	if path == "" {
		return s
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return s
	}

	_ = yaml.Unmarshal(data, &s)

	// sanity clamps
	if s.FrameMS <= 0 {
		s.FrameMS = 16
	}
	if s.Scheduler.MaxBatchSize < 0 {
		s.Scheduler.MaxBatchSize = 0
	}
	if s.Scheduler.BudgetMS < 0 {
		s.Scheduler.BudgetMS = 0
	}
	if s.Scheduler.DelayMS < 0 {
		s.Scheduler.DelayMS = 0
	}

	return s
}

// FrameInterval is FrameMS as a duration.
func (s Settings) FrameInterval() time.Duration {
	return time.Duration(s.FrameMS) * time.Millisecond
}
