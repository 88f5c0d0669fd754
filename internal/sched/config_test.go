package sched

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	for _, path := range []string{"", filepath.Join(t.TempDir(), "missing.yml")} {
		s := Load(path)
		assert.Equal(t, 16, s.FrameMS)
		assert.Equal(t, 1, s.Scheduler.MaxBatchSize)
		assert.Zero(t, s.Scheduler.BudgetMS)
		assert.Empty(t, s.CSVPath)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
frame_ms: 8
csv_path: trace.csv
scheduler:
  max_batch_size: 4
  budget_ms: 12.5
  delay_ms: 30
  trace: true
`)
	s := Load(path)
	assert.Equal(t, 8, s.FrameMS)
	assert.Equal(t, 8*time.Millisecond, s.FrameInterval())
	assert.Equal(t, "trace.csv", s.CSVPath)
	assert.Equal(t, Config{MaxBatchSize: 4, BudgetMS: 12.5, DelayMS: 30, Trace: true}, s.Scheduler)
	assert.Equal(t, 30*time.Millisecond, s.Scheduler.delay())
}

func TestLoadClampsNonsense(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
frame_ms: -3
scheduler:
  max_batch_size: -1
  budget_ms: -5
  delay_ms: -10
`)
	s := Load(path)
	assert.Equal(t, 16, s.FrameMS)
	assert.NoError(t, s.Scheduler.Validate())
	assert.Equal(t, Config{}, s.Scheduler)
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, Config{}.Validate())
	assert.NoError(t, Config{MaxBatchSize: 3, BudgetMS: 8, DelayMS: 1}.Validate())
	assert.ErrorIs(t, Config{MaxBatchSize: -1}.Validate(), ErrInvalidConfig)
	assert.ErrorIs(t, Config{BudgetMS: -0.5}.Validate(), ErrInvalidConfig)
	assert.ErrorIs(t, Config{DelayMS: -1}.Validate(), ErrInvalidConfig)
}

func TestParseMode(t *testing.T) {
	t.Parallel()

	m, err := ParseMode("append")
	require.NoError(t, err)
	assert.Equal(t, Append, m)

	m, err = ParseMode("prepend")
	require.NoError(t, err)
	assert.Equal(t, Prepend, m)
	assert.Equal(t, "prepend", m.String())

	_, err = ParseMode("middle")
	assert.ErrorIs(t, err, ErrInvalidMode)
}
