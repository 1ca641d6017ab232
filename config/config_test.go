package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enerquant/backtest/internal/signal"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 10000.0, cfg.InitialCapital)
	assert.Equal(t, 252.0, cfg.PeriodsPerYear)
	assert.Equal(t, 100, cfg.TrainWindow)
	assert.True(t, cfg.Expanding)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("INITIAL_CAPITAL", "50000")
	t.Setenv("SIGNAL_THRESHOLD", "0.02")
	t.Setenv("EXPANDING", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 50000.0, cfg.InitialCapital)
	assert.Equal(t, 0.02, cfg.Threshold)
	assert.False(t, cfg.Expanding)
}

func TestLoadEvalFile(t *testing.T) {
	content := `
strategy:
  kind: momentum
  threshold: 0.015
  window: 10
backtest:
  initial_capital: 25000
  commission: 0.001
  slippage: 0.0005
walk_forward:
  train_window: 120
  test_window: 30
  step_size: 30
  expanding: true
  gap: 2
split:
  train: 0.8
  test: 0.2
`
	path := filepath.Join(t.TempDir(), "eval.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	file, err := LoadEvalFile(path)
	require.NoError(t, err)

	assert.Equal(t, signal.Momentum, file.Strategy.Kind)
	assert.Equal(t, 10, file.Strategy.Window)
	assert.Equal(t, 25000.0, file.Backtest.InitialCapital)
	assert.Equal(t, 2, file.WalkForward.Gap)
	assert.Equal(t, 0.8, file.Split.Train)
}

func TestLoadEvalFileRejectsBadStrategy(t *testing.T) {
	content := `
strategy:
  kind: magic
backtest:
  initial_capital: 10000
walk_forward:
  train_window: 100
  test_window: 20
  step_size: 20
`
	path := filepath.Join(t.TempDir(), "eval.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := LoadEvalFile(path)
	assert.Error(t, err)
}
