package backtest

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enerquant/backtest/internal/signal"
	"github.com/enerquant/backtest/models"
)

func newTestEngine(t *testing.T, cfg Config) *Engine {
	t.Helper()
	engine, err := NewEngine(cfg)
	require.NoError(t, err)
	return engine
}

func TestRunAllFlatProducesNoTrades(t *testing.T) {
	engine := newTestEngine(t, Config{InitialCapital: 10000})
	prices := []float64{100, 101, 99, 102, 100}
	signals := []models.Signal{models.Flat, models.Flat, models.Flat, models.Flat, models.Flat}

	result, err := engine.Run(signals, prices)
	require.NoError(t, err)

	assert.Empty(t, result.Trades)
	assert.Equal(t, 10000.0, result.FinalCapital)
	assert.Len(t, result.EquityCurve, len(prices))
	for i, e := range result.EquityCurve {
		assert.Equal(t, 10000.0, e, "equity at %d", i)
	}
}

func TestRunFlatPredictionsScenario(t *testing.T) {
	// prices == predictions with a 1% threshold: every signal is flat
	engine := newTestEngine(t, Config{InitialCapital: 10000})
	prices := []float64{100, 100, 100, 100, 100}
	predictions := []float64{100, 100, 100, 100, 100}

	result, err := engine.RunStrategy(predictions, prices, signal.Strategy{Kind: signal.Threshold, Threshold: 0.01})
	require.NoError(t, err)

	assert.Empty(t, result.Trades)
	assert.Equal(t, 10000.0, result.FinalCapital)
}

func TestRunSingleRoundTrip(t *testing.T) {
	engine := newTestEngine(t, Config{InitialCapital: 10000})
	prices := []float64{100, 105, 110, 108}
	signals := []models.Signal{models.Flat, models.Long, models.Flat, models.Flat}

	result, err := engine.Run(signals, prices)
	require.NoError(t, err)

	require.Len(t, result.Trades, 1)
	trade := result.Trades[0]
	assert.Less(t, trade.EntryIndex, trade.ExitIndex)
	assert.Equal(t, 1, trade.EntryIndex)
	assert.Equal(t, 2, trade.ExitIndex)
	assert.Equal(t, models.Long, trade.Position)
	assert.InDelta(t, 105.0, trade.EntryPrice, 1e-9)
	assert.InDelta(t, 110.0, trade.ExitPrice, 1e-9)
}

func TestRunManualSignalsScenario(t *testing.T) {
	// One long round trip and one short round trip, no costs
	engine := newTestEngine(t, Config{InitialCapital: 10000})
	prices := []float64{100, 101, 102, 101, 100}
	signals := []models.Signal{models.Long, models.Flat, models.Flat, models.Short, models.Flat}

	result, err := engine.Run(signals, prices)
	require.NoError(t, err)
	require.Len(t, result.Trades, 2)

	long := result.Trades[0]
	assert.Equal(t, 0, long.EntryIndex)
	assert.Equal(t, 1, long.ExitIndex)
	assert.InDelta(t, 100.0, long.EntryPrice, 1e-9)
	assert.InDelta(t, 101.0, long.ExitPrice, 1e-9)
	assert.InDelta(t, 0.01, long.PnLFraction, 1e-9)
	assert.InDelta(t, 100.0, long.PnLDollars, 1e-9)
	assert.InDelta(t, 10100.0, long.CapitalAfter, 1e-9)

	short := result.Trades[1]
	assert.Equal(t, 3, short.EntryIndex)
	assert.Equal(t, 4, short.ExitIndex)
	assert.Equal(t, models.Short, short.Position)
	assert.InDelta(t, 101.0, short.EntryPrice, 1e-9)
	assert.InDelta(t, 100.0, short.ExitPrice, 1e-9)
	assert.InDelta(t, 1.0/101.0, short.PnLFraction, 1e-9)
	assert.InDelta(t, 10200.0, short.CapitalAfter, 1.0)
}

func TestRunForceClosesOpenPosition(t *testing.T) {
	engine := newTestEngine(t, Config{InitialCapital: 10000})
	prices := []float64{100, 102, 104}
	signals := []models.Signal{models.Long, models.Long, models.Long}

	result, err := engine.Run(signals, prices)
	require.NoError(t, err)

	require.Len(t, result.Trades, 1)
	trade := result.Trades[0]
	assert.Equal(t, 0, trade.EntryIndex)
	assert.Equal(t, 2, trade.ExitIndex)
	assert.InDelta(t, 0.04, trade.PnLFraction, 1e-9)
	assert.InDelta(t, 10400.0, result.FinalCapital, 1e-9)
	assert.InDelta(t, 10400.0, result.EquityCurve[2], 1e-9)
}

func TestRunReversalClosesAndReopens(t *testing.T) {
	engine := newTestEngine(t, Config{InitialCapital: 10000})
	prices := []float64{100, 110, 105, 100}
	signals := []models.Signal{models.Long, models.Short, models.Short, models.Short}

	result, err := engine.Run(signals, prices)
	require.NoError(t, err)
	require.Len(t, result.Trades, 2)

	// Trades never overlap when sorted by entry index
	assert.LessOrEqual(t, result.Trades[0].ExitIndex, result.Trades[1].EntryIndex)
	assert.Equal(t, models.Long, result.Trades[0].Position)
	assert.Equal(t, models.Short, result.Trades[1].Position)

	// Long made 10%, short entered at 110 and force-closed at 100
	assert.InDelta(t, 0.10, result.Trades[0].PnLFraction, 1e-9)
	assert.InDelta(t, 10.0/110.0, result.Trades[1].PnLFraction, 1e-9)
}

func TestRunEquityCurveMarksToMarket(t *testing.T) {
	engine := newTestEngine(t, Config{InitialCapital: 10000})
	prices := []float64{100, 105, 95, 100}
	signals := []models.Signal{models.Long, models.Long, models.Long, models.Long}

	result, err := engine.Run(signals, prices)
	require.NoError(t, err)

	require.Len(t, result.EquityCurve, 4)
	assert.InDelta(t, 10000.0, result.EquityCurve[0], 1e-9)
	assert.InDelta(t, 10500.0, result.EquityCurve[1], 1e-9)
	assert.InDelta(t, 9500.0, result.EquityCurve[2], 1e-9)
	assert.InDelta(t, 10000.0, result.EquityCurve[3], 1e-9)
}

func TestRunAppliesCommissionAndSlippage(t *testing.T) {
	engine := newTestEngine(t, Config{InitialCapital: 10000, Commission: 0.001, Slippage: 0.001})
	prices := []float64{100, 110}
	signals := []models.Signal{models.Long, models.Flat}

	result, err := engine.Run(signals, prices)
	require.NoError(t, err)
	require.Len(t, result.Trades, 1)

	trade := result.Trades[0]
	assert.InDelta(t, 100.1, trade.EntryPrice, 1e-9, "entry slips against the long")
	assert.InDelta(t, 109.89, trade.ExitPrice, 1e-9, "exit slips against the long")

	// Gross fraction on adjusted fills, commission charged on notional at
	// both open and close
	wantFraction := (109.89 - 100.1) / 100.1
	assert.InDelta(t, wantFraction, trade.PnLFraction, 1e-9)
	wantCapital := 10000.0 - 10.0 + wantFraction*10000.0 - 10.0
	assert.InDelta(t, wantCapital, result.FinalCapital, 1e-9)
}

func TestRunRejectsBadInput(t *testing.T) {
	engine := newTestEngine(t, Config{InitialCapital: 10000})

	_, err := engine.Run([]models.Signal{models.Flat}, []float64{100, 101})
	assert.Error(t, err, "length mismatch")

	_, err = engine.Run(nil, nil)
	assert.Error(t, err, "empty series")

	_, err = engine.Run([]models.Signal{models.Flat}, []float64{math.NaN()})
	assert.Error(t, err, "non-finite price")

	_, err = engine.Run([]models.Signal{models.Flat}, []float64{-5})
	assert.Error(t, err, "non-positive price")
}

func TestNewEngineRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero capital", Config{InitialCapital: 0}},
		{"negative capital", Config{InitialCapital: -100}},
		{"negative commission", Config{InitialCapital: 1000, Commission: -0.01}},
		{"negative slippage", Config{InitialCapital: 1000, Slippage: -0.01}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEngine(tt.cfg)
			assert.Error(t, err)
		})
	}
}

func TestRunReportFields(t *testing.T) {
	engine := newTestEngine(t, Config{InitialCapital: 10000})
	prices := []float64{100, 101, 102, 101, 100}
	signals := []models.Signal{models.Long, models.Flat, models.Flat, models.Short, models.Flat}

	result, err := engine.Run(signals, prices)
	require.NoError(t, err)

	for _, key := range []string{
		"total_trades", "win_rate", "total_return", "sharpe_ratio",
		"sortino_ratio", "max_drawdown", "final_capital", "initial_capital",
		"cumulative_pnl",
	} {
		_, ok := result.Metrics[key]
		assert.True(t, ok, "missing metric %s", key)
	}

	assert.InDelta(t, 2.0, result.Metrics["total_trades"], 1e-9)
	assert.InDelta(t, 100.0, result.Metrics["win_rate"], 1e-9)
	assert.InDelta(t, result.FinalCapital-10000.0, result.Metrics["cumulative_pnl"], 1e-6)
}
