package signal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enerquant/backtest/models"
)

func TestGenerateThreshold(t *testing.T) {
	prices := []float64{100, 100, 100, 100}
	predictions := []float64{102, 98, 100.5, 100}

	signals, err := Generate(predictions, prices, Strategy{Kind: Threshold, Threshold: 0.01})
	require.NoError(t, err)

	assert.Equal(t, []models.Signal{models.Long, models.Short, models.Flat, models.Flat}, signals)
}

func TestGenerateThresholdExactBoundaryIsFlat(t *testing.T) {
	// Predicted edge of exactly 1% must not trigger with a 1% threshold
	signals, err := Generate([]float64{101}, []float64{100}, Strategy{Kind: Threshold, Threshold: 0.01})
	require.NoError(t, err)
	assert.Equal(t, models.Flat, signals[0])
}

func TestGenerateFlatWhenNoEdge(t *testing.T) {
	prices := []float64{100, 100, 100, 100, 100}
	predictions := []float64{100, 100, 100, 100, 100}

	signals, err := Generate(predictions, prices, Strategy{Kind: Threshold, Threshold: 0.01})
	require.NoError(t, err)

	for i, s := range signals {
		assert.Equal(t, models.Flat, s, "signal %d should be flat", i)
	}
}

func TestGenerateMomentumRequiresTrendAgreement(t *testing.T) {
	// Rising prices: trend over the 2-step trailing window is positive from
	// index 2 onward.
	prices := []float64{100, 101, 102, 103}
	strat := Strategy{Kind: Momentum, Threshold: 0.01, Window: 2}

	// Bullish prediction agrees with the uptrend
	signals, err := Generate([]float64{102, 103, 105, 106}, prices, strat)
	require.NoError(t, err)
	assert.Equal(t, models.Flat, signals[0], "no full window yet")
	assert.Equal(t, models.Flat, signals[1], "no full window yet")
	assert.Equal(t, models.Long, signals[2])
	assert.Equal(t, models.Long, signals[3])

	// Bearish prediction against the uptrend stays flat
	signals, err = Generate([]float64{98, 98, 98, 98}, prices, strat)
	require.NoError(t, err)
	for i, s := range signals {
		assert.Equal(t, models.Flat, s, "signal %d should be flat", i)
	}
}

func TestGenerateMomentumShort(t *testing.T) {
	prices := []float64{103, 102, 101, 100}
	predictions := []float64{100, 100, 98, 97}

	signals, err := Generate(predictions, prices, Strategy{Kind: Momentum, Threshold: 0.01, Window: 2})
	require.NoError(t, err)
	assert.Equal(t, models.Short, signals[2])
	assert.Equal(t, models.Short, signals[3])
}

func TestGenerateCustom(t *testing.T) {
	alwaysLong := func(prediction, price float64, window []float64) models.Signal {
		return models.Long
	}

	signals, err := Generate([]float64{1, 2}, []float64{1, 2}, Strategy{Kind: Custom, Fn: alwaysLong})
	require.NoError(t, err)
	assert.Equal(t, []models.Signal{models.Long, models.Long}, signals)
}

func TestGenerateLengthMismatch(t *testing.T) {
	_, err := Generate([]float64{1, 2, 3}, []float64{1, 2}, Strategy{Kind: Threshold, Threshold: 0.01})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLengthMismatch)
}

func TestStrategyValidate(t *testing.T) {
	tests := []struct {
		name    string
		strat   Strategy
		wantErr bool
	}{
		{"valid threshold", Strategy{Kind: Threshold, Threshold: 0.01}, false},
		{"negative threshold", Strategy{Kind: Threshold, Threshold: -0.01}, true},
		{"valid momentum", Strategy{Kind: Momentum, Threshold: 0.01, Window: 5}, false},
		{"momentum without window", Strategy{Kind: Momentum, Threshold: 0.01}, true},
		{"custom without function", Strategy{Kind: Custom}, true},
		{"unknown kind", Strategy{Kind: "magic"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.strat.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
