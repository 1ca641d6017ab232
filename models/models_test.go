package models

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPerformanceReportMarshalsNaNAsNull(t *testing.T) {
	report := PerformanceReport{
		"rmse":          1.25,
		"mape":          math.NaN(),
		"profit_factor": math.Inf(1),
	}

	data, err := json.Marshal(report)
	require.NoError(t, err)

	var decoded map[string]*float64
	require.NoError(t, json.Unmarshal(data, &decoded))

	require.NotNil(t, decoded["rmse"])
	assert.Equal(t, 1.25, *decoded["rmse"])
	assert.Nil(t, decoded["mape"])
	assert.Nil(t, decoded["profit_factor"])
}

func TestBacktestResultEncodesWithDegenerateMetrics(t *testing.T) {
	result := BacktestResult{
		RunID:          "test-run",
		InitialCapital: 10000,
		FinalCapital:   10000,
		EquityCurve:    []float64{10000, 10000},
		Metrics:        PerformanceReport{"sharpe_ratio": math.NaN()},
	}

	_, err := json.Marshal(result)
	assert.NoError(t, err)
}

func TestAggregateStatMarshalsNaNAsNull(t *testing.T) {
	data, err := json.Marshal(AggregateStat{Mean: math.NaN(), Std: math.NaN(), N: 0})
	require.NoError(t, err)
	assert.JSONEq(t, `{"mean":null,"std":null,"n":0}`, string(data))

	data, err = json.Marshal(AggregateStat{Mean: 2.5, Std: 0.5, N: 4})
	require.NoError(t, err)
	assert.JSONEq(t, `{"mean":2.5,"std":0.5,"n":4}`, string(data))
}

func TestSignalString(t *testing.T) {
	assert.Equal(t, "LONG", Long.String())
	assert.Equal(t, "SHORT", Short.String())
	assert.Equal(t, "FLAT", Flat.String())
}

func TestRangeLen(t *testing.T) {
	assert.Equal(t, 20, Range{Start: 100, End: 120}.Len())
	assert.Equal(t, 0, Range{Start: 5, End: 5}.Len())
}

func TestFoldResultFailed(t *testing.T) {
	assert.False(t, FoldResult{}.Failed())
	assert.True(t, FoldResult{Error: "fit: empty training series"}.Failed())
}
