package forecast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRollingForecastPersistence(t *testing.T) {
	data := []float64{100, 102, 101, 105, 103}

	preds, err := RollingForecast(NewPersistence(), data, 2)
	require.NoError(t, err)

	// Persistence forecasts each point with its predecessor
	assert.Equal(t, []float64{102, 101, 105}, preds)
}

func TestRollingForecastUsesOnlyPastData(t *testing.T) {
	data := []float64{100, 101, 102, 103, 104, 105}

	preds, err := RollingForecast(NewDrift(), data, 3)
	require.NoError(t, err)
	require.Len(t, preds, 3)

	// Drift on a linear prefix extrapolates the next point exactly
	for i, p := range preds {
		assert.InDelta(t, data[3+i], p, 1e-9)
	}
}

func TestRollingForecastInsufficientData(t *testing.T) {
	_, err := RollingForecast(NewPersistence(), []float64{100}, 1)
	assert.Error(t, err)

	_, err = RollingForecast(NewPersistence(), []float64{100, 101}, 0)
	assert.Error(t, err)
}
