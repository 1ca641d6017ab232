package forecast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPersistence(t *testing.T) {
	model := NewPersistence()()
	require.NoError(t, model.Fit([]float64{50, 51, 52}))

	preds, err := model.Predict(3)
	require.NoError(t, err)
	assert.Equal(t, []float64{52, 52, 52}, preds)
}

func TestPersistenceNotFitted(t *testing.T) {
	model := NewPersistence()()
	_, err := model.Predict(1)
	assert.ErrorIs(t, err, ErrNotFitted)
}

func TestDrift(t *testing.T) {
	model := NewDrift()()
	require.NoError(t, model.Fit([]float64{100, 102, 104}))

	preds, err := model.Predict(2)
	require.NoError(t, err)
	assert.InDelta(t, 106.0, preds[0], 1e-9)
	assert.InDelta(t, 108.0, preds[1], 1e-9)
}

func TestDriftNeedsTwoPoints(t *testing.T) {
	model := NewDrift()()
	assert.Error(t, model.Fit([]float64{100}))
}

func TestMovingAverage(t *testing.T) {
	model := NewMovingAverage(2)()
	require.NoError(t, model.Fit([]float64{100, 104, 106}))

	preds, err := model.Predict(2)
	require.NoError(t, err)
	assert.Equal(t, []float64{105, 105}, preds)
}

func TestMovingAverageInsufficientHistory(t *testing.T) {
	model := NewMovingAverage(10)()
	assert.Error(t, model.Fit([]float64{100, 101}))
}

func TestFactoriesReturnFreshInstances(t *testing.T) {
	factory := NewPersistence()
	a := factory()
	b := factory()
	require.NoError(t, a.Fit([]float64{1}))

	_, err := b.Predict(1)
	assert.ErrorIs(t, err, ErrNotFitted, "instances must not share state")
}
