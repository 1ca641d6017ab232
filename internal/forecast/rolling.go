package forecast

import (
	"fmt"

	"github.com/enerquant/backtest/models"
)

// RollingForecast produces one-step-ahead predictions over a series: for
// every index t >= minTrain a fresh model is fitted on data[:t] and asked for
// one step. The result is aligned with data[minTrain:], so predictions[i]
// forecasts data[minTrain+i] using only earlier observations.
func RollingForecast(factory models.ModelFactory, data []float64, minTrain int) ([]float64, error) {
	if minTrain < 1 {
		return nil, fmt.Errorf("minTrain must be positive, got %d", minTrain)
	}
	if len(data) <= minTrain {
		return nil, fmt.Errorf("need more than %d points, got %d", minTrain, len(data))
	}

	predictions := make([]float64, 0, len(data)-minTrain)
	for t := minTrain; t < len(data); t++ {
		model := factory()
		if model == nil {
			return nil, fmt.Errorf("model factory returned nil")
		}
		if err := model.Fit(data[:t]); err != nil {
			return nil, fmt.Errorf("fit at index %d: %w", t, err)
		}
		step, err := model.Predict(1)
		if err != nil {
			return nil, fmt.Errorf("predict at index %d: %w", t, err)
		}
		if len(step) != 1 {
			return nil, fmt.Errorf("predict at index %d returned %d values", t, len(step))
		}
		predictions = append(predictions, step[0])
	}
	return predictions, nil
}
