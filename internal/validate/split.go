package validate

import (
	"fmt"
	"math"
)

// TrainTestSplit divides an ordered series into contiguous train and test
// slices. The ratios must sum to 1.0; chronological order is preserved so
// the test slice is always strictly later than the train slice.
func TrainTestSplit(data []float64, trainRatio, testRatio float64) (train, test []float64, err error) {
	if math.Abs(trainRatio+testRatio-1.0) > 1e-9 {
		return nil, nil, fmt.Errorf("split ratios must sum to 1.0, got %f + %f", trainRatio, testRatio)
	}
	if trainRatio <= 0 || testRatio <= 0 {
		return nil, nil, fmt.Errorf("split ratios must be positive, got train=%f test=%f", trainRatio, testRatio)
	}

	cut := int(float64(len(data)) * trainRatio)
	if cut < 1 || cut >= len(data) {
		return nil, nil, fmt.Errorf("%w: %d points cannot be split %f/%f", ErrInsufficientData, len(data), trainRatio, testRatio)
	}
	return data[:cut], data[cut:], nil
}
