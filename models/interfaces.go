package models

import "context"

// Model is the opaque forecasting capability consumed by the evaluation
// layers. ARIMA/Prophet/LSTM backends live outside this repository and are
// reached only through this interface.
type Model interface {
	Fit(history []float64) error
	Predict(steps int) ([]float64, error)
}

// ModelFactory builds a fresh, unfitted model instance. Walk-forward
// validation calls it once per fold so no state leaks between folds; it must
// be safe to call from multiple goroutines.
type ModelFactory func() Model

// PriceClient fetches ordered price history from the historical-data layer
type PriceClient interface {
	GetPrices(ctx context.Context, symbol string, count int) ([]PricePoint, error)
}
