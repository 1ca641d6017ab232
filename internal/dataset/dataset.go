// Package dataset loads and validates ordered price history before it
// reaches the evaluation core.
package dataset

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/enerquant/backtest/models"
)

// Validate checks the invariants the evaluation core assumes: at least one
// point, strictly ascending timestamps (no duplicates) and finite prices.
func Validate(points []models.PricePoint) error {
	if len(points) == 0 {
		return fmt.Errorf("empty price series")
	}
	for i, p := range points {
		if math.IsNaN(p.Price) || math.IsInf(p.Price, 0) {
			return fmt.Errorf("non-finite price at index %d (%s)", i, p.Timestamp.Format(time.RFC3339))
		}
		if i > 0 && !points[i-1].Timestamp.Before(p.Timestamp) {
			return fmt.Errorf("timestamps not strictly ascending at index %d (%s)", i, p.Timestamp.Format(time.RFC3339))
		}
	}
	return nil
}

// Prices extracts the raw price values from a validated series
func Prices(points []models.PricePoint) []float64 {
	prices := make([]float64, len(points))
	for i, p := range points {
		prices[i] = p.Price
	}
	return prices
}

// Align truncates two series to their common length. The core itself rejects
// mismatched lengths; this helper is the explicit opt-in for callers that
// want truncation instead.
func Align(predictions, prices []float64) ([]float64, []float64) {
	n := len(predictions)
	if len(prices) < n {
		n = len(prices)
	}
	return predictions[:n], prices[:n]
}

// LoadCSV reads a two-column timestamp,price file. A header row is detected
// and skipped; timestamps may be RFC 3339 or plain dates.
func LoadCSV(path string) ([]models.PricePoint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s is empty", path)
	}

	points := make([]models.PricePoint, 0, len(records))
	for i, record := range records {
		if len(record) < 2 {
			return nil, fmt.Errorf("%s line %d: want timestamp,price columns, got %d", path, i+1, len(record))
		}
		ts, tsErr := parseTimestamp(record[0])
		if tsErr != nil {
			if i == 0 {
				continue // header row
			}
			return nil, fmt.Errorf("%s line %d: %w", path, i+1, tsErr)
		}
		price, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: parsing price: %w", path, i+1, err)
		}
		points = append(points, models.PricePoint{Timestamp: ts, Price: price})
	}

	if err := Validate(points); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return points, nil
}

func parseTimestamp(value string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported timestamp %q", value)
}
