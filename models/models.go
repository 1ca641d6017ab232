package models

import (
	"encoding/json"
	"math"
	"time"
)

// Signal is a discrete trading decision for one time step.
type Signal int

const (
	Short Signal = -1
	Flat  Signal = 0
	Long  Signal = 1
)

// String returns a human-readable name for the signal
func (s Signal) String() string {
	switch s {
	case Short:
		return "SHORT"
	case Long:
		return "LONG"
	default:
		return "FLAT"
	}
}

// PricePoint represents a single observed price with its timestamp
type PricePoint struct {
	Timestamp time.Time `json:"timestamp"`
	Price     float64   `json:"price"`
}

// Trade represents a single completed round trip. Trades are recorded when a
// position is closed and are never mutated afterwards.
type Trade struct {
	EntryIndex   int       `json:"entry_index"`
	ExitIndex    int       `json:"exit_index"`
	EntryPrice   float64   `json:"entry_price"`
	ExitPrice    float64   `json:"exit_price"`
	Position     Signal    `json:"position"`
	PnLFraction  float64   `json:"pnl_fraction"`
	PnLDollars   float64   `json:"pnl_dollars"`
	CapitalAfter float64   `json:"capital_after"`
	Timestamp    time.Time `json:"timestamp"`
}

// PerformanceReport maps metric names to scalar values. Degenerate metrics
// (MAPE over a zero price, R² of a constant series) are carried as NaN and
// serialized as JSON null so a single undefined metric never breaks encoding.
type PerformanceReport map[string]float64

// MarshalJSON implements json.Marshaler, mapping NaN and ±Inf to null.
func (r PerformanceReport) MarshalJSON() ([]byte, error) {
	out := make(map[string]*float64, len(r))
	for name, v := range r {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			out[name] = nil
			continue
		}
		val := v
		out[name] = &val
	}
	return json.Marshal(out)
}

// BacktestResult holds everything one simulation run produced
type BacktestResult struct {
	RunID          string            `json:"run_id"`
	InitialCapital float64           `json:"initial_capital"`
	FinalCapital   float64           `json:"final_capital"`
	Trades         []Trade           `json:"trades"`
	EquityCurve    []float64         `json:"equity_curve"`
	Metrics        PerformanceReport `json:"metrics"`
}

// Range is a half-open index interval [Start, End)
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of indices covered by the range
func (r Range) Len() int { return r.End - r.Start }

// Fold is one train/test pair of a walk-forward validation run. Folds are
// generated once per run and are immutable; Train.End + gap <= Test.Start
// always holds.
type Fold struct {
	Index int   `json:"fold"`
	Train Range `json:"train_range"`
	Test  Range `json:"test_range"`
}

// FoldResult holds the outcome of evaluating a model on a single fold. A fold
// whose fit or predict failed carries the error text in Error and an empty
// metrics map; such folds are excluded from aggregation.
type FoldResult struct {
	Fold    Fold              `json:"fold"`
	Metrics PerformanceReport `json:"metrics,omitempty"`
	Error   string            `json:"error,omitempty"`
}

// Failed reports whether the fold was recorded with an error marker
func (f FoldResult) Failed() bool { return f.Error != "" }

// AggregateStat is the mean and standard deviation of one metric across the
// successfully evaluated folds
type AggregateStat struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
	N    int     `json:"n"`
}

// MarshalJSON maps NaN and ±Inf moments to null, like PerformanceReport does.
func (s AggregateStat) MarshalJSON() ([]byte, error) {
	finite := func(v float64) *float64 {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil
		}
		return &v
	}
	return json.Marshal(struct {
		Mean *float64 `json:"mean"`
		Std  *float64 `json:"std"`
		N    int      `json:"n"`
	}{finite(s.Mean), finite(s.Std), s.N})
}

// WalkForwardResult is the full outcome of one validation run
type WalkForwardResult struct {
	RunID      string                   `json:"run_id"`
	Folds      int                      `json:"folds"`
	Succeeded  int                      `json:"succeeded"`
	Failed     int                      `json:"failed"`
	Results    []FoldResult             `json:"results"`
	Aggregated map[string]AggregateStat `json:"aggregated_metrics"`
}

// ModelResult is one candidate's row in a model comparison table
type ModelResult struct {
	Label   string            `json:"label"`
	Metrics PerformanceReport `json:"metrics,omitempty"`
	Error   string            `json:"error,omitempty"`
}

// ComparisonResult is the ranked output of a multi-model benchmark. Best is
// empty when no candidate evaluated successfully.
type ComparisonResult struct {
	RunID   string        `json:"run_id"`
	Metric  string        `json:"metric"`
	Best    string        `json:"best_model"`
	Results []ModelResult `json:"results"`
}
