// Package backtest simulates trading a signal series against a price series
// under commission and slippage assumptions, producing a trade ledger, a
// mark-to-market equity curve and a performance report.
package backtest

import (
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/enerquant/backtest/internal/metrics"
	"github.com/enerquant/backtest/internal/signal"
	"github.com/enerquant/backtest/models"
)

// Config holds the economic assumptions of a simulation. Commission and
// slippage are fractions of notional; RiskFree is an annual rate used by the
// risk metrics.
type Config struct {
	InitialCapital float64 `yaml:"initial_capital"`
	Commission     float64 `yaml:"commission"`
	Slippage       float64 `yaml:"slippage"`
	RiskFree       float64 `yaml:"risk_free"`
	PeriodsPerYear float64 `yaml:"periods_per_year"`
}

// Validate rejects configurations that would produce a nonsensical simulation
func (c Config) Validate() error {
	if c.InitialCapital <= 0 {
		return fmt.Errorf("initial capital must be positive, got %f", c.InitialCapital)
	}
	if c.Commission < 0 {
		return fmt.Errorf("commission must be non-negative, got %f", c.Commission)
	}
	if c.Slippage < 0 {
		return fmt.Errorf("slippage must be non-negative, got %f", c.Slippage)
	}
	return nil
}

// Engine is the trade-simulation state machine. One Run call owns its ledger
// and equity curve; the returned result is never mutated afterwards, so an
// Engine can be reused across runs.
//
// Sizing is full-capital: each new position commits the entire current
// capital as notional. Capital is not clamped at zero; modeled costs can in
// principle drive it negative.
type Engine struct {
	cfg    Config
	logger zerolog.Logger
}

// NewEngine creates an engine after validating the cost assumptions
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid backtest config: %w", err)
	}
	if cfg.PeriodsPerYear == 0 {
		cfg.PeriodsPerYear = metrics.PeriodsPerYearDaily
	}
	return &Engine{
		cfg:    cfg,
		logger: log.With().Str("component", "backtest_engine").Logger(),
	}, nil
}

// RunStrategy generates signals from the predictions with the given strategy
// and simulates them. The report additionally carries the forecast-accuracy
// metrics of the predictions against the realized prices.
func (e *Engine) RunStrategy(predictions, prices []float64, strat signal.Strategy) (*models.BacktestResult, error) {
	signals, err := signal.Generate(predictions, prices, strat)
	if err != nil {
		return nil, fmt.Errorf("generating signals: %w", err)
	}

	result, err := e.Run(signals, prices)
	if err != nil {
		return nil, err
	}

	accuracy, err := metrics.Accuracy(prices, predictions)
	if err != nil {
		return nil, fmt.Errorf("computing accuracy metrics: %w", err)
	}
	for name, v := range accuracy {
		result.Metrics[name] = v
	}
	return result, nil
}

// Run simulates a signal series against a price series. States are FLAT,
// LONG and SHORT; the simulation starts flat and force-closes any position
// still open at the last index.
func (e *Engine) Run(signals []models.Signal, prices []float64) (*models.BacktestResult, error) {
	if err := e.validateSeries(signals, prices); err != nil {
		return nil, err
	}

	var (
		capital    = e.cfg.InitialCapital
		state      = models.Flat
		entryIndex int
		entryPrice float64
		notional   float64
		trades     []models.Trade
		equity     = make([]float64, len(prices))
	)

	for t, price := range prices {
		sig := signals[t]
		if sig != state {
			if state != models.Flat {
				trade := e.closePosition(state, entryIndex, entryPrice, notional, t, price, &capital)
				trades = append(trades, trade)
			}
			if sig != models.Flat {
				entryIndex = t
				entryPrice = e.fillPrice(sig, price, true)
				notional = capital
				capital -= e.cfg.Commission * notional
			}
			state = sig
		}
		equity[t] = capital + unrealized(state, entryPrice, notional, price)
	}

	// Force-close on the last bar so all open P&L is realized into the
	// ledger.
	if state != models.Flat {
		last := len(prices) - 1
		trade := e.closePosition(state, entryIndex, entryPrice, notional, last, prices[last], &capital)
		trades = append(trades, trade)
		equity[last] = capital
	}

	result := &models.BacktestResult{
		RunID:          uuid.NewString(),
		InitialCapital: e.cfg.InitialCapital,
		FinalCapital:   capital,
		Trades:         trades,
		EquityCurve:    equity,
		Metrics:        buildReport(trades, equity, e.cfg),
	}

	e.logger.Debug().
		Str("run_id", result.RunID).
		Int("bars", len(prices)).
		Int("trades", len(trades)).
		Float64("final_capital", capital).
		Msg("Backtest run complete")

	return result, nil
}

func (e *Engine) validateSeries(signals []models.Signal, prices []float64) error {
	if len(signals) != len(prices) {
		return fmt.Errorf("%w: %d signals vs %d prices", signal.ErrLengthMismatch, len(signals), len(prices))
	}
	if len(prices) == 0 {
		return fmt.Errorf("empty price series")
	}
	for i, p := range prices {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return fmt.Errorf("non-finite price %f at index %d", p, i)
		}
		if p <= 0 {
			return fmt.Errorf("non-positive price %f at index %d", p, i)
		}
	}
	for i, s := range signals {
		if s != models.Short && s != models.Flat && s != models.Long {
			return fmt.Errorf("invalid signal %d at index %d", s, i)
		}
	}
	return nil
}

// closePosition realizes an open position at the given bar, pays the exit
// commission and returns the completed trade
func (e *Engine) closePosition(state models.Signal, entryIndex int, entryPrice, notional float64, t int, price float64, capital *float64) models.Trade {
	exitPrice := e.fillPrice(state, price, false)
	pnlFraction := float64(state) * (exitPrice - entryPrice) / entryPrice
	pnlDollars := pnlFraction * notional

	*capital += pnlDollars
	*capital -= e.cfg.Commission * notional

	return models.Trade{
		EntryIndex:   entryIndex,
		ExitIndex:    t,
		EntryPrice:   entryPrice,
		ExitPrice:    exitPrice,
		Position:     state,
		PnLFraction:  pnlFraction,
		PnLDollars:   pnlDollars,
		CapitalAfter: *capital,
	}
}

// fillPrice applies slippage against the position: entries fill worse in the
// trade direction, exits fill worse in the opposite direction.
func (e *Engine) fillPrice(direction models.Signal, price float64, opening bool) float64 {
	adverse := float64(direction) * e.cfg.Slippage
	if !opening {
		adverse = -adverse
	}
	return price * (1 + adverse)
}

// unrealized marks an open position to market against the raw price
func unrealized(state models.Signal, entryPrice, notional, price float64) float64 {
	if state == models.Flat {
		return 0
	}
	return float64(state) * (price - entryPrice) / entryPrice * notional
}
