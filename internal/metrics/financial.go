package metrics

import (
	"math"

	"github.com/enerquant/backtest/models"
)

// PeriodsPerYearDaily is the default annualization basis (daily bars, 252
// trading days)
const PeriodsPerYearDaily = 252.0

// Drawdown describes the deepest peak-to-trough decline of an equity curve.
// Fraction is non-positive; Start and End are the indices of the peak and the
// trough that bound the drawdown window.
type Drawdown struct {
	Fraction float64 `json:"fraction"`
	Start    int     `json:"start"`
	End      int     `json:"end"`
}

// Financial computes the risk report of an equity curve. riskFree is an
// annual rate; periodsPerYear sets the annualization basis for Sharpe,
// Sortino and volatility.
func Financial(equity []float64, riskFree, periodsPerYear float64) models.PerformanceReport {
	returns := Returns(equity)
	dd := MaxDrawdown(equity)
	return models.PerformanceReport{
		"sharpe_ratio":       SharpeRatio(returns, riskFree, periodsPerYear),
		"sortino_ratio":      SortinoRatio(returns, riskFree, periodsPerYear),
		"max_drawdown":       dd.Fraction * 100,
		"max_drawdown_start": float64(dd.Start),
		"max_drawdown_end":   float64(dd.End),
		"volatility":         Volatility(returns, periodsPerYear),
	}
}

// Returns derives simple per-period returns from an equity curve
func Returns(equity []float64) []float64 {
	if len(equity) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		returns = append(returns, (equity[i]-equity[i-1])/equity[i-1])
	}
	return returns
}

// SharpeRatio is the annualized mean excess return over the return standard
// deviation. A zero-variance series is riskless with zero excess reward, a
// well-defined 0; an empty or single-element series is NaN.
func SharpeRatio(returns []float64, riskFree, periodsPerYear float64) float64 {
	if len(returns) < 2 {
		return math.NaN()
	}
	m := mean(returns)
	sd := stdDev(returns, m)
	if sd == 0 {
		return 0
	}
	excess := m - riskFree/periodsPerYear
	return excess / sd * math.Sqrt(periodsPerYear)
}

// SortinoRatio divides the same excess return by the downside deviation, the
// standard deviation of the negative-return subset. Zero-variance input is 0
// per the Sharpe convention; a series without enough downside observations to
// measure dispersion is NaN.
func SortinoRatio(returns []float64, riskFree, periodsPerYear float64) float64 {
	if len(returns) < 2 {
		return math.NaN()
	}
	m := mean(returns)
	if stdDev(returns, m) == 0 {
		return 0
	}

	var downside []float64
	for _, r := range returns {
		if r < 0 {
			downside = append(downside, r)
		}
	}
	dd := stdDev(downside, mean(downside))
	if dd == 0 {
		return math.NaN()
	}
	excess := m - riskFree/periodsPerYear
	return excess / dd * math.Sqrt(periodsPerYear)
}

// MaxDrawdown scans the equity curve for the largest decline from a running
// peak. The zero value (no decline anywhere) has Start == End == 0.
func MaxDrawdown(equity []float64) Drawdown {
	if len(equity) == 0 {
		return Drawdown{Fraction: math.NaN()}
	}

	worst := Drawdown{}
	peak := equity[0]
	peakIdx := 0
	for i, e := range equity {
		if e > peak {
			peak = e
			peakIdx = i
			continue
		}
		if peak <= 0 {
			continue
		}
		dd := (e - peak) / peak
		if dd < worst.Fraction {
			worst = Drawdown{Fraction: dd, Start: peakIdx, End: i}
		}
	}
	return worst
}

// Volatility is the annualized return standard deviation
func Volatility(returns []float64, periodsPerYear float64) float64 {
	if len(returns) < 2 {
		return math.NaN()
	}
	return stdDev(returns, mean(returns)) * math.Sqrt(periodsPerYear)
}

// FilterFinite drops NaN and ±Inf values, returning the finite remainder.
// Aggregation across folds and models runs on filtered values only.
func FilterFinite(values []float64) []float64 {
	finite := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			finite = append(finite, v)
		}
	}
	return finite
}

// Aggregate reduces one metric's per-fold values to mean and standard
// deviation over the finite entries
func Aggregate(values []float64) models.AggregateStat {
	finite := FilterFinite(values)
	if len(finite) == 0 {
		return models.AggregateStat{Mean: math.NaN(), Std: math.NaN(), N: 0}
	}
	m := mean(finite)
	return models.AggregateStat{Mean: m, Std: stdDev(finite, m), N: len(finite)}
}
