package backtest

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/enerquant/backtest/internal/metrics"
	"github.com/enerquant/backtest/models"
)

// buildReport assembles the performance report of one simulation. Percentage
// metrics (win_rate, total_return, max_drawdown) are expressed in percent;
// max_drawdown is non-positive.
func buildReport(trades []models.Trade, equity []float64, cfg Config) models.PerformanceReport {
	report := metrics.Financial(equity, cfg.RiskFree, cfg.PeriodsPerYear)

	var (
		wins, losses                int
		totalGain, totalLoss        float64
		cumulativePnL               float64
		winStreak, lossStreak       int
		maxWinStreak, maxLossStreak int
	)
	for _, trade := range trades {
		cumulativePnL += trade.PnLDollars
		if trade.PnLDollars > 0 {
			wins++
			totalGain += trade.PnLDollars
			winStreak++
			lossStreak = 0
		} else {
			losses++
			totalLoss += -trade.PnLDollars
			lossStreak++
			winStreak = 0
		}
		if winStreak > maxWinStreak {
			maxWinStreak = winStreak
		}
		if lossStreak > maxLossStreak {
			maxLossStreak = lossStreak
		}
	}

	finalCapital := cfg.InitialCapital
	if len(equity) > 0 {
		finalCapital = equity[len(equity)-1]
	}

	report["total_trades"] = float64(len(trades))
	report["winning_trades"] = float64(wins)
	report["losing_trades"] = float64(losses)
	report["cumulative_pnl"] = cumulativePnL
	report["initial_capital"] = cfg.InitialCapital
	report["final_capital"] = finalCapital
	report["total_return"] = (finalCapital - cfg.InitialCapital) / cfg.InitialCapital * 100
	report["max_consecutive_wins"] = float64(maxWinStreak)
	report["max_consecutive_losses"] = float64(maxLossStreak)

	if len(trades) > 0 {
		report["win_rate"] = float64(wins) / float64(len(trades)) * 100
	} else {
		report["win_rate"] = 0
	}

	if wins > 0 {
		report["average_gain"] = totalGain / float64(wins)
	} else {
		report["average_gain"] = math.NaN()
	}
	if losses > 0 {
		report["average_loss"] = totalLoss / float64(losses)
	} else {
		report["average_loss"] = math.NaN()
	}
	if totalLoss > 0 {
		report["profit_factor"] = totalGain / totalLoss
	} else {
		report["profit_factor"] = totalGain
	}

	return report
}

// FormatResult renders a human-readable summary of a backtest run
func FormatResult(result *models.BacktestResult) string {
	if result == nil {
		return "No backtest results available"
	}

	var b strings.Builder
	b.WriteString("\n===== BACKTEST RESULTS =====\n")
	fmt.Fprintf(&b, "Initial capital: %.2f\n", result.InitialCapital)
	fmt.Fprintf(&b, "Final capital: %.2f\n", result.FinalCapital)
	fmt.Fprintf(&b, "Total trades: %d\n", len(result.Trades))

	ordered := make([]string, 0, len(result.Metrics))
	for name := range result.Metrics {
		ordered = append(ordered, name)
	}
	sort.Strings(ordered)

	for _, name := range ordered {
		value := result.Metrics[name]
		if math.IsNaN(value) || math.IsInf(value, 0) {
			fmt.Fprintf(&b, "%s: n/a\n", name)
			continue
		}
		fmt.Fprintf(&b, "%s: %.4f\n", name, value)
	}

	return b.String()
}
