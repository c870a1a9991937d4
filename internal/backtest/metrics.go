package backtest

import (
	"math"
	"time"

	"github.com/yourusername/turfsim/internal/models"
)

// summarize computes headline statistics once from the complete ledger
// and equity curve. Nothing here mutates state: every run produces its
// figures the same way from the same inputs.
func summarize(state *runState, params RunParams, startDay, endDay time.Time) models.ResultSummary {
	summary := models.ResultSummary{
		StartDate:      startDay,
		EndDate:        endDay,
		InitialCapital: state.initial,
		FinalCapital:   state.capital,
		TotalBets:      len(state.bets),
	}

	if state.initial > 0 {
		summary.TotalReturn = (state.capital - state.initial) / state.initial
	}

	for _, bet := range state.bets {
		summary.TotalStaked += bet.Stake
		summary.TotalReturned += bet.Payout
		if bet.Won() {
			summary.WinningBets++
		} else {
			summary.LosingBets++
		}
	}

	if summary.TotalBets > 0 {
		summary.WinRate = float64(summary.WinningBets) / float64(summary.TotalBets)
	}
	if summary.TotalStaked > 0 {
		summary.ROI = (summary.TotalReturned - summary.TotalStaked) / summary.TotalStaked
	}

	summary.MaxDrawdown = state.curve.MaxDrawdown()
	summary.SharpeRatio = sharpeRatio(state.curve.Returns(), params.RiskFreeRate)
	summary.ProfitFactor = profitFactor(state.bets)

	return summary
}

// sharpeRatio computes an annualized Sharpe-like ratio over daily returns
func sharpeRatio(returns []float64, riskFreeRate float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	mean := average(returns)
	std := stddev(returns)
	if std == 0 {
		return 0
	}
	return (mean - riskFreeRate/365.0) / std * math.Sqrt(365)
}

func profitFactor(bets []models.BetRecord) float64 {
	grossProfit := 0.0
	grossLoss := 0.0
	for _, bet := range bets {
		pl := bet.ProfitLoss()
		if pl > 0 {
			grossProfit += pl
		} else {
			grossLoss += math.Abs(pl)
		}
	}
	if grossLoss == 0 {
		if grossProfit > 0 {
			return 999
		}
		return 0
	}
	return grossProfit / grossLoss
}

func average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	return mean / float64(len(values))
}

func stddev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := average(values)
	variance := 0.0
	for _, v := range values {
		diff := v - mean
		variance += diff * diff
	}
	variance /= float64(len(values))
	return math.Sqrt(variance)
}
