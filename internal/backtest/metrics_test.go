package backtest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/yourusername/turfsim/internal/models"
)

func settledBet(stake, payout float64) models.BetRecord {
	outcome := models.BetOutcomeLost
	if payout > 0 {
		outcome = models.BetOutcomeWon
	}
	return models.BetRecord{
		Stake:   stake,
		Payout:  payout,
		Outcome: outcome,
	}
}

func TestSummarize(t *testing.T) {
	start := time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)

	state := newRunState(1000)
	state.settleDay(start, []models.BetRecord{
		settledBet(100, 600),
		settledBet(100, 0),
	}, 200, 600)
	state.settleDay(end, []models.BetRecord{
		settledBet(100, 0),
	}, 100, 0)

	summary := summarize(state, RunParams{}, start, end)

	assert.Equal(t, 3, summary.TotalBets)
	assert.Equal(t, 1, summary.WinningBets)
	assert.Equal(t, 2, summary.LosingBets)
	assert.InDelta(t, 1.0/3.0, summary.WinRate, 1e-9)
	assert.InDelta(t, 300.0, summary.TotalStaked, 1e-9)
	assert.InDelta(t, 600.0, summary.TotalReturned, 1e-9)
	assert.InDelta(t, 1.0, summary.ROI, 1e-9)
	assert.InDelta(t, 1300.0, summary.FinalCapital, 1e-9)
	assert.InDelta(t, 0.3, summary.TotalReturn, 1e-9)
	// peak 1400 after day one, 1300 after day two
	assert.InDelta(t, 100.0/1400.0, summary.MaxDrawdown, 1e-9)
}

func TestProfitFactor(t *testing.T) {
	bets := []models.BetRecord{
		settledBet(100, 400), // +300
		settledBet(100, 0),   // -100
		settledBet(50, 0),    // -50
	}
	assert.InDelta(t, 2.0, profitFactor(bets), 1e-9)

	allWins := []models.BetRecord{settledBet(100, 200)}
	assert.Equal(t, 999.0, profitFactor(allWins))

	assert.Equal(t, 0.0, profitFactor(nil))
}

func TestSharpeRatio(t *testing.T) {
	assert.Equal(t, 0.0, sharpeRatio(nil, 0))
	// constant returns have zero deviation
	assert.Equal(t, 0.0, sharpeRatio([]float64{0.01, 0.01, 0.01}, 0))

	positive := sharpeRatio([]float64{0.02, 0.01, 0.03, 0.015}, 0)
	assert.Greater(t, positive, 0.0)
}
