package backtest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/turfsim/internal/models"
)

func TestRunMonteCarloDeterministic(t *testing.T) {
	bets := []models.BetRecord{
		{Stake: 100, DecisionOdds: 6.0, RealizedOdds: 5.9},
		{Stake: 100, DecisionOdds: 5.0, RealizedOdds: 5.1},
		{Stake: 100, DecisionOdds: 8.0, RealizedOdds: 7.8},
	}
	cfg := MonteCarloConfig{Iterations: 200, Seed: 7, InitialCapital: 1000}

	first := RunMonteCarlo(bets, cfg)
	second := RunMonteCarlo(bets, cfg)

	assert.Equal(t, first.Distribution, second.Distribution)
	assert.Equal(t, first.MeanReturn, second.MeanReturn)
	assert.Equal(t, first.VaR95, second.VaR95)
}

func TestRunMonteCarloCertainWinner(t *testing.T) {
	// decision odds of exactly 1 imply zero win probability under the
	// implied-probability model, so every path loses the full stake
	bets := []models.BetRecord{{Stake: 100, DecisionOdds: 1.0, RealizedOdds: 1.0}}
	result := RunMonteCarlo(bets, MonteCarloConfig{Iterations: 50, Seed: 3, InitialCapital: 1000})

	require.Len(t, result.Distribution, 50)
	for _, capital := range result.Distribution {
		assert.InDelta(t, 900.0, capital, 1e-9)
	}
	assert.Equal(t, 0.0, result.ProbabilityOfProfit)
	assert.Equal(t, 0.0, result.ProbabilityOfRuin)
	assert.InDelta(t, -0.1, result.MeanReturn, 1e-9)
}

func TestRunMonteCarloRuin(t *testing.T) {
	// a bet staking the whole bankroll at hopeless odds busts every path
	bets := []models.BetRecord{{Stake: 1000, DecisionOdds: 1.0, RealizedOdds: 1.0}}
	result := RunMonteCarlo(bets, MonteCarloConfig{Iterations: 20, Seed: 3, InitialCapital: 1000})

	assert.Equal(t, 1.0, result.ProbabilityOfRuin)
}
