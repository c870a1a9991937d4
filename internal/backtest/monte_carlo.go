package backtest

import (
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/yourusername/turfsim/internal/models"
)

// MonteCarloConfig configures outcome resampling over a settled ledger
type MonteCarloConfig struct {
	Iterations     int
	Seed           int64
	InitialCapital float64
}

// MonteCarloResult summarizes the resampled final-capital distribution
type MonteCarloResult struct {
	Iterations          int       `json:"iterations"`
	MeanReturn          float64   `json:"mean_return"`
	StdReturn           float64   `json:"std_return"`
	VaR95               float64   `json:"var_95"`
	ProbabilityOfProfit float64   `json:"probability_of_profit"`
	ProbabilityOfRuin   float64   `json:"probability_of_ruin"`
	Distribution        []float64 `json:"distribution"`
}

// RunMonteCarlo resamples each bet's outcome using the win probability
// implied by its decision odds. It answers how fragile a historical
// result is: the same strategy over the same prices, with the luck
// rolled again.
func RunMonteCarlo(bets []models.BetRecord, cfg MonteCarloConfig) MonteCarloResult {
	if cfg.Iterations <= 0 {
		cfg.Iterations = 1000
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	rng := rand.New(rand.NewSource(seed))
	distribution := make([]float64, cfg.Iterations)

	for i := 0; i < cfg.Iterations; i++ {
		capital := cfg.InitialCapital
		for _, bet := range bets {
			prob := 0.0
			if bet.DecisionOdds > 1 {
				prob = 1.0 / bet.DecisionOdds
			}
			if rng.Float64() < prob {
				capital += bet.Stake*bet.RealizedOdds - bet.Stake
			} else {
				capital -= bet.Stake
			}
			if capital <= 0 {
				capital = 0
				break
			}
		}
		distribution[i] = capital
	}

	mean, std := meanStd(distribution)

	result := MonteCarloResult{
		Iterations:          cfg.Iterations,
		Distribution:        distribution,
		ProbabilityOfProfit: probabilityAbove(distribution, cfg.InitialCapital),
		ProbabilityOfRuin:   probabilityAtOrBelow(distribution, 0),
	}
	if cfg.InitialCapital > 0 {
		result.MeanReturn = (mean - cfg.InitialCapital) / cfg.InitialCapital
		result.StdReturn = std / cfg.InitialCapital
		result.VaR95 = (percentile(distribution, 0.05) - cfg.InitialCapital) / cfg.InitialCapital
	}

	return result
}

func meanStd(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	mean := average(values)
	variance := 0.0
	for _, v := range values {
		diff := v - mean
		variance += diff * diff
	}
	variance /= float64(len(values))
	return mean, math.Sqrt(variance)
}

func percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64{}, values...)
	sort.Float64s(sorted)
	idx := int(math.Floor(p * float64(len(sorted)-1)))
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func probabilityAbove(values []float64, threshold float64) float64 {
	if len(values) == 0 {
		return 0
	}
	count := 0
	for _, v := range values {
		if v > threshold {
			count++
		}
	}
	return float64(count) / float64(len(values))
}

func probabilityAtOrBelow(values []float64, threshold float64) float64 {
	if len(values) == 0 {
		return 0
	}
	count := 0
	for _, v := range values {
		if v <= threshold {
			count++
		}
	}
	return float64(count) / float64(len(values))
}
