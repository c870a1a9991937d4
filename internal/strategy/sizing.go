package strategy

import (
	"math"

	"github.com/yourusername/turfsim/internal/models"
)

// CalculateStake sizes one wager from the policy and the capital
// available at decision time. Compounding policies therefore scale with
// how the simulated bankroll has evolved, never with the starting
// capital. Returns 0 when no stake should be placed.
func CalculateStake(policy models.SizingPolicy, capital, odds, winRate float64) float64 {
	if capital <= 0 {
		return 0
	}
	switch policy.Method {
	case models.SizingFixed:
		return math.Min(policy.Amount, capital)
	case models.SizingPercent:
		return capital * policy.Amount
	case models.SizingKelly:
		return kellyStake(policy.Amount, capital, odds, winRate)
	default:
		return 0
	}
}

// kellyStake computes a fractional Kelly stake. The win probability
// estimate is the entrant's career strike rate when one exists,
// otherwise the probability implied by the offered odds.
func kellyStake(fraction, capital, odds, winRate float64) float64 {
	if odds <= 1 {
		return 0
	}
	probability := winRate
	if probability <= 0 {
		probability = 1.0 / odds
	}
	if probability >= 1 {
		probability = 1
	}

	q := 1.0 - probability
	b := odds - 1.0
	kelly := (b*probability - q) / b
	if kelly <= 0 {
		return 0
	}
	if fraction <= 0 || fraction > 1 {
		fraction = 0.5
	}
	stake := capital * kelly * fraction
	return math.Min(stake, capital)
}
