// Package slippage models the drift between odds observed at decision
// time and the odds actually obtained at settlement. The random source
// is injected and explicitly threaded so two runs with the same seed
// produce bit-identical realized odds.
package slippage

import "math/rand"

// Default model parameters
const (
	DefaultFloor      = 1.01
	DefaultVolatility = 0.08
)

// Model parameterizes the odds drift process
type Model struct {
	// Floor is the lowest realized odds the model will produce.
	Floor float64
	// Volatility scales the drift magnitude relative to the decision
	// odds.
	Volatility float64
}

// NewModel returns a model with the given parameters, substituting
// defaults for non-positive values
func NewModel(floor, volatility float64) Model {
	if floor <= 0 {
		floor = DefaultFloor
	}
	if volatility <= 0 {
		volatility = DefaultVolatility
	}
	return Model{Floor: floor, Volatility: volatility}
}

// Apply produces the realized odds for a bet decided at decisionOdds
// with minutesToPost remaining before the off. Drift magnitude shrinks
// as the off approaches: less time means less opportunity for public
// money to move the price. The model is pure apart from advancing the
// supplied rng.
func (m Model) Apply(decisionOdds, minutesToPost float64, rng *rand.Rand) float64 {
	if decisionOdds <= m.Floor {
		return m.Floor
	}
	if minutesToPost < 0 {
		minutesToPost = 0
	}

	timeFactor := minutesToPost / (1.0 + minutesToPost)
	drift := rng.NormFloat64() * m.Volatility * decisionOdds * timeFactor

	realized := decisionOdds + drift
	if realized < m.Floor {
		return m.Floor
	}
	return realized
}
