// Package backtest executes strategy simulations against historical
// racing data, one day at a time.
package backtest

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/turfsim/internal/config"
	"github.com/yourusername/turfsim/internal/models"
)

// RunParams fully describes one simulation run. Together with the data
// the source serves, these parameters determine the result exactly.
type RunParams struct {
	JobID          uuid.UUID
	Strategy       models.StrategyDefinition
	StartDate      time.Time
	EndDate        time.Time
	InitialCapital float64
	CommissionRate float64
	// DecisionOffset is how long before the scheduled off bets are decided
	DecisionOffset time.Duration
	// Seed drives slippage sampling. Zero means derive from the clock;
	// the derived value is recorded so the run stays replayable.
	Seed int64
	// CancelPerRace checks for cancellation before every race instead of
	// only at day boundaries
	CancelPerRace bool
	RiskFreeRate  float64
}

// ParamsFromConfig builds run parameters from configured defaults
func ParamsFromConfig(cfg *config.BacktestConfig) RunParams {
	params := RunParams{
		InitialCapital: cfg.InitialCapital,
		CommissionRate: cfg.CommissionRate,
		DecisionOffset: time.Duration(cfg.DecisionOffsetMinutes) * time.Minute,
		CancelPerRace:  cfg.CancelGranularity == "race",
		RiskFreeRate:   cfg.RiskFreeRate,
	}
	return params
}

// Validate checks run parameters before execution
func (p RunParams) Validate() error {
	if p.StartDate.IsZero() || p.EndDate.IsZero() {
		return fmt.Errorf("start and end dates are required")
	}
	if p.StartDate.After(p.EndDate) {
		return fmt.Errorf("start date must not be after end date")
	}
	if p.InitialCapital <= 0 {
		return fmt.Errorf("initial capital must be positive")
	}
	if p.CommissionRate < 0 || p.CommissionRate > 0.1 {
		return fmt.Errorf("commission rate must be between 0 and 0.1")
	}
	if p.DecisionOffset <= 0 {
		return fmt.Errorf("decision offset must be positive")
	}
	return nil
}
