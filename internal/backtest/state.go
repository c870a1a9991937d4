package backtest

import (
	"time"

	"github.com/yourusername/turfsim/internal/models"
)

// runState tracks the evolving bankroll across a simulation. Capital
// only moves at day boundaries: all of a day's stakes and payouts are
// applied together.
type runState struct {
	initial float64
	capital float64
	peak    float64
	bets    []models.BetRecord
	curve   models.EquityCurve
}

func newRunState(initialCapital float64) *runState {
	return &runState{
		initial: initialCapital,
		capital: initialCapital,
		peak:    initialCapital,
	}
}

// available returns the capital a decision made today can draw on:
// current capital minus stakes already committed earlier in the day.
func (s *runState) available(dayStaked float64) float64 {
	return s.capital - dayStaked
}

// settleDay applies one day's ledger atomically and records an equity
// point when anything settled.
func (s *runState) settleDay(day time.Time, bets []models.BetRecord, staked, returned float64) {
	if len(bets) == 0 {
		return
	}

	s.bets = append(s.bets, bets...)
	s.capital += returned - staked
	if s.capital > s.peak {
		s.peak = s.capital
	}

	drawdown := 0.0
	if s.peak > 0 && s.capital < s.peak {
		drawdown = (s.peak - s.capital) / s.peak
	}

	s.curve = append(s.curve, models.EquityPoint{
		Date:     day,
		Capital:  s.capital,
		Drawdown: drawdown,
		DailyPnL: returned - staked,
	})
}
