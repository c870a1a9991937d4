package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// BetOutcome represents the settled outcome of a simulated bet
type BetOutcome string

const (
	BetOutcomeWon  BetOutcome = "won"
	BetOutcomeLost BetOutcome = "lost"
)

// BetRecord is one settled wager in a backtest ledger. Records are
// append-only within a run.
type BetRecord struct {
	ID            uuid.UUID  `json:"id"`
	RaceID        uuid.UUID  `json:"race_id"`
	Track         string     `json:"track"`
	EntrantNumber int        `json:"entrant_number"`
	// SecondNumber is set for quinella bets only; always the higher of
	// the two selected numbers.
	SecondNumber int        `json:"second_number,omitempty"`
	BetType      BetType    `json:"bet_type"`
	Stake        float64    `json:"stake"`
	DecisionOdds float64    `json:"decision_odds"`
	RealizedOdds float64    `json:"realized_odds"`
	Outcome      BetOutcome `json:"outcome"`
	Payout       float64    `json:"payout"`
	PlacedAt     time.Time  `json:"placed_at"`
}

// Won reports whether the bet paid out
func (b *BetRecord) Won() bool {
	return b.Outcome == BetOutcomeWon
}

// ProfitLoss returns the net result of the bet
func (b *BetRecord) ProfitLoss() float64 {
	return b.Payout - b.Stake
}

// Selection returns a printable selection label
func (b *BetRecord) Selection() string {
	if b.BetType == BetTypeQuinella && b.SecondNumber > 0 {
		return fmt.Sprintf("%d-%d", b.EntrantNumber, b.SecondNumber)
	}
	return fmt.Sprintf("%d", b.EntrantNumber)
}
