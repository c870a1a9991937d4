package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FinishEntry represents one entrant's final placing in a race
type FinishEntry struct {
	EntrantID uuid.UUID `json:"entrant_id"`
	Number    int       `json:"number"`
	Position  int       `json:"position"`
	Margin    *float64  `json:"margin,omitempty"`
}

// SettledResult represents the official outcome of a completed race
type SettledResult struct {
	RaceID           uuid.UUID       `db:"race_id" json:"race_id" validate:"required"`
	Time             time.Time       `db:"time" json:"time"`
	Finishers        []FinishEntry   `db:"-" json:"finishers"`
	WinDividend      decimal.Decimal `db:"win_dividend" json:"win_dividend"`
	PlaceDividends   []decimal.Decimal `db:"-" json:"place_dividends"`
	QuinellaDividend decimal.Decimal `db:"quinella_dividend" json:"quinella_dividend"`
	PlacesPaid       int             `db:"places_paid" json:"places_paid"`
	Status           string          `db:"status" json:"status" validate:"oneof=pending completed abandoned"`
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
}

// IsComplete reports whether the result carries a usable finishing order
func (sr *SettledResult) IsComplete() bool {
	return sr.Status == "completed" && len(sr.Finishers) > 0
}

// WinnerNumber returns the winning entrant number, or 0 when unknown
func (sr *SettledResult) WinnerNumber() int {
	for _, f := range sr.Finishers {
		if f.Position == 1 {
			return f.Number
		}
	}
	return 0
}

// PositionOf returns the finishing position for an entrant number, or 0
// when the entrant did not finish
func (sr *SettledResult) PositionOf(number int) int {
	for _, f := range sr.Finishers {
		if f.Number == number {
			return f.Position
		}
	}
	return 0
}

// Placed reports whether the entrant number filled a paying place.
// PlacesPaid defaults to 3 when the record does not specify it.
func (sr *SettledResult) Placed(number int) bool {
	paid := sr.PlacesPaid
	if paid <= 0 {
		paid = 3
	}
	pos := sr.PositionOf(number)
	return pos >= 1 && pos <= paid
}

// QuinellaNumbers returns the first two finishers in ascending number order
func (sr *SettledResult) QuinellaNumbers() (int, int, bool) {
	first, second := 0, 0
	for _, f := range sr.Finishers {
		switch f.Position {
		case 1:
			first = f.Number
		case 2:
			second = f.Number
		}
	}
	if first == 0 || second == 0 {
		return 0, 0, false
	}
	if first > second {
		first, second = second, first
	}
	return first, second, true
}
