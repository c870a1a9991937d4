package models

import (
	"time"

	"github.com/google/uuid"
)

// OddsSnapshot represents a point-in-time snapshot of tote odds for one entrant
type OddsSnapshot struct {
	Time        time.Time `db:"time" json:"time" validate:"required"`
	RaceID      uuid.UUID `db:"race_id" json:"race_id" validate:"required,uuid4"`
	EntrantID   uuid.UUID `db:"entrant_id" json:"entrant_id" validate:"required,uuid4"`
	WinOdds     *float64  `db:"win_odds" json:"win_odds"`
	PlaceOdds   *float64  `db:"place_odds" json:"place_odds"`
	PoolVolume  *float64  `db:"pool_volume" json:"pool_volume"`
}

// GetWinOdds returns the win odds, or 0 when the snapshot is incomplete
func (o *OddsSnapshot) GetWinOdds() float64 {
	if o.WinOdds == nil {
		return 0
	}
	return *o.WinOdds
}

// GetPlaceOdds returns the place odds, or 0 when the snapshot is incomplete
func (o *OddsSnapshot) GetPlaceOdds() float64 {
	if o.PlaceOdds == nil {
		return 0
	}
	return *o.PlaceOdds
}

// ImpliedProbability returns the win probability implied by the odds
func (o *OddsSnapshot) ImpliedProbability() float64 {
	odds := o.GetWinOdds()
	if odds <= 0 {
		return 0
	}
	return 1.0 / odds
}

// HasUsableOdds reports whether the snapshot carries enough data to bet on
func (o *OddsSnapshot) HasUsableOdds() bool {
	return o.WinOdds != nil && *o.WinOdds > 1.0
}
