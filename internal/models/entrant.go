package models

import (
	"time"

	"github.com/google/uuid"
)

// Entrant represents a single runner entered in a race
type Entrant struct {
	ID                uuid.UUID `db:"id" json:"id" validate:"required,uuid4"`
	RaceID            uuid.UUID `db:"race_id" json:"race_id" validate:"required,uuid4"`
	Number            int       `db:"number" json:"number" validate:"required,gt=0,lt=25"`
	Name              string    `db:"name" json:"name" validate:"required"`
	Jockey            string    `db:"jockey" json:"jockey"`
	Trainer           string    `db:"trainer" json:"trainer"`
	Weight            *float64  `db:"weight" json:"weight"`
	FormRating        *float64  `db:"form_rating" json:"form_rating"`
	DaysSinceLastRace *int      `db:"days_since_last_race" json:"days_since_last_race"`
	CareerStarts      int       `db:"career_starts" json:"career_starts"`
	CareerWins        int       `db:"career_wins" json:"career_wins"`
	CareerPlaces      int       `db:"career_places" json:"career_places"`
	Scratched         bool      `db:"scratched" json:"scratched"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// GetFormRating returns the form rating or 0 if unknown
func (e *Entrant) GetFormRating() float64 {
	if e.FormRating == nil {
		return 0
	}
	return *e.FormRating
}

// GetDaysSinceLastRace returns days since the last start, or a high
// sentinel when the entrant has no recorded previous start
func (e *Entrant) GetDaysSinceLastRace() int {
	if e.DaysSinceLastRace == nil {
		return 999
	}
	return *e.DaysSinceLastRace
}

// WinRate returns the career win strike rate in [0,1]
func (e *Entrant) WinRate() float64 {
	if e.CareerStarts == 0 {
		return 0
	}
	return float64(e.CareerWins) / float64(e.CareerStarts)
}

// PlaceRate returns the career place strike rate in [0,1]
func (e *Entrant) PlaceRate() float64 {
	if e.CareerStarts == 0 {
		return 0
	}
	return float64(e.CareerPlaces) / float64(e.CareerStarts)
}
