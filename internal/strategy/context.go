package strategy

import (
	"time"

	"github.com/google/uuid"
	"github.com/yourusername/turfsim/internal/formula"
	"github.com/yourusername/turfsim/internal/models"
)

// RaceContext provides the evaluator with temporal-safe inputs for one
// race: the race record, the odds known at decision time, and the
// decision time itself. It is never mutated by the evaluator.
type RaceContext struct {
	Race         *models.Race
	Odds         map[uuid.UUID]*models.OddsSnapshot
	DecisionTime time.Time
}

// BindingSchema declares the fixed variable namespace condition formulas
// may reference. Race-level and entrant-level fields share one flat
// namespace; validation at submission resolves every reference against
// this schema.
func BindingSchema() formula.Schema {
	return formula.Schema{
		// race fields
		"track":       formula.KindString,
		"race_type":   formula.KindString,
		"grade":       formula.KindString,
		"going":       formula.KindString,
		"distance":    formula.KindNumber,
		"race_number": formula.KindNumber,
		"field_size":  formula.KindNumber,

		// entrant fields
		"entrant_number":       formula.KindNumber,
		"win_odds":             formula.KindNumber,
		"place_odds":           formula.KindNumber,
		"implied_probability":  formula.KindNumber,
		"pool_volume":          formula.KindNumber,
		"form_rating":          formula.KindNumber,
		"days_since_last_race": formula.KindNumber,
		"career_starts":        formula.KindNumber,
		"win_rate":             formula.KindNumber,
		"place_rate":           formula.KindNumber,
		"weight":               formula.KindNumber,
		"scratched":            formula.KindBool,
	}
}

// bindEntrant builds the flat binding map for one entrant in one race
func bindEntrant(ctx RaceContext, entrant *models.Entrant, odds *models.OddsSnapshot) map[string]formula.Value {
	race := ctx.Race
	bindings := map[string]formula.Value{
		"track":       formula.String(race.Track),
		"race_type":   formula.String(race.RaceType),
		"grade":       formula.String(race.Grade),
		"going":       formula.String(race.Going),
		"distance":    formula.Number(float64(race.Distance)),
		"race_number": formula.Number(float64(race.RaceNumber)),
		"field_size":  formula.Number(float64(race.FieldSize)),

		"entrant_number":       formula.Number(float64(entrant.Number)),
		"form_rating":          formula.Number(entrant.GetFormRating()),
		"days_since_last_race": formula.Number(float64(entrant.GetDaysSinceLastRace())),
		"career_starts":        formula.Number(float64(entrant.CareerStarts)),
		"win_rate":             formula.Number(entrant.WinRate()),
		"place_rate":           formula.Number(entrant.PlaceRate()),
		"scratched":            formula.Bool(entrant.Scratched),
	}

	weight := 0.0
	if entrant.Weight != nil {
		weight = *entrant.Weight
	}
	bindings["weight"] = formula.Number(weight)

	winOdds, placeOdds, volume := 0.0, 0.0, 0.0
	if odds != nil {
		winOdds = odds.GetWinOdds()
		placeOdds = odds.GetPlaceOdds()
		if odds.PoolVolume != nil {
			volume = *odds.PoolVolume
		}
	}
	bindings["win_odds"] = formula.Number(winOdds)
	bindings["place_odds"] = formula.Number(placeOdds)
	bindings["pool_volume"] = formula.Number(volume)

	implied := 0.0
	if winOdds > 0 {
		implied = 1.0 / winOdds
	}
	bindings["implied_probability"] = formula.Number(implied)

	return bindings
}
