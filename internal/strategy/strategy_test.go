package strategy

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/turfsim/internal/models"
)

func floatPtr(v float64) *float64 { return &v }

func testDefinition(rules []models.ConditionRule) models.StrategyDefinition {
	return models.StrategyDefinition{
		Name:    "test",
		Rules:   rules,
		Sizing:  models.SizingPolicy{Method: models.SizingFixed, Amount: 10},
		BetType: models.BetTypeWin,
	}
}

func testRace() *models.Race {
	return &models.Race{
		ID:             uuid.New(),
		ScheduledStart: time.Date(2024, 3, 9, 14, 30, 0, 0, time.UTC),
		Track:          "Flemington",
		RaceType:       "flat",
		Distance:       1600,
		FieldSize:      3,
		Status:         models.RaceStatusFinished,
	}
}

func buildContext(race *models.Race, entrants []*models.Entrant, winOdds []float64) RaceContext {
	odds := make(map[uuid.UUID]*models.OddsSnapshot, len(entrants))
	for i, e := range entrants {
		odds[e.ID] = &models.OddsSnapshot{
			Time:      race.ScheduledStart.Add(-10 * time.Minute),
			RaceID:    race.ID,
			EntrantID: e.ID,
			WinOdds:   floatPtr(winOdds[i]),
			PlaceOdds: floatPtr(winOdds[i] / 3),
		}
	}
	return RaceContext{
		Race:         race,
		Odds:         odds,
		DecisionTime: race.ScheduledStart.Add(-5 * time.Minute),
	}
}

func makeEntrants(race *models.Race, numbers ...int) []*models.Entrant {
	entrants := make([]*models.Entrant, 0, len(numbers))
	for _, n := range numbers {
		entrants = append(entrants, &models.Entrant{
			ID:     uuid.New(),
			RaceID: race.ID,
			Number: n,
			Name:   "Entrant",
		})
	}
	return entrants
}

func TestCompileRejectsUnknownVariable(t *testing.T) {
	def := testDefinition([]models.ConditionRule{{Formula: "nonexistent_field > 3"}})
	_, err := Compile(def)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nonexistent_field")
}

func TestCompileRejectsTypeConflicts(t *testing.T) {
	tests := []models.ConditionRule{
		{Formula: "track > 3"},
		{Formula: "win_odds + 1"}, // numeric formula without comparator
		{Formula: "win_odds > 3", Comparator: models.ComparatorGT, Threshold: floatPtr(1)}, // bool formula with comparator
	}
	for _, rule := range tests {
		t.Run(rule.Formula, func(t *testing.T) {
			_, err := Compile(testDefinition([]models.ConditionRule{rule}))
			assert.Error(t, err)
		})
	}
}

func TestCompileRejectsEmptyRules(t *testing.T) {
	def := testDefinition(nil)
	_, err := Compile(def)
	assert.Error(t, err)
}

func TestCompileCollectsVariables(t *testing.T) {
	def := testDefinition([]models.ConditionRule{
		{Formula: "win_odds >= 5"},
		{Formula: "form_rating", Comparator: models.ComparatorGT, Threshold: floatPtr(60)},
	})
	cs, err := Compile(def)
	require.NoError(t, err)
	assert.Equal(t, []string{"form_rating", "win_odds"}, cs.Variables())
}

func TestEvaluateRaceAllRulesMustHold(t *testing.T) {
	def := testDefinition([]models.ConditionRule{
		{Formula: "win_odds >= 5.0"},
		{Formula: "entrant_number", Comparator: models.ComparatorLTE, Threshold: floatPtr(2)},
	})
	cs, err := Compile(def)
	require.NoError(t, err)

	race := testRace()
	entrants := makeEntrants(race, 1, 2, 3)
	ctx := buildContext(race, entrants, []float64{6.0, 3.0, 8.0})

	decisions, err := EvaluateRace(cs, ctx, entrants, 1000)
	require.NoError(t, err)

	// entrant 1: odds 6.0 >= 5 and number <= 2 -> bet
	// entrant 2: odds 3.0 fails first rule
	// entrant 3: number 3 fails second rule
	require.Len(t, decisions, 1)
	assert.Equal(t, 1, decisions[0].EntrantNumber)
	assert.Equal(t, 6.0, decisions[0].DecisionOdds)
	assert.Equal(t, 10.0, decisions[0].Stake)
}

func TestEvaluateRaceOrderedByEntrantNumber(t *testing.T) {
	def := testDefinition([]models.ConditionRule{{Formula: "win_odds >= 2.0"}})
	cs, err := Compile(def)
	require.NoError(t, err)

	race := testRace()
	entrants := makeEntrants(race, 7, 2, 5)
	ctx := buildContext(race, entrants, []float64{4.0, 4.0, 4.0})

	decisions, err := EvaluateRace(cs, ctx, entrants, 1000)
	require.NoError(t, err)
	require.Len(t, decisions, 3)
	assert.Equal(t, 2, decisions[0].EntrantNumber)
	assert.Equal(t, 5, decisions[1].EntrantNumber)
	assert.Equal(t, 7, decisions[2].EntrantNumber)
}

func TestEvaluateRaceEntryFilters(t *testing.T) {
	def := testDefinition([]models.ConditionRule{{Formula: "win_odds >= 2.0"}})
	def.Filters = models.EntryFilters{Tracks: []string{"Ascot"}}
	cs, err := Compile(def)
	require.NoError(t, err)

	race := testRace() // Flemington
	entrants := makeEntrants(race, 1, 2)
	ctx := buildContext(race, entrants, []float64{4.0, 4.0})

	decisions, err := EvaluateRace(cs, ctx, entrants, 1000)
	require.NoError(t, err)
	assert.Empty(t, decisions)
}

func TestEvaluateRaceSkipsScratchedAndMissingOdds(t *testing.T) {
	def := testDefinition([]models.ConditionRule{{Formula: "win_odds >= 2.0"}})
	cs, err := Compile(def)
	require.NoError(t, err)

	race := testRace()
	entrants := makeEntrants(race, 1, 2, 3)
	entrants[0].Scratched = true
	ctx := buildContext(race, entrants, []float64{4.0, 4.0, 4.0})
	delete(ctx.Odds, entrants[2].ID)

	decisions, err := EvaluateRace(cs, ctx, entrants, 1000)
	require.NoError(t, err)
	require.Len(t, decisions, 1)
	assert.Equal(t, 2, decisions[0].EntrantNumber)
}

func TestEvaluateRaceQuinellaPairsLowestNumbers(t *testing.T) {
	def := testDefinition([]models.ConditionRule{{Formula: "win_odds >= 2.0"}})
	def.BetType = models.BetTypeQuinella
	cs, err := Compile(def)
	require.NoError(t, err)

	race := testRace()
	entrants := makeEntrants(race, 4, 1, 6)
	ctx := buildContext(race, entrants, []float64{5.0, 5.0, 5.0})

	decisions, err := EvaluateRace(cs, ctx, entrants, 1000)
	require.NoError(t, err)
	require.Len(t, decisions, 1)
	assert.Equal(t, models.BetTypeQuinella, decisions[0].BetType)
	assert.Equal(t, 1, decisions[0].EntrantNumber)
	assert.Equal(t, 4, decisions[0].SecondNumber)
	assert.Greater(t, decisions[0].DecisionOdds, 1.0)
}

func TestEvaluateRaceQuinellaNeedsTwoQualifiers(t *testing.T) {
	def := testDefinition([]models.ConditionRule{{Formula: "win_odds >= 5.0"}})
	def.BetType = models.BetTypeQuinella
	cs, err := Compile(def)
	require.NoError(t, err)

	race := testRace()
	entrants := makeEntrants(race, 1, 2)
	ctx := buildContext(race, entrants, []float64{6.0, 2.0})

	decisions, err := EvaluateRace(cs, ctx, entrants, 1000)
	require.NoError(t, err)
	assert.Empty(t, decisions)
}

func TestCalculateStake(t *testing.T) {
	tests := []struct {
		name    string
		policy  models.SizingPolicy
		capital float64
		odds    float64
		winRate float64
		want    float64
	}{
		{"fixed", models.SizingPolicy{Method: models.SizingFixed, Amount: 100}, 1000, 5, 0, 100},
		{"fixed clamps to capital", models.SizingPolicy{Method: models.SizingFixed, Amount: 100}, 60, 5, 0, 60},
		{"percent of current capital", models.SizingPolicy{Method: models.SizingPercent, Amount: 0.05}, 2000, 5, 0, 100},
		{"percent follows capital", models.SizingPolicy{Method: models.SizingPercent, Amount: 0.05}, 500, 5, 0, 25},
		{"no capital no stake", models.SizingPolicy{Method: models.SizingFixed, Amount: 100}, 0, 5, 0, 0},
		{"kelly no edge", models.SizingPolicy{Method: models.SizingKelly, Amount: 0.5}, 1000, 4, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateStake(tt.policy, tt.capital, tt.odds, tt.winRate)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestKellyStakeScalesWithEdge(t *testing.T) {
	policy := models.SizingPolicy{Method: models.SizingKelly, Amount: 0.5}
	// win rate 0.4 at odds 4.0: kelly = (3*0.4 - 0.6)/3 = 0.2, half kelly = 0.1
	stake := CalculateStake(policy, 1000, 4.0, 0.4)
	assert.InDelta(t, 100.0, stake, 1e-9)
}
