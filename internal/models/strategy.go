package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// BetType identifies the wager market a strategy targets
type BetType string

const (
	BetTypeWin      BetType = "win"
	BetTypePlace    BetType = "place"
	BetTypeQuinella BetType = "quinella"
)

// Comparator names the comparison applied between a formula value and a threshold
type Comparator string

const (
	ComparatorGT  Comparator = "gt"
	ComparatorGTE Comparator = "gte"
	ComparatorLT  Comparator = "lt"
	ComparatorLTE Comparator = "lte"
	ComparatorEQ  Comparator = "eq"
	ComparatorNEQ Comparator = "neq"
)

// SizingMethod names the stake sizing policy of a strategy
type SizingMethod string

const (
	SizingFixed   SizingMethod = "fixed"
	SizingPercent SizingMethod = "percent"
	SizingKelly   SizingMethod = "kelly"
)

// ConditionRule is one declarative entry condition. Either Formula alone
// evaluates to a boolean, or Formula evaluates to a number compared with
// Threshold using Comparator.
type ConditionRule struct {
	Formula    string     `json:"formula" validate:"required"`
	Comparator Comparator `json:"comparator,omitempty" validate:"omitempty,oneof=gt gte lt lte eq neq"`
	Threshold  *float64   `json:"threshold,omitempty"`
}

// IsBoolean reports whether the rule is a raw boolean formula
func (c ConditionRule) IsBoolean() bool {
	return c.Comparator == "" && c.Threshold == nil
}

// SizingPolicy determines how much to stake per qualifying entrant
type SizingPolicy struct {
	Method SizingMethod `json:"method" validate:"required,oneof=fixed percent kelly"`
	// Amount is the stake for fixed sizing, the fraction of current
	// capital in (0,1] for percent sizing, or the Kelly fraction for
	// kelly sizing.
	Amount float64 `json:"amount" validate:"required,gt=0"`
}

// EntryFilters prunes races before per-entrant evaluation
type EntryFilters struct {
	Tracks       []string `json:"tracks,omitempty"`
	RaceTypes    []string `json:"race_types,omitempty"`
	MinFieldSize int      `json:"min_field_size,omitempty" validate:"gte=0"`
	MaxFieldSize int      `json:"max_field_size,omitempty" validate:"gte=0"`
}

// StrategyDefinition is the immutable declarative input of a backtest run
type StrategyDefinition struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name" validate:"required,min=1,max=255"`
	Description string          `json:"description"`
	Rules       []ConditionRule `json:"rules" validate:"required,min=1,dive"`
	Sizing      SizingPolicy    `json:"sizing" validate:"required"`
	BetType     BetType         `json:"bet_type" validate:"required,oneof=win place quinella"`
	Filters     EntryFilters    `json:"filters"`
	MinOdds     float64         `json:"min_odds" validate:"gte=0"`
	MaxOdds     float64         `json:"max_odds" validate:"gte=0"`
	CreatedAt   time.Time       `json:"created_at"`
}

// MatchesRace applies the entry filters to one race
func (f EntryFilters) MatchesRace(race *Race) bool {
	if race == nil {
		return false
	}
	if len(f.Tracks) > 0 && !containsFold(f.Tracks, race.Track) {
		return false
	}
	if len(f.RaceTypes) > 0 && !containsFold(f.RaceTypes, race.RaceType) {
		return false
	}
	if f.MinFieldSize > 0 && race.FieldSize < f.MinFieldSize {
		return false
	}
	if f.MaxFieldSize > 0 && race.FieldSize > f.MaxFieldSize {
		return false
	}
	return true
}

func containsFold(values []string, target string) bool {
	for _, v := range values {
		if strings.EqualFold(v, target) {
			return true
		}
	}
	return false
}
