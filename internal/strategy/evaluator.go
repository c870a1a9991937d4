package strategy

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/yourusername/turfsim/internal/models"
)

// BetDecision is one concrete wager the evaluator asks the executor to
// place: which entrant, which market, how much, at what decision-time odds.
type BetDecision struct {
	EntrantID     uuid.UUID
	EntrantNumber int
	// SecondNumber is set for quinella decisions; always the higher of
	// the pair.
	SecondNumber int
	BetType      models.BetType
	Stake        float64
	DecisionOdds float64
}

// EvaluateRace decides which entrants of one race to bet and at what
// stake. Pure function of its inputs: no I/O, no clock, no randomness,
// which is what makes deterministic replay possible.
//
// An entrant qualifies only when every condition rule evaluates true.
// Stakes are sized against the supplied current capital, not the run's
// starting capital. Decisions come back in ascending entrant-number
// order.
func EvaluateRace(cs *CompiledStrategy, ctx RaceContext, entrants []*models.Entrant, capital float64) ([]BetDecision, error) {
	if cs == nil || ctx.Race == nil {
		return nil, fmt.Errorf("strategy and race are required")
	}
	if !cs.Definition.Filters.MatchesRace(ctx.Race) {
		return nil, nil
	}
	if capital <= 0 {
		return nil, nil
	}

	qualifying := make([]*models.Entrant, 0, len(entrants))
	for _, entrant := range entrants {
		if entrant == nil || entrant.Scratched {
			continue
		}
		odds := ctx.Odds[entrant.ID]
		if odds == nil || !odds.HasUsableOdds() {
			continue
		}
		if !cs.oddsInRange(odds.GetWinOdds()) {
			continue
		}

		bindings := bindEntrant(ctx, entrant, odds)
		qualifies := true
		for _, rule := range cs.rules {
			ok, err := rule.evaluate(bindings)
			if err != nil {
				return nil, fmt.Errorf("rule %q on entrant %d: %w", rule.source, entrant.Number, err)
			}
			if !ok {
				qualifies = false
				break
			}
		}
		if qualifies {
			qualifying = append(qualifying, entrant)
		}
	}

	sort.Slice(qualifying, func(i, j int) bool {
		return qualifying[i].Number < qualifying[j].Number
	})

	if cs.Definition.BetType == models.BetTypeQuinella {
		return cs.quinellaDecision(ctx, qualifying, capital), nil
	}
	return cs.singleDecisions(ctx, qualifying, capital), nil
}

func (cs *CompiledStrategy) oddsInRange(odds float64) bool {
	if cs.Definition.MinOdds > 0 && odds < cs.Definition.MinOdds {
		return false
	}
	if cs.Definition.MaxOdds > 0 && odds > cs.Definition.MaxOdds {
		return false
	}
	return true
}

func (cs *CompiledStrategy) singleDecisions(ctx RaceContext, qualifying []*models.Entrant, capital float64) []BetDecision {
	decisions := make([]BetDecision, 0, len(qualifying))
	remaining := capital
	for _, entrant := range qualifying {
		odds := decisionOddsFor(cs.Definition.BetType, ctx.Odds[entrant.ID])
		if odds <= 1.0 {
			continue
		}
		stake := CalculateStake(cs.Definition.Sizing, remaining, odds, entrant.WinRate())
		if stake <= 0 {
			continue
		}
		decisions = append(decisions, BetDecision{
			EntrantID:     entrant.ID,
			EntrantNumber: entrant.Number,
			BetType:       cs.Definition.BetType,
			Stake:         stake,
			DecisionOdds:  odds,
		})
		remaining -= stake
		if remaining <= 0 {
			break
		}
	}
	return decisions
}

// quinellaDecision pairs the two lowest-numbered qualifying entrants.
// Fewer than two qualifiers means no bet.
func (cs *CompiledStrategy) quinellaDecision(ctx RaceContext, qualifying []*models.Entrant, capital float64) []BetDecision {
	if len(qualifying) < 2 {
		return nil
	}
	first, second := qualifying[0], qualifying[1]

	// Approximate the pair odds from the two win prices.
	oddsA := decisionOddsFor(models.BetTypeWin, ctx.Odds[first.ID])
	oddsB := decisionOddsFor(models.BetTypeWin, ctx.Odds[second.ID])
	if oddsA <= 1.0 || oddsB <= 1.0 {
		return nil
	}
	pairOdds := quinellaOdds(oddsA, oddsB)

	stake := CalculateStake(cs.Definition.Sizing, capital, pairOdds, first.WinRate())
	if stake <= 0 {
		return nil
	}

	low, high := first.Number, second.Number
	if low > high {
		low, high = high, low
	}
	return []BetDecision{{
		EntrantID:     first.ID,
		EntrantNumber: low,
		SecondNumber:  high,
		BetType:       models.BetTypeQuinella,
		Stake:         stake,
		DecisionOdds:  pairOdds,
	}}
}

func decisionOddsFor(betType models.BetType, odds *models.OddsSnapshot) float64 {
	if odds == nil {
		return 0
	}
	if betType == models.BetTypePlace {
		return odds.GetPlaceOdds()
	}
	return odds.GetWinOdds()
}

// quinellaOdds derives pair odds from two win prices: the probability of
// the pair filling the first two places in either order under
// independence, inverted back to decimal odds.
func quinellaOdds(oddsA, oddsB float64) float64 {
	pA := 1.0 / oddsA
	pB := 1.0 / oddsB
	pPair := pA*pB*2 / (1 - (pA+pB)/2)
	if pPair <= 0 || pPair >= 1 {
		return 0
	}
	return 1.0 / pPair
}
