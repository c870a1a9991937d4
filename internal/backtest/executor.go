package backtest

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/turfsim/internal/datasource"
	"github.com/yourusername/turfsim/internal/models"
	"github.com/yourusername/turfsim/internal/slippage"
	"github.com/yourusername/turfsim/internal/strategy"
)

// ProgressSink receives progress after each simulated day, including
// the cumulative count of races processed so far.
type ProgressSink interface {
	Report(day time.Time, daysDone, daysTotal, racesProcessed int)
}

// ProgressFunc adapts a function to the ProgressSink interface
type ProgressFunc func(day time.Time, daysDone, daysTotal, racesProcessed int)

// Report implements ProgressSink
func (f ProgressFunc) Report(day time.Time, daysDone, daysTotal, racesProcessed int) {
	if f != nil {
		f(day, daysDone, daysTotal, racesProcessed)
	}
}

// Executor replays historical race days against a compiled strategy
type Executor struct {
	source   datasource.HistoricalSource
	slippage slippage.Model
	logger   *logrus.Logger
}

// NewExecutor creates a new simulation executor
func NewExecutor(source datasource.HistoricalSource, model slippage.Model, logger *logrus.Logger) (*Executor, error) {
	if source == nil {
		return nil, fmt.Errorf("data source is required")
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Executor{
		source:   source,
		slippage: model,
		logger:   logger,
	}, nil
}

// Execute runs one simulation from start to end date inclusive. Days
// replay in calendar order and each day's ledger settles atomically, so
// a cancelled run never leaves a half-settled day behind. The same
// parameters and seed against the same data reproduce the result
// exactly.
func (e *Executor) Execute(ctx context.Context, params RunParams, progress ProgressSink) (*models.BacktestResult, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid run parameters: %w", err)
	}

	cs, err := strategy.Compile(params.Strategy)
	if err != nil {
		return nil, fmt.Errorf("strategy rejected: %w", err)
	}

	seed := params.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	startDay := dayOf(params.StartDate)
	endDay := dayOf(params.EndDate)
	daysTotal := int(endDay.Sub(startDay).Hours()/24) + 1

	e.logger.WithFields(logrus.Fields{
		"strategy": params.Strategy.Name,
		"start":    startDay.Format("2006-01-02"),
		"end":      endDay.Format("2006-01-02"),
		"days":     daysTotal,
		"seed":     seed,
	}).Info("Starting simulation run")

	startedAt := time.Now()
	state := newRunState(params.InitialCapital)
	meta := models.ExecutionMeta{Seed: seed, DaysSimulated: daysTotal}

	daysDone := 0
	for day := startDay; !day.After(endDay); day = day.AddDate(0, 0, 1) {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("run cancelled on %s: %w", day.Format("2006-01-02"), err)
		}

		if err := e.simulateDay(ctx, cs, params, day, rng, state, &meta); err != nil {
			return nil, err
		}

		daysDone++
		if progress != nil {
			progress.Report(day, daysDone, daysTotal, meta.RacesProcessed)
		}
	}

	meta.Duration = time.Since(startedAt)
	summary := summarize(state, params, startDay, endDay)

	result := &models.BacktestResult{
		JobID:       params.JobID,
		StrategyID:  params.Strategy.ID,
		Summary:     summary,
		Bets:        state.bets,
		EquityCurve: state.curve,
		Meta:        meta,
		GeneratedAt: time.Now().UTC(),
	}

	e.logger.WithFields(logrus.Fields{
		"strategy":      params.Strategy.Name,
		"bets":          summary.TotalBets,
		"final_capital": summary.FinalCapital,
		"races_skipped": meta.RacesSkipped,
		"race_errors":   meta.RaceErrors,
	}).Info("Simulation run finished")

	return result, nil
}

// simulateDay replays one calendar day and settles its ledger
func (e *Executor) simulateDay(ctx context.Context, cs *strategy.CompiledStrategy, params RunParams, day time.Time, rng *rand.Rand, state *runState, meta *models.ExecutionMeta) error {
	races, err := e.source.RacesForDate(ctx, day)
	if err != nil {
		return fmt.Errorf("failed to load races for %s: %w", day.Format("2006-01-02"), err)
	}

	sort.Slice(races, func(i, j int) bool {
		if races[i].ScheduledStart.Equal(races[j].ScheduledStart) {
			return races[i].ID.String() < races[j].ID.String()
		}
		return races[i].ScheduledStart.Before(races[j].ScheduledStart)
	})

	var (
		dayBets     []models.BetRecord
		dayStaked   float64
		dayReturned float64
	)

	for _, race := range races {
		if params.CancelPerRace {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("run cancelled at race %s: %w", race.ID, err)
			}
		}

		bets, skipped, err := e.simulateRace(ctx, cs, params, race, rng, state.available(dayStaked))
		if err != nil {
			var evalErr *evaluationFailure
			if errors.As(err, &evalErr) {
				return err
			}
			meta.RaceErrors++
			e.logger.WithFields(logrus.Fields{
				"race_id": race.ID,
				"track":   race.Track,
				"error":   err,
			}).Warn("Race data error, continuing")
			continue
		}
		if skipped {
			meta.RacesSkipped++
			continue
		}

		meta.RacesProcessed++
		for _, bet := range bets {
			dayStaked += bet.Stake
			dayReturned += bet.Payout
		}
		dayBets = append(dayBets, bets...)
	}

	state.settleDay(day, dayBets, dayStaked, dayReturned)
	return nil
}

// evaluationFailure marks strategy evaluation errors, which abort the
// run rather than incrementing the race error counter: they reproduce
// on every retry.
type evaluationFailure struct {
	err error
}

func (e *evaluationFailure) Error() string { return e.err.Error() }
func (e *evaluationFailure) Unwrap() error { return e.err }

// simulateRace decides and settles the bets of one race. The skipped
// return is true when the race lacks the data to simulate (no odds, no
// settled result); an error return means the source failed.
func (e *Executor) simulateRace(ctx context.Context, cs *strategy.CompiledStrategy, params RunParams, race *models.Race, rng *rand.Rand, capital float64) ([]models.BetRecord, bool, error) {
	entrants, err := e.source.EntrantsForRace(ctx, race.ID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, true, nil
		}
		return nil, false, fmt.Errorf("failed to load entrants: %w", err)
	}
	if len(entrants) == 0 {
		return nil, true, nil
	}

	decisionTime := race.ScheduledStart.Add(-params.DecisionOffset)
	odds, err := e.source.OddsForRace(ctx, race.ID, decisionTime)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, true, nil
		}
		return nil, false, fmt.Errorf("failed to load odds: %w", err)
	}
	if len(odds) == 0 {
		return nil, true, nil
	}

	result, err := e.source.ResultForRace(ctx, race.ID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, true, nil
		}
		return nil, false, fmt.Errorf("failed to load result: %w", err)
	}
	if !result.IsComplete() {
		return nil, true, nil
	}

	raceCtx := strategy.RaceContext{
		Race:         race,
		Odds:         odds,
		DecisionTime: decisionTime,
	}
	decisions, err := strategy.EvaluateRace(cs, raceCtx, entrants, capital)
	if err != nil {
		return nil, false, &evaluationFailure{err: fmt.Errorf("strategy evaluation failed on race %s: %w", race.ID, err)}
	}

	minutesToPost := race.MinutesToPost(decisionTime)
	bets := make([]models.BetRecord, 0, len(decisions))
	for _, decision := range decisions {
		realized := e.slippage.Apply(decision.DecisionOdds, minutesToPost, rng)
		bet := e.settleBet(params, race, decision, result, realized, decisionTime)
		bets = append(bets, bet)
	}

	return bets, false, nil
}

// settleBet resolves one decision against the official result
func (e *Executor) settleBet(params RunParams, race *models.Race, decision strategy.BetDecision, result *models.SettledResult, realizedOdds float64, decisionTime time.Time) models.BetRecord {
	won := false
	switch decision.BetType {
	case models.BetTypeWin:
		won = result.WinnerNumber() == decision.EntrantNumber
	case models.BetTypePlace:
		won = result.Placed(decision.EntrantNumber)
	case models.BetTypeQuinella:
		if low, high, ok := result.QuinellaNumbers(); ok {
			won = low == decision.EntrantNumber && high == decision.SecondNumber
		}
	}

	payout := 0.0
	if won {
		payout = decision.Stake * realizedOdds
		if params.CommissionRate > 0 && payout > decision.Stake {
			payout -= (payout - decision.Stake) * params.CommissionRate
		}
	}

	outcome := models.BetOutcomeLost
	if won {
		outcome = models.BetOutcomeWon
	}

	return models.BetRecord{
		ID:            betID(race.ID, decision),
		RaceID:        race.ID,
		Track:         race.Track,
		EntrantNumber: decision.EntrantNumber,
		SecondNumber:  decision.SecondNumber,
		BetType:       decision.BetType,
		Stake:         decision.Stake,
		DecisionOdds:  decision.DecisionOdds,
		RealizedOdds:  realizedOdds,
		Outcome:       outcome,
		Payout:        payout,
		PlacedAt:      decisionTime,
	}
}

// betID derives a stable identifier so replays with the same seed
// produce identical ledgers.
func betID(raceID uuid.UUID, decision strategy.BetDecision) uuid.UUID {
	key := fmt.Sprintf("%s|%s|%d|%d", raceID, decision.BetType, decision.EntrantNumber, decision.SecondNumber)
	return uuid.NewSHA1(raceID, []byte(key))
}

func dayOf(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
