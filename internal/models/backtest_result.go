package models

import (
	"time"

	"github.com/google/uuid"
)

// ResultSummary holds the headline statistics of one backtest run.
// All figures are computed once from the complete ledger and curve
// after the run finishes.
type ResultSummary struct {
	StartDate      time.Time `json:"start_date"`
	EndDate        time.Time `json:"end_date"`
	InitialCapital float64   `json:"initial_capital"`
	FinalCapital   float64   `json:"final_capital"`
	TotalReturn    float64   `json:"total_return"`
	WinRate        float64   `json:"win_rate"`
	ROI            float64   `json:"roi"`
	MaxDrawdown    float64   `json:"max_drawdown"`
	SharpeRatio    float64   `json:"sharpe_ratio"`
	ProfitFactor   float64   `json:"profit_factor"`
	TotalBets      int       `json:"total_bets"`
	WinningBets    int       `json:"winning_bets"`
	LosingBets     int       `json:"losing_bets"`
	TotalStaked    float64   `json:"total_staked"`
	TotalReturned  float64   `json:"total_returned"`
}

// ExecutionMeta records how a run went operationally
type ExecutionMeta struct {
	Duration       time.Duration `json:"duration"`
	RacesProcessed int           `json:"races_processed"`
	RacesSkipped   int           `json:"races_skipped"`
	RaceErrors     int           `json:"race_errors"`
	DaysSimulated  int           `json:"days_simulated"`
	Seed           int64         `json:"seed"`
}

// BacktestResult is the complete output of one finished run. It is owned
// by the job result store once produced.
type BacktestResult struct {
	JobID       uuid.UUID   `json:"job_id"`
	StrategyID  uuid.UUID   `json:"strategy_id"`
	Summary     ResultSummary `json:"summary"`
	Bets        []BetRecord `json:"bets"`
	EquityCurve EquityCurve `json:"equity_curve"`
	Meta        ExecutionMeta `json:"meta"`
	GeneratedAt time.Time   `json:"generated_at"`
}

// SummaryOnly returns a copy without the ledger and curve payloads
func (r *BacktestResult) SummaryOnly() *BacktestResult {
	out := *r
	out.Bets = nil
	out.EquityCurve = nil
	return &out
}
