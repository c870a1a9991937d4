package backtest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/yourusername/turfsim/internal/models"
)

// GenerateConsoleReport formats a run result for terminal output
func GenerateConsoleReport(result *models.BacktestResult) string {
	var builder strings.Builder
	s := result.Summary
	builder.WriteString("Backtest Report\n")
	builder.WriteString("================\n")
	builder.WriteString(fmt.Sprintf("Period: %s to %s\n", s.StartDate.Format("2006-01-02"), s.EndDate.Format("2006-01-02")))
	builder.WriteString(fmt.Sprintf("Initial Capital: %.2f\n", s.InitialCapital))
	builder.WriteString(fmt.Sprintf("Final Capital: %.2f\n", s.FinalCapital))
	builder.WriteString(fmt.Sprintf("Total Return: %.2f%%\n", s.TotalReturn*100))
	builder.WriteString(fmt.Sprintf("ROI on Turnover: %.2f%%\n", s.ROI*100))
	builder.WriteString(fmt.Sprintf("Bets: %d (won %d, lost %d)\n", s.TotalBets, s.WinningBets, s.LosingBets))
	builder.WriteString(fmt.Sprintf("Win Rate: %.2f%%\n", s.WinRate*100))
	builder.WriteString(fmt.Sprintf("Max Drawdown: %.2f%%\n", s.MaxDrawdown*100))
	builder.WriteString(fmt.Sprintf("Sharpe Ratio: %.2f\n", s.SharpeRatio))
	builder.WriteString(fmt.Sprintf("Profit Factor: %.2f\n", s.ProfitFactor))
	builder.WriteString(fmt.Sprintf("Races: %d processed, %d skipped, %d errors\n",
		result.Meta.RacesProcessed, result.Meta.RacesSkipped, result.Meta.RaceErrors))
	builder.WriteString(fmt.Sprintf("Seed: %d\n", result.Meta.Seed))
	return builder.String()
}

// WriteEquityCurveCSV exports the equity curve for spreadsheets
func WriteEquityCurveCSV(result *models.BacktestResult, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(outputPath, []byte(result.EquityCurve.ToCSV()), 0o644)
}

// WriteLedgerCSV exports the settled bet ledger for spreadsheets
func WriteLedgerCSV(result *models.BacktestResult, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}

	var builder strings.Builder
	builder.WriteString("placed_at,track,selection,bet_type,stake,decision_odds,realized_odds,outcome,payout\n")
	for _, bet := range result.Bets {
		builder.WriteString(fmt.Sprintf("%s,%s,%s,%s,%.2f,%.4f,%.4f,%s,%.2f\n",
			bet.PlacedAt.Format("2006-01-02 15:04"),
			bet.Track,
			bet.Selection(),
			bet.BetType,
			bet.Stake,
			bet.DecisionOdds,
			bet.RealizedOdds,
			bet.Outcome,
			bet.Payout,
		))
	}
	return os.WriteFile(outputPath, []byte(builder.String()), 0o644)
}
