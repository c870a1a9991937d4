// Package main provides the entry point for the backtesting CLI tool.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/turfsim/internal/backtest"
	"github.com/yourusername/turfsim/internal/config"
	"github.com/yourusername/turfsim/internal/database"
	"github.com/yourusername/turfsim/internal/datasource"
	"github.com/yourusername/turfsim/internal/logger"
	"github.com/yourusername/turfsim/internal/models"
	"github.com/yourusername/turfsim/internal/repository"
	"github.com/yourusername/turfsim/internal/slippage"
)

func main() {
	var (
		configPath   = flag.String("config", "config/config.yaml", "Path to config file")
		strategyPath = flag.String("strategy", "", "Path to strategy definition JSON (required)")
		startDate    = flag.String("start-date", "", "Start date (YYYY-MM-DD, required)")
		endDate      = flag.String("end-date", "", "End date (YYYY-MM-DD, required)")
		seed         = flag.Int64("seed", 0, "Slippage seed, 0 derives one from the clock")
		output       = flag.String("output", "", "Directory for CSV exports, empty disables them")
		monteCarlo   = flag.Bool("monte-carlo", false, "Resample the ledger after the historical run")
	)
	flag.Parse()

	cfg := loadConfigWithSecrets(*configPath)
	appLog := logger.NewLogger(cfg.App.LogLevel, cfg.App.Environment)

	def := readStrategy(*strategyPath, appLog)
	params := buildParams(cfg, def, *startDate, *endDate, *seed, appLog)

	ctx := context.Background()
	source, closeSource := buildSource(ctx, cfg, appLog)
	defer closeSource()

	model := slippage.NewModel(cfg.Backtest.Slippage.Floor, cfg.Backtest.Slippage.Volatility)
	executor, err := backtest.NewExecutor(source, model, appLog)
	if err != nil {
		appLog.Fatalf("Failed to create executor: %v", err)
	}

	progress := backtest.ProgressFunc(func(day time.Time, done, total, races int) {
		if done%30 == 0 || done == total {
			appLog.WithFields(logrus.Fields{
				"day":   day.Format("2006-01-02"),
				"done":  done,
				"of":    total,
				"races": races,
			}).Info("Simulation progress")
		}
	})

	result, err := executor.Execute(ctx, params, progress)
	if err != nil {
		appLog.Fatalf("Backtest failed: %v", err)
	}

	fmt.Println(backtest.GenerateConsoleReport(result))

	if *monteCarlo {
		runMonteCarlo(result, cfg, params)
	}
	if *output != "" {
		writeExports(result, *output, appLog)
	}
}

func loadConfigWithSecrets(path string) *config.Config {
	cfg, err := config.LoadWithDefaults(path)
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}
	if os.Getenv("AWS_SECRETS_ENABLED") == "true" {
		region := os.Getenv("AWS_REGION")
		secretName := os.Getenv("AWS_SECRET_NAME")
		if region == "" || secretName == "" {
			logrus.Fatalf("AWS_REGION and AWS_SECRET_NAME environment variables must be set when AWS_SECRETS_ENABLED is true")
		}
		if err := config.LoadSecretsFromAWS(cfg, region, secretName); err != nil {
			logrus.Fatalf("Failed to load secrets: %v", err)
		}
	}
	if err := config.Validate(cfg); err != nil {
		logrus.Fatalf("Invalid configuration: %v", err)
	}
	return cfg
}

func readStrategy(path string, appLog *logrus.Logger) models.StrategyDefinition {
	if path == "" {
		appLog.Fatal("The -strategy flag is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		appLog.Fatalf("Failed to read strategy file: %v", err)
	}
	var def models.StrategyDefinition
	if err := json.Unmarshal(data, &def); err != nil {
		appLog.Fatalf("Invalid strategy JSON: %v", err)
	}
	return def
}

func buildParams(cfg *config.Config, def models.StrategyDefinition, start, end string, seed int64, appLog *logrus.Logger) backtest.RunParams {
	params := backtest.ParamsFromConfig(&cfg.Backtest)
	params.JobID = uuid.New()
	params.Strategy = def
	params.Seed = seed

	if start == "" || end == "" {
		appLog.Fatal("The -start-date and -end-date flags are required")
	}
	var err error
	if params.StartDate, err = time.Parse("2006-01-02", start); err != nil {
		appLog.Fatalf("Invalid start date: %v", err)
	}
	if params.EndDate, err = time.Parse("2006-01-02", end); err != nil {
		appLog.Fatalf("Invalid end date: %v", err)
	}
	return params
}

func buildSource(ctx context.Context, cfg *config.Config, appLog *logrus.Logger) (datasource.HistoricalSource, func()) {
	closeFn := func() {}

	var repos *repository.Repositories
	if cfg.DataSource.Provider == "postgres" {
		db, err := database.NewDB(ctx, &cfg.Database)
		if err != nil {
			appLog.Fatalf("Failed to connect to database: %v", err)
		}
		closeFn = db.Close
		if repos, err = repository.NewRepositories(db); err != nil {
			appLog.Fatalf("Failed to initialize repositories: %v", err)
		}
	}

	source, err := datasource.NewSource(cfg, repos, appLog)
	if err != nil {
		appLog.Fatalf("Failed to create data source: %v", err)
	}
	return source, closeFn
}

func runMonteCarlo(result *models.BacktestResult, cfg *config.Config, params backtest.RunParams) {
	mc := backtest.RunMonteCarlo(result.Bets, backtest.MonteCarloConfig{
		Iterations:     cfg.Backtest.MonteCarloIterations,
		Seed:           result.Meta.Seed,
		InitialCapital: params.InitialCapital,
	})
	fmt.Printf("Monte Carlo (%d iterations)\n", mc.Iterations)
	fmt.Printf("  Mean Return: %.2f%%\n", mc.MeanReturn*100)
	fmt.Printf("  Std Return: %.2f%%\n", mc.StdReturn*100)
	fmt.Printf("  VaR 95: %.2f%%\n", mc.VaR95*100)
	fmt.Printf("  P(profit): %.2f%%\n", mc.ProbabilityOfProfit*100)
	fmt.Printf("  P(ruin): %.2f%%\n", mc.ProbabilityOfRuin*100)
}

func writeExports(result *models.BacktestResult, dir string, appLog *logrus.Logger) {
	curvePath := filepath.Join(dir, "equity_curve.csv")
	if err := backtest.WriteEquityCurveCSV(result, curvePath); err != nil {
		appLog.Fatalf("Failed to write equity curve: %v", err)
	}
	ledgerPath := filepath.Join(dir, "ledger.csv")
	if err := backtest.WriteLedgerCSV(result, ledgerPath); err != nil {
		appLog.Fatalf("Failed to write ledger: %v", err)
	}
	appLog.WithFields(logrus.Fields{
		"equity_curve": curvePath,
		"ledger":       ledgerPath,
	}).Info("Exports written")
}
