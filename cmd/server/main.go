// Package main provides the entry point for the backtest job service.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/turfsim/internal/api"
	"github.com/yourusername/turfsim/internal/backtest"
	"github.com/yourusername/turfsim/internal/config"
	"github.com/yourusername/turfsim/internal/database"
	"github.com/yourusername/turfsim/internal/datasource"
	"github.com/yourusername/turfsim/internal/health"
	"github.com/yourusername/turfsim/internal/jobs"
	"github.com/yourusername/turfsim/internal/logger"
	"github.com/yourusername/turfsim/internal/metrics"
	"github.com/yourusername/turfsim/internal/models"
	"github.com/yourusername/turfsim/internal/repository"
	"github.com/yourusername/turfsim/internal/scheduler"
	"github.com/yourusername/turfsim/internal/slippage"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
)

var (
	configFile string
	cfg        *config.Config
	appLog     *logrus.Logger
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
}

var rootCmd = &cobra.Command{
	Use:   "turfsim-server",
	Short: "Run the backtest job service",
	Long:  `Serves the backtest HTTP API, executes submitted jobs on a worker pool and retains results for a bounded time.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadWithDefaults(configFile)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if os.Getenv("AWS_SECRETS_ENABLED") == "true" {
			region := os.Getenv("AWS_REGION")
			secretName := os.Getenv("AWS_SECRET_NAME")
			if region == "" || secretName == "" {
				return fmt.Errorf("AWS_REGION and AWS_SECRET_NAME must be set when AWS_SECRETS_ENABLED is true")
			}
			if err := config.LoadSecretsFromAWS(cfg, region, secretName); err != nil {
				return fmt.Errorf("failed to load secrets: %w", err)
			}
		}
		if err := config.Validate(cfg); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		appLog = logger.NewLogger(cfg.App.LogLevel, cfg.App.Environment)
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

// persistingRunner saves completed results to durable storage after
// each run, keeping the executor itself storage-free.
type persistingRunner struct {
	executor *backtest.Executor
	results  repository.BacktestResultRepository
	logger   *logrus.Logger
}

func (r *persistingRunner) Execute(ctx context.Context, params backtest.RunParams, progress backtest.ProgressSink) (*models.BacktestResult, error) {
	result, err := r.executor.Execute(ctx, params, progress)
	if err != nil {
		return nil, err
	}
	if r.results != nil {
		if saveErr := r.results.Save(ctx, result); saveErr != nil {
			r.logger.WithError(saveErr).Warn("Could not persist backtest result")
		}
	}
	return result, nil
}

func runServer() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	appLog.WithFields(logrus.Fields{
		"version":     Version,
		"commit":      GitCommit,
		"environment": cfg.App.Environment,
	}).Info("Turfsim server starting")

	var (
		db    *database.DB
		repos *repository.Repositories
		err   error
	)
	if cfg.DataSource.Provider == "postgres" {
		if db, err = database.NewDB(ctx, &cfg.Database); err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()
		if repos, err = repository.NewRepositories(db); err != nil {
			return fmt.Errorf("failed to initialize repositories: %w", err)
		}
		appLog.Info("Database connection established")
	}

	source, err := datasource.NewSource(cfg, repos, appLog)
	if err != nil {
		return fmt.Errorf("failed to create data source: %w", err)
	}

	model := slippage.NewModel(cfg.Backtest.Slippage.Floor, cfg.Backtest.Slippage.Volatility)
	executor, err := backtest.NewExecutor(source, model, appLog)
	if err != nil {
		return fmt.Errorf("failed to create executor: %w", err)
	}

	manager := jobs.NewManager(
		jobs.NewMemoryStore(),
		jobs.NewResultStore(cfg.Jobs.ResultTTL),
		jobs.ManagerConfig{MaxActivePerClient: cfg.Jobs.MaxActivePerClient},
		appLog,
	)

	runner := &persistingRunner{executor: executor, logger: appLog}
	if repos != nil {
		runner.results = repos.BacktestResult
	}

	pool := jobs.NewPool(manager, runner, cfg.Jobs.Workers, appLog)
	pool.Start(ctx)
	defer pool.Stop()

	janitor := scheduler.NewJanitor(manager, pruner(repos), cfg.Jobs.JobRetention, appLog)
	if err := janitor.ScheduleCleanup(cfg.Jobs.CleanupSchedule); err != nil {
		return fmt.Errorf("failed to schedule cleanup: %w", err)
	}
	if err := janitor.Start(); err != nil {
		return fmt.Errorf("failed to start janitor: %w", err)
	}
	defer janitor.Stop()

	healthServer := health.NewServer(health.Config{
		ServiceName: cfg.App.Name,
		Version:     Version,
		Commit:      GitCommit,
		Logger:      appLog,
		DB:          dbPinger(db),
		Pool:        pool,
	})
	if err := healthServer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start health server: %w", err)
	}

	if cfg.Metrics.Enabled {
		startMetricsServer(ctx)
	}

	apiServer := api.NewServer(manager, pool, cfg, appLog)
	if err := apiServer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start API server: %w", err)
	}

	healthServer.SetReady(true)
	appLog.Info("Turfsim server ready")

	<-ctx.Done()
	appLog.Info("Shutdown signal received")
	return nil
}

func pruner(repos *repository.Repositories) scheduler.PersistentPruner {
	if repos == nil {
		return nil
	}
	return repos.BacktestResult
}

func dbPinger(db *database.DB) health.DatabasePinger {
	if db == nil {
		return nil
	}
	return db
}

func startMetricsServer(ctx context.Context) {
	mux := http.NewServeMux()
	mux.Handle(cfg.Metrics.Path, metrics.Handler())

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Metrics.Port),
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		appLog.WithField("port", cfg.Metrics.Port).Info("Metrics server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.WithError(err).Error("Metrics server error")
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()
}
