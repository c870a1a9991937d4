package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/yourusername/turfsim/internal/database"
	"github.com/yourusername/turfsim/internal/models"
)

// PostgresBacktestResultRepository implements BacktestResultRepository
// for PostgreSQL. The full result (bets, equity curve, metadata) lives
// in a JSONB column alongside the queryable summary fields.
type PostgresBacktestResultRepository struct {
	db *database.DB
}

// NewPostgresBacktestResultRepository creates a new backtest result repository
func NewPostgresBacktestResultRepository(db *database.DB) BacktestResultRepository {
	return &PostgresBacktestResultRepository{db: db}
}

// Save persists a completed run
func (r *PostgresBacktestResultRepository) Save(ctx context.Context, result *models.BacktestResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal backtest result: %w", err)
	}

	query := `
		INSERT INTO backtest_results (job_id, strategy_id, total_bets, roi, max_drawdown, final_capital, payload, generated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (job_id) DO UPDATE
		SET payload = EXCLUDED.payload, generated_at = EXCLUDED.generated_at
	`
	_, err = r.db.GetPool().Exec(ctx, query,
		result.JobID, result.StrategyID, result.Summary.TotalBets, result.Summary.ROI,
		result.Summary.MaxDrawdown, result.Summary.FinalCapital, payload, result.GeneratedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save backtest result: %w", err)
	}

	return nil
}

// GetByJobID retrieves the result of one run
func (r *PostgresBacktestResultRepository) GetByJobID(ctx context.Context, jobID uuid.UUID) (*models.BacktestResult, error) {
	var raw []byte
	err := r.db.GetPool().QueryRow(ctx,
		`SELECT payload FROM backtest_results WHERE job_id = $1`, jobID,
	).Scan(&raw)
	if err == pgx.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get backtest result: %w", err)
	}

	return unmarshalResult(raw)
}

// GetByStrategyID retrieves all persisted runs for a strategy, newest first
func (r *PostgresBacktestResultRepository) GetByStrategyID(ctx context.Context, strategyID uuid.UUID) ([]*models.BacktestResult, error) {
	rows, err := r.db.GetPool().Query(ctx,
		`SELECT payload FROM backtest_results WHERE strategy_id = $1 ORDER BY generated_at DESC`,
		strategyID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query backtest results: %w", err)
	}
	defer rows.Close()

	return collectResults(rows)
}

// GetLatest retrieves the most recent runs across all strategies
func (r *PostgresBacktestResultRepository) GetLatest(ctx context.Context, limit int) ([]*models.BacktestResult, error) {
	rows, err := r.db.GetPool().Query(ctx,
		`SELECT payload FROM backtest_results ORDER BY generated_at DESC LIMIT $1`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest backtest results: %w", err)
	}
	defer rows.Close()

	return collectResults(rows)
}

func collectResults(rows pgx.Rows) ([]*models.BacktestResult, error) {
	var results []*models.BacktestResult
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan backtest result: %w", err)
		}
		result, err := unmarshalResult(raw)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}

	return results, rows.Err()
}

func unmarshalResult(raw []byte) (*models.BacktestResult, error) {
	result := &models.BacktestResult{}
	if err := json.Unmarshal(raw, result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal backtest result: %w", err)
	}
	return result, nil
}

// PruneOlderThan deletes persisted results generated before the cutoff
func (r *PostgresBacktestResultRepository) PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.GetPool().Exec(ctx,
		`DELETE FROM backtest_results WHERE generated_at < $1`, cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to prune backtest results: %w", err)
	}
	return tag.RowsAffected(), nil
}
