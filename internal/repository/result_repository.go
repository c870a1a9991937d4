package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/yourusername/turfsim/internal/database"
	"github.com/yourusername/turfsim/internal/models"
)

// PostgresResultRepository implements ResultRepository for PostgreSQL
type PostgresResultRepository struct {
	db *database.DB
}

// NewPostgresResultRepository creates a new result repository
func NewPostgresResultRepository(db *database.DB) ResultRepository {
	return &PostgresResultRepository{db: db}
}

// Create inserts a settled result and its finishing order atomically
func (r *PostgresResultRepository) Create(ctx context.Context, result *models.SettledResult) error {
	return r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		query := `
			INSERT INTO race_results (race_id, time, win_dividend, place_dividends, quinella_dividend, places_paid, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`
		_, err := tx.Exec(ctx, query,
			result.RaceID, result.Time, result.WinDividend, result.PlaceDividends,
			result.QuinellaDividend, result.PlacesPaid, result.Status,
		)
		if err != nil {
			return fmt.Errorf("failed to insert race result: %w", err)
		}

		for _, f := range result.Finishers {
			_, err := tx.Exec(ctx,
				`INSERT INTO race_finishers (race_id, entrant_id, number, position, margin)
				 VALUES ($1, $2, $3, $4, $5)`,
				result.RaceID, f.EntrantID, f.Number, f.Position, f.Margin,
			)
			if err != nil {
				return fmt.Errorf("failed to insert finisher: %w", err)
			}
		}

		return nil
	})
}

// GetByRaceID retrieves the settled result for a race
func (r *PostgresResultRepository) GetByRaceID(ctx context.Context, raceID uuid.UUID) (*models.SettledResult, error) {
	query := `
		SELECT race_id, time, win_dividend, place_dividends, quinella_dividend, places_paid, status, created_at
		FROM race_results WHERE race_id = $1
	`

	result := &models.SettledResult{}
	err := r.db.GetPool().QueryRow(ctx, query, raceID).Scan(
		&result.RaceID, &result.Time, &result.WinDividend, &result.PlaceDividends,
		&result.QuinellaDividend, &result.PlacesPaid, &result.Status, &result.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get race result: %w", err)
	}

	rows, err := r.db.GetPool().Query(ctx,
		`SELECT entrant_id, number, position, margin
		 FROM race_finishers WHERE race_id = $1 ORDER BY position ASC`,
		raceID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query finishers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var f models.FinishEntry
		if err := rows.Scan(&f.EntrantID, &f.Number, &f.Position, &f.Margin); err != nil {
			return nil, fmt.Errorf("failed to scan finisher: %w", err)
		}
		result.Finishers = append(result.Finishers, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
