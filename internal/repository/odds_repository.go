package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/yourusername/turfsim/internal/database"
	"github.com/yourusername/turfsim/internal/models"
)

// PostgresOddsRepository implements OddsRepository for PostgreSQL
type PostgresOddsRepository struct {
	db *database.DB
}

// NewPostgresOddsRepository creates a new odds repository
func NewPostgresOddsRepository(db *database.DB) OddsRepository {
	return &PostgresOddsRepository{db: db}
}

// Insert inserts a single odds snapshot
func (o *PostgresOddsRepository) Insert(ctx context.Context, odds *models.OddsSnapshot) error {
	query := `
		INSERT INTO odds_snapshots (time, race_id, entrant_id, win_odds, place_odds, pool_volume)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := o.db.GetPool().Exec(ctx, query,
		odds.Time, odds.RaceID, odds.EntrantID, odds.WinOdds, odds.PlaceOdds, odds.PoolVolume,
	)
	if err != nil {
		return fmt.Errorf("failed to insert odds snapshot: %w", err)
	}

	return nil
}

// InsertBatch inserts multiple odds snapshots using COPY
func (o *PostgresOddsRepository) InsertBatch(ctx context.Context, odds []*models.OddsSnapshot) error {
	if len(odds) == 0 {
		return nil
	}

	columns := []string{"time", "race_id", "entrant_id", "win_odds", "place_odds", "pool_volume"}

	rows := make([][]interface{}, len(odds))
	for i, snap := range odds {
		rows[i] = []interface{}{
			snap.Time, snap.RaceID, snap.EntrantID, snap.WinOdds, snap.PlaceOdds, snap.PoolVolume,
		}
	}

	count, err := o.db.GetPool().CopyFrom(ctx, pgx.Identifier{"odds_snapshots"}, columns, pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("failed to batch insert odds snapshots: %w", err)
	}
	if count != int64(len(odds)) {
		return fmt.Errorf("inserted %d rows, expected %d", count, len(odds))
	}

	return nil
}

// GetByRaceID retrieves odds snapshots for a race within a time range
func (o *PostgresOddsRepository) GetByRaceID(ctx context.Context, raceID uuid.UUID, start, end time.Time) ([]*models.OddsSnapshot, error) {
	query := `
		SELECT time, race_id, entrant_id, win_odds, place_odds, pool_volume
		FROM odds_snapshots
		WHERE race_id = $1 AND time >= $2 AND time <= $3
		ORDER BY time ASC
	`

	rows, err := o.db.GetPool().Query(ctx, query, raceID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query odds by race: %w", err)
	}
	defer rows.Close()

	return scanOddsRows(rows)
}

// GetLatestBefore returns the most recent snapshot per entrant taken at
// or before asOf
func (o *PostgresOddsRepository) GetLatestBefore(ctx context.Context, raceID uuid.UUID, asOf time.Time) ([]*models.OddsSnapshot, error) {
	query := `
		SELECT DISTINCT ON (entrant_id)
		       time, race_id, entrant_id, win_odds, place_odds, pool_volume
		FROM odds_snapshots
		WHERE race_id = $1 AND time <= $2
		ORDER BY entrant_id, time DESC
	`

	rows, err := o.db.GetPool().Query(ctx, query, raceID, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest odds: %w", err)
	}
	defer rows.Close()

	return scanOddsRows(rows)
}

func scanOddsRows(rows pgx.Rows) ([]*models.OddsSnapshot, error) {
	var snapshots []*models.OddsSnapshot
	for rows.Next() {
		snapshot := &models.OddsSnapshot{}
		err := rows.Scan(
			&snapshot.Time, &snapshot.RaceID, &snapshot.EntrantID,
			&snapshot.WinOdds, &snapshot.PlaceOdds, &snapshot.PoolVolume,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan odds: %w", err)
		}
		snapshots = append(snapshots, snapshot)
	}

	return snapshots, rows.Err()
}
