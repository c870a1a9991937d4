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

const errScanRace = "failed to scan race: %w"

const raceColumns = `id, scheduled_start, track, race_type, race_number, distance,
	       grade, going, field_size, status, created_at, updated_at`

// PostgresRaceRepository implements RaceRepository for PostgreSQL
type PostgresRaceRepository struct {
	db *database.DB
}

// NewPostgresRaceRepository creates a new race repository
func NewPostgresRaceRepository(db *database.DB) RaceRepository {
	return &PostgresRaceRepository{db: db}
}

// Create inserts a new race
func (r *PostgresRaceRepository) Create(ctx context.Context, race *models.Race) error {
	query := `
		INSERT INTO races (id, scheduled_start, track, race_type, race_number, distance, grade, going, field_size, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.GetPool().Exec(ctx, query,
		race.ID, race.ScheduledStart, race.Track, race.RaceType, race.RaceNumber,
		race.Distance, race.Grade, race.Going, race.FieldSize, race.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to create race: %w", err)
	}

	return nil
}

// GetByID retrieves a race by ID
func (r *PostgresRaceRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Race, error) {
	query := `SELECT ` + raceColumns + ` FROM races WHERE id = $1`

	race := &models.Race{}
	err := r.db.GetPool().QueryRow(ctx, query, id).Scan(
		&race.ID, &race.ScheduledStart, &race.Track, &race.RaceType, &race.RaceNumber,
		&race.Distance, &race.Grade, &race.Going, &race.FieldSize, &race.Status,
		&race.CreatedAt, &race.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get race: %w", err)
	}

	return race, nil
}

// GetByDate retrieves all races on one calendar day (UTC) ordered by start time
func (r *PostgresRaceRepository) GetByDate(ctx context.Context, date time.Time) ([]*models.Race, error) {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	return r.GetByDateRange(ctx, day, day.AddDate(0, 0, 1))
}

// GetByDateRange retrieves races with scheduled_start in [start, end)
func (r *PostgresRaceRepository) GetByDateRange(ctx context.Context, start, end time.Time) ([]*models.Race, error) {
	query := `
		SELECT ` + raceColumns + `
		FROM races
		WHERE scheduled_start >= $1 AND scheduled_start < $2
		ORDER BY scheduled_start ASC
	`

	rows, err := r.db.GetPool().Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query races by date range: %w", err)
	}
	defer rows.Close()

	var races []*models.Race
	for rows.Next() {
		race := &models.Race{}
		err := rows.Scan(
			&race.ID, &race.ScheduledStart, &race.Track, &race.RaceType, &race.RaceNumber,
			&race.Distance, &race.Grade, &race.Going, &race.FieldSize, &race.Status,
			&race.CreatedAt, &race.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf(errScanRace, err)
		}
		races = append(races, race)
	}

	return races, rows.Err()
}

// Update modifies an existing race
func (r *PostgresRaceRepository) Update(ctx context.Context, race *models.Race) error {
	query := `
		UPDATE races
		SET scheduled_start = $2, track = $3, race_type = $4, race_number = $5,
		    distance = $6, grade = $7, going = $8, field_size = $9, status = $10,
		    updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.db.GetPool().Exec(ctx, query,
		race.ID, race.ScheduledStart, race.Track, race.RaceType, race.RaceNumber,
		race.Distance, race.Grade, race.Going, race.FieldSize, race.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to update race: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

// Delete removes a race
func (r *PostgresRaceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.GetPool().Exec(ctx, `DELETE FROM races WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete race: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}
