package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/yourusername/turfsim/internal/database"
	"github.com/yourusername/turfsim/internal/models"
)

const entrantColumns = `id, race_id, number, name, jockey, trainer, weight, form_rating,
	       days_since_last_race, career_starts, career_wins, career_places, scratched,
	       created_at, updated_at`

// PostgresEntrantRepository implements EntrantRepository for PostgreSQL
type PostgresEntrantRepository struct {
	db *database.DB
}

// NewPostgresEntrantRepository creates a new entrant repository
func NewPostgresEntrantRepository(db *database.DB) EntrantRepository {
	return &PostgresEntrantRepository{db: db}
}

// Create inserts a new entrant
func (e *PostgresEntrantRepository) Create(ctx context.Context, entrant *models.Entrant) error {
	query := `
		INSERT INTO entrants (id, race_id, number, name, jockey, trainer, weight, form_rating,
		                      days_since_last_race, career_starts, career_wins, career_places, scratched)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := e.db.GetPool().Exec(ctx, query,
		entrant.ID, entrant.RaceID, entrant.Number, entrant.Name, entrant.Jockey,
		entrant.Trainer, entrant.Weight, entrant.FormRating, entrant.DaysSinceLastRace,
		entrant.CareerStarts, entrant.CareerWins, entrant.CareerPlaces, entrant.Scratched,
	)
	if err != nil {
		return fmt.Errorf("failed to create entrant: %w", err)
	}

	return nil
}

// CreateBatch inserts multiple entrants using COPY
func (e *PostgresEntrantRepository) CreateBatch(ctx context.Context, entrants []*models.Entrant) error {
	if len(entrants) == 0 {
		return nil
	}

	columns := []string{
		"id", "race_id", "number", "name", "jockey", "trainer", "weight", "form_rating",
		"days_since_last_race", "career_starts", "career_wins", "career_places", "scratched",
	}

	rows := make([][]interface{}, len(entrants))
	for i, ent := range entrants {
		rows[i] = []interface{}{
			ent.ID, ent.RaceID, ent.Number, ent.Name, ent.Jockey, ent.Trainer,
			ent.Weight, ent.FormRating, ent.DaysSinceLastRace,
			ent.CareerStarts, ent.CareerWins, ent.CareerPlaces, ent.Scratched,
		}
	}

	count, err := e.db.GetPool().CopyFrom(ctx, pgx.Identifier{"entrants"}, columns, pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("failed to batch insert entrants: %w", err)
	}
	if count != int64(len(entrants)) {
		return fmt.Errorf("inserted %d entrants, expected %d", count, len(entrants))
	}

	return nil
}

// GetByID retrieves an entrant by ID
func (e *PostgresEntrantRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Entrant, error) {
	query := `SELECT ` + entrantColumns + ` FROM entrants WHERE id = $1`

	entrant := &models.Entrant{}
	err := e.db.GetPool().QueryRow(ctx, query, id).Scan(
		&entrant.ID, &entrant.RaceID, &entrant.Number, &entrant.Name, &entrant.Jockey,
		&entrant.Trainer, &entrant.Weight, &entrant.FormRating, &entrant.DaysSinceLastRace,
		&entrant.CareerStarts, &entrant.CareerWins, &entrant.CareerPlaces, &entrant.Scratched,
		&entrant.CreatedAt, &entrant.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get entrant: %w", err)
	}

	return entrant, nil
}

// GetByRaceID retrieves the field for a race ordered by entrant number
func (e *PostgresEntrantRepository) GetByRaceID(ctx context.Context, raceID uuid.UUID) ([]*models.Entrant, error) {
	query := `SELECT ` + entrantColumns + ` FROM entrants WHERE race_id = $1 ORDER BY number ASC`

	rows, err := e.db.GetPool().Query(ctx, query, raceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query entrants: %w", err)
	}
	defer rows.Close()

	var entrants []*models.Entrant
	for rows.Next() {
		entrant := &models.Entrant{}
		err := rows.Scan(
			&entrant.ID, &entrant.RaceID, &entrant.Number, &entrant.Name, &entrant.Jockey,
			&entrant.Trainer, &entrant.Weight, &entrant.FormRating, &entrant.DaysSinceLastRace,
			&entrant.CareerStarts, &entrant.CareerWins, &entrant.CareerPlaces, &entrant.Scratched,
			&entrant.CreatedAt, &entrant.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entrant: %w", err)
		}
		entrants = append(entrants, entrant)
	}

	return entrants, rows.Err()
}

// Update modifies an existing entrant
func (e *PostgresEntrantRepository) Update(ctx context.Context, entrant *models.Entrant) error {
	query := `
		UPDATE entrants
		SET number = $2, name = $3, jockey = $4, trainer = $5, weight = $6,
		    form_rating = $7, days_since_last_race = $8, career_starts = $9,
		    career_wins = $10, career_places = $11, scratched = $12, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := e.db.GetPool().Exec(ctx, query,
		entrant.ID, entrant.Number, entrant.Name, entrant.Jockey, entrant.Trainer,
		entrant.Weight, entrant.FormRating, entrant.DaysSinceLastRace,
		entrant.CareerStarts, entrant.CareerWins, entrant.CareerPlaces, entrant.Scratched,
	)
	if err != nil {
		return fmt.Errorf("failed to update entrant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}
