package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/yourusername/turfsim/internal/database"
	"github.com/yourusername/turfsim/internal/models"
)

// PostgresStrategyRepository implements StrategyRepository for
// PostgreSQL. The declarative parts of a definition (rules, sizing,
// filters) live in a JSONB column.
type PostgresStrategyRepository struct {
	db *database.DB
}

// NewPostgresStrategyRepository creates a new strategy repository
func NewPostgresStrategyRepository(db *database.DB) StrategyRepository {
	return &PostgresStrategyRepository{db: db}
}

// Create inserts a new strategy definition
func (s *PostgresStrategyRepository) Create(ctx context.Context, strategy *models.StrategyDefinition) error {
	if strategy.Name == "" {
		return models.ErrStrategyNameRequired
	}
	if strategy.ID == uuid.Nil {
		strategy.ID = uuid.New()
	}

	definition, err := json.Marshal(strategy)
	if err != nil {
		return fmt.Errorf("failed to marshal strategy definition: %w", err)
	}

	query := `
		INSERT INTO strategies (id, name, description, definition)
		VALUES ($1, $2, $3, $4)
	`
	_, err = s.db.GetPool().Exec(ctx, query,
		strategy.ID, strategy.Name, strategy.Description, definition,
	)
	if err != nil {
		return fmt.Errorf("failed to create strategy: %w", err)
	}

	return nil
}

// GetByID retrieves a strategy definition by ID
func (s *PostgresStrategyRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.StrategyDefinition, error) {
	query := `SELECT definition, created_at FROM strategies WHERE id = $1`
	return s.scanOne(s.db.GetPool().QueryRow(ctx, query, id))
}

// GetByName retrieves a strategy definition by name
func (s *PostgresStrategyRepository) GetByName(ctx context.Context, name string) (*models.StrategyDefinition, error) {
	query := `SELECT definition, created_at FROM strategies WHERE name = $1 LIMIT 1`
	return s.scanOne(s.db.GetPool().QueryRow(ctx, query, name))
}

// List retrieves all strategy definitions ordered by name
func (s *PostgresStrategyRepository) List(ctx context.Context) ([]*models.StrategyDefinition, error) {
	rows, err := s.db.GetPool().Query(ctx, `SELECT definition, created_at FROM strategies ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list strategies: %w", err)
	}
	defer rows.Close()

	var strategies []*models.StrategyDefinition
	for rows.Next() {
		strategy, err := s.scanOne(rows)
		if err != nil {
			return nil, err
		}
		strategies = append(strategies, strategy)
	}

	return strategies, rows.Err()
}

// Update replaces an existing strategy definition
func (s *PostgresStrategyRepository) Update(ctx context.Context, strategy *models.StrategyDefinition) error {
	definition, err := json.Marshal(strategy)
	if err != nil {
		return fmt.Errorf("failed to marshal strategy definition: %w", err)
	}

	query := `
		UPDATE strategies
		SET name = $2, description = $3, definition = $4, updated_at = NOW()
		WHERE id = $1
	`
	tag, err := s.db.GetPool().Exec(ctx, query,
		strategy.ID, strategy.Name, strategy.Description, definition,
	)
	if err != nil {
		return fmt.Errorf("failed to update strategy: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

// Delete removes a strategy definition
func (s *PostgresStrategyRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.GetPool().Exec(ctx, `DELETE FROM strategies WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete strategy: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

func (s *PostgresStrategyRepository) scanOne(row pgx.Row) (*models.StrategyDefinition, error) {
	var raw []byte
	strategy := &models.StrategyDefinition{}
	err := row.Scan(&raw, &strategy.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan strategy: %w", err)
	}
	createdAt := strategy.CreatedAt
	if err := json.Unmarshal(raw, strategy); err != nil {
		return nil, fmt.Errorf("failed to unmarshal strategy definition: %w", err)
	}
	strategy.CreatedAt = createdAt

	return strategy, nil
}
