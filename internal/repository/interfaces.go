// Package repository provides postgres-backed data access for the
// historical racing store and persisted simulation results.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/turfsim/internal/models"
)

// RaceRepository defines the interface for race data access
type RaceRepository interface {
	Create(ctx context.Context, race *models.Race) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Race, error)
	GetByDate(ctx context.Context, date time.Time) ([]*models.Race, error)
	GetByDateRange(ctx context.Context, start, end time.Time) ([]*models.Race, error)
	Update(ctx context.Context, race *models.Race) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// EntrantRepository defines the interface for entrant data access
type EntrantRepository interface {
	Create(ctx context.Context, entrant *models.Entrant) error
	CreateBatch(ctx context.Context, entrants []*models.Entrant) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Entrant, error)
	GetByRaceID(ctx context.Context, raceID uuid.UUID) ([]*models.Entrant, error)
	Update(ctx context.Context, entrant *models.Entrant) error
}

// OddsRepository defines the interface for odds snapshot data access
type OddsRepository interface {
	Insert(ctx context.Context, odds *models.OddsSnapshot) error
	InsertBatch(ctx context.Context, odds []*models.OddsSnapshot) error
	GetByRaceID(ctx context.Context, raceID uuid.UUID, start, end time.Time) ([]*models.OddsSnapshot, error)
	// GetLatestBefore returns the most recent snapshot per entrant taken
	// at or before asOf
	GetLatestBefore(ctx context.Context, raceID uuid.UUID, asOf time.Time) ([]*models.OddsSnapshot, error)
}

// ResultRepository defines the interface for settled result data access
type ResultRepository interface {
	Create(ctx context.Context, result *models.SettledResult) error
	GetByRaceID(ctx context.Context, raceID uuid.UUID) (*models.SettledResult, error)
}

// StrategyRepository defines the interface for strategy definition data access
type StrategyRepository interface {
	Create(ctx context.Context, strategy *models.StrategyDefinition) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.StrategyDefinition, error)
	GetByName(ctx context.Context, name string) (*models.StrategyDefinition, error)
	List(ctx context.Context) ([]*models.StrategyDefinition, error)
	Update(ctx context.Context, strategy *models.StrategyDefinition) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// BacktestResultRepository defines persistence for completed run summaries
type BacktestResultRepository interface {
	Save(ctx context.Context, result *models.BacktestResult) error
	GetByJobID(ctx context.Context, jobID uuid.UUID) (*models.BacktestResult, error)
	GetByStrategyID(ctx context.Context, strategyID uuid.UUID) ([]*models.BacktestResult, error)
	GetLatest(ctx context.Context, limit int) ([]*models.BacktestResult, error)
	PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
