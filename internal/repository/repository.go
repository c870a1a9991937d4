package repository

import (
	"fmt"

	"github.com/yourusername/turfsim/internal/database"
)

// Repositories holds all repository implementations
type Repositories struct {
	Race           RaceRepository
	Entrant        EntrantRepository
	Odds           OddsRepository
	Result         ResultRepository
	Strategy       StrategyRepository
	BacktestResult BacktestResultRepository
}

// NewRepositories creates and returns all repository implementations
func NewRepositories(db *database.DB) (*Repositories, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	return &Repositories{
		Race:           NewPostgresRaceRepository(db),
		Entrant:        NewPostgresEntrantRepository(db),
		Odds:           NewPostgresOddsRepository(db),
		Result:         NewPostgresResultRepository(db),
		Strategy:       NewPostgresStrategyRepository(db),
		BacktestResult: NewPostgresBacktestResultRepository(db),
	}, nil
}
