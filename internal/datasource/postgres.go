package datasource

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/turfsim/internal/models"
	"github.com/yourusername/turfsim/internal/repository"
)

// PostgresSource serves historical data out of the local racing store
type PostgresSource struct {
	repos *repository.Repositories
}

// NewPostgresSource creates a source backed by the repositories
func NewPostgresSource(repos *repository.Repositories) *PostgresSource {
	return &PostgresSource{repos: repos}
}

// Name identifies the source in logs and errors
func (s *PostgresSource) Name() string {
	return "postgres"
}

// RacesForDate retrieves the card for one calendar day
func (s *PostgresSource) RacesForDate(ctx context.Context, date time.Time) ([]*models.Race, error) {
	return s.repos.Race.GetByDate(ctx, date)
}

// EntrantsForRace retrieves the declared field for one race
func (s *PostgresSource) EntrantsForRace(ctx context.Context, raceID uuid.UUID) ([]*models.Entrant, error) {
	return s.repos.Entrant.GetByRaceID(ctx, raceID)
}

// OddsForRace returns the latest snapshot per entrant at or before asOf
func (s *PostgresSource) OddsForRace(ctx context.Context, raceID uuid.UUID, asOf time.Time) (map[uuid.UUID]*models.OddsSnapshot, error) {
	snapshots, err := s.repos.Odds.GetLatestBefore(ctx, raceID, asOf)
	if err != nil {
		return nil, err
	}

	byEntrant := make(map[uuid.UUID]*models.OddsSnapshot, len(snapshots))
	for _, snap := range snapshots {
		byEntrant[snap.EntrantID] = snap
	}
	return byEntrant, nil
}

// ResultForRace returns the settled result for one race
func (s *PostgresSource) ResultForRace(ctx context.Context, raceID uuid.UUID) (*models.SettledResult, error) {
	return s.repos.Result.GetByRaceID(ctx, raceID)
}
