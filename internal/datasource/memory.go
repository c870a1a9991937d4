package datasource

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/turfsim/internal/models"
)

// MemorySource is an in-memory HistoricalSource. It backs tests and the
// CLI's fixture mode, and is safe for concurrent reads once loaded.
type MemorySource struct {
	mu       sync.RWMutex
	races    map[uuid.UUID]*models.Race
	byDay    map[time.Time][]uuid.UUID
	entrants map[uuid.UUID][]*models.Entrant
	odds     map[uuid.UUID][]*models.OddsSnapshot
	results  map[uuid.UUID]*models.SettledResult
}

// NewMemorySource creates an empty in-memory source
func NewMemorySource() *MemorySource {
	return &MemorySource{
		races:    make(map[uuid.UUID]*models.Race),
		byDay:    make(map[time.Time][]uuid.UUID),
		entrants: make(map[uuid.UUID][]*models.Entrant),
		odds:     make(map[uuid.UUID][]*models.OddsSnapshot),
		results:  make(map[uuid.UUID]*models.SettledResult),
	}
}

// Name identifies the source in logs and errors
func (s *MemorySource) Name() string {
	return "memory"
}

// AddRace loads one race with its field, odds history and result. A nil
// result models a race that never settled.
func (s *MemorySource) AddRace(race *models.Race, entrants []*models.Entrant, odds []*models.OddsSnapshot, result *models.SettledResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.races[race.ID] = race
	day := race.Day()
	s.byDay[day] = append(s.byDay[day], race.ID)
	s.entrants[race.ID] = entrants
	s.odds[race.ID] = odds
	if result != nil {
		s.results[race.ID] = result
	}
}

// RacesForDate returns the card for one day ordered by start time
func (s *MemorySource) RacesForDate(ctx context.Context, date time.Time) ([]*models.Race, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	ids := s.byDay[day]
	races := make([]*models.Race, 0, len(ids))
	for _, id := range ids {
		races = append(races, s.races[id])
	}
	sort.Slice(races, func(i, j int) bool {
		return races[i].ScheduledStart.Before(races[j].ScheduledStart)
	})
	return races, nil
}

// EntrantsForRace returns the declared field for one race
func (s *MemorySource) EntrantsForRace(ctx context.Context, raceID uuid.UUID) ([]*models.Entrant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entrants, ok := s.entrants[raceID]
	if !ok {
		return nil, NewSourceError(s.Name(), ErrCodeNotFound, "race not loaded", models.ErrNotFound)
	}
	return entrants, nil
}

// OddsForRace returns the latest snapshot per entrant at or before asOf
func (s *MemorySource) OddsForRace(ctx context.Context, raceID uuid.UUID, asOf time.Time) (map[uuid.UUID]*models.OddsSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshots := make(map[uuid.UUID]*models.OddsSnapshot)
	for _, snap := range s.odds[raceID] {
		if snap.Time.After(asOf) {
			continue
		}
		if existing, ok := snapshots[snap.EntrantID]; !ok || snap.Time.After(existing.Time) {
			snapshots[snap.EntrantID] = snap
		}
	}
	return snapshots, nil
}

// ResultForRace returns the settled result for one race
func (s *MemorySource) ResultForRace(ctx context.Context, raceID uuid.UUID) (*models.SettledResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result, ok := s.results[raceID]
	if !ok {
		return nil, NewSourceError(s.Name(), ErrCodeNotFound, "no settled result", models.ErrNotFound)
	}
	return result, nil
}
