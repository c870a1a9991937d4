package jobs

import (
	"sync"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/yourusername/turfsim/internal/models"
)

// ResultStore holds completed run results for a bounded time. A
// tombstone index of completed job ids survives the cached payload, so
// a lookup after expiry reports expired rather than never-existed.
type ResultStore struct {
	cache *gocache.Cache
	ttl   time.Duration

	mu        sync.RWMutex
	completed map[uuid.UUID]time.Time
}

// NewResultStore creates a result store where entries live for ttl
func NewResultStore(ttl time.Duration) *ResultStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &ResultStore{
		cache:     gocache.New(ttl, ttl/2),
		ttl:       ttl,
		completed: make(map[uuid.UUID]time.Time),
	}
}

// Put stores a result and starts its TTL clock
func (s *ResultStore) Put(jobID uuid.UUID, result *models.BacktestResult) {
	s.cache.Set(jobID.String(), result, s.ttl)

	s.mu.Lock()
	s.completed[jobID] = time.Now()
	s.mu.Unlock()
}

// Get returns the stored result. It returns ErrResultExpired when the
// job completed but its payload aged out, and ErrJobNotFound when no
// result was ever stored for the id.
func (s *ResultStore) Get(jobID uuid.UUID) (*models.BacktestResult, error) {
	if value, ok := s.cache.Get(jobID.String()); ok {
		return value.(*models.BacktestResult), nil
	}

	s.mu.RLock()
	_, wasCompleted := s.completed[jobID]
	s.mu.RUnlock()

	if wasCompleted {
		return nil, ErrResultExpired
	}
	return nil, ErrJobNotFound
}

// Delete drops both the payload and the tombstone
func (s *ResultStore) Delete(jobID uuid.UUID) {
	s.cache.Delete(jobID.String())

	s.mu.Lock()
	delete(s.completed, jobID)
	s.mu.Unlock()
}

// PruneTombstones drops tombstones for jobs that completed before the
// cutoff and returns how many were removed. Called by the janitor once
// the job records themselves are gone.
func (s *ResultStore) PruneTombstones(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	pruned := 0
	for id, completedAt := range s.completed {
		if completedAt.Before(cutoff) {
			delete(s.completed, id)
			pruned++
		}
	}
	return pruned
}
