package jobs

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store persists job records. Update replaces the whole record, so every
// read observes a record written in full by exactly one writer.
type Store interface {
	Create(job *Job) error
	Get(id uuid.UUID) (*Job, error)
	Update(job *Job) error
	Delete(id uuid.UUID) error
	List(clientID string) ([]*Job, error)
}

// MemoryStore is an in-memory Store guarded by a read-write mutex.
// Records are cloned on the way in and out.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[uuid.UUID]*Job
}

// NewMemoryStore creates an empty in-memory job store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[uuid.UUID]*Job)}
}

// Create stores a new job record
func (s *MemoryStore) Create(job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[job.ID]; exists {
		return fmt.Errorf("job %s already exists", job.ID)
	}
	s.jobs[job.ID] = job.Clone()
	return nil
}

// Get returns a copy of the job record
func (s *MemoryStore) Get(id uuid.UUID) (*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	return job.Clone(), nil
}

// Update replaces the stored record with the given one
func (s *MemoryStore) Update(job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[job.ID]; !ok {
		return ErrJobNotFound
	}
	s.jobs[job.ID] = job.Clone()
	return nil
}

// Delete removes a job record
func (s *MemoryStore) Delete(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[id]; !ok {
		return ErrJobNotFound
	}
	delete(s.jobs, id)
	return nil
}

// List returns the client's jobs, newest first. An empty clientID lists
// every job.
func (s *MemoryStore) List(clientID string) ([]*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Job
	for _, job := range s.jobs {
		if clientID != "" && job.ClientID != clientID {
			continue
		}
		out = append(out, job.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// TerminalOlderThan returns ids of finished jobs whose terminal
// timestamp is before the cutoff. The janitor uses this for retention.
func (s *MemoryStore) TerminalOlderThan(cutoff time.Time) []uuid.UUID {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []uuid.UUID
	for id, job := range s.jobs {
		if job.Status.IsTerminal() && job.FinishedAt != nil && job.FinishedAt.Before(cutoff) {
			out = append(out, id)
		}
	}
	return out
}
