package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/turfsim/internal/backtest"
	"github.com/yourusername/turfsim/internal/metrics"
	"github.com/yourusername/turfsim/internal/models"
	"github.com/yourusername/turfsim/internal/strategy"
)

// ManagerConfig bounds manager behaviour
type ManagerConfig struct {
	// MaxActivePerClient caps pending+running jobs per client; zero
	// means unlimited
	MaxActivePerClient int
}

// Manager owns the job lifecycle. All status changes go through it, so
// the state machine holds regardless of which goroutine reports.
type Manager struct {
	store   Store
	results *ResultStore
	logger  *logrus.Logger
	cfg     ManagerConfig

	mu      sync.Mutex
	cancels map[uuid.UUID]context.CancelFunc
}

// NewManager creates a job manager over the given stores
func NewManager(store Store, results *ResultStore, cfg ManagerConfig, logger *logrus.Logger) *Manager {
	if logger == nil {
		logger = logrus.New()
	}
	return &Manager{
		store:   store,
		results: results,
		logger:  logger,
		cfg:     cfg,
		cancels: make(map[uuid.UUID]context.CancelFunc),
	}
}

// CreateJob validates the request and records a pending job. Nothing is
// stored when validation fails.
func (m *Manager) CreateJob(clientID string, params backtest.RunParams) (*Job, error) {
	if clientID == "" {
		return nil, fmt.Errorf("client id is required")
	}
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid run parameters: %w", err)
	}
	if _, err := strategy.Compile(params.Strategy); err != nil {
		return nil, fmt.Errorf("strategy rejected: %w", err)
	}
	if err := m.checkActiveLimit(clientID); err != nil {
		return nil, err
	}

	if params.JobID == uuid.Nil {
		params.JobID = uuid.New()
	}

	now := time.Now().UTC()
	job := &Job{
		ID:           params.JobID,
		ClientID:     clientID,
		StrategyName: params.Strategy.Name,
		StrategyID:   params.Strategy.ID,
		Params:       params,
		Status:       StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := m.store.Create(job); err != nil {
		return nil, fmt.Errorf("failed to store job: %w", err)
	}

	metrics.RecordJobSubmitted()
	m.logger.WithFields(logrus.Fields{
		"job_id":   job.ID,
		"client":   clientID,
		"strategy": job.StrategyName,
	}).Info("Job created")

	return job, nil
}

func (m *Manager) checkActiveLimit(clientID string) error {
	if m.cfg.MaxActivePerClient <= 0 {
		return nil
	}
	existing, err := m.store.List(clientID)
	if err != nil {
		return fmt.Errorf("failed to list jobs: %w", err)
	}
	active := 0
	for _, job := range existing {
		if !job.Status.IsTerminal() {
			active++
		}
	}
	if active >= m.cfg.MaxActivePerClient {
		return ErrTooManyActiveJobs
	}
	return nil
}

// StartJob moves a pending job to running. Starting a job in any other
// status is a logged no-op so a cancel racing the worker pool stays
// cancelled.
func (m *Manager) StartJob(jobID uuid.UUID) error {
	job, err := m.store.Get(jobID)
	if err != nil {
		return err
	}
	if job.Status != StatusPending {
		m.logger.WithFields(logrus.Fields{
			"job_id": jobID,
			"status": job.Status,
		}).Info("Start skipped, job is not pending")
		return nil
	}

	now := time.Now().UTC()
	job.Status = StatusRunning
	job.StartedAt = &now
	job.UpdatedAt = now
	return m.store.Update(job)
}

// UpdateProgress records progress for a running job and is ignored for
// any other status.
func (m *Manager) UpdateProgress(jobID uuid.UUID, progress Progress) error {
	job, err := m.store.Get(jobID)
	if err != nil {
		return err
	}
	if job.Status != StatusRunning {
		return nil
	}

	job.Progress = progress
	job.UpdatedAt = time.Now().UTC()
	return m.store.Update(job)
}

// finish performs the single terminal transition. Jobs already in a
// terminal status never move again.
func (m *Manager) finish(jobID uuid.UUID, status Status, mutate func(*Job)) (*Job, error) {
	job, err := m.store.Get(jobID)
	if err != nil {
		return nil, err
	}
	if job.Status.IsTerminal() {
		return nil, fmt.Errorf("job %s is already %s: %w", jobID, job.Status, ErrInvalidTransition)
	}

	now := time.Now().UTC()
	job.Status = status
	job.FinishedAt = &now
	job.UpdatedAt = now
	if mutate != nil {
		mutate(job)
	}

	if err := m.store.Update(job); err != nil {
		return nil, err
	}
	m.releaseCancel(jobID)

	metrics.RecordJobFinished(string(status))
	m.logger.WithFields(logrus.Fields{
		"job_id": jobID,
		"status": status,
	}).Info("Job finished")

	return job, nil
}

// CompleteJob marks the job completed and stores its result. The result
// TTL starts now.
func (m *Manager) CompleteJob(jobID uuid.UUID, result *models.BacktestResult) error {
	job, err := m.finish(jobID, StatusCompleted, func(j *Job) {
		j.Progress.Percent = 100
		j.Progress.DaysProcessed = j.Progress.DaysTotal
	})
	if err != nil {
		return err
	}
	m.results.Put(job.ID, result)
	return nil
}

// FailJob marks the job failed with the given error detail
func (m *Manager) FailJob(jobID uuid.UUID, jobErr *JobError) error {
	_, err := m.finish(jobID, StatusFailed, func(j *Job) {
		j.Error = jobErr
	})
	return err
}

// CancelJob cancels a client's job. Pending jobs go straight to
// cancelled; running jobs additionally get their context cancelled so
// the executor stops at the next boundary. No result is stored.
func (m *Manager) CancelJob(jobID uuid.UUID, clientID string) (*Job, error) {
	existing, err := m.store.Get(jobID)
	if err != nil {
		return nil, err
	}
	if existing.ClientID != clientID {
		return nil, ErrForbidden
	}

	job, err := m.finish(jobID, StatusCancelled, func(j *Job) {
		j.Error = &JobError{Code: "cancelled", Message: "cancelled by client", Retryable: false}
	})
	if err != nil {
		return nil, err
	}
	return job, nil
}

// GetJob returns the client's job record
func (m *Manager) GetJob(jobID uuid.UUID, clientID string) (*Job, error) {
	job, err := m.store.Get(jobID)
	if err != nil {
		return nil, err
	}
	if job.ClientID != clientID {
		return nil, ErrForbidden
	}
	return job, nil
}

// ListJobs returns the client's jobs, newest first
func (m *Manager) ListJobs(clientID string) ([]*Job, error) {
	return m.store.List(clientID)
}

// GetResult returns a completed job's result. Jobs that have not
// completed return ErrResultNotReady; completed jobs whose payload aged
// out return ErrResultExpired.
func (m *Manager) GetResult(jobID uuid.UUID, clientID string) (*models.BacktestResult, error) {
	job, err := m.store.Get(jobID)
	if err != nil {
		return nil, err
	}
	if job.ClientID != clientID {
		return nil, ErrForbidden
	}
	if job.Status != StatusCompleted {
		return nil, fmt.Errorf("job is %s: %w", job.Status, ErrResultNotReady)
	}
	result, err := m.results.Get(jobID)
	if err != nil {
		if errors.Is(err, ErrResultExpired) {
			metrics.RecordResultExpired()
		}
		return nil, err
	}
	return result, nil
}

// registerCancel hands the manager the job's cancel function so
// CancelJob can interrupt a running executor.
func (m *Manager) registerCancel(jobID uuid.UUID, cancel context.CancelFunc) {
	m.mu.Lock()
	m.cancels[jobID] = cancel
	m.mu.Unlock()
}

func (m *Manager) releaseCancel(jobID uuid.UUID) {
	m.mu.Lock()
	cancel, ok := m.cancels[jobID]
	delete(m.cancels, jobID)
	m.mu.Unlock()
	if ok {
		cancel()
	}
}

type terminalLister interface {
	TerminalOlderThan(cutoff time.Time) []uuid.UUID
}

// PurgeTerminalBefore deletes terminal jobs finished before the cutoff
// along with any retained results, returning how many were removed.
func (m *Manager) PurgeTerminalBefore(cutoff time.Time) int {
	lister, ok := m.store.(terminalLister)
	if !ok {
		return 0
	}

	purged := 0
	for _, id := range lister.TerminalOlderThan(cutoff) {
		if err := m.store.Delete(id); err != nil {
			continue
		}
		m.results.Delete(id)
		purged++
	}
	return purged
}

// PruneResultTombstones drops expiry tombstones for jobs completed
// before the cutoff
func (m *Manager) PruneResultTombstones(cutoff time.Time) int {
	return m.results.PruneTombstones(cutoff)
}
