// Package scheduler runs the periodic janitor that keeps the job and
// result stores bounded.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Purger removes terminal jobs and their retained results older than
// the cutoff. jobs.Manager satisfies it.
type Purger interface {
	PurgeTerminalBefore(cutoff time.Time) int
	PruneResultTombstones(cutoff time.Time) int
}

// PersistentPruner removes aged result rows from durable storage.
// repository.BacktestResultRepository satisfies it.
type PersistentPruner interface {
	PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Janitor schedules periodic cleanup of expired results and aged
// terminal jobs.
type Janitor struct {
	cron      *cron.Cron
	purger    Purger
	pruner    PersistentPruner
	retention time.Duration
	logger    *logrus.Logger

	mu        sync.RWMutex
	isRunning bool
	jobIDs    []cron.EntryID
}

// NewJanitor creates a janitor. pruner may be nil when the service runs
// without a database.
func NewJanitor(purger Purger, pruner PersistentPruner, retention time.Duration, logger *logrus.Logger) *Janitor {
	if logger == nil {
		logger = logrus.New()
	}
	return &Janitor{
		cron:      cron.New(cron.WithLocation(time.UTC)),
		purger:    purger,
		pruner:    pruner,
		retention: retention,
		logger:    logger,
	}
}

// ScheduleCleanup registers the cleanup sweep on a cron expression,
// for example "@every 10m".
func (j *Janitor) ScheduleCleanup(cronExpression string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.isRunning {
		return fmt.Errorf("cannot schedule while janitor is running")
	}

	entryID, err := j.cron.AddFunc(cronExpression, j.sweep)
	if err != nil {
		return fmt.Errorf("failed to add cleanup job: %w", err)
	}

	j.jobIDs = append(j.jobIDs, entryID)
	j.logger.WithField("schedule", cronExpression).Info("Cleanup sweep scheduled")
	return nil
}

// sweep is one cleanup pass
func (j *Janitor) sweep() {
	cutoff := time.Now().Add(-j.retention)

	purged := j.purger.PurgeTerminalBefore(cutoff)
	tombstones := j.purger.PruneResultTombstones(cutoff)

	var rows int64
	if j.pruner != nil {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		var err error
		rows, err = j.pruner.PruneOlderThan(ctx, cutoff)
		if err != nil {
			j.logger.WithError(err).Warn("Failed to prune stored results")
		}
	}

	if purged > 0 || tombstones > 0 || rows > 0 {
		j.logger.WithFields(logrus.Fields{
			"jobs_purged":       purged,
			"tombstones_pruned": tombstones,
			"rows_pruned":       rows,
		}).Info("Cleanup sweep finished")
	}
}

// Start begins running scheduled sweeps
func (j *Janitor) Start() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.isRunning {
		return fmt.Errorf("janitor is already running")
	}
	if len(j.jobIDs) == 0 {
		return fmt.Errorf("no cleanup job scheduled")
	}

	j.cron.Start()
	j.isRunning = true
	return nil
}

// Stop waits for any in-flight sweep to finish
func (j *Janitor) Stop() {
	j.mu.Lock()
	defer j.mu.Unlock()

	if !j.isRunning {
		return
	}
	<-j.cron.Stop().Done()
	j.isRunning = false
	j.logger.Info("Janitor stopped")
}

// IsRunning reports whether the janitor is active
func (j *Janitor) IsRunning() bool {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.isRunning
}

// NextRun returns when the next sweep fires
func (j *Janitor) NextRun() time.Time {
	j.mu.RLock()
	defer j.mu.RUnlock()

	if !j.isRunning {
		return time.Time{}
	}
	next := time.Time{}
	for _, id := range j.jobIDs {
		entry := j.cron.Entry(id)
		if entry.Valid() && (next.IsZero() || entry.Next.Before(next)) {
			next = entry.Next
		}
	}
	return next
}

// RunNow triggers an immediate sweep outside the schedule
func (j *Janitor) RunNow() {
	j.sweep()
}
