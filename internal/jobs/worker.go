package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/turfsim/internal/backtest"
	"github.com/yourusername/turfsim/internal/metrics"
	"github.com/yourusername/turfsim/internal/models"
)

// Runner executes one simulation. backtest.Executor satisfies it.
type Runner interface {
	Execute(ctx context.Context, params backtest.RunParams, progress backtest.ProgressSink) (*models.BacktestResult, error)
}

// Pool runs submitted jobs on a fixed number of worker goroutines
type Pool struct {
	manager *Manager
	runner  Runner
	logger  *logrus.Logger

	submissions chan *Job
	workers     int
	wg          sync.WaitGroup
	started     atomic.Bool

	stateMu sync.RWMutex
	stopped bool
}

// NewPool creates a worker pool. Submissions queue up to twice the
// worker count before Submit blocks.
func NewPool(manager *Manager, runner Runner, workers int, logger *logrus.Logger) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Pool{
		manager:     manager,
		runner:      runner,
		logger:      logger,
		submissions: make(chan *Job, workers*2),
		workers:     workers,
	}
}

// Start launches the workers. ctx stopping shuts the pool down after
// in-flight jobs finish or are cancelled.
func (p *Pool) Start(ctx context.Context) {
	metrics.WorkerPoolSize.Set(float64(p.workers))
	p.started.Store(true)
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
}

// Stop waits for all workers to drain. Safe to call once; submissions
// arriving afterwards are rejected rather than panicking on the closed
// channel.
func (p *Pool) Stop() {
	p.stateMu.Lock()
	if p.stopped {
		p.stateMu.Unlock()
		return
	}
	p.stopped = true
	p.stateMu.Unlock()

	p.started.Store(false)
	close(p.submissions)
	p.wg.Wait()
}

// Running reports whether the workers have been started
func (p *Pool) Running() bool {
	return p.started.Load()
}

// QueueDepth returns the number of jobs waiting for a worker
func (p *Pool) QueueDepth() int {
	return len(p.submissions)
}

// Submit queues a created job for execution and returns immediately.
// The read lock holds Stop off until the send lands, so a submission
// never races the channel close.
func (p *Pool) Submit(ctx context.Context, job *Job) error {
	p.stateMu.RLock()
	defer p.stateMu.RUnlock()
	if p.stopped {
		return fmt.Errorf("worker pool is stopped")
	}

	select {
	case p.submissions <- job:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("submission aborted: %w", ctx.Err())
	}
}

func (p *Pool) worker(ctx context.Context, id int) {
	defer p.wg.Done()
	for {
		select {
		case job, ok := <-p.submissions:
			if !ok {
				return
			}
			p.run(ctx, job)
		case <-ctx.Done():
			return
		}
	}
}

// run executes one job, translating every outcome into a terminal
// status on the record. Panics in strategy or source code become failed
// jobs rather than dead workers.
func (p *Pool) run(ctx context.Context, job *Job) {
	if err := p.manager.StartJob(job.ID); err != nil {
		p.logger.WithFields(logrus.Fields{"job_id": job.ID, "error": err}).Warn("Failed to start job")
		return
	}

	current, err := p.manager.GetJob(job.ID, job.ClientID)
	if err != nil || current.Status != StatusRunning {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	p.manager.registerCancel(job.ID, cancel)
	defer p.manager.releaseCancel(job.ID)

	defer func() {
		if r := recover(); r != nil {
			p.logger.WithFields(logrus.Fields{"job_id": job.ID, "panic": r}).Error("Job panicked")
			_ = p.manager.FailJob(job.ID, &JobError{
				Code:    "internal_error",
				Message: fmt.Sprintf("execution panic: %v", r),
			})
		}
	}()

	progress := backtest.ProgressFunc(func(_ time.Time, done, total, races int) {
		percent := 0.0
		if total > 0 {
			percent = float64(done) / float64(total) * 100
		}
		_ = p.manager.UpdateProgress(job.ID, Progress{
			Percent:        percent,
			DaysProcessed:  done,
			DaysTotal:      total,
			RacesProcessed: races,
		})
	})

	result, err := p.runner.Execute(runCtx, job.Params, progress)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			// CancelJob usually made the terminal transition already;
			// pool shutdown is the other path and gets recorded here
			shutdownErr := func(j *Job) {
				j.Error = &JobError{Code: "cancelled", Message: "run interrupted by shutdown", Retryable: false}
			}
			if _, finishErr := p.manager.finish(job.ID, StatusCancelled, shutdownErr); finishErr != nil && !errors.Is(finishErr, ErrInvalidTransition) {
				p.logger.WithFields(logrus.Fields{"job_id": job.ID, "error": finishErr}).Warn("Could not record cancellation")
			}
			return
		}
		_ = p.manager.FailJob(job.ID, classifyError(err))
		return
	}

	if err := p.manager.CompleteJob(job.ID, result); err != nil {
		p.logger.WithFields(logrus.Fields{"job_id": job.ID, "error": err}).Warn("Could not record completion")
		return
	}
	metrics.RecordRun(result.Meta.Duration.Seconds(), result.Meta.RacesProcessed, result.Meta.RacesSkipped, result.Meta.RaceErrors)
}

// classifyError maps execution failures to a job error with a stable code
func classifyError(err error) *JobError {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return &JobError{Code: "data_unavailable", Message: err.Error(), Retryable: true}
	case errors.Is(err, context.DeadlineExceeded):
		return &JobError{Code: "timeout", Message: err.Error(), Retryable: true}
	default:
		return &JobError{Code: "execution_failed", Message: err.Error()}
	}
}
