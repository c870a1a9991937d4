package jobs

import (
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/turfsim/internal/backtest"
	"github.com/yourusername/turfsim/internal/models"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func validParams() backtest.RunParams {
	return backtest.RunParams{
		Strategy: models.StrategyDefinition{
			Name:    "longshots",
			Rules:   []models.ConditionRule{{Formula: "win_odds >= 5.0"}},
			Sizing:  models.SizingPolicy{Method: models.SizingFixed, Amount: 100},
			BetType: models.BetTypeWin,
		},
		StartDate:      time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC),
		EndDate:        time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
		InitialCapital: 10000,
		DecisionOffset: 5 * time.Minute,
		Seed:           42,
	}
}

func newTestManager(cfg ManagerConfig) *Manager {
	return NewManager(NewMemoryStore(), NewResultStore(time.Hour), cfg, quietLogger())
}

func TestCreateJobValidationStoresNothing(t *testing.T) {
	manager := newTestManager(ManagerConfig{})

	bad := validParams()
	bad.Strategy.Rules = []models.ConditionRule{{Formula: "no_such_variable > 1"}}

	_, err := manager.CreateJob("client-a", bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "strategy rejected")

	noCapital := validParams()
	noCapital.InitialCapital = 0
	_, err = manager.CreateJob("client-a", noCapital)
	require.Error(t, err)

	jobs, err := manager.ListJobs("client-a")
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestJobLifecycle(t *testing.T) {
	manager := newTestManager(ManagerConfig{})

	job, err := manager.CreateJob("client-a", validParams())
	require.NoError(t, err)
	assert.Equal(t, StatusPending, job.Status)
	assert.NotEqual(t, uuid.Nil, job.ID)

	require.NoError(t, manager.StartJob(job.ID))
	running, err := manager.GetJob(job.ID, "client-a")
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, running.Status)
	require.NotNil(t, running.StartedAt)

	require.NoError(t, manager.UpdateProgress(job.ID, Progress{Percent: 50, DaysProcessed: 1, DaysTotal: 2}))
	halfway, err := manager.GetJob(job.ID, "client-a")
	require.NoError(t, err)
	assert.Equal(t, 50.0, halfway.Progress.Percent)

	result := &models.BacktestResult{JobID: job.ID}
	require.NoError(t, manager.CompleteJob(job.ID, result))

	done, err := manager.GetJob(job.ID, "client-a")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, done.Status)
	assert.Equal(t, 100.0, done.Progress.Percent)
	require.NotNil(t, done.FinishedAt)

	got, err := manager.GetResult(job.ID, "client-a")
	require.NoError(t, err)
	assert.Equal(t, job.ID, got.JobID)
}

func TestTerminalStatusIsFinal(t *testing.T) {
	manager := newTestManager(ManagerConfig{})

	job, err := manager.CreateJob("client-a", validParams())
	require.NoError(t, err)
	require.NoError(t, manager.StartJob(job.ID))
	require.NoError(t, manager.CompleteJob(job.ID, &models.BacktestResult{JobID: job.ID}))

	err = manager.FailJob(job.ID, &JobError{Code: "late", Message: "too late"})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = manager.CancelJob(job.ID, "client-a")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	final, err := manager.GetJob(job.ID, "client-a")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, final.Status)
	assert.Nil(t, final.Error)
}

func TestStartCancelledJobIsNoOp(t *testing.T) {
	manager := newTestManager(ManagerConfig{})

	job, err := manager.CreateJob("client-a", validParams())
	require.NoError(t, err)

	cancelled, err := manager.CancelJob(job.ID, "client-a")
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)

	require.NoError(t, manager.StartJob(job.ID))
	after, err := manager.GetJob(job.ID, "client-a")
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, after.Status)
}

func TestCancelledJobCarriesErrorPayload(t *testing.T) {
	manager := newTestManager(ManagerConfig{})

	job, err := manager.CreateJob("client-a", validParams())
	require.NoError(t, err)
	require.NoError(t, manager.StartJob(job.ID))

	cancelled, err := manager.CancelJob(job.ID, "client-a")
	require.NoError(t, err)
	require.NotNil(t, cancelled.Error)
	assert.Equal(t, "cancelled", cancelled.Error.Code)
	assert.False(t, cancelled.Error.Retryable)

	stored, err := manager.GetJob(job.ID, "client-a")
	require.NoError(t, err)
	require.NotNil(t, stored.Error)
	assert.Equal(t, "cancelled", stored.Error.Code)
}

func TestJobCloneIsolatesStrategyRules(t *testing.T) {
	manager := newTestManager(ManagerConfig{})

	job, err := manager.CreateJob("client-a", validParams())
	require.NoError(t, err)

	// mutating the caller's copy must not reach the stored record
	job.Params.Strategy.Rules[0].Formula = "win_odds >= 99.0"

	stored, err := manager.GetJob(job.ID, "client-a")
	require.NoError(t, err)
	assert.Equal(t, "win_odds >= 5.0", stored.Params.Strategy.Rules[0].Formula)
}

func TestProgressIgnoredUnlessRunning(t *testing.T) {
	manager := newTestManager(ManagerConfig{})

	job, err := manager.CreateJob("client-a", validParams())
	require.NoError(t, err)

	require.NoError(t, manager.UpdateProgress(job.ID, Progress{Percent: 10}))
	pending, err := manager.GetJob(job.ID, "client-a")
	require.NoError(t, err)
	assert.Equal(t, 0.0, pending.Progress.Percent)
}

func TestClientScoping(t *testing.T) {
	manager := newTestManager(ManagerConfig{})

	job, err := manager.CreateJob("client-a", validParams())
	require.NoError(t, err)

	_, err = manager.GetJob(job.ID, "client-b")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = manager.CancelJob(job.ID, "client-b")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = manager.GetResult(job.ID, "client-b")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = manager.GetJob(uuid.New(), "client-b")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestGetResultNotReady(t *testing.T) {
	manager := newTestManager(ManagerConfig{})

	job, err := manager.CreateJob("client-a", validParams())
	require.NoError(t, err)

	_, err = manager.GetResult(job.ID, "client-a")
	assert.ErrorIs(t, err, ErrResultNotReady)

	_, err = manager.CancelJob(job.ID, "client-a")
	require.NoError(t, err)
	_, err = manager.GetResult(job.ID, "client-a")
	assert.ErrorIs(t, err, ErrResultNotReady)
}

func TestActiveJobLimit(t *testing.T) {
	manager := newTestManager(ManagerConfig{MaxActivePerClient: 1})

	first, err := manager.CreateJob("client-a", validParams())
	require.NoError(t, err)

	_, err = manager.CreateJob("client-a", validParams())
	assert.ErrorIs(t, err, ErrTooManyActiveJobs)

	// another client is unaffected
	_, err = manager.CreateJob("client-b", validParams())
	require.NoError(t, err)

	// finishing the first frees the slot
	_, err = manager.CancelJob(first.ID, "client-a")
	require.NoError(t, err)
	_, err = manager.CreateJob("client-a", validParams())
	require.NoError(t, err)
}

func TestPurgeTerminalBefore(t *testing.T) {
	manager := newTestManager(ManagerConfig{})

	done, err := manager.CreateJob("client-a", validParams())
	require.NoError(t, err)
	require.NoError(t, manager.StartJob(done.ID))
	require.NoError(t, manager.CompleteJob(done.ID, &models.BacktestResult{JobID: done.ID}))

	active, err := manager.CreateJob("client-a", validParams())
	require.NoError(t, err)

	purged := manager.PurgeTerminalBefore(time.Now().Add(time.Minute))
	assert.Equal(t, 1, purged)

	_, err = manager.GetJob(done.ID, "client-a")
	assert.ErrorIs(t, err, ErrJobNotFound)
	_, err = manager.GetJob(active.ID, "client-a")
	require.NoError(t, err)
}
