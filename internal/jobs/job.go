// Package jobs manages asynchronous backtest runs: submission, status
// tracking, cancellation and result retention.
package jobs

import (
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/turfsim/internal/backtest"
	"github.com/yourusername/turfsim/internal/models"
)

// Status is the lifecycle state of a job
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// IsTerminal reports whether a job in this status can never change again
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// JobError describes why a job failed
type JobError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

// Progress tracks how far a running job has advanced
type Progress struct {
	Percent        float64 `json:"percent"`
	DaysProcessed  int     `json:"days_processed"`
	DaysTotal      int     `json:"days_total"`
	RacesProcessed int     `json:"races_processed"`
}

// Job is one submitted backtest run
type Job struct {
	ID           uuid.UUID          `json:"id"`
	ClientID     string             `json:"client_id"`
	StrategyName string             `json:"strategy_name"`
	StrategyID   uuid.UUID          `json:"strategy_id,omitempty"`
	Params       backtest.RunParams `json:"-"`
	Status       Status             `json:"status"`
	Progress     Progress           `json:"progress"`
	Error        *JobError          `json:"error,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
	StartedAt    *time.Time         `json:"started_at,omitempty"`
	FinishedAt   *time.Time         `json:"finished_at,omitempty"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

// Clone returns a deep copy so callers never share pointers with the store
func (j *Job) Clone() *Job {
	if j == nil {
		return nil
	}
	clone := *j
	if j.Error != nil {
		errCopy := *j.Error
		clone.Error = &errCopy
	}
	if j.StartedAt != nil {
		t := *j.StartedAt
		clone.StartedAt = &t
	}
	if j.FinishedAt != nil {
		t := *j.FinishedAt
		clone.FinishedAt = &t
	}

	// The strategy's slices must not be shared either, or a caller
	// mutating its copy would reach into the stored record.
	if len(j.Params.Strategy.Rules) > 0 {
		rules := make([]models.ConditionRule, len(j.Params.Strategy.Rules))
		copy(rules, j.Params.Strategy.Rules)
		for i := range rules {
			if rules[i].Threshold != nil {
				th := *rules[i].Threshold
				rules[i].Threshold = &th
			}
		}
		clone.Params.Strategy.Rules = rules
	}
	if len(j.Params.Strategy.Filters.Tracks) > 0 {
		clone.Params.Strategy.Filters.Tracks = append([]string(nil), j.Params.Strategy.Filters.Tracks...)
	}
	if len(j.Params.Strategy.Filters.RaceTypes) > 0 {
		clone.Params.Strategy.Filters.RaceTypes = append([]string(nil), j.Params.Strategy.Filters.RaceTypes...)
	}
	return &clone
}
