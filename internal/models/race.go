package models

import (
	"time"

	"github.com/google/uuid"
)

// RaceStatus represents the lifecycle status of a historical race record
type RaceStatus string

const (
	RaceStatusScheduled RaceStatus = "scheduled"
	RaceStatusFinished  RaceStatus = "finished"
	RaceStatusAbandoned RaceStatus = "abandoned"
)

// Race represents a single historical race
type Race struct {
	ID             uuid.UUID  `db:"id" json:"id" validate:"required,uuid4"`
	ScheduledStart time.Time  `db:"scheduled_start" json:"scheduled_start" validate:"required"`
	Track          string     `db:"track" json:"track" validate:"required"`
	RaceType       string     `db:"race_type" json:"race_type" validate:"required"`
	RaceNumber     int        `db:"race_number" json:"race_number"`
	Distance       int        `db:"distance" json:"distance" validate:"required,gt=0"`
	Grade          string     `db:"grade" json:"grade"`
	Going          string     `db:"going" json:"going"`
	FieldSize      int        `db:"field_size" json:"field_size"`
	Status         RaceStatus `db:"status" json:"status" validate:"oneof=scheduled finished abandoned"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// IsFinished checks if the race has a usable outcome
func (r *Race) IsFinished() bool {
	return r.Status == RaceStatusFinished
}

// Day returns the race date truncated to midnight UTC
func (r *Race) Day() time.Time {
	t := r.ScheduledStart.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// MinutesToPost returns minutes between the given decision time and the off
func (r *Race) MinutesToPost(decisionTime time.Time) float64 {
	return r.ScheduledStart.Sub(decisionTime).Minutes()
}
