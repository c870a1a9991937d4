// Package datasource provides access to historical racing data: race
// cards, fields, odds snapshots and settled results. Implementations
// cover a remote HTTP provider, postgres-backed storage and an
// in-memory fixture source.
package datasource

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/turfsim/internal/models"
)

// HistoricalSource supplies the data one simulation run consumes.
type HistoricalSource interface {
	// RacesForDate retrieves all races scheduled on the given calendar
	// day (UTC). A day with no racing returns an empty slice, not an
	// error.
	RacesForDate(ctx context.Context, date time.Time) ([]*models.Race, error)

	// EntrantsForRace retrieves the declared field for one race,
	// scratched entrants included.
	EntrantsForRace(ctx context.Context, raceID uuid.UUID) ([]*models.Entrant, error)

	// OddsForRace returns the latest snapshot per entrant taken at or
	// before asOf. Entrants without a quote are absent from the map.
	OddsForRace(ctx context.Context, raceID uuid.UUID, asOf time.Time) (map[uuid.UUID]*models.OddsSnapshot, error)

	// ResultForRace returns the settled result for a race. Races that
	// never settled return an error wrapping models.ErrNotFound.
	ResultForRace(ctx context.Context, raceID uuid.UUID) (*models.SettledResult, error)

	// Name identifies the source in logs and errors.
	Name() string
}

// SourceError carries enough context to tell which provider failed and
// whether the failure is worth retrying.
type SourceError struct {
	Source  string // Data source name
	Code    string // Error code (e.g. "rate_limit_exceeded")
	Message string // Error message
	Err     error  // Underlying error
}

func (e *SourceError) Error() string {
	if e.Err != nil {
		return e.Source + ": " + e.Code + ": " + e.Message + " (" + e.Err.Error() + ")"
	}
	return e.Source + ": " + e.Code + ": " + e.Message
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrCodeRateLimitExceeded    = "rate_limit_exceeded"
	ErrCodeAuthenticationFailed = "authentication_failed"
	ErrCodeNotFound             = "not_found"
	ErrCodeInvalidData          = "invalid_data"
	ErrCodeNetworkError         = "network_error"
	ErrCodeServerError          = "server_error"
)

// NewSourceError creates a new data source error
func NewSourceError(source, code, message string, err error) *SourceError {
	return &SourceError{
		Source:  source,
		Code:    code,
		Message: message,
		Err:     err,
	}
}
