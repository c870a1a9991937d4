package datasource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/turfsim/internal/models"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func fixtureRace(start time.Time) *models.Race {
	return &models.Race{
		ID:             uuid.New(),
		ScheduledStart: start,
		Track:          "Randwick",
		RaceType:       "flat",
		RaceNumber:     1,
		Distance:       1200,
		FieldSize:      8,
		Status:         models.RaceStatusFinished,
	}
}

func TestMemorySourceRacesForDate(t *testing.T) {
	src := NewMemorySource()
	day := time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)

	late := fixtureRace(day.Add(15 * time.Hour))
	early := fixtureRace(day.Add(12 * time.Hour))
	otherDay := fixtureRace(day.AddDate(0, 0, 1).Add(12 * time.Hour))

	src.AddRace(late, nil, nil, nil)
	src.AddRace(early, nil, nil, nil)
	src.AddRace(otherDay, nil, nil, nil)

	races, err := src.RacesForDate(context.Background(), day.Add(9*time.Hour))
	require.NoError(t, err)
	require.Len(t, races, 2)
	assert.Equal(t, early.ID, races[0].ID)
	assert.Equal(t, late.ID, races[1].ID)

	empty, err := src.RacesForDate(context.Background(), day.AddDate(0, 0, 7))
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMemorySourceOddsAsOf(t *testing.T) {
	src := NewMemorySource()
	race := fixtureRace(time.Date(2024, 3, 9, 14, 0, 0, 0, time.UTC))
	entrantID := uuid.New()

	odds := func(minutesBefore int, winOdds float64) *models.OddsSnapshot {
		w := winOdds
		return &models.OddsSnapshot{
			Time:      race.ScheduledStart.Add(-time.Duration(minutesBefore) * time.Minute),
			RaceID:    race.ID,
			EntrantID: entrantID,
			WinOdds:   &w,
		}
	}
	src.AddRace(race, nil, []*models.OddsSnapshot{
		odds(30, 6.0),
		odds(10, 5.0),
		odds(2, 4.5),
	}, nil)

	snapshots, err := src.OddsForRace(context.Background(), race.ID, race.ScheduledStart.Add(-5*time.Minute))
	require.NoError(t, err)
	require.Contains(t, snapshots, entrantID)
	// latest quote not after the cutoff wins; the 2-minute one is excluded
	assert.Equal(t, 5.0, snapshots[entrantID].GetWinOdds())
}

func TestMemorySourceMissingResult(t *testing.T) {
	src := NewMemorySource()
	race := fixtureRace(time.Date(2024, 3, 9, 14, 0, 0, 0, time.UTC))
	src.AddRace(race, nil, nil, nil)

	_, err := src.ResultForRace(context.Background(), race.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrNotFound))

	var srcErr *SourceError
	require.True(t, errors.As(err, &srcErr))
	assert.Equal(t, ErrCodeNotFound, srcErr.Code)
}

func TestHTTPClientRetriesTransientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := DefaultHTTPClientConfig()
	cfg.RetryWaitMin = time.Millisecond
	cfg.RetryWaitMax = 5 * time.Millisecond
	client := NewRateLimitedHTTPClient(cfg, testLogger())
	defer client.Close()

	resp, err := client.Get(context.Background(), server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(3), calls.Load())
}

func TestHTTPClientHonoursCancelledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewRateLimitedHTTPClient(DefaultHTTPClientConfig(), testLogger())
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Get(ctx, server.URL)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHTTPClientCircuitBreakerOpens(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cfg := DefaultHTTPClientConfig()
	cfg.MaxRetries = 0
	cfg.RetryWaitMin = time.Millisecond
	cfg.RetryWaitMax = time.Millisecond
	cfg.CircuitBreakerMax = 2
	client := NewRateLimitedHTTPClient(cfg, testLogger())
	defer client.Close()

	for i := 0; i < 2; i++ {
		_, err := client.Get(context.Background(), server.URL)
		require.Error(t, err)
	}

	_, err := client.Get(context.Background(), server.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit breaker open")
}

func TestRemoteSourceRacesForDate(t *testing.T) {
	raceID := uuid.New()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "2024-03-09", r.URL.Query().Get("date"))
		fmt.Fprintf(w, `[{
			"id": %q,
			"track": "Randwick",
			"race_type": "flat",
			"race_number": 3,
			"scheduled_start": "2024-03-09T14:30:00Z",
			"distance": 1600,
			"field_size": 10,
			"status": "finished"
		}]`, raceID)
	}))
	defer server.Close()

	src := NewRemoteSource(server.URL, "test-key", DefaultHTTPClientConfig(), testLogger())
	defer src.Close()

	races, err := src.RacesForDate(context.Background(), time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, races, 1)
	assert.Equal(t, raceID, races[0].ID)
	assert.Equal(t, "Randwick", races[0].Track)
	assert.Equal(t, 3, races[0].RaceNumber)
	assert.Equal(t, time.Date(2024, 3, 9, 14, 30, 0, 0, time.UTC), races[0].ScheduledStart)
}

func TestRemoteSourceResultNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	src := NewRemoteSource(server.URL, "test-key", DefaultHTTPClientConfig(), testLogger())
	defer src.Close()

	_, err := src.ResultForRace(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestRemoteSourceParsesResult(t *testing.T) {
	raceID := uuid.New()
	first, second := uuid.New(), uuid.New()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{
			"race_id": %q,
			"settled_at": "2024-03-09T14:35:00Z",
			"status": "completed",
			"places_paid": 3,
			"win_dividend": "4.50",
			"place_dividends": ["1.80", "2.10", "3.40"],
			"quinella_dividend": "12.60",
			"finishers": [
				{"entrant_id": %q, "number": 5, "position": 1},
				{"entrant_id": %q, "number": 2, "position": 2}
			]
		}`, raceID, first, second)
	}))
	defer server.Close()

	src := NewRemoteSource(server.URL, "test-key", DefaultHTTPClientConfig(), testLogger())
	defer src.Close()

	result, err := src.ResultForRace(context.Background(), raceID)
	require.NoError(t, err)
	assert.Equal(t, "completed", result.Status)
	assert.Equal(t, "4.5", result.WinDividend.String())
	assert.Equal(t, "12.6", result.QuinellaDividend.String())
	require.Len(t, result.PlaceDividends, 3)
	assert.Equal(t, 5, result.WinnerNumber())

	low, high, ok := result.QuinellaNumbers()
	require.True(t, ok)
	assert.Equal(t, 2, low)
	assert.Equal(t, 5, high)
}
