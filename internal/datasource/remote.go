package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/turfsim/internal/models"
)

const remoteSourceName = "remote"

// RemoteSource fetches historical racing data from the hosted form-data
// API. All endpoints are read-only GETs authenticated with a bearer
// token.
type RemoteSource struct {
	baseURL    string
	apiKey     string
	httpClient *RateLimitedHTTPClient
	logger     *logrus.Logger
}

// NewRemoteSource creates a remote source against the given base URL
func NewRemoteSource(baseURL, apiKey string, httpCfg HTTPClientConfig, logger *logrus.Logger) *RemoteSource {
	return &RemoteSource{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: NewRateLimitedHTTPClient(httpCfg, logger),
		logger:     logger,
	}
}

// Name identifies the source in logs and errors
func (s *RemoteSource) Name() string {
	return remoteSourceName
}

// Close releases the underlying HTTP client
func (s *RemoteSource) Close() error {
	return s.httpClient.Close()
}

// remoteRace mirrors the provider's race payload
type remoteRace struct {
	ID             string  `json:"id"`
	Track          string  `json:"track"`
	RaceType       string  `json:"race_type"`
	RaceNumber     int     `json:"race_number"`
	ScheduledStart string  `json:"scheduled_start"`
	Distance       int     `json:"distance"`
	Grade          *string `json:"grade"`
	Going          *string `json:"going"`
	FieldSize      int     `json:"field_size"`
	Status         string  `json:"status"`
}

type remoteEntrant struct {
	ID               string   `json:"id"`
	Number           int      `json:"number"`
	Name             string   `json:"name"`
	Jockey           *string  `json:"jockey"`
	Trainer          *string  `json:"trainer"`
	Weight           *float64 `json:"weight"`
	FormRating       *float64 `json:"form_rating"`
	DaysSinceLastRun *int     `json:"days_since_last_run"`
	CareerStarts     int      `json:"career_starts"`
	CareerWins       int      `json:"career_wins"`
	CareerPlaces     int      `json:"career_places"`
	Scratched        bool     `json:"scratched"`
}

type remoteOdds struct {
	EntrantID  string   `json:"entrant_id"`
	Time       string   `json:"time"`
	WinOdds    *float64 `json:"win_odds"`
	PlaceOdds  *float64 `json:"place_odds"`
	PoolVolume *float64 `json:"pool_volume"`
}

type remoteResult struct {
	RaceID           string   `json:"race_id"`
	SettledAt        string   `json:"settled_at"`
	Status           string   `json:"status"`
	PlacesPaid       int      `json:"places_paid"`
	WinDividend      string   `json:"win_dividend"`
	PlaceDividends   []string `json:"place_dividends"`
	QuinellaDividend string   `json:"quinella_dividend"`
	Finishers        []struct {
		EntrantID string  `json:"entrant_id"`
		Number    int     `json:"number"`
		Position  int     `json:"position"`
		Margin    *string `json:"margin"`
	} `json:"finishers"`
}

// RacesForDate retrieves the full card for one calendar day
func (s *RemoteSource) RacesForDate(ctx context.Context, date time.Time) ([]*models.Race, error) {
	url := fmt.Sprintf("%s/v1/races?date=%s", s.baseURL, date.UTC().Format("2006-01-02"))

	var payload []remoteRace
	if err := s.getJSON(ctx, url, &payload); err != nil {
		return nil, err
	}

	races := make([]*models.Race, 0, len(payload))
	for _, rr := range payload {
		race, err := s.convertRace(&rr)
		if err != nil {
			s.logger.WithFields(logrus.Fields{
				"race_id": rr.ID,
				"error":   err,
			}).Warn("Skipping unparseable race")
			continue
		}
		races = append(races, race)
	}
	return races, nil
}

// EntrantsForRace retrieves the declared field for one race
func (s *RemoteSource) EntrantsForRace(ctx context.Context, raceID uuid.UUID) ([]*models.Entrant, error) {
	url := fmt.Sprintf("%s/v1/races/%s/entrants", s.baseURL, raceID)

	var payload []remoteEntrant
	if err := s.getJSON(ctx, url, &payload); err != nil {
		return nil, err
	}

	entrants := make([]*models.Entrant, 0, len(payload))
	for _, re := range payload {
		id, err := uuid.Parse(re.ID)
		if err != nil {
			return nil, NewSourceError(remoteSourceName, ErrCodeInvalidData, "invalid entrant id", err)
		}
		entrant := &models.Entrant{
			ID:                id,
			RaceID:            raceID,
			Number:            re.Number,
			Name:              re.Name,
			Weight:            re.Weight,
			FormRating:        re.FormRating,
			DaysSinceLastRace: re.DaysSinceLastRun,
			CareerStarts:      re.CareerStarts,
			CareerWins:        re.CareerWins,
			CareerPlaces:      re.CareerPlaces,
			Scratched:         re.Scratched,
		}
		if re.Jockey != nil {
			entrant.Jockey = *re.Jockey
		}
		if re.Trainer != nil {
			entrant.Trainer = *re.Trainer
		}
		entrants = append(entrants, entrant)
	}
	return entrants, nil
}

// OddsForRace returns the latest snapshot per entrant at or before asOf
func (s *RemoteSource) OddsForRace(ctx context.Context, raceID uuid.UUID, asOf time.Time) (map[uuid.UUID]*models.OddsSnapshot, error) {
	url := fmt.Sprintf("%s/v1/races/%s/odds?as_of=%s", s.baseURL, raceID, asOf.UTC().Format(time.RFC3339))

	var payload []remoteOdds
	if err := s.getJSON(ctx, url, &payload); err != nil {
		return nil, err
	}

	snapshots := make(map[uuid.UUID]*models.OddsSnapshot, len(payload))
	for _, ro := range payload {
		entrantID, err := uuid.Parse(ro.EntrantID)
		if err != nil {
			return nil, NewSourceError(remoteSourceName, ErrCodeInvalidData, "invalid entrant id in odds", err)
		}
		ts, err := time.Parse(time.RFC3339, ro.Time)
		if err != nil {
			return nil, NewSourceError(remoteSourceName, ErrCodeInvalidData, "invalid odds timestamp", err)
		}
		if ts.After(asOf) {
			continue
		}
		snapshot := &models.OddsSnapshot{
			Time:       ts,
			RaceID:     raceID,
			EntrantID:  entrantID,
			WinOdds:    ro.WinOdds,
			PlaceOdds:  ro.PlaceOdds,
			PoolVolume: ro.PoolVolume,
		}
		if existing, ok := snapshots[entrantID]; !ok || ts.After(existing.Time) {
			snapshots[entrantID] = snapshot
		}
	}
	return snapshots, nil
}

// ResultForRace returns the settled result for one race
func (s *RemoteSource) ResultForRace(ctx context.Context, raceID uuid.UUID) (*models.SettledResult, error) {
	url := fmt.Sprintf("%s/v1/races/%s/result", s.baseURL, raceID)

	var payload remoteResult
	if err := s.getJSON(ctx, url, &payload); err != nil {
		return nil, err
	}
	return s.convertResult(raceID, &payload)
}

// getJSON performs an authenticated GET and decodes the response body,
// mapping HTTP status codes onto source errors.
func (s *RemoteSource) getJSON(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return NewSourceError(remoteSourceName, ErrCodeNetworkError, "failed to create request", err)
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.apiKey))
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(ctx, req)
	if err != nil {
		return NewSourceError(remoteSourceName, ErrCodeNetworkError, "request failed", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return NewSourceError(remoteSourceName, ErrCodeNotFound, "resource not found", models.ErrNotFound)
	case resp.StatusCode == http.StatusUnauthorized:
		return NewSourceError(remoteSourceName, ErrCodeAuthenticationFailed, "invalid API key", nil)
	case resp.StatusCode == http.StatusTooManyRequests:
		return NewSourceError(remoteSourceName, ErrCodeRateLimitExceeded, "provider rate limit hit", nil)
	case resp.StatusCode != http.StatusOK:
		return NewSourceError(remoteSourceName, ErrCodeServerError, fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return NewSourceError(remoteSourceName, ErrCodeInvalidData, "failed to parse response", err)
	}
	return nil
}

func (s *RemoteSource) convertRace(rr *remoteRace) (*models.Race, error) {
	id, err := uuid.Parse(rr.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid race id %q: %w", rr.ID, err)
	}
	start, err := time.Parse(time.RFC3339, rr.ScheduledStart)
	if err != nil {
		return nil, fmt.Errorf("invalid scheduled start %q: %w", rr.ScheduledStart, err)
	}
	race := &models.Race{
		ID:             id,
		ScheduledStart: start,
		Track:          rr.Track,
		RaceType:       rr.RaceType,
		RaceNumber:     rr.RaceNumber,
		Distance:       rr.Distance,
		FieldSize:      rr.FieldSize,
		Status:         models.RaceStatus(rr.Status),
	}
	if rr.Grade != nil {
		race.Grade = *rr.Grade
	}
	if rr.Going != nil {
		race.Going = *rr.Going
	}
	return race, nil
}

func (s *RemoteSource) convertResult(raceID uuid.UUID, rr *remoteResult) (*models.SettledResult, error) {
	settledAt, err := time.Parse(time.RFC3339, rr.SettledAt)
	if err != nil {
		return nil, NewSourceError(remoteSourceName, ErrCodeInvalidData, "invalid settlement time", err)
	}
	winDiv, err := parseDividend(rr.WinDividend)
	if err != nil {
		return nil, NewSourceError(remoteSourceName, ErrCodeInvalidData, "invalid win dividend", err)
	}
	quinDiv, err := parseDividend(rr.QuinellaDividend)
	if err != nil {
		return nil, NewSourceError(remoteSourceName, ErrCodeInvalidData, "invalid quinella dividend", err)
	}
	placeDivs := make([]decimal.Decimal, 0, len(rr.PlaceDividends))
	for _, raw := range rr.PlaceDividends {
		d, err := parseDividend(raw)
		if err != nil {
			return nil, NewSourceError(remoteSourceName, ErrCodeInvalidData, "invalid place dividend", err)
		}
		placeDivs = append(placeDivs, d)
	}

	result := &models.SettledResult{
		RaceID:           raceID,
		Time:             settledAt,
		Status:           rr.Status,
		PlacesPaid:       rr.PlacesPaid,
		WinDividend:      winDiv,
		PlaceDividends:   placeDivs,
		QuinellaDividend: quinDiv,
		Finishers:        make([]models.FinishEntry, 0, len(rr.Finishers)),
	}
	for _, f := range rr.Finishers {
		entrantID, err := uuid.Parse(f.EntrantID)
		if err != nil {
			return nil, NewSourceError(remoteSourceName, ErrCodeInvalidData, "invalid entrant id in result", err)
		}
		var margin *float64
		if f.Margin != nil {
			var m float64
			if _, err := fmt.Sscanf(*f.Margin, "%f", &m); err == nil {
				margin = &m
			}
		}
		result.Finishers = append(result.Finishers, models.FinishEntry{
			EntrantID: entrantID,
			Number:    f.Number,
			Position:  f.Position,
			Margin:    margin,
		})
	}
	return result, nil
}

// parseDividend parses a dividend string, treating empty as zero
func parseDividend(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(raw)
}
