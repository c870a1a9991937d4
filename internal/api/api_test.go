package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/turfsim/internal/backtest"
	"github.com/yourusername/turfsim/internal/config"
	"github.com/yourusername/turfsim/internal/jobs"
	"github.com/yourusername/turfsim/internal/models"
)

// syncRunner completes instantly with a canned result
type syncRunner struct{}

func (syncRunner) Execute(_ context.Context, params backtest.RunParams, progress backtest.ProgressSink) (*models.BacktestResult, error) {
	if progress != nil {
		progress.Report(params.StartDate, 1, 1, 3)
	}
	return &models.BacktestResult{
		JobID: params.JobID,
		Summary: models.ResultSummary{
			InitialCapital: params.InitialCapital,
			FinalCapital:   params.InitialCapital * 1.1,
			TotalBets:      3,
		},
		Bets:        []models.BetRecord{{Stake: 100, Payout: 300, Outcome: models.BetOutcomeWon}},
		EquityCurve: models.EquityCurve{{Capital: params.InitialCapital * 1.1}},
	}, nil
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Port: 8080, ReadTimeoutSeconds: 5, WriteTimeoutSeconds: 10},
		Backtest: config.BacktestConfig{
			InitialCapital:        10000,
			DecisionOffsetMinutes: 5,
			CommissionRate:        0.05,
			CancelGranularity:     "day",
		},
	}
}

type testHarness struct {
	manager *jobs.Manager
	pool    *jobs.Pool
	ts      *httptest.Server
}

func newHarness(t *testing.T, resultTTL time.Duration, startPool bool) *testHarness {
	t.Helper()
	manager := jobs.NewManager(jobs.NewMemoryStore(), jobs.NewResultStore(resultTTL), jobs.ManagerConfig{}, quietLogger())
	pool := jobs.NewPool(manager, syncRunner{}, 1, quietLogger())
	if startPool {
		pool.Start(context.Background())
		t.Cleanup(pool.Stop)
	}

	server := NewServer(manager, pool, testConfig(), quietLogger())
	ts := httptest.NewServer(server.Routes())
	t.Cleanup(ts.Close)

	return &testHarness{manager: manager, pool: pool, ts: ts}
}

func (h *testHarness) do(t *testing.T, method, path, clientID string, body any) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequest(method, h.ts.URL+path, reader)
	require.NoError(t, err)
	if clientID != "" {
		req.Header.Set(clientIDHeader, clientID)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	payload, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	return resp, payload
}

func validSubmit() SubmitRequest {
	return SubmitRequest{
		Strategy: models.StrategyDefinition{
			Name:    "longshots",
			Rules:   []models.ConditionRule{{Formula: "win_odds >= 5.0"}},
			Sizing:  models.SizingPolicy{Method: models.SizingFixed, Amount: 100},
			BetType: models.BetTypeWin,
		},
		StartDate: "2024-03-09",
		EndDate:   "2024-03-10",
		Seed:      42,
	}
}

func (h *testHarness) submitAndWait(t *testing.T, clientID string) uuid.UUID {
	t.Helper()
	resp, body := h.do(t, http.MethodPost, "/api/v1/backtests", clientID, validSubmit())
	require.Equal(t, http.StatusAccepted, resp.StatusCode, string(body))

	var job jobs.Job
	require.NoError(t, json.Unmarshal(body, &job))

	require.Eventually(t, func() bool {
		current, err := h.manager.GetJob(job.ID, clientID)
		return err == nil && current.Status == jobs.StatusCompleted
	}, 2*time.Second, 10*time.Millisecond)
	return job.ID
}

func TestSubmitRequiresClientHeader(t *testing.T) {
	h := newHarness(t, time.Hour, true)
	resp, body := h.do(t, http.MethodPost, "/api/v1/backtests", "", validSubmit())
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), clientIDHeader)
}

func TestSubmitRejectsBadPayloads(t *testing.T) {
	h := newHarness(t, time.Hour, true)

	badFormula := validSubmit()
	badFormula.Strategy.Rules = []models.ConditionRule{{Formula: "win_odds >="}}
	resp, body := h.do(t, http.MethodPost, "/api/v1/backtests", "client-a", badFormula)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "strategy rejected")

	badDate := validSubmit()
	badDate.StartDate = "09/03/2024"
	resp, body = h.do(t, http.MethodPost, "/api/v1/backtests", "client-a", badDate)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "YYYY-MM-DD")

	// nothing was stored for either attempt
	list, err := h.manager.ListJobs("client-a")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestSubmitAndFetchResult(t *testing.T) {
	h := newHarness(t, time.Hour, true)
	jobID := h.submitAndWait(t, "client-a")

	resp, body := h.do(t, http.MethodGet, "/api/v1/backtests/"+jobID.String(), "client-a", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var job jobs.Job
	require.NoError(t, json.Unmarshal(body, &job))
	assert.Equal(t, jobs.StatusCompleted, job.Status)
	assert.Equal(t, 100.0, job.Progress.Percent)

	resp, body = h.do(t, http.MethodGet, "/api/v1/backtests/"+jobID.String()+"/result", "client-a", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var result models.BacktestResult
	require.NoError(t, json.Unmarshal(body, &result))
	assert.Equal(t, jobID, result.JobID)
	assert.Len(t, result.Bets, 1)

	resp, body = h.do(t, http.MethodGet, "/api/v1/backtests/"+jobID.String()+"/result?summary=true", "client-a", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var summary models.BacktestResult
	require.NoError(t, json.Unmarshal(body, &summary))
	assert.Empty(t, summary.Bets)
	assert.Empty(t, summary.EquityCurve)
	assert.Equal(t, 3, summary.Summary.TotalBets)
}

func TestResultStatusCodes(t *testing.T) {
	h := newHarness(t, time.Hour, false)

	// unknown job
	resp, _ := h.do(t, http.MethodGet, "/api/v1/backtests/"+uuid.NewString()+"/result", "client-a", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// malformed id
	resp, _ = h.do(t, http.MethodGet, "/api/v1/backtests/not-a-uuid/result", "client-a", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// pending job: result not ready
	resp, body := h.do(t, http.MethodPost, "/api/v1/backtests", "client-a", validSubmit())
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	var job jobs.Job
	require.NoError(t, json.Unmarshal(body, &job))

	resp, _ = h.do(t, http.MethodGet, "/api/v1/backtests/"+job.ID.String()+"/result", "client-a", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// another client sees neither status nor result
	resp, _ = h.do(t, http.MethodGet, "/api/v1/backtests/"+job.ID.String(), "client-b", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp, _ = h.do(t, http.MethodGet, "/api/v1/backtests/"+job.ID.String()+"/result", "client-b", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestExpiredResultIsGone(t *testing.T) {
	h := newHarness(t, 20*time.Millisecond, true)
	jobID := h.submitAndWait(t, "client-a")

	time.Sleep(60 * time.Millisecond)

	resp, _ := h.do(t, http.MethodGet, fmt.Sprintf("/api/v1/backtests/%s/result", jobID), "client-a", nil)
	assert.Equal(t, http.StatusGone, resp.StatusCode)
}

func TestCancelEndpoint(t *testing.T) {
	h := newHarness(t, time.Hour, false)

	resp, body := h.do(t, http.MethodPost, "/api/v1/backtests", "client-a", validSubmit())
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	var job jobs.Job
	require.NoError(t, json.Unmarshal(body, &job))

	resp, body = h.do(t, http.MethodPost, "/api/v1/backtests/"+job.ID.String()+"/cancel", "client-a", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var cancelled jobs.Job
	require.NoError(t, json.Unmarshal(body, &cancelled))
	assert.Equal(t, jobs.StatusCancelled, cancelled.Status)

	// cancelling a terminal job conflicts
	resp, _ = h.do(t, http.MethodPost, "/api/v1/backtests/"+job.ID.String()+"/cancel", "client-a", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestListJobs(t *testing.T) {
	h := newHarness(t, time.Hour, true)
	h.submitAndWait(t, "client-a")
	h.submitAndWait(t, "client-a")

	resp, body := h.do(t, http.MethodGet, "/api/v1/backtests", "client-a", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var listing struct {
		Jobs []jobs.Job `json:"jobs"`
	}
	require.NoError(t, json.Unmarshal(body, &listing))
	assert.Len(t, listing.Jobs, 2)

	resp, body = h.do(t, http.MethodGet, "/api/v1/backtests", "client-b", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &listing))
	assert.Empty(t, listing.Jobs)
}
