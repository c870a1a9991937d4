package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPinger struct {
	err error
}

func (s *stubPinger) Ping(ctx context.Context) error {
	return s.err
}

type stubPool struct {
	running bool
	queued  int
}

func (s *stubPool) Running() bool   { return s.running }
func (s *stubPool) QueueDepth() int { return s.queued }

func get(t *testing.T, handler http.Handler, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestHealthEndpointReportsBuildInfo(t *testing.T) {
	srv := NewServer(Config{ServiceName: "turfsim", Version: "1.2.3", Commit: "abc123"})

	rec, body := get(t, srv.Handler(), "/health")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "turfsim", body["service"])
	assert.Equal(t, "1.2.3", body["version"])
	assert.Equal(t, "abc123", body["commit"])
	assert.NotEmpty(t, body["uptime"])
}

func TestLiveEndpointAlwaysOK(t *testing.T) {
	srv := NewServer(Config{ServiceName: "turfsim"})

	rec, body := get(t, srv.Handler(), "/live")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
}

func TestReadyBeforeStartupIsUnavailable(t *testing.T) {
	srv := NewServer(Config{ServiceName: "turfsim"})

	rec, body := get(t, srv.Handler(), "/ready")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "not_ready", body["status"])
}

func TestReadyChecksDatabaseAndWorkers(t *testing.T) {
	db := &stubPinger{}
	pool := &stubPool{running: true, queued: 2}
	srv := NewServer(Config{ServiceName: "turfsim", DB: db, Pool: pool})
	srv.SetReady(true)

	rec, body := get(t, srv.Handler(), "/ready")
	require.Equal(t, http.StatusOK, rec.Code)
	checks := body["checks"].(map[string]any)
	assert.Equal(t, "ok", checks["database"])
	assert.Equal(t, "ok (queued=2)", checks["workers"])

	db.err = errors.New("connection refused")
	rec, body = get(t, srv.Handler(), "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "not_ready", body["status"])

	db.err = nil
	pool.running = false
	rec, body = get(t, srv.Handler(), "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	checks = body["checks"].(map[string]any)
	assert.Equal(t, "stopped", checks["workers"])
}
