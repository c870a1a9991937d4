package metrics

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryInitializesOnce(t *testing.T) {
	first := InitRegistry()
	second := GetRegistry()
	assert.Same(t, first, second)
}

func TestHandlerServesMetrics(t *testing.T) {
	RecordJobSubmitted()
	RecordJobFinished("completed")
	RecordRun(1.5, 10, 2, 1)
	RecordResultExpired()

	recorder := httptest.NewRecorder()
	Handler().ServeHTTP(recorder, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, recorder.Code)
	body := recorder.Body.String()
	assert.Contains(t, body, "turfsim_jobs_submitted_total")
	assert.Contains(t, body, `turfsim_jobs_finished_total{status="completed"}`)
	assert.Contains(t, body, "turfsim_races_processed_total")
	assert.Contains(t, body, "turfsim_run_duration_seconds")
}
