package jobs

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/turfsim/internal/models"
)

func TestResultStoreExpiryVersusNotFound(t *testing.T) {
	store := NewResultStore(20 * time.Millisecond)

	jobID := uuid.New()
	store.Put(jobID, &models.BacktestResult{JobID: jobID})

	got, err := store.Get(jobID)
	require.NoError(t, err)
	assert.Equal(t, jobID, got.JobID)

	// a job nobody completed is simply unknown
	_, err = store.Get(uuid.New())
	assert.ErrorIs(t, err, ErrJobNotFound)

	time.Sleep(50 * time.Millisecond)

	// the payload is gone but the tombstone remembers completion
	_, err = store.Get(jobID)
	assert.ErrorIs(t, err, ErrResultExpired)
}

func TestResultStoreDelete(t *testing.T) {
	store := NewResultStore(time.Hour)

	jobID := uuid.New()
	store.Put(jobID, &models.BacktestResult{JobID: jobID})
	store.Delete(jobID)

	// deletion removes the tombstone too
	_, err := store.Get(jobID)
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestResultStorePruneTombstones(t *testing.T) {
	store := NewResultStore(10 * time.Millisecond)

	jobID := uuid.New()
	store.Put(jobID, &models.BacktestResult{JobID: jobID})
	time.Sleep(30 * time.Millisecond)

	pruned := store.PruneTombstones(time.Now())
	assert.Equal(t, 1, pruned)

	_, err := store.Get(jobID)
	assert.ErrorIs(t, err, ErrJobNotFound)
}
