package spider

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsCollector_Snapshot(t *testing.T) {
	clock := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	c := newMetricsCollector(func() time.Time { return clock })

	c.RecordSuccess()
	clock = clock.Add(time.Minute)
	c.RecordFailure("https://jobs.example.com/1", errors.New("boom"))
	c.SetTotalJobs(12)

	clock = clock.Add(time.Minute)
	snap := c.Snapshot()

	assert.Equal(t, 12, snap.TotalJobs)
	assert.Equal(t, 1, snap.SuccessfulScrapes)
	assert.Equal(t, 1, snap.FailedScrapes)
	assert.Equal(t, time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC), snap.StartTime)
	require.NotNil(t, snap.EndTime)
	assert.Equal(t, clock, *snap.EndTime)
	require.Len(t, snap.Errors, 1)
	assert.Equal(t, "boom", snap.Errors[0].Error)
	assert.Equal(t, time.Date(2026, 10, 1, 9, 1, 0, 0, time.UTC), snap.Errors[0].Timestamp)
}

func TestMetricsCollector_SnapshotDoesNotAlias(t *testing.T) {
	c := NewMetricsCollector()
	c.RecordFailure("u", errors.New("first"))

	snap := c.Snapshot()
	snap.Errors[0].Error = "mutated"
	snap.FailedScrapes = 99

	again := c.Snapshot()
	assert.Equal(t, "first", again.Errors[0].Error)
	assert.Equal(t, 1, again.FailedScrapes)
}
