package spider

import (
	"sync"
	"time"

	"go-jobspider/internal/models"
)

// MetricsCollector accumulates the counters of one crawl run. It does no I/O
// and is safe to poll from another goroutine.
type MetricsCollector struct {
	mu  sync.Mutex
	m   models.SpiderMetrics
	now func() time.Time
}

func NewMetricsCollector() *MetricsCollector {
	return newMetricsCollector(time.Now)
}

func newMetricsCollector(now func() time.Time) *MetricsCollector {
	return &MetricsCollector{
		m:   models.SpiderMetrics{StartTime: now(), Errors: []models.ErrorRecord{}},
		now: now,
	}
}

func (c *MetricsCollector) RecordSuccess() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m.SuccessfulScrapes++
}

func (c *MetricsCollector) RecordFailure(url string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m.FailedScrapes++
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	c.m.Errors = append(c.m.Errors, models.ErrorRecord{URL: url, Error: msg, Timestamp: c.now()})
}

// SetTotalJobs records the number of listings handed back to the caller.
func (c *MetricsCollector) SetTotalJobs(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m.TotalJobs = n
}

// Snapshot returns a copy with EndTime set to now. The live counters are
// left untouched.
func (c *MetricsCollector) Snapshot() models.SpiderMetrics {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.m
	out.Errors = append([]models.ErrorRecord(nil), c.m.Errors...)
	end := c.now()
	out.EndTime = &end
	return out
}
