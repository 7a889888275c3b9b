package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-jobspider/internal/config"
	"go-jobspider/internal/dedup"
	"go-jobspider/internal/logging"
	"go-jobspider/internal/models"
	"go-jobspider/internal/spider"
	"go-jobspider/internal/store"
)

// backend is the site every fake spider talks to.
type backend struct {
	mu              sync.Mutex
	listings        []models.JobListing
	listingFailures int
	// detailFailures counts remaining failures per id; negative fails forever.
	detailFailures map[string]int

	listingCalls int
	detailCalls  map[string]int
	spiders      []int
	cleanups     int
}

func newBackend(listings ...models.JobListing) *backend {
	return &backend{listings: listings, detailFailures: map[string]int{}, detailCalls: map[string]int{}}
}

func (b *backend) factory(worker int) Spider {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.spiders = append(b.spiders, worker)
	return &fakeSpider{b: b, metrics: spider.NewMetricsCollector()}
}

type fakeSpider struct {
	b       *backend
	metrics *spider.MetricsCollector
}

func (f *fakeSpider) FetchListings(ctx context.Context, maxRecords int) ([]models.JobListing, error) {
	f.b.mu.Lock()
	defer f.b.mu.Unlock()
	f.b.listingCalls++
	if f.b.listingFailures > 0 {
		f.b.listingFailures--
		err := fmt.Errorf("%w at page 1", spider.ErrNoResultsFound)
		f.metrics.RecordFailure("https://jobs.example.test", err)
		return nil, err
	}
	f.metrics.SetTotalJobs(len(f.b.listings))
	f.metrics.RecordSuccess()
	return append([]models.JobListing(nil), f.b.listings...), nil
}

func (f *fakeSpider) FetchDetails(ctx context.Context, l models.JobListing) (*models.JobDetails, error) {
	f.b.mu.Lock()
	defer f.b.mu.Unlock()
	f.b.detailCalls[l.ID]++
	if l.URL == "" {
		return nil, spider.ErrMissingDetailURL
	}
	if n := f.b.detailFailures[l.ID]; n != 0 {
		f.b.detailFailures[l.ID] = n - 1
		err := fmt.Errorf("%w: %s", spider.ErrNavigationFailure, l.URL)
		f.metrics.RecordFailure(l.URL, err)
		return nil, err
	}
	f.metrics.RecordSuccess()
	return &models.JobDetails{JobListing: l, JobType: "Full-Time"}, nil
}

func (f *fakeSpider) Metrics() models.SpiderMetrics { return f.metrics.Snapshot() }

func (f *fakeSpider) Cleanup() error {
	f.b.mu.Lock()
	defer f.b.mu.Unlock()
	f.b.cleanups++
	return nil
}

type memSink struct {
	results []store.Result
	err     error
}

func (m *memSink) Save(ctx context.Context, result store.Result) error {
	m.results = append(m.results, result)
	return m.err
}

type fakeNotifier struct {
	summaries []store.Result
	errs      []error
}

func (n *fakeNotifier) SendSummary(ctx context.Context, result store.Result) error {
	n.summaries = append(n.summaries, result)
	return nil
}

func (n *fakeNotifier) SendError(ctx context.Context, runID string, err error) error {
	n.errs = append(n.errs, err)
	return nil
}

var testNow = time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)

func listing(id, closing string) models.JobListing {
	return models.JobListing{
		ID:          id,
		Title:       "Job " + id,
		URL:         "https://jobs.example.test/job/" + id,
		ClosingDate: closing,
		Salary:      models.DefaultSalary,
	}
}

func testConfig(workers, attempts int) *config.Config {
	cfg := config.Default()
	cfg.Spider.MaxConcurrency = workers
	cfg.Spider.RetryAttempts = attempts
	cfg.Spider.RetryDelay = time.Millisecond
	return cfg
}

func newTestRunner(cfg *config.Config, b *backend, opts ...Option) *Runner {
	r := New(cfg, b.factory, append([]Option{WithLogger(logging.Discard)}, opts...)...)
	r.now = func() time.Time { return testNow }
	return r
}

func jobIDs(jobs []models.JobDetails) []string {
	ids := []string{}
	for _, j := range jobs {
		ids = append(ids, j.ID)
	}
	return ids
}

func TestRun_Pipeline(t *testing.T) {
	b := newBackend(
		listing("1001", "30 Nov 2026"),
		listing("1002", "01 Oct 2026"),
		listing("1003", "30 Nov 2026"),
		listing("1004", ""),
		listing("1005", "30 Nov 2026"),
	)
	cfg := testConfig(2, 2)
	cfg.Filter.SkipClosed = true

	seen := dedup.NewSeenCache(t.TempDir(), time.Hour)
	seen.Add("1003")
	sink := &memSink{}
	notifier := &fakeNotifier{}
	r := newTestRunner(cfg, b, WithSeenSet(seen), WithSinks(sink), WithNotifier(notifier))

	result, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, []string{"1001", "1004", "1005"}, jobIDs(result.Jobs))
	assert.Equal(t, map[string]int{"closed": 1, ReasonSeen: 1}, result.Skipped)

	assert.Equal(t, 5, result.Metrics.TotalJobs)
	assert.Equal(t, 4, result.Metrics.SuccessfulScrapes)
	assert.Equal(t, 0, result.Metrics.FailedScrapes)
	assert.NotNil(t, result.Metrics.EndTime)

	assert.ElementsMatch(t, []int{0, 1}, b.spiders)
	assert.Equal(t, 2, b.cleanups)
	assert.True(t, seen.IsSeen("1001"))
	assert.True(t, seen.IsSeen("1005"))
	assert.False(t, seen.IsSeen("1002"))

	require.Len(t, sink.results, 1)
	assert.Equal(t, result, sink.results[0])
	require.Len(t, notifier.summaries, 1)
	assert.Empty(t, notifier.errs)
}

func TestRun_SecondRunSkipsSeen(t *testing.T) {
	b := newBackend(listing("1001", ""), listing("1002", ""))
	seen := dedup.NewSeenCache(t.TempDir(), time.Hour)
	cfg := testConfig(1, 1)

	first, err := newTestRunner(cfg, b, WithSeenSet(seen)).Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, first.Jobs, 2)

	second, err := newTestRunner(cfg, b, WithSeenSet(seen)).Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, second.Jobs)
	assert.Equal(t, 2, second.Skipped[ReasonSeen])
	assert.Equal(t, 2, b.detailCalls["1001"]+b.detailCalls["1002"])
}

func TestRun_ListingRetry(t *testing.T) {
	b := newBackend(listing("1001", ""))
	b.listingFailures = 2

	result, err := newTestRunner(testConfig(1, 3), b).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, b.listingCalls)
	assert.Len(t, result.Jobs, 1)
	assert.Equal(t, 2, result.Metrics.FailedScrapes)
	assert.Equal(t, 2, result.Metrics.SuccessfulScrapes)
}

func TestRun_ListingGivesUp(t *testing.T) {
	b := newBackend(listing("1001", ""))
	b.listingFailures = 5
	sink := &memSink{}
	notifier := &fakeNotifier{}

	result, err := newTestRunner(testConfig(2, 2), b, WithSinks(sink), WithNotifier(notifier)).Run(context.Background())
	assert.ErrorIs(t, err, spider.ErrNoResultsFound)
	assert.Equal(t, 2, b.listingCalls)
	assert.Equal(t, 2, result.Metrics.FailedScrapes)
	assert.Empty(t, sink.results)
	assert.Len(t, notifier.errs, 1)
	assert.Equal(t, 1, b.cleanups)
}

func TestRun_DetailFailuresAreIsolated(t *testing.T) {
	noURL := listing("1004", "")
	noURL.URL = ""
	b := newBackend(listing("1001", ""), listing("1002", ""), listing("1003", ""), noURL)
	b.detailFailures["1002"] = -1
	b.detailFailures["1003"] = 1

	result, err := newTestRunner(testConfig(3, 3), b).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"1001", "1003"}, jobIDs(result.Jobs))
	assert.Equal(t, 1, b.detailCalls["1001"])
	assert.Equal(t, 3, b.detailCalls["1002"])
	assert.Equal(t, 2, b.detailCalls["1003"])
	assert.Equal(t, 1, b.detailCalls["1004"], "missing url is not retried")
	assert.Equal(t, 4, result.Metrics.FailedScrapes)
	assert.Equal(t, 3, result.Metrics.SuccessfulScrapes)
	assert.Len(t, result.Metrics.Errors, 4)
}

func TestRun_SinkError(t *testing.T) {
	b := newBackend(listing("1001", ""))
	good := &memSink{}
	bad := &memSink{err: errors.New("disk full")}

	result, err := newTestRunner(testConfig(1, 1), b, WithSinks(bad, good)).Run(context.Background())
	assert.ErrorContains(t, err, "disk full")
	assert.Len(t, result.Jobs, 1)
	assert.Len(t, good.results, 1)
}

func TestRun_NoPendingListings(t *testing.T) {
	b := newBackend(listing("1001", "01 Jan 2026"))
	cfg := testConfig(4, 1)
	cfg.Filter.SkipClosed = true

	result, err := newTestRunner(cfg, b).Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, result.Jobs)
	assert.Equal(t, 1, result.Metrics.TotalJobs)
	assert.Equal(t, 1, result.Metrics.SuccessfulScrapes)
	assert.Equal(t, []int{0}, b.spiders)
}

func TestRun_Cancelled(t *testing.T) {
	b := newBackend(listing("1001", ""))
	b.listingFailures = 1
	cfg := testConfig(1, 3)
	cfg.Spider.RetryDelay = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, err := newTestRunner(cfg, b).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, b.listingCalls)
}
