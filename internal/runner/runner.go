// Package runner drives one complete crawl: listings, filtering, detail
// extraction across several spiders, persistence and notification.
package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"go-jobspider/internal/browser"
	"go-jobspider/internal/config"
	"go-jobspider/internal/filter"
	"go-jobspider/internal/logging"
	"go-jobspider/internal/models"
	"go-jobspider/internal/spider"
	"go-jobspider/internal/store"
)

// ReasonSeen counts listings an earlier run already extracted.
const ReasonSeen = "seen"

// Spider is the crawl surface the runner drives.
type Spider interface {
	FetchListings(ctx context.Context, maxRecords int) ([]models.JobListing, error)
	FetchDetails(ctx context.Context, listing models.JobListing) (*models.JobDetails, error)
	Metrics() models.SpiderMetrics
	Cleanup() error
}

// SpiderFactory builds the spider for one worker. Worker 0 also fetches the
// listings.
type SpiderFactory func(worker int) Spider

type SeenSet interface {
	IsSeen(jobID string) bool
	Add(jobIDs ...string)
}

type Notifier interface {
	SendSummary(ctx context.Context, result store.Result) error
	SendError(ctx context.Context, runID string, err error) error
}

type Runner struct {
	cfg       *config.Config
	newSpider SpiderFactory
	matcher   *filter.Matcher
	seen      SeenSet
	sinks     []store.Sink
	notifier  Notifier
	log       logging.Logger
	now       func() time.Time
}

type Option func(*Runner)

func WithSeenSet(s SeenSet) Option {
	return func(r *Runner) { r.seen = s }
}

func WithSinks(sinks ...store.Sink) Option {
	return func(r *Runner) { r.sinks = append(r.sinks, sinks...) }
}

func WithNotifier(n Notifier) Option {
	return func(r *Runner) { r.notifier = n }
}

func WithLogger(l logging.Logger) Option {
	return func(r *Runner) { r.log = l }
}

func New(cfg *config.Config, newSpider SpiderFactory, opts ...Option) *Runner {
	r := &Runner{
		cfg:       cfg,
		newSpider: newSpider,
		matcher:   filter.NewMatcher(cfg.Filter),
		log:       logging.New("[runner]"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run performs one crawl. It returns an error when the listings could not be
// fetched or a sink failed; individual detail failures only show up in the
// metrics.
func (r *Runner) Run(ctx context.Context) (store.Result, error) {
	result := store.Result{RunID: uuid.NewString(), Skipped: map[string]int{}}
	r.log.Infof("🚀 Run %s starting against %s", result.RunID, r.cfg.Spider.BaseURL)

	lead := r.newSpider(0)
	defer r.cleanup(lead)

	var listings []models.JobListing
	err := r.retry(ctx, "listings", func() error {
		var err error
		listings, err = lead.FetchListings(ctx, r.cfg.MaxRecords)
		return err
	})
	if err != nil {
		result.Metrics = lead.Metrics()
		r.notifyError(ctx, result.RunID, err)
		return result, fmt.Errorf("fetch listings: %w", err)
	}

	pending := r.selectListings(listings, result.Skipped)
	r.log.Infof("🔍 %d listings, %d to extract, skipped %v", len(listings), len(pending), result.Skipped)

	jobs, metrics, err := r.extractAll(ctx, lead, pending)
	result.Jobs = jobs
	result.Metrics = metrics
	if err != nil {
		r.notifyError(ctx, result.RunID, err)
		return result, err
	}

	if r.seen != nil {
		ids := make([]string, 0, len(jobs))
		for _, j := range jobs {
			ids = append(ids, j.Key())
		}
		r.seen.Add(ids...)
	}

	var sinkErrs []error
	for _, sink := range r.sinks {
		if err := sink.Save(ctx, result); err != nil {
			r.log.Errorf("Failed to save results: %v", err)
			sinkErrs = append(sinkErrs, err)
		}
	}
	if r.notifier != nil {
		if err := r.notifier.SendSummary(ctx, result); err != nil {
			r.log.Warnf("Failed to send summary: %v", err)
		}
	}

	r.log.Infof("🏁 Run %s finished: %d extracted, %d failed", result.RunID, len(jobs), metrics.FailedScrapes)
	return result, errors.Join(sinkErrs...)
}

// selectListings drops filtered and already seen listings.
func (r *Runner) selectListings(listings []models.JobListing, skipped map[string]int) []models.JobListing {
	kept, reasons := r.matcher.Keep(listings, r.now())
	for reason, n := range reasons {
		skipped[reason] += n
	}
	if r.seen == nil {
		return kept
	}
	out := kept[:0]
	for _, l := range kept {
		if r.seen.IsSeen(l.Key()) {
			skipped[ReasonSeen]++
			continue
		}
		out = append(out, l)
	}
	return out
}

// extractAll spreads listings round-robin over MaxConcurrency spiders. Each
// spider drives one page at a time; a shared limiter paces page loads across
// all of them. Results keep listing order.
func (r *Runner) extractAll(ctx context.Context, lead Spider, listings []models.JobListing) ([]models.JobDetails, models.SpiderMetrics, error) {
	workers := r.cfg.Spider.MaxConcurrency
	if workers < 1 {
		workers = 1
	}
	if workers > len(listings) {
		workers = len(listings)
	}

	limit := rate.Inf
	if r.cfg.DetailRate > 0 {
		limit = rate.Every(r.cfg.DetailRate)
	}
	limiter := rate.NewLimiter(limit, 1)

	details := make([]*models.JobDetails, len(listings))
	var (
		mu      sync.Mutex
		metrics []models.SpiderMetrics
	)

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			s := lead
			if w > 0 {
				s = r.newSpider(w)
				defer r.cleanup(s)
			}
			defer func() {
				mu.Lock()
				metrics = append(metrics, s.Metrics())
				mu.Unlock()
			}()

			for i := w; i < len(listings); i += workers {
				if err := limiter.Wait(gctx); err != nil {
					return err
				}
				d, err := r.fetchDetails(gctx, s, listings[i])
				if err != nil {
					if gctx.Err() != nil {
						return gctx.Err()
					}
					continue
				}
				details[i] = d
			}
			return nil
		})
	}
	err := g.Wait()

	// worker 0 reports the lead spider's metrics when any worker ran
	total := lead.Metrics()
	if len(metrics) > 0 {
		total = models.SpiderMetrics{}
		for _, m := range metrics {
			total = total.Merge(m)
		}
	}

	jobs := make([]models.JobDetails, 0, len(listings))
	for _, d := range details {
		if d != nil {
			jobs = append(jobs, *d)
		}
	}
	return jobs, total, err
}

func (r *Runner) fetchDetails(ctx context.Context, s Spider, l models.JobListing) (*models.JobDetails, error) {
	var d *models.JobDetails
	err := r.retry(ctx, "details "+l.Key(), func() error {
		var err error
		d, err = s.FetchDetails(ctx, l)
		return err
	})
	if err != nil {
		r.log.Warnf("Giving up on %s (%s): %v", l.Key(), l.Title, err)
	}
	return d, err
}

// retry runs fn up to RetryAttempts times with a growing delay. Context
// errors and missing detail URLs are not retried.
func (r *Runner) retry(ctx context.Context, what string, fn func() error) error {
	attempts := r.cfg.Spider.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(); err == nil || !retryable(err) {
			return err
		}
		if attempt == attempts {
			break
		}
		delay := r.cfg.Spider.RetryDelay * time.Duration(attempt)
		r.log.Warnf("%s failed (attempt %d/%d), retrying in %s: %v", what, attempt, attempts, delay, err)
		if err := browser.Sleep(ctx, delay); err != nil {
			return err
		}
	}
	return err
}

func retryable(err error) bool {
	return !errors.Is(err, context.Canceled) &&
		!errors.Is(err, context.DeadlineExceeded) &&
		!errors.Is(err, spider.ErrMissingDetailURL)
}

func (r *Runner) cleanup(s Spider) {
	if err := s.Cleanup(); err != nil {
		r.log.Warnf("Spider cleanup failed: %v", err)
	}
}

func (r *Runner) notifyError(ctx context.Context, runID string, err error) {
	if r.notifier == nil {
		return
	}
	if nerr := r.notifier.SendError(ctx, runID, err); nerr != nil {
		r.log.Warnf("Failed to send error notification: %v", nerr)
	}
}
