package spider

import (
	"context"
	"time"

	"go-jobspider/internal/browser"
	"go-jobspider/internal/config"
	"go-jobspider/internal/fixtures"
	"go-jobspider/internal/logging"
	"go-jobspider/internal/models"
)

// Browser is what the spider needs from a browser session.
type Browser interface {
	EnsureStarted(ctx context.Context) error
	NewPage(ctx context.Context) (browser.Tab, error)
	Shutdown() error
}

// Spider crawls one listing site. One Spider is one crawl run: its metrics
// start at construction and are never reset. A Spider drives one page at a
// time and must not be shared between goroutines; run several Spiders for
// parallel work.
type Spider struct {
	cfg     config.SpiderConfig
	browser Browser
	metrics *MetricsCollector
	rules   *classifier
	log     logging.Logger

	fixtures fixtures.Store
	replay   bool
	capture  bool

	screenshots *browser.ScreenshotDebugger
	delay       func() time.Duration
}

type Option func(*Spider)

// WithBrowser replaces the default playwright session.
func WithBrowser(b Browser) Option {
	return func(s *Spider) { s.browser = b }
}

// WithFixtures plugs in a fixture store. replay serves listings and details
// from captures when present; capture saves live results.
func WithFixtures(store fixtures.Store, replay, capture bool) Option {
	return func(s *Spider) {
		s.fixtures = store
		s.replay = replay
		s.capture = capture
	}
}

func WithLogger(l logging.Logger) Option {
	return func(s *Spider) { s.log = l }
}

// WithScreenshots saves a screenshot whenever the listing crawl fails.
func WithScreenshots(dir string) Option {
	return func(s *Spider) { s.screenshots = browser.NewScreenshotDebugger(dir) }
}

// WithPageDelay overrides the pause between result pages. Keep it random in
// production; tests may shorten it.
func WithPageDelay(base, jitter time.Duration) Option {
	return func(s *Spider) {
		s.delay = func() time.Duration { return browser.PoliteDelay(base, jitter) }
	}
}

func New(cfg config.SpiderConfig, opts ...Option) *Spider {
	s := &Spider{
		cfg:     cfg,
		metrics: NewMetricsCollector(),
		rules:   newClassifier(cfg.Keywords),
		log:     logging.New("[spider]"),
	}
	s.delay = func() time.Duration { return browser.PoliteDelay(cfg.PageDelay, cfg.PageDelayJitter) }
	for _, opt := range opts {
		opt(s)
	}
	if s.browser == nil {
		s.browser = browser.NewSession(browser.PlaywrightLauncher(cfg.Headless), browser.PageOptions{
			UserAgent: cfg.UserAgent,
			Width:     cfg.ViewportWidth,
			Height:    cfg.ViewportHeight,
		})
	}
	return s
}

// Metrics returns a snapshot of the run so far.
func (s *Spider) Metrics() models.SpiderMetrics {
	return s.metrics.Snapshot()
}

// Cleanup releases the browser. Callers must defer it on every path.
func (s *Spider) Cleanup() error {
	return s.browser.Shutdown()
}

func (s *Spider) openTab(ctx context.Context) (browser.Tab, error) {
	if err := s.browser.EnsureStarted(ctx); err != nil {
		return nil, err
	}
	return s.browser.NewPage(ctx)
}
