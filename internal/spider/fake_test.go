package spider

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"go-jobspider/internal/browser"
	"go-jobspider/internal/config"
	"go-jobspider/internal/logging"
	"go-jobspider/internal/models"
)

const baseURL = "https://jobs.example.test/jobs"

// fakeSite serves canned HTML by URL and records what the crawler did.
type fakeSite struct {
	pages   map[string]string
	gotoErr map[string]error

	started  int
	newPages int
	visited  []string
	selected []string
}

func newFakeSite() *fakeSite {
	return &fakeSite{pages: map[string]string{}, gotoErr: map[string]error{}}
}

func (f *fakeSite) EnsureStarted(ctx context.Context) error {
	f.started++
	return nil
}

func (f *fakeSite) NewPage(ctx context.Context) (browser.Tab, error) {
	f.newPages++
	return &fakeTab{site: f, url: "about:blank"}, nil
}

func (f *fakeSite) Shutdown() error { return nil }

type fakeTab struct {
	site *fakeSite
	url  string
}

func (t *fakeTab) doc() (*goquery.Document, error) {
	content, err := t.Content()
	if err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromReader(strings.NewReader(content))
}

func (t *fakeTab) Goto(url string, timeout time.Duration) error {
	t.site.visited = append(t.site.visited, url)
	t.url = url
	return t.site.gotoErr[url]
}

func (t *fakeTab) WaitForSelector(selector string, timeout time.Duration) error {
	n, err := t.Count(selector)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: waiting for %s", browser.ErrTimeout, selector)
	}
	return nil
}

func (t *fakeTab) Count(selector string) (int, error) {
	doc, err := t.doc()
	if err != nil {
		return 0, err
	}
	return doc.Find(selector).Length(), nil
}

func (t *fakeTab) SelectOption(selector, value string, timeout time.Duration) error {
	t.site.selected = append(t.site.selected, selector+"="+value)
	return nil
}

func (t *fakeTab) Click(selector string, timeout time.Duration) error {
	doc, err := t.doc()
	if err != nil {
		return err
	}
	href, ok := doc.Find(selector).First().Attr("href")
	if !ok {
		return fmt.Errorf("%w: nothing to click at %s", browser.ErrTimeout, selector)
	}
	t.url = resolveURL(t.url, href)
	t.site.visited = append(t.site.visited, t.url)
	return nil
}

func (t *fakeTab) WaitForLoad(timeout time.Duration) error { return nil }

func (t *fakeTab) Content() (string, error) {
	content, ok := t.site.pages[t.url]
	if !ok {
		return "", errors.New("no page at " + t.url)
	}
	return content, nil
}

func (t *fakeTab) URL() string                 { return t.url }
func (t *fakeTab) Screenshot(path string) error { return nil }
func (t *fakeTab) Close() error                 { return nil }

// memStore is an in-memory fixture store.
type memStore struct {
	mu       sync.Mutex
	listings []models.JobListing
	pages    map[int][]models.JobListing
	details  map[string]*models.JobDetails
	html     map[string]string
	loadErr  error
}

func newMemStore() *memStore {
	return &memStore{
		pages:   map[int][]models.JobListing{},
		details: map[string]*models.JobDetails{},
		html:    map[string]string{},
	}
}

func (m *memStore) LoadListings(ctx context.Context) ([]models.JobListing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listings, m.loadErr
}

func (m *memStore) SaveListings(ctx context.Context, listings []models.JobListing, page int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pages[page] = listings
	return nil
}

func (m *memStore) LoadDetails(ctx context.Context, jobID string) (*models.JobDetails, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.details[jobID], nil
}

func (m *memStore) SaveDetails(ctx context.Context, listing models.JobListing, rawHTML string, raw models.RawDetails) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d := raw.JobDetails
	m.details[listing.Key()] = &d
	m.html[listing.Key()] = rawHTML
	return nil
}

func testConfig() config.SpiderConfig {
	cfg := config.Default().Spider
	cfg.BaseURL = baseURL
	cfg.NavigationTimeout = time.Second
	cfg.WaitTimeout = time.Second
	return cfg
}

func newTestSpider(site *fakeSite, opts ...Option) *Spider {
	return newTestSpiderWith(testConfig(), site, opts...)
}

func newTestSpiderWith(cfg config.SpiderConfig, site *fakeSite, opts ...Option) *Spider {
	base := []Option{WithBrowser(site), WithLogger(logging.Discard), WithPageDelay(0, 0)}
	return New(cfg, append(base, opts...)...)
}

func card(id, title, agency string) string {
	return fmt.Sprintf(`
<div class="job-search-result" data-job-id="%s">
  <h2><a href="/job/%s">%s</a></h2>
  <span class="job-agency">%s</span>
  <span class="job-location">Location: Sydney</span>
  <span class="job-posted">Posted: 01 Oct 2026</span>
  <span class="job-closing">Closing date: 30 Nov 2026</span>
</div>`, id, id, title, agency)
}

// listingPage renders one results page. An empty next renders a disabled
// next button.
func listingPage(next string, cards ...string) string {
	nav := `<ul class="pagination"><li class="next disabled"><a href="#">Next</a></li></ul>`
	if next != "" {
		nav = fmt.Sprintf(`<ul class="pagination"><li class="next"><a rel="next" href="%s">Next</a></li></ul>`, next)
	}
	return `<html><body><main>` + strings.Join(cards, "") + nav + `</main></body></html>`
}
