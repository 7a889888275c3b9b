package spider

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"go-jobspider/internal/browser"
	"go-jobspider/internal/config"
	"go-jobspider/internal/models"
)

// FetchListings walks the paginated search results and returns one listing
// per result card. maxRecords <= 0 means no cap. The call is all or nothing:
// on error, pages collected so far are discarded.
func (s *Spider) FetchListings(ctx context.Context, maxRecords int) ([]models.JobListing, error) {
	if listings := s.loadListingsFixture(ctx); listings != nil {
		s.log.Infof("📦 Loaded %d listings from fixtures", len(listings))
		s.metrics.SetTotalJobs(len(listings))
		s.metrics.RecordSuccess()
		return listings, nil
	}

	listings, err := s.crawlListings(ctx, maxRecords)
	if err != nil {
		s.metrics.RecordFailure(s.cfg.BaseURL, err)
		s.log.Errorf("Listing crawl of %s failed: %v", s.cfg.BaseURL, err)
		return nil, err
	}

	s.metrics.SetTotalJobs(len(listings))
	s.metrics.RecordSuccess()
	s.saveListingsFixture(ctx, listings, 0)
	return listings, nil
}

func (s *Spider) crawlListings(ctx context.Context, maxRecords int) ([]models.JobListing, error) {
	tab, err := s.openTab(ctx)
	if err != nil {
		return nil, err
	}
	defer tab.Close()

	s.log.Infof("🌐 Navigating to %s", s.cfg.BaseURL)
	if err := tab.Goto(s.cfg.BaseURL, s.cfg.NavigationTimeout); err != nil {
		if !errors.Is(err, browser.ErrTimeout) {
			return nil, fmt.Errorf("%w: %s: %v", ErrNavigationFailure, s.cfg.BaseURL, err)
		}
		s.log.Warnf("%v: %s, continuing with what loaded", ErrNavigationTimeout, s.cfg.BaseURL)
	}

	s.applyPageSize(tab)
	s.applySortByDate(tab)

	var all []models.JobListing
	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		doc, err := s.waitForResults(tab)
		if err != nil {
			s.captureFailure(tab, "listing-page-"+strconv.Itoa(page))
			return nil, err
		}

		cards := parseListings(doc.Selection, s.cfg.Selectors, tab.URL())
		all = append(all, cards...)
		s.log.Infof("📋 Extracted %d listings from page %d (%d total)", len(cards), page, len(all))
		s.saveListingsFixture(ctx, cards, page)

		if maxRecords > 0 && len(all) >= maxRecords {
			all = all[:maxRecords]
			s.log.Infof("Reached record cap of %d", maxRecords)
			break
		}

		next := nextPageSelector(doc.Selection, s.cfg.Selectors.NextPage)
		if next == "" {
			s.log.Infof("No further pages after page %d", page)
			break
		}

		s.log.Infof("➡️ Turning to page %d", page+1)
		if err := tab.Click(next, s.cfg.WaitTimeout); err != nil {
			s.captureFailure(tab, "listing-next-page")
			return nil, fmt.Errorf("click next page: %w", err)
		}
		if err := tab.WaitForLoad(s.cfg.NavigationTimeout); err != nil {
			if !errors.Is(err, browser.ErrTimeout) {
				return nil, fmt.Errorf("%w: page %d: %v", ErrNavigationFailure, page+1, err)
			}
			s.log.Warnf("Page %d still loading after %s, continuing", page+1, s.cfg.NavigationTimeout)
		}
		if err := browser.Sleep(ctx, s.delay()); err != nil {
			return nil, err
		}
	}
	return all, nil
}

// waitForResults waits for result cards, falls back to a direct count on
// timeout, and returns a snapshot of the page.
func (s *Spider) waitForResults(tab browser.Tab) (*goquery.Document, error) {
	cards := strings.Join(s.cfg.Selectors.ResultCard, ", ")
	if err := tab.WaitForSelector(cards, s.cfg.WaitTimeout); err != nil {
		if !errors.Is(err, browser.ErrTimeout) {
			return nil, fmt.Errorf("wait for result cards: %w", err)
		}
		s.log.Warnf("Timed out waiting for result cards, counting directly")
		n, err := tab.Count(cards)
		if err != nil {
			return nil, fmt.Errorf("count result cards: %w", err)
		}
		if n == 0 {
			return nil, fmt.Errorf("%w at %s", ErrNoResultsFound, tab.URL())
		}
	}

	doc, err := snapshot(tab)
	if err != nil {
		return nil, err
	}
	if _, found := firstMatch(doc.Selection, s.cfg.Selectors.ResultCard); found.Length() == 0 {
		return nil, fmt.Errorf("%w at %s", ErrNoResultsFound, tab.URL())
	}
	return doc, nil
}

// applyPageSize sets the results-per-page control when the page has one.
func (s *Spider) applyPageSize(tab browser.Tab) {
	doc, err := snapshot(tab)
	if err != nil {
		s.log.Warnf("Could not read page for page size control: %v", err)
		return
	}
	sel, control := firstMatch(doc.Selection, s.cfg.Selectors.PageSize)
	if sel == "" {
		s.log.Infof("No page size control, using site default")
		return
	}
	value := pageSizeValue(control.First(), s.cfg.PageSize)
	if value == "" {
		s.log.Warnf("Page size control %q has no usable options", sel)
		return
	}
	if err := tab.SelectOption(sel, value, s.cfg.WaitTimeout); err != nil {
		s.log.Warnf("Could not set page size to %s: %v", value, err)
		return
	}
	if err := tab.WaitForLoad(s.cfg.NavigationTimeout); err != nil {
		s.log.Warnf("Page size change still loading: %v", err)
	}
	s.log.Infof("Page size set to %s", value)
}

// applySortByDate activates the sort-by-date control when the page has one.
func (s *Spider) applySortByDate(tab browser.Tab) {
	doc, err := snapshot(tab)
	if err != nil {
		s.log.Warnf("Could not read page for sort control: %v", err)
		return
	}
	sel, _ := firstMatch(doc.Selection, s.cfg.Selectors.SortDate)
	if sel == "" {
		s.log.Infof("No sort-by-date control, using default ordering")
		return
	}
	if err := tab.Click(sel, s.cfg.WaitTimeout); err != nil {
		s.log.Warnf("Could not sort by date: %v", err)
		return
	}
	if err := tab.WaitForLoad(s.cfg.NavigationTimeout); err != nil {
		s.log.Warnf("Sort change still loading: %v", err)
	}
	s.log.Infof("Sorted results by date")
}

func (s *Spider) captureFailure(tab browser.Tab, name string) {
	if s.screenshots == nil {
		return
	}
	_, _ = s.screenshots.CaptureAndLog(tab, name, "🚨 Listing crawl failed at "+tab.URL())
}

func snapshot(tab browser.Tab) (*goquery.Document, error) {
	content, err := tab.Content()
	if err != nil {
		return nil, fmt.Errorf("%w: read page content: %v", ErrExtractionFailure, err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("%w: parse page content: %v", ErrExtractionFailure, err)
	}
	return doc, nil
}

// pageSizeValue picks the configured size, or the largest numeric option.
func pageSizeValue(control *goquery.Selection, configured int) string {
	if configured > 0 {
		return strconv.Itoa(configured)
	}
	best, bestN := "", -1
	control.Find("option").Each(func(_ int, opt *goquery.Selection) {
		value := strings.TrimSpace(opt.AttrOr("value", opt.Text()))
		if n, err := strconv.Atoi(value); err == nil && n > bestN {
			best, bestN = value, n
		}
	})
	return best
}

// nextPageSelector returns the first selector of the chain whose element is
// present and enabled, or "" on the last page.
func nextPageSelector(root *goquery.Selection, chain []string) string {
	sel, found := firstMatch(root, chain)
	if sel == "" {
		return ""
	}
	el := found.First()
	if isDisabled(el) || isDisabled(el.Parent()) {
		return ""
	}
	return sel
}

func isDisabled(el *goquery.Selection) bool {
	if el.Length() == 0 {
		return false
	}
	if _, ok := el.Attr("disabled"); ok {
		return true
	}
	if el.AttrOr("aria-disabled", "") == "true" {
		return true
	}
	return el.HasClass("disabled") || el.HasClass("is-disabled")
}

// parseListings extracts one listing per result card. Cards without both a
// title and a link are skipped.
func parseListings(root *goquery.Selection, sel config.Selectors, pageURL string) []models.JobListing {
	_, cards := firstMatch(root, sel.ResultCard)

	listings := make([]models.JobListing, 0, cards.Length())
	cards.Each(func(_ int, card *goquery.Selection) {
		title := textChain(card, sel.Title)
		link := resolveURL(pageURL, attrChain(card, sel.Link, "href"))
		if title == "" && link == "" {
			return
		}

		ref := stripLabel(textChain(card, sel.JobReference))
		id := ""
		for _, attr := range sel.IDAttributes {
			if id = strings.TrimSpace(card.AttrOr(attr, "")); id != "" {
				break
			}
		}
		if id == "" {
			id = ref
		}
		if id == "" && link != "" {
			id = idFromURL(link)
		}

		salary := stripLabel(textChain(card, sel.Salary))
		if salary == "" {
			salary = models.DefaultSalary
		}

		listings = append(listings, models.JobListing{
			ID:           id,
			Title:        title,
			Agency:       textChain(card, sel.Agency),
			Location:     stripLabel(textChain(card, sel.Location)),
			Salary:       salary,
			PostedDate:   stripLabel(textChain(card, sel.PostedDate)),
			ClosingDate:  stripLabel(textChain(card, sel.ClosingDate)),
			URL:          link,
			JobReference: ref,
		})
	})
	return listings
}
