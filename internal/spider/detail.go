package spider

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"go-jobspider/internal/browser"
	"go-jobspider/internal/models"
)

// FetchDetails loads one posting's detail page and merges what it finds onto
// a copy of listing. Call it per listing and handle errors per item so one
// bad posting does not stop a batch.
func (s *Spider) FetchDetails(ctx context.Context, listing models.JobListing) (*models.JobDetails, error) {
	detailURL := listing.DetailURL()
	if detailURL == "" {
		err := fmt.Errorf("%w: listing %q (%s)", ErrMissingDetailURL, listing.Key(), listing.Title)
		s.log.Errorf("%v", err)
		return nil, err
	}

	if details := s.loadDetailsFixture(ctx, listing.Key()); details != nil {
		s.metrics.RecordSuccess()
		return details, nil
	}

	raw, content, err := s.scrapeDetails(ctx, listing, detailURL)
	if err != nil {
		s.metrics.RecordFailure(detailURL, err)
		s.log.Errorf("Detail extraction of %s failed: %v", detailURL, err)
		return nil, err
	}

	s.metrics.RecordSuccess()
	s.log.Infof("✅ %s: %d sections, %d documents", raw.Title,
		len(raw.Responsibilities)+len(raw.Requirements)+len(raw.Notes), len(raw.Documents))
	s.saveDetailsFixture(ctx, listing, content, raw)

	details := raw.JobDetails
	return &details, nil
}

func (s *Spider) scrapeDetails(ctx context.Context, listing models.JobListing, detailURL string) (raw models.RawDetails, content string, err error) {
	tab, err := s.openTab(ctx)
	if err != nil {
		return raw, "", err
	}
	defer tab.Close()

	if err := tab.Goto(detailURL, s.cfg.NavigationTimeout); err != nil {
		if !errors.Is(err, browser.ErrTimeout) {
			return raw, "", fmt.Errorf("%w: %s: %v", ErrNavigationFailure, detailURL, err)
		}
		s.log.Warnf("%v: %s, extracting what loaded", ErrNavigationTimeout, detailURL)
	}

	description := strings.Join(s.cfg.Selectors.Description, ", ")
	if err := tab.WaitForSelector(description, s.cfg.WaitTimeout); err != nil {
		s.log.Warnf("Description block not found on %s: %v", detailURL, err)
	}

	content, err = tab.Content()
	if err != nil {
		return raw, "", fmt.Errorf("%w: read %s: %v", ErrExtractionFailure, detailURL, err)
	}
	pageURL := tab.URL()
	if pageURL == "" || pageURL == "about:blank" {
		pageURL = detailURL
	}
	raw, err = s.extractDetails(content, listing, pageURL)
	return raw, content, err
}

// extractDetails turns a detail page snapshot into details. It never touches
// the browser, which keeps it replayable against saved HTML.
func (s *Spider) extractDetails(content string, listing models.JobListing, pageURL string) (raw models.RawDetails, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s: %v", ErrExtractionFailure, pageURL, r)
		}
	}()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return raw, fmt.Errorf("%w: parse %s: %v", ErrExtractionFailure, pageURL, err)
	}

	d := models.JobDetails{
		JobListing:       listing,
		Responsibilities: []string{},
		Requirements:     []string{},
		Notes:            []string{},
	}
	s.applySummaryTable(doc.Selection, &d)

	_, block := firstMatch(doc.Selection, s.cfg.Selectors.Description)
	d.Description = blockText(block.First())
	s.rules.applySections(&d)
	d.Contact = s.rules.extractContact(d.Description)

	links := collectLinks(doc.Selection, pageURL)
	d.Documents = s.rules.classifyDocuments(links, d.Title)

	raw = models.RawDetails{JobDetails: d, AllLinks: make([]models.RawLink, 0, len(links))}
	for _, l := range links {
		raw.AllLinks = append(raw.AllLinks, models.RawLink{URL: l.URL, Text: l.Text})
	}
	return raw, nil
}

// applySummaryTable overrides agency, job type, location and reference with
// the labeled rows of the detail page. The first row per field wins.
func (s *Spider) applySummaryTable(root *goquery.Selection, d *models.JobDetails) {
	_, rows := firstMatch(root, s.cfg.Selectors.SummaryRow)
	set := map[string]bool{}
	rows.Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("th, td")
		if cells.Length() < 2 {
			return
		}
		field := s.rules.summaryField(cells.First().Text())
		value := cleanText(cells.Eq(1).Text())
		if field == "" || value == "" || set[field] {
			return
		}
		set[field] = true
		switch field {
		case "agency":
			d.Agency = value
		case "jobType":
			d.JobType = value
		case "location":
			d.Location = value
		case "reference":
			d.JobReference = value
		}
	})
}

// collectLinks returns every navigable anchor on the page.
func collectLinks(root *goquery.Selection, pageURL string) []pageLink {
	var links []pageLink
	root.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href := strings.TrimSpace(a.AttrOr("href", ""))
		lower := strings.ToLower(href)
		if href == "" || strings.HasPrefix(href, "#") ||
			strings.HasPrefix(lower, "javascript:") || strings.HasPrefix(lower, "mailto:") || strings.HasPrefix(lower, "tel:") {
			return
		}
		links = append(links, pageLink{
			URL:        resolveURL(pageURL, href),
			Text:       cleanText(a.Text()),
			ParentText: cleanText(a.Parent().Text()),
		})
	})
	return links
}
