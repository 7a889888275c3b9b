package spider

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-jobspider/internal/models"
)

const detailURL = "https://jobs.example.test/job/1001"

const detailPage = `<html><body>
<h1>Firefighter</h1>
<table class="job-summary">
  <tr><th>Job Reference</th><td>REQ-1001</td></tr>
  <tr><th>Agency</th><td>Fire and Rescue NSW</td></tr>
  <tr><th>Agency</th><td>Ignored Second Agency</td></tr>
  <tr><th>Job Type</th><td>Full-Time</td></tr>
  <tr><th>Location:</th><td>Parramatta</td></tr>
  <tr><th>Salary</th><td>$75,000</td></tr>
</table>
<div id="job-description">
  <p><strong>About the role</strong><br>You will respond to emergencies across Greater Sydney.</p>
  <p><strong>Essential requirements</strong><br>Current NSW driver licence.</p>
  <p><strong>About us</strong><br>We protect the community.</p>
  <p>Our station overlooks the harbour.</p>
  <p>For more information contact Jane Smith on 02 9876 5432 or jane.smith@fire.nsw.gov.au.</p>
</div>
<ul class="attachments">
  <li><a href="/files/role-description.pdf">Role Description</a></li>
  <li><a href="/files/pack.docx">Information Pack</a></li>
  <li><a href="mailto:jobs@fire.nsw.gov.au">Email us</a></li>
</ul>
</body></html>`

func detailListing() models.JobListing {
	return models.JobListing{
		ID:       "1001",
		Title:    "Firefighter",
		Agency:   "Listing Agency",
		Location: "Sydney",
		Salary:   models.DefaultSalary,
		URL:      detailURL,
	}
}

func TestFetchDetails(t *testing.T) {
	site := newFakeSite()
	site.pages[detailURL] = detailPage
	s := newTestSpider(site)
	defer s.Cleanup()

	d, err := s.FetchDetails(context.Background(), detailListing())
	require.NoError(t, err)

	assert.Equal(t, "Fire and Rescue NSW", d.Agency)
	assert.Equal(t, "Parramatta", d.Location)
	assert.Equal(t, "REQ-1001", d.JobReference)
	assert.Equal(t, "Full-Time", d.JobType)
	assert.Equal(t, "Firefighter", d.Title)
	assert.Equal(t, models.DefaultSalary, d.Salary)

	assert.Equal(t, []string{"About the role\nYou will respond to emergencies across Greater Sydney."}, d.Responsibilities)
	assert.Equal(t, []string{"Essential requirements\nCurrent NSW driver licence."}, d.Requirements)
	assert.Equal(t, "About us\nWe protect the community.", d.AboutUs)
	assert.Empty(t, d.Notes)
	assert.Contains(t, d.Description, "Our station overlooks the harbour.")

	assert.Equal(t, models.ContactDetails{
		Name:  "Jane Smith",
		Phone: "02 9876 5432",
		Email: "jane.smith@fire.nsw.gov.au",
	}, d.Contact)

	assert.Equal(t, []models.JobDocument{{
		URL:   "https://jobs.example.test/files/role-description.pdf",
		Title: "Role Description",
		Type:  models.DocumentPDF,
	}}, d.Documents)

	m := s.Metrics()
	assert.Equal(t, 1, m.SuccessfulScrapes)
	assert.Equal(t, 0, m.FailedScrapes)
}

func TestFetchDetails_ListingValuesKeptWhenTableSilent(t *testing.T) {
	site := newFakeSite()
	site.pages[detailURL] = `<html><body><h1>Firefighter</h1>
<table class="job-summary"><tr><th>Job Type</th><td>Casual</td></tr></table>
<div id="job-description"><p>Respond to emergencies.</p></div></body></html>`
	s := newTestSpider(site)

	d, err := s.FetchDetails(context.Background(), detailListing())
	require.NoError(t, err)
	assert.Equal(t, "Sydney", d.Location)
	assert.Equal(t, "Listing Agency", d.Agency)
	assert.Equal(t, "Casual", d.JobType)
}

func TestFetchDetails_KeepUnclassified(t *testing.T) {
	site := newFakeSite()
	site.pages[detailURL] = detailPage
	cfg := testConfig()
	cfg.Keywords.KeepUnclassified = true
	s := newTestSpiderWith(cfg, site)

	d, err := s.FetchDetails(context.Background(), detailListing())
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Our station overlooks the harbour.",
		"For more information contact Jane Smith on 02 9876 5432 or jane.smith@fire.nsw.gov.au.",
	}, d.Notes)
}

func TestFetchDetails_MissingURL(t *testing.T) {
	site := newFakeSite()
	s := newTestSpider(site)

	listing := detailListing()
	listing.URL = ""
	d, err := s.FetchDetails(context.Background(), listing)
	assert.ErrorIs(t, err, ErrMissingDetailURL)
	assert.Nil(t, d)
	assert.Zero(t, site.newPages)
}

func TestFetchDetails_AliasURL(t *testing.T) {
	site := newFakeSite()
	site.pages[detailURL] = detailPage
	s := newTestSpider(site)

	listing := detailListing()
	listing.URL = ""
	listing.JobURL = detailURL
	d, err := s.FetchDetails(context.Background(), listing)
	require.NoError(t, err)
	assert.Equal(t, "REQ-1001", d.JobReference)
}

func TestFetchDetails_NavigationFailure(t *testing.T) {
	site := newFakeSite()
	site.gotoErr[detailURL] = errors.New("net::ERR_CONNECTION_RESET")
	s := newTestSpider(site)

	d, err := s.FetchDetails(context.Background(), detailListing())
	assert.ErrorIs(t, err, ErrNavigationFailure)
	assert.Nil(t, d)

	m := s.Metrics()
	assert.Equal(t, 1, m.FailedScrapes)
	require.Len(t, m.Errors, 1)
	assert.Equal(t, detailURL, m.Errors[0].URL)
}

func TestFetchDetails_UnreadablePage(t *testing.T) {
	site := newFakeSite()
	s := newTestSpider(site)

	_, err := s.FetchDetails(context.Background(), detailListing())
	assert.ErrorIs(t, err, ErrExtractionFailure)
	assert.Equal(t, 1, s.Metrics().FailedScrapes)
}

func TestFetchDetails_FixtureReplay(t *testing.T) {
	store := newMemStore()
	stored := &models.JobDetails{
		JobListing:       detailListing(),
		JobType:          "Casual",
		Responsibilities: []string{"Respond"},
		Requirements:     []string{},
		Notes:            []string{},
	}
	store.details["1001"] = stored
	site := newFakeSite()
	s := newTestSpider(site, WithFixtures(store, true, false))

	d, err := s.FetchDetails(context.Background(), detailListing())
	require.NoError(t, err)
	assert.Equal(t, stored, d)
	assert.Zero(t, site.newPages)
	assert.Equal(t, 1, s.Metrics().SuccessfulScrapes)
}

func TestFetchDetails_CaptureThenReplay(t *testing.T) {
	store := newMemStore()
	live := newFakeSite()
	live.pages[detailURL] = detailPage

	first, err := newTestSpider(live, WithFixtures(store, false, true)).FetchDetails(context.Background(), detailListing())
	require.NoError(t, err)
	assert.Equal(t, detailPage, store.html["1001"])

	offline := newFakeSite()
	second, err := newTestSpider(offline, WithFixtures(store, true, false)).FetchDetails(context.Background(), detailListing())
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Zero(t, offline.newPages)
}

func TestExtractDetails_EmptyPage(t *testing.T) {
	s := newTestSpider(newFakeSite())
	raw, err := s.extractDetails(`<html><body></body></html>`, detailListing(), detailURL)
	require.NoError(t, err)

	assert.Equal(t, "Listing Agency", raw.Agency)
	assert.Empty(t, raw.Description)
	assert.NotNil(t, raw.Responsibilities)
	assert.NotNil(t, raw.Documents)
	assert.Equal(t, models.ContactDetails{}, raw.Contact)
}

func TestExtractDetails_RawLinks(t *testing.T) {
	s := newTestSpider(newFakeSite())
	raw, err := s.extractDetails(detailPage, detailListing(), detailURL)
	require.NoError(t, err)

	require.Len(t, raw.AllLinks, 2)
	assert.Equal(t, models.RawLink{URL: "https://jobs.example.test/files/pack.docx", Text: "Information Pack"}, raw.AllLinks[1])
}
