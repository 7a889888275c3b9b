package spider

import (
	"context"

	"go-jobspider/internal/models"
)

// Fixture access is best-effort: a missing capture or a store error means
// "scrape live", and a failed save is only logged.

func (s *Spider) loadListingsFixture(ctx context.Context) []models.JobListing {
	if s.fixtures == nil || !s.replay {
		return nil
	}
	listings, err := s.fixtures.LoadListings(ctx)
	if err != nil {
		s.log.Warnf("Could not load listing fixtures, scraping live: %v", err)
		return nil
	}
	return listings
}

func (s *Spider) saveListingsFixture(ctx context.Context, listings []models.JobListing, page int) {
	if s.fixtures == nil || !s.capture {
		return
	}
	if err := s.fixtures.SaveListings(ctx, listings, page); err != nil {
		s.log.Warnf("Could not save listing fixtures (page %d): %v", page, err)
	}
}

func (s *Spider) loadDetailsFixture(ctx context.Context, jobID string) *models.JobDetails {
	if s.fixtures == nil || !s.replay || jobID == "" {
		return nil
	}
	details, err := s.fixtures.LoadDetails(ctx, jobID)
	if err != nil {
		s.log.Warnf("Could not load detail fixture for %s, scraping live: %v", jobID, err)
		return nil
	}
	if details != nil {
		s.log.Infof("📦 Loaded details for %s from fixtures", jobID)
	}
	return details
}

func (s *Spider) saveDetailsFixture(ctx context.Context, listing models.JobListing, content string, raw models.RawDetails) {
	if s.fixtures == nil || !s.capture {
		return
	}
	if err := s.fixtures.SaveDetails(ctx, listing, content, raw); err != nil {
		s.log.Warnf("Could not save detail fixture for %s: %v", listing.Key(), err)
	}
}
