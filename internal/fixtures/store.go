// Package fixtures stores captured listing and detail payloads so a crawl can
// be replayed without a browser.
package fixtures

import (
	"context"
	"regexp"
	"strings"

	"go-jobspider/internal/models"
)

// Store loads and saves captures. Loads return nil with no error when there
// is no capture for the key.
type Store interface {
	LoadListings(ctx context.Context) ([]models.JobListing, error)
	// SaveListings stores one result page; page 0 is the final, complete list.
	SaveListings(ctx context.Context, listings []models.JobListing, page int) error
	LoadDetails(ctx context.Context, jobID string) (*models.JobDetails, error)
	SaveDetails(ctx context.Context, listing models.JobListing, rawHTML string, raw models.RawDetails) error
}

var unsafeKey = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// safeKey turns a job id into something usable as a file name or key suffix.
func safeKey(jobID string) string {
	return strings.Trim(unsafeKey.ReplaceAllString(jobID, "_"), "_.")
}
