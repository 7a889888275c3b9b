// Package filter decides which listings are worth a detail page visit.
package filter

import (
	"regexp"
	"time"

	"go-jobspider/internal/config"
	"go-jobspider/internal/models"
)

// Skip reasons.
const (
	ReasonClosed   = "closed"
	ReasonStale    = "stale"
	ReasonExcluded = "excluded"
	ReasonNoMatch  = "no keyword match"
)

type Matcher struct {
	include    []*regexp.Regexp
	exclude    []*regexp.Regexp
	skipClosed bool
	maxAge     time.Duration
}

func NewMatcher(cfg config.FilterConfig) *Matcher {
	return &Matcher{
		include:    compileKeywords(cfg.Include),
		exclude:    compileKeywords(cfg.Exclude),
		skipClosed: cfg.SkipClosed,
		maxAge:     cfg.MaxAge,
	}
}

// Reason returns why the listing should be skipped, or "" to keep it.
func (m *Matcher) Reason(l models.JobListing, now time.Time) string {
	if m.skipClosed && IsClosed(l.ClosingDate, now) {
		return ReasonClosed
	}
	if !IsRecent(l.PostedDate, now, m.maxAge) {
		return ReasonStale
	}
	text := l.Title + " " + l.Agency
	if matchesAny(m.exclude, text) {
		return ReasonExcluded
	}
	if len(m.include) > 0 && !matchesAny(m.include, text) {
		return ReasonNoMatch
	}
	return ""
}

// Keep splits listings into kept ones and a count of skips per reason.
func (m *Matcher) Keep(listings []models.JobListing, now time.Time) ([]models.JobListing, map[string]int) {
	kept := make([]models.JobListing, 0, len(listings))
	skipped := map[string]int{}
	for _, l := range listings {
		if reason := m.Reason(l, now); reason != "" {
			skipped[reason]++
			continue
		}
		kept = append(kept, l)
	}
	return kept, skipped
}
