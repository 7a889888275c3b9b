package models

import "time"

type ErrorRecord struct {
	URL       string    `json:"url"`
	Error     string    `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}

// SpiderMetrics describes one crawl run.
type SpiderMetrics struct {
	TotalJobs         int           `json:"totalJobs"`
	SuccessfulScrapes int           `json:"successfulScrapes"`
	FailedScrapes     int           `json:"failedScrapes"`
	StartTime         time.Time     `json:"startTime"`
	EndTime           *time.Time    `json:"endTime,omitempty"`
	Errors            []ErrorRecord `json:"errors"`
}

// Merge adds other's counters and errors to m. StartTime keeps the earliest
// value and EndTime the latest.
func (m SpiderMetrics) Merge(other SpiderMetrics) SpiderMetrics {
	out := m
	out.TotalJobs += other.TotalJobs
	out.SuccessfulScrapes += other.SuccessfulScrapes
	out.FailedScrapes += other.FailedScrapes
	if out.StartTime.IsZero() || (!other.StartTime.IsZero() && other.StartTime.Before(out.StartTime)) {
		out.StartTime = other.StartTime
	}
	if other.EndTime != nil && (out.EndTime == nil || other.EndTime.After(*out.EndTime)) {
		end := *other.EndTime
		out.EndTime = &end
	}
	out.Errors = append(append([]ErrorRecord(nil), m.Errors...), other.Errors...)
	return out
}
