// Package store persists the output of a run.
package store

import (
	"context"

	"go-jobspider/internal/models"
)

// Result is everything one run produced.
type Result struct {
	RunID   string               `json:"runId"`
	Jobs    []models.JobDetails  `json:"jobs"`
	Metrics models.SpiderMetrics `json:"metrics"`
	// Skipped counts listings left out before detail extraction, by reason.
	Skipped map[string]int `json:"skipped,omitempty"`
}

type Sink interface {
	Save(ctx context.Context, result Result) error
}
