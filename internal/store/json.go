package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"
)

// JSONFile writes each run to <dir>/job-search-YYYY-MM-DD-<run>.json.
type JSONFile struct {
	dir string
	now func() time.Time
}

func NewJSONFile(dir string) *JSONFile {
	if dir == "" {
		dir = "logs"
	}
	return &JSONFile{dir: dir, now: time.Now}
}

func (j *JSONFile) Save(ctx context.Context, result Result) error {
	if len(result.Jobs) == 0 {
		log.Println("ℹ️ No jobs extracted, saving metrics only.")
	}

	//create output directory if not exists
	if err := os.MkdirAll(j.dir, 0755); err != nil {
		return fmt.Errorf("create %s: %w", j.dir, err)
	}

	path := j.Path(result.RunID)
	data, err := json.MarshalIndent(result, "", " ")
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	log.Printf("📁 Results saved to %s", path)
	return nil
}

// Path returns the file a run is written to.
func (j *JSONFile) Path(runID string) string {
	name := "job-search-" + j.now().Format("2006-01-02")
	if len(runID) > 8 {
		runID = runID[:8]
	}
	if runID != "" {
		name += "-" + runID
	}
	return filepath.Join(j.dir, name+".json")
}
