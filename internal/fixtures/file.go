package fixtures

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"go-jobspider/internal/models"
)

// FileStore keeps captures as JSON files:
//
//	<dir>/listings.json            final listing set
//	<dir>/listings-page-<n>.json   one file per result page
//	<dir>/details/<id>.json        extracted details
//	<dir>/details/<id>.raw.json    details with every page link
//	<dir>/details/<id>.html        page snapshot
type FileStore struct {
	mu  sync.Mutex
	dir string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (fs *FileStore) LoadListings(ctx context.Context) ([]models.JobListing, error) {
	var listings []models.JobListing
	ok, err := fs.readJSON(filepath.Join(fs.dir, "listings.json"), &listings)
	if err != nil || !ok {
		return nil, err
	}
	if listings == nil {
		listings = []models.JobListing{}
	}
	return listings, nil
}

func (fs *FileStore) SaveListings(ctx context.Context, listings []models.JobListing, page int) error {
	name := "listings.json"
	if page > 0 {
		name = fmt.Sprintf("listings-page-%d.json", page)
	}
	return fs.writeJSON(filepath.Join(fs.dir, name), listings)
}

func (fs *FileStore) LoadDetails(ctx context.Context, jobID string) (*models.JobDetails, error) {
	key := safeKey(jobID)
	if key == "" {
		return nil, nil
	}
	var details models.JobDetails
	ok, err := fs.readJSON(filepath.Join(fs.dir, "details", key+".json"), &details)
	if err != nil || !ok {
		return nil, err
	}
	return &details, nil
}

func (fs *FileStore) SaveDetails(ctx context.Context, listing models.JobListing, rawHTML string, raw models.RawDetails) error {
	key := safeKey(listing.Key())
	if key == "" {
		return errors.New("listing has no id")
	}
	dir := filepath.Join(fs.dir, "details")
	if err := fs.writeJSON(filepath.Join(dir, key+".json"), raw.JobDetails); err != nil {
		return err
	}
	if err := fs.writeJSON(filepath.Join(dir, key+".raw.json"), raw); err != nil {
		return err
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return os.WriteFile(filepath.Join(dir, key+".html"), []byte(rawHTML), 0644)
}

// readJSON reports false when the file does not exist.
func (fs *FileStore) readJSON(path string, v any) (bool, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("parse %s: %w", path, err)
	}
	return true, nil
}

func (fs *FileStore) writeJSON(path string, v any) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return err
	}
	log.Printf("💾 Saved fixture %s", path)
	return nil
}
