// Package dedup remembers which postings earlier runs already processed.
package dedup

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

type seenEntry struct {
	JobID     string `json:"jobId"`
	Timestamp int64  `json:"timestamp"`
}

// SeenCache is a file-backed set of job IDs. Entries older than the TTL are
// dropped on load.
type SeenCache struct {
	mu       sync.Mutex
	filePath string
	ttl      time.Duration
	seen     map[string]int64
	now      func() time.Time
}

// NewSeenCache creates or loads the cache in cacheDir.
func NewSeenCache(cacheDir string, ttl time.Duration) *SeenCache {
	return newSeenCache(cacheDir, ttl, time.Now)
}

func newSeenCache(cacheDir string, ttl time.Duration, now func() time.Time) *SeenCache {
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		log.Printf("⚠️ Failed to create cache directory: %v", err)
	}
	cache := &SeenCache{
		filePath: filepath.Join(cacheDir, "seen_jobs.json"),
		ttl:      ttl,
		seen:     make(map[string]int64),
		now:      now,
	}
	cache.load()
	return cache
}

// IsSeen reports whether jobID was processed within the TTL.
func (sc *SeenCache) IsSeen(jobID string) bool {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	ts, exists := sc.seen[jobID]
	return exists && !sc.expired(ts)
}

// Add marks the IDs as processed and persists the cache when it changed.
func (sc *SeenCache) Add(jobIDs ...string) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	now := sc.now().UnixMilli()
	changed := false
	for _, id := range jobIDs {
		if id == "" {
			continue
		}
		if ts, exists := sc.seen[id]; !exists || sc.expired(ts) {
			sc.seen[id] = now
			changed = true
		}
	}

	if changed {
		sc.save()
	}
}

// Len counts live entries.
func (sc *SeenCache) Len() int {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	n := 0
	for _, ts := range sc.seen {
		if !sc.expired(ts) {
			n++
		}
	}
	return n
}

func (sc *SeenCache) expired(ts int64) bool {
	return sc.ttl > 0 && ts <= sc.now().Add(-sc.ttl).UnixMilli()
}

func (sc *SeenCache) load() {
	data, err := os.ReadFile(sc.filePath)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("⚠️ Failed to read seen_jobs.json: %v", err)
		}
		return
	}

	var entries []seenEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		log.Printf("⚠️ Failed to parse seen_jobs.json: %v", err)
		return
	}

	loaded := 0
	for _, e := range entries {
		if e.JobID != "" && !sc.expired(e.Timestamp) {
			sc.seen[e.JobID] = e.Timestamp
			loaded++
		}
	}
	log.Printf("📋 Loaded %d previously seen jobs (%d expired and removed)", loaded, len(entries)-loaded)
}

// save writes the live entries; callers hold mu.
func (sc *SeenCache) save() {
	entries := make([]seenEntry, 0, len(sc.seen))
	for id, ts := range sc.seen {
		if !sc.expired(ts) {
			entries = append(entries, seenEntry{JobID: id, Timestamp: ts})
		}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		log.Printf("⚠️ Failed to marshal seen jobs: %v", err)
		return
	}
	if err := os.WriteFile(sc.filePath, data, 0644); err != nil {
		log.Printf("⚠️ Failed to write seen_jobs.json: %v", err)
		return
	}
	log.Printf("💾 Saved %d seen jobs to cache", len(entries))
}
