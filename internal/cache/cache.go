// Package cache provides an in-memory key/value store with per-entry expiry,
// used as the process-lifetime response cache for API fetches.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"sync"
	"time"
)

// DefaultTTL is how long a cached response stays valid. Scheduled runs are
// expected roughly daily, so 20 hours keeps one run's responses warm for the
// next without serving data older than a day.
const DefaultTTL = 20 * time.Hour

// Entry is a single cached response payload. Entries are owned exclusively
// by the Store and never mutated after insertion.
type Entry struct {
	Key      string        `json:"key"`
	Value    []byte        `json:"value"`
	StoredAt time.Time     `json:"stored_at"`
	TTL      time.Duration `json:"ttl"`
}

func (e Entry) expired(now time.Time) bool {
	return now.Sub(e.StoredAt) >= e.TTL
}

// Store is a thread-safe TTL cache. Expired entries are evicted lazily on
// access.
type Store struct {
	mu      sync.RWMutex
	entries map[string]Entry
	ttl     time.Duration
	now     func() time.Time
}

// NewStore returns an empty Store. A non-positive ttl selects DefaultTTL.
func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		entries: make(map[string]Entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the cached value for key. An expired entry is removed and
// reported as absent.
func (s *Store) Get(key string) ([]byte, bool) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if e.expired(s.now()) {
		s.mu.Lock()
		// Re-check under the write lock; a concurrent Set may have refreshed it.
		if cur, ok := s.entries[key]; ok && cur.expired(s.now()) {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		return nil, false
	}
	return e.Value, true
}

// Set stores value under key with the store's TTL, replacing any prior entry.
func (s *Store) Set(key string, value []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = Entry{Key: key, Value: value, StoredAt: s.now(), TTL: s.ttl}
}

// Clear removes every entry.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]Entry)
}

// Len reports the number of entries currently held, including any not yet
// lazily evicted.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Export snapshots all non-expired entries, for persistence across process
// invocations.
func (s *Store) Export() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	now := s.now()
	out := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		if !e.expired(now) {
			out = append(out, e)
		}
	}
	return out
}

// Import restores previously exported entries, dropping any that have expired
// in the meantime. Existing entries with the same key are overwritten.
func (s *Store) Import(entries []Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for _, e := range entries {
		if e.Key == "" || e.expired(now) {
			continue
		}
		s.entries[e.Key] = e
	}
}

// Key derives a deterministic cache key from the full request identity.
// Query parameters are canonicalized (url.Values.Encode sorts by key) so
// identical logical requests always hit the same slot.
func Key(path string, query url.Values) string {
	id := "GET " + path
	if len(query) > 0 {
		id += "?" + query.Encode()
	}
	sum := sha256.Sum256([]byte(id))
	return hex.EncodeToString(sum[:])
}
