package store

import (
	"sync"
	"time"

	"github.com/i474232898/hko-weather-proxy/internal/weather"
)

// MemoryStore is a concurrency-safe in-memory cache of upstream payloads keyed
// by (data type, language). Entries are stored by value and replaced wholesale,
// so a reader never sees a payload paired with another write's timestamp.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[weather.CacheKey]weather.CacheEntry
	now  func() time.Time
}

// NewMemoryStore creates an empty MemoryStore using the wall clock.
func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreWithClock(time.Now)
}

// NewMemoryStoreWithClock creates an empty MemoryStore reading time from now.
func NewMemoryStoreWithClock(now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{
		data: make(map[weather.CacheKey]weather.CacheEntry),
		now:  now,
	}
}

// Get returns the entry stored for key, if any.
func (s *MemoryStore) Get(key weather.CacheKey) (weather.CacheEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.data[key]
	return entry, ok
}

// Put stores payload under key stamped with the current time, replacing any prior entry.
func (s *MemoryStore) Put(key weather.CacheKey, payload weather.Payload) weather.CacheEntry {
	entry := weather.CacheEntry{
		Payload:   payload,
		FetchedAt: s.now(),
	}

	s.mu.Lock()
	s.data[key] = entry
	s.mu.Unlock()

	return entry
}

// IsFresh reports whether entry is younger than ttl.
func (s *MemoryStore) IsFresh(entry weather.CacheEntry, ttl time.Duration) bool {
	return entry.IsFresh(s.now(), ttl)
}

// Clear removes every entry.
func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = make(map[weather.CacheKey]weather.CacheEntry)
}

// Len returns the number of cached entries.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.data)
}

// Snapshot returns the status of every entry, taken under a single read lock.
func (s *MemoryStore) Snapshot(ttl time.Duration) map[weather.CacheKey]weather.EntryStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	out := make(map[weather.CacheKey]weather.EntryStatus, len(s.data))
	for key, entry := range s.data {
		age := entry.Age(now)
		out[key] = weather.EntryStatus{
			FetchedAt: entry.FetchedAt.UTC(),
			Age:       age,
			AgeMillis: age.Milliseconds(),
			Expired:   !entry.IsFresh(now, ttl),
		}
	}
	return out
}
