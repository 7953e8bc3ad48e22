package weather

import (
	"context"
	"time"
)

// Upstream abstracts a single attempt against the weather data API.
type Upstream interface {
	Fetch(ctx context.Context, dataType DataType, lang Language) (Payload, error)
}

// UpstreamFunc adapts a plain function to Upstream.
type UpstreamFunc func(ctx context.Context, dataType DataType, lang Language) (Payload, error)

func (f UpstreamFunc) Fetch(ctx context.Context, dataType DataType, lang Language) (Payload, error) {
	return f(ctx, dataType, lang)
}

// Fetcher produces a payload for a data type, possibly after several upstream attempts.
type Fetcher interface {
	Fetch(ctx context.Context, dataType DataType, lang Language) (Payload, error)
}

// Cache is the contract the in-memory cache store must satisfy.
// Implementations own their synchronization.
type Cache interface {
	Get(key CacheKey) (CacheEntry, bool)
	Put(key CacheKey, payload Payload) CacheEntry
	IsFresh(entry CacheEntry, ttl time.Duration) bool
	Clear()
	Snapshot(ttl time.Duration) map[CacheKey]EntryStatus
}

// Metrics receives orchestrator events. A nil Metrics is allowed.
type Metrics interface {
	AttemptObserver
	RecordCacheLookup(hit bool)
	RecordCoalesced()
}
