package weather

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// DefaultCacheTTL is how long a cached payload is served without refetching.
const DefaultCacheTTL = 10 * time.Minute

// Service is the single entry point for weather data: cache lookup, retrying
// upstream fetch on a miss, and cache population.
type Service struct {
	cache       Cache
	fetcher     Fetcher
	ttl         time.Duration
	defaultLang Language
	metrics     Metrics
	logger      logrus.FieldLogger

	group singleflight.Group
}

// ServiceConfig bundles the orchestrator settings.
type ServiceConfig struct {
	TTL             time.Duration
	DefaultLanguage Language
}

// NewService creates a new Service. metrics may be nil.
func NewService(cache Cache, fetcher Fetcher, cfg ServiceConfig, metrics Metrics, logger logrus.FieldLogger) *Service {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultCacheTTL
	}
	if !cfg.DefaultLanguage.Valid() {
		cfg.DefaultLanguage = DefaultLanguage
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Service{
		cache:       cache,
		fetcher:     fetcher,
		ttl:         cfg.TTL,
		defaultLang: cfg.DefaultLanguage,
		metrics:     metrics,
		logger:      logger,
	}
}

// DefaultLanguage returns the language used when callers leave it empty.
func (s *Service) DefaultLanguage() Language {
	return s.defaultLang
}

// TTL returns the configured cache time-to-live.
func (s *Service) TTL() time.Duration {
	return s.ttl
}

// FetchWeatherData returns the payload for (dataType, lang). With useCache a fresh
// cached entry is returned without touching the network. Any successful upstream
// fetch overwrites the cache entry, even when useCache is false. When every retry
// fails the cache is left as it was and the stale entry is not served.
func (s *Service) FetchWeatherData(ctx context.Context, dataType DataType, lang Language, useCache bool) (Payload, error) {
	if !dataType.Valid() {
		return nil, &InvalidDataTypeError{Value: string(dataType)}
	}
	if lang == "" {
		lang = s.defaultLang
	}
	if !lang.Valid() {
		return nil, &InvalidLanguageError{Value: string(lang)}
	}

	key := CacheKey{DataType: dataType, Language: lang}
	log := s.logger.WithFields(logrus.Fields{"dataType": dataType, "lang": lang})

	if useCache {
		if entry, ok := s.cache.Get(key); ok && s.cache.IsFresh(entry, s.ttl) {
			s.recordLookup(true)
			log.Debug("cache hit")
			return entry.Payload, nil
		}
	}
	s.recordLookup(false)
	log.Debug("cache miss")

	// Concurrent misses for one key share a single upstream retry sequence. The
	// shared fetch must not die with whichever caller happened to start it.
	fetchCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key.String(), func() (interface{}, error) {
		payload, err := s.fetcher.Fetch(fetchCtx, dataType, lang)
		if err != nil {
			return nil, err
		}
		s.cache.Put(key, payload)
		return payload, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Shared && s.metrics != nil {
			s.metrics.RecordCoalesced()
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(Payload), nil
	}
}

// CacheStatus returns a point-in-time view of every cache entry keyed by "<dataType>_<lang>".
func (s *Service) CacheStatus() map[string]EntryStatus {
	snap := s.cache.Snapshot(s.ttl)
	out := make(map[string]EntryStatus, len(snap))
	for k, v := range snap {
		out[k.String()] = v
	}
	return out
}

// ClearCache drops every cache entry.
func (s *Service) ClearCache() {
	s.cache.Clear()
	s.logger.Info("weather cache cleared")
}

func (s *Service) recordLookup(hit bool) {
	if s.metrics != nil {
		s.metrics.RecordCacheLookup(hit)
	}
}
