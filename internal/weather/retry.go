package weather

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	DefaultRetryAttempts = 3
	DefaultRetryDelay    = time.Second
)

// Backoff returns the delay to wait after the given failed attempt (1-based).
type Backoff func(attempt int) time.Duration

// LinearBackoff waits base*attempt: base, 2*base, 3*base, ...
func LinearBackoff(base time.Duration) Backoff {
	return func(attempt int) time.Duration {
		if attempt < 1 {
			attempt = 1
		}
		return base * time.Duration(attempt)
	}
}

// AttemptEvent describes one upstream attempt made by the Retrier.
type AttemptEvent struct {
	DataType    DataType
	Language    Language
	Attempt     int
	MaxAttempts int
	Err         error
	Elapsed     time.Duration
}

// Success reports whether the attempt returned data.
func (e AttemptEvent) Success() bool {
	return e.Err == nil
}

// AttemptObserver is notified after every upstream attempt.
type AttemptObserver interface {
	ObserveAttempt(AttemptEvent)
}

// AttemptObserverFunc adapts a function to AttemptObserver.
type AttemptObserverFunc func(AttemptEvent)

func (f AttemptObserverFunc) ObserveAttempt(e AttemptEvent) { f(e) }

// SleepFunc blocks for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Retrier wraps an Upstream with bounded retries and backoff.
type Retrier struct {
	upstream    Upstream
	maxAttempts int
	backoff     Backoff
	sleep       SleepFunc
	observers   []AttemptObserver
	logger      logrus.FieldLogger
}

// RetrierOption customizes a Retrier.
type RetrierOption func(*Retrier)

// WithBackoff replaces the default linear backoff.
func WithBackoff(b Backoff) RetrierOption {
	return func(r *Retrier) { r.backoff = b }
}

// WithSleep replaces the wall-clock sleep, mostly for tests.
func WithSleep(s SleepFunc) RetrierOption {
	return func(r *Retrier) { r.sleep = s }
}

// WithObserver registers an attempt observer.
func WithObserver(o AttemptObserver) RetrierOption {
	return func(r *Retrier) {
		if o != nil {
			r.observers = append(r.observers, o)
		}
	}
}

// NewRetrier creates a Retrier. maxAttempts below 1 is treated as 1 and a
// non-positive delay disables waiting between attempts.
func NewRetrier(upstream Upstream, maxAttempts int, delay time.Duration, logger logrus.FieldLogger, opts ...RetrierOption) *Retrier {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	r := &Retrier{
		upstream:    upstream,
		maxAttempts: maxAttempts,
		backoff:     LinearBackoff(delay),
		sleep:       sleepWithContext,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// MaxAttempts returns the configured attempt budget.
func (r *Retrier) MaxAttempts() int {
	return r.maxAttempts
}

// Fetch calls the upstream until it succeeds or the attempt budget is spent.
// Every failure is retried; the caller only ever sees *FetchExhaustedError.
func (r *Retrier) Fetch(ctx context.Context, dataType DataType, lang Language) (Payload, error) {
	start := time.Now()
	log := r.logger.WithFields(logrus.Fields{"dataType": dataType, "lang": lang})

	var lastErr error
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		log.WithField("attempt", attempt).Debugf("fetching %s from upstream", dataType)

		attemptStart := time.Now()
		payload, err := r.upstream.Fetch(ctx, dataType, lang)
		r.notify(AttemptEvent{
			DataType:    dataType,
			Language:    lang,
			Attempt:     attempt,
			MaxAttempts: r.maxAttempts,
			Err:         err,
			Elapsed:     time.Since(attemptStart),
		})

		if err == nil {
			log.WithFields(logrus.Fields{
				"success":  true,
				"attempt":  attempt,
				"duration": time.Since(start).String(),
			}).Info("weather API call")
			return payload, nil
		}

		lastErr = err
		log.WithFields(logrus.Fields{"attempt": attempt, "error": err.Error()}).
			Errorf("attempt %d/%d failed for %s", attempt, r.maxAttempts, dataType)

		if attempt == r.maxAttempts {
			break
		}

		delay := r.backoff(attempt)
		if err := r.sleep(ctx, delay); err != nil {
			lastErr = errors.Join(lastErr, err)
			return nil, r.exhausted(log, dataType, lang, attempt, lastErr, start)
		}
	}

	return nil, r.exhausted(log, dataType, lang, r.maxAttempts, lastErr, start)
}

func (r *Retrier) exhausted(log logrus.FieldLogger, dataType DataType, lang Language, attempts int, lastErr error, start time.Time) error {
	log.WithFields(logrus.Fields{
		"success":  false,
		"attempts": attempts,
		"duration": time.Since(start).String(),
		"error":    lastErr.Error(),
	}).Warn("weather API call")
	return &FetchExhaustedError{
		DataType: dataType,
		Language: lang,
		Attempts: attempts,
		LastErr:  lastErr,
	}
}

func (r *Retrier) notify(e AttemptEvent) {
	for _, o := range r.observers {
		o.ObserveAttempt(e)
	}
}

// sleepWithContext waits for d or returns early when ctx is cancelled.
func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
