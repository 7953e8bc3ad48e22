package scheduler

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/i474232898/hko-weather-proxy/internal/weather"
)

// DefaultInterval is the automation period used when none is configured.
const DefaultInterval = 5 * time.Minute

// DefaultDataTypes are refreshed by every automation pass unless configured otherwise.
var DefaultDataTypes = []weather.DataType{
	weather.DataTypeCurrentReport,
	weather.DataTypeLocalForecast,
	weather.DataTypeWarningSummary,
}

// Refresher is the fetch path the scheduler drives.
type Refresher interface {
	FetchWeatherData(ctx context.Context, dataType weather.DataType, lang weather.Language, useCache bool) (weather.Payload, error)
}

// PassRecorder receives one call per finished pass. Optional.
type PassRecorder interface {
	RecordAutomationPass(failures int)
}

// Config controls the automation loop.
type Config struct {
	Enabled   bool
	Interval  time.Duration
	DataTypes []weather.DataType
	Language  weather.Language
}

// Scheduler periodically refreshes the configured data types through the service.
type Scheduler struct {
	refresher Refresher
	cfg       Config
	recorder  PassRecorder
	logger    logrus.FieldLogger

	mu      sync.Mutex
	sched   *gocron.Scheduler
	cancel  context.CancelFunc
	running bool
}

// New creates a stopped Scheduler. recorder may be nil.
func New(cfg Config, refresher Refresher, recorder PassRecorder, logger logrus.FieldLogger) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if len(cfg.DataTypes) == 0 {
		cfg.DataTypes = DefaultDataTypes
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Scheduler{
		refresher: refresher,
		cfg:       cfg,
		recorder:  recorder,
		logger:    logger.WithField("component", "automation"),
	}
}

// Config returns the effective automation settings.
func (s *Scheduler) Config() Config {
	return s.cfg
}

// Running reports whether the periodic task is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Start runs one pass immediately and then one every interval. Passes never overlap.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.cfg.Enabled {
		s.logger.Info("automation is disabled")
		return nil
	}
	if s.running {
		s.logger.Info("weather automation already running")
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	sched := gocron.NewScheduler(time.UTC)
	_, err := sched.Every(s.cfg.Interval).SingletonMode().StartImmediately().Do(func() {
		s.RunPass(ctx)
	})
	if err != nil {
		cancel()
		return err
	}
	sched.StartAsync()

	s.sched = sched
	s.cancel = cancel
	s.running = true

	s.logger.WithFields(logrus.Fields{
		"interval":  s.cfg.Interval.String(),
		"endpoints": joinDataTypes(s.cfg.DataTypes),
	}).Info("weather automation started")
	return nil
}

// Stop cancels the in-flight pass, if any, and stops future passes.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.cancel()
	s.sched.Stop()

	s.sched = nil
	s.cancel = nil
	s.running = false
	s.logger.Info("weather automation stopped")
}

// RunPass refreshes every configured data type once. Failures are logged and
// counted but never abort the pass.
func (s *Scheduler) RunPass(ctx context.Context) {
	log := s.logger.WithField("passID", uuid.NewString())
	log.Debug("automation pass started")

	failures := 0
	for _, dt := range s.cfg.DataTypes {
		if ctx.Err() != nil {
			log.Debug("automation pass abandoned")
			return
		}

		start := time.Now()
		_, err := s.refresher.FetchWeatherData(ctx, dt, s.cfg.Language, true)
		entry := log.WithFields(logrus.Fields{
			"dataType": dt,
			"duration": time.Since(start).String(),
		})
		if err != nil {
			failures++
			entry.WithError(err).Error("automated fetch failed")
			continue
		}
		entry.Info("automated fetch completed")
	}

	if s.recorder != nil {
		s.recorder.RecordAutomationPass(failures)
	}
}

func joinDataTypes(types []weather.DataType) string {
	parts := make([]string, len(types))
	for i, dt := range types {
		parts[i] = string(dt)
	}
	return strings.Join(parts, ",")
}
