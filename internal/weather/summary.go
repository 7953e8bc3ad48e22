package weather

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// Summary combines the current report, local forecast and warning summary.
type Summary struct {
	Current   CurrentWeather `json:"current"`
	Forecast  LocalForecast  `json:"forecast"`
	Warnings  Warnings       `json:"warnings"`
	Timestamp time.Time      `json:"timestamp"`
}

// GetSummary fetches the three summary data types concurrently through the cache.
// The first failure cancels the others and is returned.
func (s *Service) GetSummary(ctx context.Context, lang Language) (Summary, error) {
	var current, forecast, warnings Payload

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		current, err = s.FetchWeatherData(gctx, DataTypeCurrentReport, lang, true)
		return err
	})
	g.Go(func() error {
		var err error
		forecast, err = s.FetchWeatherData(gctx, DataTypeLocalForecast, lang, true)
		return err
	})
	g.Go(func() error {
		var err error
		warnings, err = s.FetchWeatherData(gctx, DataTypeWarningSummary, lang, true)
		return err
	})

	if err := g.Wait(); err != nil {
		s.logger.WithError(err).Error("error getting weather summary")
		return Summary{}, err
	}

	return Summary{
		Current:   ProjectCurrentWeather(current),
		Forecast:  ProjectLocalForecast(forecast),
		Warnings:  ProjectWarnings(warnings),
		Timestamp: time.Now().UTC(),
	}, nil
}
