package providers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/i474232898/hko-weather-proxy/internal/weather"
)

// maxBodyBytes caps how much of an upstream body is read.
const maxBodyBytes = 8 << 20

// BreakerConfig controls the circuit breaker wrapped around upstream calls.
type BreakerConfig struct {
	// MaxFailures is the number of consecutive failures that opens the circuit.
	// Zero disables the breaker.
	MaxFailures uint32
	// OpenTimeout is how long the circuit stays open before a trial request.
	OpenTimeout time.Duration
	// HalfOpenRequests is the number of trial requests allowed while half-open.
	HalfOpenRequests uint32
}

var (
	errCircuitOpen  = errors.New("circuit breaker open")
	errNoHTTPClient = errors.New("http client not configured")
)

func newCircuitBreaker(name string, cfg BreakerConfig, logger logrus.FieldLogger) *gobreaker.CircuitBreaker {
	if cfg.MaxFailures == 0 {
		return nil
	}
	if cfg.HalfOpenRequests == 0 {
		cfg.HalfOpenRequests = 1
	}
	maxFailures := cfg.MaxFailures
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.HalfOpenRequests,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("upstream circuit breaker state changed")
		},
	})
}

// doRequest executes one HTTP attempt through the circuit breaker. Non-2xx
// responses come back as *weather.UpstreamHTTPError with the body drained;
// everything else that goes wrong is a *weather.UpstreamTransportError.
func doRequest(
	ctx context.Context,
	client *http.Client,
	cb *gobreaker.CircuitBreaker,
	buildRequest func(ctx context.Context) (*http.Request, error),
) (*http.Response, error) {
	if client == nil {
		return nil, &weather.UpstreamTransportError{Op: "request", Err: errNoHTTPClient}
	}

	req, err := buildRequest(ctx)
	if err != nil {
		return nil, &weather.UpstreamTransportError{Op: "build request", Err: err}
	}

	call := func() (interface{}, error) {
		resp, execErr := client.Do(req)
		if execErr != nil {
			return nil, &weather.UpstreamTransportError{Op: "GET " + req.URL.Redacted(), Err: execErr}
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
			resp.Body.Close()
			return nil, &weather.UpstreamHTTPError{StatusCode: resp.StatusCode, Status: resp.Status}
		}

		return resp, nil
	}

	var result interface{}
	if cb == nil {
		result, err = call()
	} else {
		result, err = cb.Execute(call)
	}
	if err != nil {
		// If circuit is open, fail fast without touching the network.
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, &weather.UpstreamTransportError{Op: "request", Err: fmt.Errorf("%w: %v", errCircuitOpen, err)}
		}
		return nil, err
	}

	resp, ok := result.(*http.Response)
	if !ok {
		return nil, &weather.UpstreamTransportError{Op: "request", Err: errors.New("unexpected result type from circuit breaker")}
	}
	return resp, nil
}
