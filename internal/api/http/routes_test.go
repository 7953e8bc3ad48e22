package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/hko-weather-proxy/internal/metrics"
	"github.com/i474232898/hko-weather-proxy/internal/scheduler"
	"github.com/i474232898/hko-weather-proxy/internal/store"
	"github.com/i474232898/hko-weather-proxy/internal/weather"
)

// stubUpstream answers with a canned payload per data type and records every call.
type stubUpstream struct {
	mu      sync.Mutex
	calls   []weather.CacheKey
	failing bool
}

func (u *stubUpstream) Fetch(ctx context.Context, dt weather.DataType, lang weather.Language) (weather.Payload, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.calls = append(u.calls, weather.CacheKey{DataType: dt, Language: lang})
	if u.failing {
		return nil, &weather.UpstreamHTTPError{StatusCode: 503, Status: "503 Service Unavailable"}
	}
	return weather.Payload{
		"updateTime":       "2024-06-01T09:02:00+08:00",
		"generalSituation": "Fine " + string(lang),
		"temperature":      map[string]any{"data": []any{map[string]any{"place": "HKO", "value": 28.0}}},
	}, nil
}

func (u *stubUpstream) Calls() []weather.CacheKey {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]weather.CacheKey(nil), u.calls...)
}

type fakeAutomation struct {
	running bool
	starts  int
	stops   int
}

func (a *fakeAutomation) Start() error { a.starts++; a.running = true; return nil }
func (a *fakeAutomation) Stop()        { a.stops++; a.running = false }
func (a *fakeAutomation) Running() bool {
	return a.running
}
func (a *fakeAutomation) Config() scheduler.Config {
	return scheduler.Config{Enabled: true, Interval: 5 * time.Minute, DataTypes: scheduler.DefaultDataTypes}
}

type testServer struct {
	app        *fiber.App
	upstream   *stubUpstream
	automation *fakeAutomation
	metrics    *metrics.Collector
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	logger, _ := test.NewNullLogger()
	up := &stubUpstream{}
	m := metrics.New()
	retrier := weather.NewRetrier(up, 2, time.Millisecond, logger,
		weather.WithSleep(func(ctx context.Context, d time.Duration) error { return nil }),
		weather.WithObserver(m),
	)
	svc := weather.NewService(store.NewMemoryStore(), retrier, weather.ServiceConfig{
		TTL:             time.Minute,
		DefaultLanguage: weather.LanguageTraditionalChinese,
	}, m, logger)

	auto := &fakeAutomation{}
	app := NewApp(logger)
	RegisterRoutes(app, NewHandler(svc, auto, m))

	return &testServer{app: app, upstream: up, automation: auto, metrics: m}
}

func (s *testServer) do(t *testing.T, method, target string) (*http.Response, []byte) {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func decodeJSON(t *testing.T, body []byte) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(body, &out), string(body))
	return out
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	resp, body := s.do(t, http.MethodGet, "/health")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", decodeJSON(t, body)["status"])
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderXRequestID))
}

func TestProjectedRoutesUseRequestedLanguage(t *testing.T) {
	s := newTestServer(t)

	resp, body := s.do(t, http.MethodGet, "/weather/forecast?lang=en")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decodeJSON(t, body)
	assert.Equal(t, "Fine en", got["generalSituation"])
	assert.Equal(t, "2024-06-01T09:02:00+08:00", got["updateTime"])

	resp, body = s.do(t, http.MethodGet, "/weather")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decodeJSON(t, body)["temperature"], 1)

	assert.Equal(t, []weather.CacheKey{
		{DataType: weather.DataTypeLocalForecast, Language: weather.LanguageEnglish},
		{DataType: weather.DataTypeCurrentReport, Language: weather.LanguageTraditionalChinese},
	}, s.upstream.Calls())
}

func TestEveryProjectedRouteResponds(t *testing.T) {
	s := newTestServer(t)
	for _, r := range projectedRoutes {
		resp, _ := s.do(t, http.MethodGet, "/weather"+r.path+"?lang=sc")
		assert.Equal(t, http.StatusOK, resp.StatusCode, r.path)
	}
	assert.Len(t, s.upstream.Calls(), len(projectedRoutes))
}

func TestInvalidLanguageIsRejected(t *testing.T) {
	s := newTestServer(t)
	resp, body := s.do(t, http.MethodGet, "/weather/current?lang=fr")

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid language", decodeJSON(t, body)["error"])
	assert.Empty(t, s.upstream.Calls())
}

func TestDataRouteRejectsUnknownType(t *testing.T) {
	s := newTestServer(t)
	resp, body := s.do(t, http.MethodGet, "/weather/data/bogus")

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	got := decodeJSON(t, body)
	assert.Equal(t, "Invalid data type", got["error"])
	assert.Len(t, got["availableTypes"], len(weather.DataTypes))
	assert.Empty(t, s.upstream.Calls())
}

func TestDataRouteRefreshBypassesCache(t *testing.T) {
	s := newTestServer(t)

	for i := 0; i < 2; i++ {
		resp, _ := s.do(t, http.MethodGet, "/weather/data/fnd?lang=en")
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
	assert.Len(t, s.upstream.Calls(), 1)

	resp, _ := s.do(t, http.MethodGet, "/weather/data/fnd?lang=en&refresh=true")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, s.upstream.Calls(), 2)
}

func TestExhaustedFetchMapsToBadGateway(t *testing.T) {
	s := newTestServer(t)
	s.upstream.failing = true

	resp, body := s.do(t, http.MethodGet, "/weather/warnings?lang=tc")

	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	got := decodeJSON(t, body)
	assert.Equal(t, "warnsum", got["dataType"])
	assert.Equal(t, "tc", got["lang"])
	assert.EqualValues(t, 2, got["attempts"])
	assert.Contains(t, got["details"], "after 2 attempts")
}

func TestSummaryCombinesThreeTypes(t *testing.T) {
	s := newTestServer(t)
	resp, body := s.do(t, http.MethodGet, "/weather/summary?lang=en")

	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decodeJSON(t, body)
	assert.Contains(t, got, "current")
	assert.Contains(t, got, "forecast")
	assert.Contains(t, got, "warnings")
	assert.Contains(t, got, "timestamp")
	assert.Len(t, s.upstream.Calls(), 3)
}

func TestCacheStatusAndClear(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodGet, "/weather/current?lang=en")

	resp, body := s.do(t, http.MethodPost, "/weather/cache/status")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	status := decodeJSON(t, body)
	require.Contains(t, status, "rhrread_en")
	entry := status["rhrread_en"].(map[string]any)
	assert.Equal(t, false, entry["expired"])
	assert.Contains(t, entry, "timestamp")
	assert.Contains(t, entry, "age")

	resp, body = s.do(t, http.MethodGet, "/weather/cache/clear")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Cache cleared successfully", decodeJSON(t, body)["message"])

	_, body = s.do(t, http.MethodGet, "/weather/cache/status")
	assert.Empty(t, decodeJSON(t, body))
}

func TestAutomationControl(t *testing.T) {
	s := newTestServer(t)

	resp, body := s.do(t, http.MethodPost, "/weather/automation/start")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, decodeJSON(t, body)["running"])

	resp, body = s.do(t, http.MethodGet, "/weather/automation/stop")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Automation stopped successfully", decodeJSON(t, body)["message"])

	assert.Equal(t, 1, s.automation.starts)
	assert.Equal(t, 1, s.automation.stops)
	assert.False(t, s.automation.running)
}

func TestInfo(t *testing.T) {
	s := newTestServer(t)
	resp, body := s.do(t, http.MethodGet, "/weather/info")

	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decodeJSON(t, body)
	assert.Len(t, got["supportedDataTypes"], len(weather.DataTypes))
	assert.Len(t, got["supportedLanguages"], len(weather.Languages))
	assert.Len(t, got["availableEndpoints"], len(availableEndpoints))

	auto := got["automation"].(map[string]any)
	assert.EqualValues(t, (5 * time.Minute).Milliseconds(), auto["interval"])
	assert.Equal(t, []any{"rhrread", "flw", "warnsum"}, auto["endpoints"])
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer(t)
	resp, body := s.do(t, http.MethodGet, "/nowhere")

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Available endpoints: /weather/info", decodeJSON(t, body)["message"])
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodGet, "/weather/current")
	s.do(t, http.MethodGet, "/weather/current")

	resp, body := s.do(t, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get(fiber.HeaderContentType), "text/plain"))
	assert.Contains(t, string(body), "hko_cache_hits_total 1\n")
	assert.Contains(t, string(body), "hko_cache_misses_total 1\n")
	assert.Contains(t, string(body), "hko_upstream_attempts_total 1\n")
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/weather/current", nil)
	req.Header.Set(fiber.HeaderOrigin, "https://example.test")
	req.Header.Set(fiber.HeaderAccessControlRequestMethod, http.MethodGet)

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "*", resp.Header.Get(fiber.HeaderAccessControlAllowOrigin))
	assert.Contains(t, resp.Header.Get(fiber.HeaderAccessControlAllowMethods), "POST")
}
