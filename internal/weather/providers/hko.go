package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/i474232898/hko-weather-proxy/internal/weather"
)

// DefaultHKOBaseURL is the Hong Kong Observatory open data weather endpoint.
const DefaultHKOBaseURL = "https://data.weather.gov.hk/weatherAPI/opendata/weather.php"

// HKOClient implements weather.Upstream against the Hong Kong Observatory API.
// Each Fetch is exactly one HTTP attempt; retries live in weather.Retrier.
type HKOClient struct {
	name    string
	baseURL string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
}

func NewHKOClient(client *http.Client, baseURL string, breaker BreakerConfig, logger logrus.FieldLogger) *HKOClient {
	if baseURL == "" {
		baseURL = DefaultHKOBaseURL
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &HKOClient{
		name:    "hko",
		baseURL: baseURL,
		client:  client,
		circuit: newCircuitBreaker("hko", breaker, logger),
	}
}

func (c *HKOClient) Name() string {
	return c.name
}

// BuildURL returns the upstream URL for dataType and lang.
func (c *HKOClient) BuildURL(dataType weather.DataType, lang weather.Language) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", err
	}
	values := u.Query()
	values.Set("dataType", string(dataType))
	values.Set("lang", string(lang))
	u.RawQuery = values.Encode()
	return u.String(), nil
}

func (c *HKOClient) Fetch(ctx context.Context, dataType weather.DataType, lang weather.Language) (weather.Payload, error) {
	buildRequest := func(ctx context.Context) (*http.Request, error) {
		u, err := c.BuildURL(dataType, lang)
		if err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		return req, nil
	}

	resp, err := doRequest(ctx, c.client, c.circuit, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload weather.Payload
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&payload); err != nil {
		return nil, &weather.UpstreamTransportError{Op: "decode " + string(dataType), Err: err}
	}
	if payload == nil {
		return nil, &weather.UpstreamTransportError{Op: "decode " + string(dataType), Err: fmt.Errorf("empty JSON object")}
	}

	return payload, nil
}
