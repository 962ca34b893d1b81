package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"easystay_client/errors"
)

// GeoClient looks up countries and their cities from the third-party
// countriesnow.space service. The lookups only feed form suggestions, so
// the whole client sits behind a circuit breaker and callers degrade to
// free-text input when it fails.
type GeoClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
	cb         *gobreaker.CircuitBreaker
}

func NewGeoClient(baseURL string, logger *logrus.Logger) *GeoClient {
	return &GeoClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
		cb:     NewBreaker("geoService", logger),
	}
}

type geoEnvelope struct {
	Error bool            `json:"error"`
	Msg   string          `json:"msg"`
	Data  json.RawMessage `json:"data"`
}

func (g *GeoClient) Countries(ctx context.Context) ([]string, error) {
	result, err := g.cb.Execute(func() (interface{}, error) {
		raw, err := g.fetch(ctx, http.MethodGet, "/countries/iso", nil)
		if err != nil {
			return nil, err
		}
		var entries []struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(raw, &entries); err != nil {
			return nil, fmt.Errorf("decode countries: %w", err)
		}
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name)
		}
		return names, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]string), nil
}

func (g *GeoClient) Cities(ctx context.Context, country string) ([]string, error) {
	result, err := g.cb.Execute(func() (interface{}, error) {
		body := map[string]string{"country": country}
		raw, err := g.fetch(ctx, http.MethodPost, "/countries/cities", body)
		if err != nil {
			return nil, err
		}
		var cities []string
		if err := json.Unmarshal(raw, &cities); err != nil {
			return nil, fmt.Errorf("decode cities: %w", err)
		}
		return cities, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]string), nil
}

func (g *GeoClient) fetch(ctx context.Context, method, path string, body interface{}) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode geo request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build geo request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, &errors.NetworkError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &errors.APIError{StatusCode: resp.StatusCode}
	}

	var envelope geoEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode geo response: %w", err)
	}
	if envelope.Error {
		return nil, fmt.Errorf("geo lookup failed: %s", envelope.Msg)
	}
	return envelope.Data, nil
}
