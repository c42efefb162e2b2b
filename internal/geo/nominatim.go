package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/swasthgram/health-api/internal/model"
	"github.com/swasthgram/health-api/pkg/circuitbreaker"
)

const defaultBaseURL = "https://nominatim.openstreetmap.org"

// Client talks to the OpenStreetMap Nominatim API. All calls are best-effort:
// a failure degrades to "no location" and must never block report submission.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cb         *circuitbreaker.CircuitBreaker
	userAgent  string
}

type Config struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "swasthgram-health-api"
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cb: circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
			Name:        "nominatim",
			MaxFailures: 5,
			Timeout:     time.Minute,
		}),
		userAgent: cfg.UserAgent,
	}
}

type searchResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

type reverseResult struct {
	DisplayName string `json:"display_name"`
}

// Search geocodes free-form text into a location. A miss returns (nil, nil).
func (c *Client) Search(ctx context.Context, query string) (*model.Location, error) {
	if query == "" {
		return nil, nil
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("limit", "1")

	var results []searchResult
	if err := c.get(ctx, "/search", params, &results); err != nil {
		return nil, fmt.Errorf("geocoding search failed: %w", err)
	}
	if len(results) == 0 {
		return nil, nil
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid latitude in geocoding result: %w", err)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid longitude in geocoding result: %w", err)
	}

	return &model.Location{
		Latitude:  lat,
		Longitude: lon,
		Address:   results[0].DisplayName,
		Text:      query,
	}, nil
}

// Reverse resolves coordinates into a display address.
func (c *Client) Reverse(ctx context.Context, lat, lon float64) (*model.Location, error) {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	params.Set("format", "json")

	var result reverseResult
	if err := c.get(ctx, "/reverse", params, &result); err != nil {
		return nil, fmt.Errorf("reverse geocoding failed: %w", err)
	}

	return &model.Location{
		Latitude:  lat,
		Longitude: lon,
		Address:   result.DisplayName,
	}, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	return c.cb.Execute(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
		if err != nil {
			return err
		}
		req.Header.Set("User-Agent", c.userAgent)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("unexpected status %d", resp.StatusCode)
		}
		return json.NewDecoder(resp.Body).Decode(out)
	})
}
