// Package openaq provides a client for the OpenAQ v3 air-quality API and
// the measurement-fetch batch built on it.
package openaq

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/atmosense/aqetl/internal/geo"
)

const (
	// DefaultBaseURL is the public OpenAQ v3 API endpoint.
	DefaultBaseURL = "https://api.openaq.org/v3"

	// apiKeyHeader carries the OpenAQ API key on every request.
	apiKeyHeader = "X-API-Key"
)

// Client handles communication with the OpenAQ v3 API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new OpenAQ API client.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 100,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		logger: slog.Default(),
	}
}

// WithLogger sets a custom logger for the client.
func (c *Client) WithLogger(logger *slog.Logger) *Client {
	c.logger = logger
	return c
}

// Locations queries monitoring locations around a point that report the
// given pollutant parameter. The radius is in meters.
func (c *Client) Locations(ctx context.Context, point geo.Point, radiusMeters int, parameter string, limit int) ([]Location, error) {
	query := url.Values{}
	query.Set("coordinates", point.Coordinates())
	query.Set("radius", strconv.Itoa(radiusMeters))
	query.Set("parameter", parameter)
	query.Set("limit", strconv.Itoa(limit))

	var resp locationsResponse
	if err := c.get(ctx, "/locations", query, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// HourlyMeasurements fetches one sensor's hourly series over the closed
// window [from, to]. Records without a recognizable timestamp or value are
// dropped.
func (c *Client) HourlyMeasurements(ctx context.Context, sensorID int, from, to time.Time, limit int) ([]Record, error) {
	query := url.Values{}
	query.Set("date_from", from.UTC().Format(time.RFC3339))
	query.Set("date_to", to.UTC().Format(time.RFC3339))
	query.Set("limit", strconv.Itoa(limit))

	path := fmt.Sprintf("/sensors/%d/measurements/hourly", sensorID)

	var resp measurementsResponse
	if err := c.get(ctx, path, query, &resp); err != nil {
		return nil, err
	}

	records, dropped := decodeRecords(resp.Results)
	if dropped > 0 {
		c.logger.DebugContext(ctx, "dropped unparseable measurement records",
			slog.Int("sensor_id", sensorID),
			slog.Int("dropped", dropped),
		)
	}
	return records, nil
}

// get executes one GET request against the API and decodes the JSON body
// into out.
func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	reqURL := c.baseURL + path + "?" + query.Encode()

	c.logger.DebugContext(ctx, "executing OpenAQ request",
		slog.String("url", reqURL),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	// Set headers
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "aqetl/1.0")
	req.Header.Set(apiKeyHeader, c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.ErrorContext(ctx, "OpenAQ API request failed",
			slog.String("error", err.Error()),
			slog.String("url", reqURL),
		)
		return fmt.Errorf("OpenAQ API request failed: %w", err)
	}
	defer resp.Body.Close()

	// Check for non-200 status codes
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		c.logger.ErrorContext(ctx, "OpenAQ API returned non-200 status",
			slog.Int("status_code", resp.StatusCode),
			slog.String("response_body", string(body)),
		)
		return fmt.Errorf("OpenAQ API returned status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.logger.ErrorContext(ctx, "failed to decode OpenAQ response",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to decode OpenAQ response: %w", err)
	}

	return nil
}
