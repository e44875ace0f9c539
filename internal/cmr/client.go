// Package cmr provides a client for NASA's Common Metadata Repository (CMR)
// granule search API.
package cmr

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the default CMR API base URL.
	DefaultBaseURL = "https://cmr.earthdata.nasa.gov/search"

	// DefaultProvider is the CMR provider hosting the TEMPO level-3 products.
	DefaultProvider = "LARC_CLOUD"

	// DefaultPageSize is the default number of results per page.
	DefaultPageSize = 250

	// MaxPageSize is the maximum page size supported by CMR.
	MaxPageSize = 2000

	// SearchAfterHeader is the header used for cursor-based pagination.
	SearchAfterHeader = "CMR-Search-After"

	// temporalLayout is the timestamp form CMR's temporal parameter expects.
	temporalLayout = "2006-01-02T15:04:05Z"
)

// Client handles communication with the CMR API.
type Client struct {
	baseURL    string
	provider   string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new CMR API client.
func NewClient(baseURL, provider string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if provider == "" {
		provider = DefaultProvider
	}

	return &Client{
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		provider: provider,
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

// SearchParams represents parameters for CMR granule searches.
type SearchParams struct {
	// Product identification
	ShortName string // collection short name, e.g. "TEMPO_NO2_L3"
	Version   string // collection version, e.g. "V03"

	// Spatial filter
	BoundingBox string // west,south,east,north

	// Temporal filter
	Temporal string // start,end in ISO 8601 format

	// Pagination
	PageSize    int
	SearchAfter string // CMR-Search-After cursor

	// Sorting
	SortKey string // CMR sort key (e.g. "+start_date" for chronological)
}

// Temporal formats a closed time range for SearchParams.Temporal.
func Temporal(start, end time.Time) string {
	return start.UTC().Format(temporalLayout) + "," + end.UTC().Format(temporalLayout)
}

// ToURLValues converts SearchParams to URL query parameters.
func (p *SearchParams) ToURLValues() url.Values {
	values := url.Values{}

	// Product identification
	if p.ShortName != "" {
		values.Set("short_name", p.ShortName)
	}
	if p.Version != "" {
		values.Set("version", p.Version)
	}

	// Spatial filter
	if p.BoundingBox != "" {
		values.Set("bounding_box", p.BoundingBox)
	}

	// Temporal filter
	if p.Temporal != "" {
		values.Set("temporal", p.Temporal)
	}

	// Pagination
	if p.PageSize > 0 {
		values.Set("page_size", fmt.Sprintf("%d", p.PageSize))
	} else {
		values.Set("page_size", fmt.Sprintf("%d", DefaultPageSize))
	}

	// Sorting
	if p.SortKey != "" {
		values.Set("sort_key", p.SortKey)
	} else {
		// Default to chronological order so granules are processed along
		// the time axis
		values.Set("sort_key", "+start_date")
	}

	return values
}

// SearchResult contains one page of CMR search results.
type SearchResult struct {
	Granules    []UMMGranule
	Hits        int
	SearchAfter string // Cursor for next page
	TookMs      int
}

// Search performs a single-page granule search against CMR.
func (c *Client) Search(ctx context.Context, params *SearchParams) (*SearchResult, error) {
	// Build the search URL
	searchURL := c.baseURL + "/granules.umm_json"

	// Build query parameters
	queryParams := params.ToURLValues()
	queryParams.Set("provider", c.provider)

	c.logger.DebugContext(ctx, "executing CMR search",
		slog.String("url", searchURL),
		slog.String("params", queryParams.Encode()),
	)

	// Create the HTTP request
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL+"?"+queryParams.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// Set headers
	req.Header.Set("Accept", "application/vnd.nasa.cmr.umm_results+json")
	req.Header.Set("User-Agent", "aqetl/1.0")

	// Add CMR-Search-After header for pagination
	if params.SearchAfter != "" {
		req.Header.Set(SearchAfterHeader, params.SearchAfter)
	}

	// Execute the request
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.ErrorContext(ctx, "CMR API request failed",
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("CMR API request failed: %w", err)
	}
	defer resp.Body.Close()

	// Check for non-200 status codes
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		c.logger.ErrorContext(ctx, "CMR API returned non-200 status",
			slog.Int("status_code", resp.StatusCode),
			slog.String("response_body", string(body)),
		)
		return nil, fmt.Errorf("CMR API returned status %d: %s", resp.StatusCode, string(body))
	}

	// Parse the response
	var cmrResp UMMSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&cmrResp); err != nil {
		c.logger.ErrorContext(ctx, "failed to decode CMR response",
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to decode CMR response: %w", err)
	}

	// Extract granules from items
	granules := make([]UMMGranule, 0, len(cmrResp.Items))
	for _, item := range cmrResp.Items {
		granules = append(granules, item.UMM)
	}

	// Get the CMR-Search-After header for pagination
	searchAfter := resp.Header.Get(SearchAfterHeader)

	c.logger.DebugContext(ctx, "CMR search completed",
		slog.Int("hits", cmrResp.Hits),
		slog.Int("returned", len(granules)),
		slog.Bool("has_next", searchAfter != ""),
	)

	return &SearchResult{
		Granules:    granules,
		Hits:        cmrResp.Hits,
		SearchAfter: searchAfter,
		TookMs:      cmrResp.Took,
	}, nil
}

// SearchAll drains every result page for the given parameters, following
// the CMR-Search-After cursor until the full hit count has been returned.
func (c *Client) SearchAll(ctx context.Context, params *SearchParams) ([]UMMGranule, error) {
	// Work on a copy so the caller's cursor field is left untouched
	p := *params

	var granules []UMMGranule
	for {
		result, err := c.Search(ctx, &p)
		if err != nil {
			return nil, err
		}

		granules = append(granules, result.Granules...)

		// The cursor header is absent on the final page; an empty page
		// means CMR has nothing further regardless of the header
		if result.SearchAfter == "" || len(result.Granules) == 0 || len(granules) >= result.Hits {
			return granules, nil
		}

		p.SearchAfter = result.SearchAfter
	}
}
