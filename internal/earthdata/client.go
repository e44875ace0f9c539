// Package earthdata downloads granule files from NASA Earthdata Login (EDL)
// protected distribution endpoints.
package earthdata

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"os"
	"time"
)

const (
	// DefaultURSBaseURL is the Earthdata Login (URS) endpoint used to
	// verify tokens.
	DefaultURSBaseURL = "https://urs.earthdata.nasa.gov"

	// tokensPath is the URS endpoint that lists the tokens of the
	// authenticated user; a 200 proves the bearer token is accepted.
	tokensPath = "/api/users/tokens"

	maxRedirects = 10
)

// ErrUnauthorized indicates Earthdata rejected the configured token.
var ErrUnauthorized = errors.New("earthdata login rejected the token")

// Client is an HTTP client for EDL-protected downloads. Distribution
// endpoints bounce requests through urs.earthdata.nasa.gov and on to a data
// host, so the client keeps cookies across hops and re-applies the bearer
// token that Go's http.Client strips on cross-host redirects.
type Client struct {
	token      string
	ursBaseURL string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new Earthdata download client. The token is an EDL
// bearer token; it must be non-empty.
func NewClient(token, ursBaseURL string, timeout time.Duration) (*Client, error) {
	if token == "" {
		return nil, fmt.Errorf("earthdata token is required")
	}
	if ursBaseURL == "" {
		ursBaseURL = DefaultURSBaseURL
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	c := &Client{
		token:      token,
		ursBaseURL: ursBaseURL,
		logger:     slog.Default(),
	}
	c.httpClient = &http.Client{
		Timeout: timeout,
		Jar:     jar,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 100,
			IdleConnTimeout:     90 * time.Second,
		},
		CheckRedirect: c.checkRedirect,
	}

	return c, nil
}

// WithLogger sets a custom logger for the client.
func (c *Client) WithLogger(logger *slog.Logger) *Client {
	c.logger = logger
	return c
}

// checkRedirect restores the Authorization header on every hop of the EDL
// redirect chain.
func (c *Client) checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= maxRedirects {
		return fmt.Errorf("stopped after %d redirects", maxRedirects)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	return nil
}

// Verify checks the token against URS so that a bad credential fails the
// run before any granule work starts.
func (c *Client) Verify(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.ursBaseURL+tokensPath, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("earthdata login request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w (status %d)", ErrUnauthorized, resp.StatusCode)
	default:
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("earthdata login returned status %d: %s", resp.StatusCode, string(body))
	}
}

// Download fetches rawURL into a temporary file and returns its path along
// with a cleanup function that removes the file. Callers must invoke
// cleanup on every path once they are done with the file.
func (c *Client) Download(ctx context.Context, rawURL string) (string, func(), error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("download request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			return "", nil, fmt.Errorf("%w (status %d)", ErrUnauthorized, resp.StatusCode)
		}
		return "", nil, fmt.Errorf("download returned status %d: %s", resp.StatusCode, string(body))
	}

	tmp, err := os.CreateTemp("", "granule-*.nc")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	cleanup := func() { os.Remove(tmp.Name()) }

	written, err := io.Copy(tmp, resp.Body)
	if err != nil {
		tmp.Close()
		cleanup()
		return "", nil, fmt.Errorf("failed to write granule to disk: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("failed to close temp file: %w", err)
	}

	c.logger.DebugContext(ctx, "granule downloaded",
		slog.String("url", rawURL),
		slog.Int64("bytes", written),
		slog.Duration("elapsed", time.Since(start)),
	)

	return tmp.Name(), cleanup, nil
}
