// Package deezer resolves a track title and artist to a short playable
// preview clip URL via the Deezer search API.
package deezer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

const (
	baseURL   = "https://api.deezer.com/search"
	userAgent = "spotify-genre-sorter/1.0"
)

// Deezer API error codes.
const (
	errCodeQuotaExceeded = 4
	errCodeInvalidQuery  = 500
)

// Sentinel errors.
var (
	// ErrNoPreview is returned when no search result carries a playable
	// preview URL.
	ErrNoPreview = errors.New("no preview available")

	// ErrQuotaExceeded is returned when the API request quota is exhausted.
	ErrQuotaExceeded = errors.New("request quota exceeded")
)

// Client is a Deezer search client with in-memory caching. Requests are
// single-attempt with a bounded timeout; retries are the caller's call.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *log.Logger

	// Cache key: "title\x00artist"
	cache   map[string]string
	cacheMu sync.RWMutex
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint, used by tests.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = u
	}
}

// NewClient creates a Deezer search client.
func NewClient(logger *log.Logger, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    baseURL,
		logger:     logger,
		cache:      make(map[string]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FindPreview searches for "title artist" and returns the preview URL of
// the first result that has one. Results are matched by presence of a
// preview link only, no fuzzy scoring. Returns ErrNoPreview when the
// search succeeds but nothing playable is found.
func (c *Client) FindPreview(ctx context.Context, title, artist string) (string, error) {
	cacheKey := title + "\x00" + artist

	c.cacheMu.RLock()
	if cached, ok := c.cache[cacheKey]; ok {
		c.cacheMu.RUnlock()
		if cached == "" {
			return "", ErrNoPreview
		}
		return cached, nil
	}
	c.cacheMu.RUnlock()

	params := url.Values{
		"q": {title + " " + artist},
	}

	body, err := c.doRequest(ctx, params)
	if err != nil {
		return "", fmt.Errorf("searching previews: %w", err)
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("parsing search response: %w", err)
	}

	preview := ""
	for _, result := range resp.Data {
		if result.Preview != "" {
			preview = result.Preview
			break
		}
	}

	c.cacheMu.Lock()
	c.cache[cacheKey] = preview
	c.cacheMu.Unlock()

	if preview == "" {
		return "", ErrNoPreview
	}
	return preview, nil
}

// doRequest performs a single HTTP GET request against the search API.
func (c *Client) doRequest(ctx context.Context, params url.Values) ([]byte, error) {
	reqURL := c.baseURL + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	// Deezer reports errors in the body with a 200 status.
	var apiErr apiError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Code != 0 {
		switch apiErr.Error.Code {
		case errCodeQuotaExceeded:
			return nil, ErrQuotaExceeded
		default:
			return nil, fmt.Errorf("API error %d: %s", apiErr.Error.Code, apiErr.Error.Message)
		}
	}

	return body, nil
}
