package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"
)

// Config holds configuration for the metadata API client. When both
// credentials are set the bearer token wins; otherwise the API key is sent
// as a query parameter.
type Config struct {
	BearerToken string
	APIKey      string
	BaseURL     string
	Timeout     int // in seconds
}

// ConfigFromEnv loads client configuration from environment variables.
func ConfigFromEnv() Config {
	return Config{
		BearerToken: os.Getenv("TMDB_BEARER_TOKEN"),
		APIKey:      os.Getenv("TMDB_API_KEY"),
		BaseURL:     os.Getenv("TMDB_BASE_URL"),
	}
}

// Client talks to the remote movie metadata API.
type Client struct {
	baseURL     string
	bearerToken string
	apiKey      string
	client      *http.Client
}

// StatusError reports a non-success response from the metadata API.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("metadata API returned status %d", e.StatusCode)
}

// NewClient creates a new metadata API client.
func NewClient(config Config) (*Client, error) {
	if config.BearerToken == "" && config.APIKey == "" {
		return nil, fmt.Errorf("either a bearer token or an API key is required")
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = "https://api.themoviedb.org/3"
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = 30 // default 30 seconds
	}

	return &Client{
		baseURL:     baseURL,
		bearerToken: config.BearerToken,
		apiKey:      config.APIKey,
		client: &http.Client{
			Timeout: time.Duration(timeout) * time.Second,
		},
	}, nil
}

// Discover fetches one page of discover results for the given media kind.
func (c *Client) Discover(ctx context.Context, kind MediaKind, params url.Values) (*DiscoverResponse, error) {
	path := "/discover/movie"
	if kind == MediaKindSeries {
		path = "/discover/tv"
	}

	var resp DiscoverResponse
	if err := c.get(ctx, path, params, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch discover page: %w", err)
	}
	return &resp, nil
}

// Details fetches a single title with its region-partitioned certification
// and watch provider data appended to the response.
func (c *Client) Details(ctx context.Context, kind MediaKind, id int) (*TitleDetails, error) {
	params := url.Values{}
	var path string
	if kind == MediaKindSeries {
		path = "/tv/" + strconv.Itoa(id)
		params.Set("append_to_response", "content_ratings,watch/providers")
	} else {
		path = "/movie/" + strconv.Itoa(id)
		params.Set("append_to_response", "release_dates,watch/providers")
	}

	var details TitleDetails
	if err := c.get(ctx, path, params, &details); err != nil {
		return nil, fmt.Errorf("failed to fetch title details for ID %d: %w", id, err)
	}
	return &details, nil
}

// get issues an authenticated GET request and decodes the JSON response into
// result. The caller's params are never mutated.
func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	query := url.Values{}
	for key, values := range params {
		query[key] = values
	}
	if c.bearerToken == "" {
		query.Set("api_key", c.apiKey)
	}

	requestURL := c.baseURL + path
	if encoded := query.Encode(); encoded != "" {
		requestURL += "?" + encoded
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.bearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.bearerToken)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &StatusError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return nil
}
