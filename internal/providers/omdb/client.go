package omdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Result is one OMDb search match.
type Result struct {
	Title  string `json:"Title"`
	Year   string `json:"Year"`
	IMDBID string `json:"imdbID"`
	Type   string `json:"Type"`
}

// YearInt parses the leading year ("2010" or "2010–2012"), or 0.
func (r Result) YearInt() int {
	if len(r.Year) < 4 {
		return 0
	}
	year, err := strconv.Atoi(r.Year[:4])
	if err != nil {
		return 0
	}
	return year
}

// Client provides access to the OMDb API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// New creates an OMDb client.
func New(apiKey, baseURL string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("omdb api key required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("omdb base url required")
	}
	client := &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// SearchMovies searches OMDb by title, optionally filtered by year.
func (c *Client) SearchMovies(ctx context.Context, query string, year int) ([]Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("query must not be empty")
	}
	params := url.Values{}
	params.Set("apikey", c.apiKey)
	params.Set("s", query)
	params.Set("type", "movie")
	if year > 0 {
		params.Set("y", strconv.Itoa(year))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}
	var payload struct {
		Search   []Result `json:"Search"`
		Response string   `json:"Response"`
		Error    string   `json:"Error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode omdb response: %w", err)
	}
	if payload.Response == "False" {
		// OMDb reports "Movie not found!" as an error string; treat as empty.
		if strings.Contains(strings.ToLower(payload.Error), "not found") {
			return nil, nil
		}
		return nil, fmt.Errorf("omdb error: %s", payload.Error)
	}
	return payload.Search, nil
}

// StatusError reports a non-200 OMDb response.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("omdb returned %d", e.StatusCode)
}
