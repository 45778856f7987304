package tvmaze

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

// Show is one TVmaze show record.
type Show struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Premiered string `json:"premiered"`
}

// Year extracts the premiere year, or 0.
func (s Show) Year() int {
	if len(s.Premiered) < 4 {
		return 0
	}
	year, err := strconv.Atoi(s.Premiered[:4])
	if err != nil {
		return 0
	}
	return year
}

// SearchResult wraps a scored show match.
type SearchResult struct {
	Score float64 `json:"score"`
	Show  Show    `json:"show"`
}

// Episode is one TVmaze episode record.
type Episode struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Season  int    `json:"season"`
	Number  int    `json:"number"`
	Airdate string `json:"airdate"`
}

// Client provides access to the TVmaze API.
type Client struct {
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

// New creates a TVmaze client.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("tvmaze base url required")
	}
	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &StatusError{StatusCode: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode tvmaze response: %w", err)
	}
	return nil
}

// SearchShows searches TVmaze for shows matching query.
func (c *Client) SearchShows(ctx context.Context, query string) ([]SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("query must not be empty")
	}
	params := url.Values{}
	params.Set("q", query)
	var payload []SearchResult
	if err := c.get(ctx, "/search/shows", params, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// GetShowEpisodes fetches the full episode list for a show.
func (c *Client) GetShowEpisodes(ctx context.Context, showID int64) ([]Episode, error) {
	var payload []Episode
	if err := c.get(ctx, "/shows/"+strconv.FormatInt(showID, 10)+"/episodes", nil, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// StatusError reports a non-200 TVmaze response.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("tvmaze returned %d", e.StatusCode)
}
