package tmdb

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

// Result represents a single TMDB search match.
type Result struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	Name         string `json:"name"`
	ReleaseDate  string `json:"release_date"`
	FirstAirDate string `json:"first_air_date"`
	MediaType    string `json:"media_type"`
}

// DisplayTitle picks whichever of title/name TMDB populated.
func (r Result) DisplayTitle() string {
	if r.Title != "" {
		return r.Title
	}
	return r.Name
}

// Year extracts the release/first-air year, or 0.
func (r Result) Year() int {
	date := r.ReleaseDate
	if date == "" {
		date = r.FirstAirDate
	}
	if len(date) < 4 {
		return 0
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return year
}

// Response models the TMDB paginated search response.
type Response struct {
	Page         int      `json:"page"`
	Results      []Result `json:"results"`
	TotalPages   int      `json:"total_pages"`
	TotalResults int      `json:"total_results"`
}

// Episode describes a single TMDB episode entry.
type Episode struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	SeasonNumber  int    `json:"season_number"`
	EpisodeNumber int    `json:"episode_number"`
	AirDate       string `json:"air_date"`
}

// SeasonDetails captures the full TMDB season payload (episodes included).
type SeasonDetails struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	SeasonNumber int       `json:"season_number"`
	Episodes     []Episode `json:"episodes"`
}

// Client provides access to the TMDB API.
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

// New creates a TMDB client.
func New(apiKey, baseURL string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("tmdb api key required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("tmdb base url required")
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

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("api_key", c.apiKey)

	endpoint := c.baseURL + path + "?" + params.Encode()
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
		return &StatusError{StatusCode: resp.StatusCode, RetryAfter: parseRetryAfter(resp)}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode tmdb response: %w", err)
	}
	return nil
}

// SearchMovie performs a TMDB movie search.
func (c *Client) SearchMovie(ctx context.Context, query string, year int) (*Response, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("query must not be empty")
	}
	params := url.Values{}
	params.Set("query", query)
	if year > 0 {
		params.Set("primary_release_year", strconv.Itoa(year))
	}
	var payload Response
	if err := c.get(ctx, "/search/movie", params, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// SearchTV performs a TMDB TV search.
func (c *Client) SearchTV(ctx context.Context, query string, year int) (*Response, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("query must not be empty")
	}
	params := url.Values{}
	params.Set("query", query)
	if year > 0 {
		params.Set("first_air_date_year", strconv.Itoa(year))
	}
	var payload Response
	if err := c.get(ctx, "/search/tv", params, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// GetMovieDetails fetches movie detail by id.
func (c *Client) GetMovieDetails(ctx context.Context, movieID int64) (*Result, error) {
	var payload Result
	if err := c.get(ctx, "/movie/"+strconv.FormatInt(movieID, 10), nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// GetTVDetails fetches TV series detail by id.
func (c *Client) GetTVDetails(ctx context.Context, showID int64) (*Result, error) {
	var payload Result
	if err := c.get(ctx, "/tv/"+strconv.FormatInt(showID, 10), nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// GetSeasonDetails fetches a full season payload including episodes.
func (c *Client) GetSeasonDetails(ctx context.Context, showID int64, seasonNumber int) (*SeasonDetails, error) {
	path := fmt.Sprintf("/tv/%d/season/%d", showID, seasonNumber)
	var payload SeasonDetails
	if err := c.get(ctx, path, nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// StatusError reports a non-200 TMDB response.
type StatusError struct {
	StatusCode int
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("tmdb returned %d", e.StatusCode)
}

func parseRetryAfter(resp *http.Response) time.Duration {
	header := strings.TrimSpace(resp.Header.Get("Retry-After"))
	if header == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(header); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	if at, err := http.ParseTime(header); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}
