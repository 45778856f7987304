package tvdb

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

// tokenLifetime is how long a login token is trusted before re-login. TVDB
// tokens last a month; we refresh daily to stay clear of revocations.
const tokenLifetime = 24 * time.Hour

// SearchResult is a single TVDB series search match.
type SearchResult struct {
	TVDBID     string `json:"tvdb_id"`
	Name       string `json:"name"`
	Year       string `json:"year"`
	Type       string `json:"type"`
	PrimaryTyp string `json:"primary_type"`
}

// Series is the detail payload for one series.
type Series struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Year string `json:"year"`
}

// Episode is one canonical episode entry.
type Episode struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	SeasonNumber int    `json:"seasonNumber"`
	Number       int    `json:"number"`
	Aired        string `json:"aired"`
}

// Client provides access to the TVDB v4 API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
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

// New creates a TVDB client.
func New(apiKey, baseURL string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("tvdb api key required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("tvdb base url required")
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

// login acquires a bearer token via the v4 login POST.
func (c *Client) login(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && time.Now().Before(c.tokenExpiry) {
		return c.token, nil
	}

	body, err := json.Marshal(map[string]string{"apikey": c.apiKey})
	if err != nil {
		return "", fmt.Errorf("encode login: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/login", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("execute login: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("tvdb login returned %d", resp.StatusCode)
	}

	var payload struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode login response: %w", err)
	}
	if payload.Data.Token == "" {
		return "", errors.New("tvdb login returned empty token")
	}
	c.token = payload.Data.Token
	c.tokenExpiry = time.Now().Add(tokenLifetime)
	return c.token, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	token, err := c.login(ctx)
	if err != nil {
		return err
	}
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		// Token revoked server-side; force a fresh login on the next call.
		c.mu.Lock()
		c.token = ""
		c.mu.Unlock()
	}
	if resp.StatusCode != http.StatusOK {
		return &StatusError{StatusCode: resp.StatusCode, RetryAfter: parseRetryAfter(resp)}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode tvdb response: %w", err)
	}
	return nil
}

// SearchSeries searches TVDB for series matching query.
func (c *Client) SearchSeries(ctx context.Context, query string, year int) ([]SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("query must not be empty")
	}
	params := url.Values{}
	params.Set("query", query)
	params.Set("type", "series")
	if year > 0 {
		params.Set("year", strconv.Itoa(year))
	}
	var payload struct {
		Data []SearchResult `json:"data"`
	}
	if err := c.get(ctx, "/search", params, &payload); err != nil {
		return nil, err
	}
	return payload.Data, nil
}

// GetSeries fetches series detail by id.
func (c *Client) GetSeries(ctx context.Context, id string) (*Series, error) {
	var payload struct {
		Data Series `json:"data"`
	}
	if err := c.get(ctx, "/series/"+url.PathEscape(id), nil, &payload); err != nil {
		return nil, err
	}
	return &payload.Data, nil
}

// GetSeriesEpisodes fetches the default-order episode list for a series,
// following pagination.
func (c *Client) GetSeriesEpisodes(ctx context.Context, id string) ([]Episode, error) {
	var all []Episode
	for page := 0; ; page++ {
		params := url.Values{}
		params.Set("page", strconv.Itoa(page))
		var payload struct {
			Data struct {
				Episodes []Episode `json:"episodes"`
			} `json:"data"`
			Links struct {
				Next string `json:"next"`
			} `json:"links"`
		}
		if err := c.get(ctx, "/series/"+url.PathEscape(id)+"/episodes/default", params, &payload); err != nil {
			return nil, err
		}
		all = append(all, payload.Data.Episodes...)
		if payload.Links.Next == "" || len(payload.Data.Episodes) == 0 {
			break
		}
	}
	return all, nil
}

// StatusError reports a non-200 TVDB response.
type StatusError struct {
	StatusCode int
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("tvdb returned %d", e.StatusCode)
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
