package fanarttv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Image is a single artwork entry.
type Image struct {
	ID    string `json:"id"`
	URL   string `json:"url"`
	Lang  string `json:"lang"`
	Likes string `json:"likes"`
}

// Artwork groups the artwork kinds NameGnome records as entity metadata.
type Artwork struct {
	Name     string  `json:"name"`
	Posters  []Image `json:"movieposter"`
	TVPoster []Image `json:"tvposter"`
	HDLogos  []Image `json:"hdmovielogo"`
}

// Client provides access to the fanart.tv v3 API.
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

// New creates a fanart.tv client.
func New(apiKey, baseURL string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("fanarttv api key required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("fanarttv base url required")
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

func (c *Client) get(ctx context.Context, path string) (*Artwork, error) {
	params := url.Values{}
	params.Set("api_key", c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return &Artwork{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}
	var payload Artwork
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode fanarttv response: %w", err)
	}
	return &payload, nil
}

// MovieArtwork fetches artwork for a TMDB or IMDB movie id.
func (c *Client) MovieArtwork(ctx context.Context, id string) (*Artwork, error) {
	return c.get(ctx, "/movies/"+url.PathEscape(id))
}

// TVArtwork fetches artwork for a TVDB series id.
func (c *Client) TVArtwork(ctx context.Context, id string) (*Artwork, error) {
	return c.get(ctx, "/tv/"+url.PathEscape(id))
}

// StatusError reports a non-200 fanart.tv response.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fanarttv returned %d", e.StatusCode)
}
