package musicbrainz

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

// userAgent identifies this client per the MusicBrainz etiquette rules.
const userAgent = "NameGnomeServe/1.0 (https://github.com/DouglasMacKrell/namegnome-serve)"

// Artist is one artist search match.
type Artist struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// ReleaseGroup is one release-group (album) search match.
type ReleaseGroup struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	FirstReleaseDate string `json:"first-release-date"`
	PrimaryType      string `json:"primary-type"`
}

// Year extracts the first-release year, or 0.
func (g ReleaseGroup) Year() int {
	if len(g.FirstReleaseDate) < 4 {
		return 0
	}
	year, err := strconv.Atoi(g.FirstReleaseDate[:4])
	if err != nil {
		return 0
	}
	return year
}

// Track is one track within a release medium.
type Track struct {
	Position int    `json:"position"`
	Title    string `json:"title"`
	Disc     int    `json:"-"`
}

// Client provides access to the MusicBrainz WS/2 API.
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

// New creates a MusicBrainz client. No API key is required.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("musicbrainz base url required")
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
	if params == nil {
		params = url.Values{}
	}
	params.Set("fmt", "json")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &StatusError{StatusCode: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode musicbrainz response: %w", err)
	}
	return nil
}

// SearchArtist searches for artists by name.
func (c *Client) SearchArtist(ctx context.Context, name string) ([]Artist, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("artist name must not be empty")
	}
	params := url.Values{}
	params.Set("query", "artist:"+strconv.Quote(name))
	var payload struct {
		Artists []Artist `json:"artists"`
	}
	if err := c.get(ctx, "/artist", params, &payload); err != nil {
		return nil, err
	}
	return payload.Artists, nil
}

// SearchReleaseGroup searches release groups by album title, optionally
// scoped to an artist MBID.
func (c *Client) SearchReleaseGroup(ctx context.Context, title, artistID string) ([]ReleaseGroup, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, errors.New("album title must not be empty")
	}
	query := "releasegroup:" + strconv.Quote(title)
	if artistID != "" {
		query += " AND arid:" + artistID
	}
	params := url.Values{}
	params.Set("query", query)
	var payload struct {
		ReleaseGroups []ReleaseGroup `json:"release-groups"`
	}
	if err := c.get(ctx, "/release-group", params, &payload); err != nil {
		return nil, err
	}
	return payload.ReleaseGroups, nil
}

// GetReleaseGroupTracks resolves a release group to its first release and
// returns the track list across media, with Disc populated per medium.
func (c *Client) GetReleaseGroupTracks(ctx context.Context, releaseGroupID string) ([]Track, error) {
	params := url.Values{}
	params.Set("inc", "releases")
	var group struct {
		Releases []struct {
			ID string `json:"id"`
		} `json:"releases"`
	}
	if err := c.get(ctx, "/release-group/"+url.PathEscape(releaseGroupID), params, &group); err != nil {
		return nil, err
	}
	if len(group.Releases) == 0 {
		return nil, errors.New("release group has no releases")
	}

	params = url.Values{}
	params.Set("inc", "recordings")
	var release struct {
		Media []struct {
			Position int `json:"position"`
			Tracks   []struct {
				Position int    `json:"position"`
				Title    string `json:"title"`
			} `json:"tracks"`
		} `json:"media"`
	}
	if err := c.get(ctx, "/release/"+url.PathEscape(group.Releases[0].ID), params, &release); err != nil {
		return nil, err
	}

	var tracks []Track
	for _, medium := range release.Media {
		disc := medium.Position
		if disc <= 0 {
			disc = 1
		}
		for _, track := range medium.Tracks {
			tracks = append(tracks, Track{Position: track.Position, Title: track.Title, Disc: disc})
		}
	}
	return tracks, nil
}

// StatusError reports a non-200 MusicBrainz response.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("musicbrainz returned %d", e.StatusCode)
}
