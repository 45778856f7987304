package musicbrainz

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSearchArtistSetsUserAgent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/artist" {
			http.NotFound(w, r)
			return
		}
		if ua := r.Header.Get("User-Agent"); ua != userAgent {
			t.Fatalf("user agent = %q", ua)
		}
		if r.URL.Query().Get("fmt") != "json" {
			t.Fatal("json format not requested")
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"artists": []map[string]any{{"id": "mbid-1", "name": "Daft Punk", "score": 100}},
		})
	}))
	defer server.Close()

	client, err := New(server.URL)
	if err != nil {
		t.Fatal(err)
	}
	artists, err := client.SearchArtist(t.Context(), "Daft Punk")
	if err != nil {
		t.Fatalf("SearchArtist: %v", err)
	}
	if len(artists) != 1 || artists[0].ID != "mbid-1" {
		t.Fatalf("artists = %+v", artists)
	}
}

func TestGetReleaseGroupTracksFlattensMedia(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/release-group/rg-1":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"releases": []map[string]any{{"id": "rel-1"}},
			})
		case "/release/rel-1":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"media": []map[string]any{{
					"position": 1,
					"tracks": []map[string]any{
						{"position": 1, "title": "One More Time"},
						{"position": 2, "title": "Aerodynamic"},
					},
				}},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client, err := New(server.URL)
	if err != nil {
		t.Fatal(err)
	}
	tracks, err := client.GetReleaseGroupTracks(t.Context(), "rg-1")
	if err != nil {
		t.Fatalf("GetReleaseGroupTracks: %v", err)
	}
	if len(tracks) != 2 || tracks[0].Disc != 1 || tracks[1].Title != "Aerodynamic" {
		t.Fatalf("tracks = %+v", tracks)
	}
}
