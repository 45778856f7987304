package fanarttv

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMovieArtwork(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/movies/27205" {
			http.NotFound(w, r)
			return
		}
		if r.URL.Query().Get("api_key") != "key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(Artwork{
			Name:    "Inception",
			Posters: []Image{{ID: "1", URL: "https://assets.fanart.tv/poster.jpg", Lang: "en"}},
		})
	}))
	defer server.Close()

	client, err := New("key", server.URL)
	if err != nil {
		t.Fatal(err)
	}
	art, err := client.MovieArtwork(t.Context(), "27205")
	if err != nil {
		t.Fatalf("MovieArtwork: %v", err)
	}
	if art.Name != "Inception" || len(art.Posters) != 1 {
		t.Fatalf("artwork = %+v", art)
	}
}

func TestArtworkNotFoundIsEmpty(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	client, err := New("key", server.URL)
	if err != nil {
		t.Fatal(err)
	}
	art, err := client.TVArtwork(t.Context(), "311900")
	if err != nil {
		t.Fatalf("TVArtwork: %v", err)
	}
	if len(art.TVPoster) != 0 {
		t.Fatalf("expected empty artwork, got %+v", art)
	}
}
