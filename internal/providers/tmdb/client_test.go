package tmdb

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSearchMovieSendsYearFilter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search/movie" {
			http.NotFound(w, r)
			return
		}
		if got := r.URL.Query().Get("primary_release_year"); got != "2010" {
			t.Fatalf("year filter = %q", got)
		}
		_ = json.NewEncoder(w).Encode(Response{
			Page:         1,
			Results:      []Result{{ID: 27205, Title: "Inception", ReleaseDate: "2010-07-15"}},
			TotalResults: 1,
		})
	}))
	defer server.Close()

	client, err := New("key", server.URL)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := client.SearchMovie(t.Context(), "Inception", 2010)
	if err != nil {
		t.Fatalf("SearchMovie: %v", err)
	}
	if len(resp.Results) != 1 || resp.Results[0].Year() != 2010 {
		t.Fatalf("unexpected results: %+v", resp.Results)
	}
}

func TestGetSeasonDetails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tv/95251/season/1" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(SeasonDetails{
			SeasonNumber: 1,
			Episodes: []Episode{
				{Name: "Car In A Tree", SeasonNumber: 1, EpisodeNumber: 1},
				{Name: "Dalmatian Day", SeasonNumber: 1, EpisodeNumber: 2},
			},
		})
	}))
	defer server.Close()

	client, err := New("key", server.URL)
	if err != nil {
		t.Fatal(err)
	}
	season, err := client.GetSeasonDetails(t.Context(), 95251, 1)
	if err != nil {
		t.Fatalf("GetSeasonDetails: %v", err)
	}
	if len(season.Episodes) != 2 {
		t.Fatalf("expected 2 episodes, got %d", len(season.Episodes))
	}
}

func TestStatusErrorCarriesRetryAfter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client, err := New("key", server.URL)
	if err != nil {
		t.Fatal(err)
	}
	_, err = client.SearchMovie(t.Context(), "Inception", 0)
	statusErr, ok := err.(*StatusError)
	if !ok {
		t.Fatalf("expected StatusError, got %T: %v", err, err)
	}
	if statusErr.StatusCode != http.StatusTooManyRequests || statusErr.RetryAfter.Seconds() != 7 {
		t.Fatalf("unexpected status error: %+v", statusErr)
	}
}
