package scanner

import (
	"reflect"
	"testing"

	"github.com/DouglasMacKrell/namegnome-serve/internal/media"
)

func TestParseTVSingleEpisode(t *testing.T) {
	file := media.MediaFile{Path: "/tv/Danger Mouse (2015)/Season 01/Danger Mouse 2015-S01E01-Danger Mouse Begins Again.mp4"}
	parseTV(&file)

	if file.Title != "Danger Mouse" {
		t.Fatalf("Title = %q", file.Title)
	}
	if file.Year != 2015 {
		t.Fatalf("Year = %d", file.Year)
	}
	if file.Season != 1 || file.Episode != 1 {
		t.Fatalf("S%dE%d", file.Season, file.Episode)
	}
	if file.EpisodeTitle != "Danger Mouse Begins Again" {
		t.Fatalf("EpisodeTitle = %q", file.EpisodeTitle)
	}
	if len(file.Segments) != 1 || file.Segments[0].Start != 1 || file.Segments[0].End != 1 {
		t.Fatalf("Segments = %+v", file.Segments)
	}
}

func TestParseTVAnthologySingleSpan(t *testing.T) {
	file := media.MediaFile{Path: "/tv/Firebuds/Firebuds-S01E01-Car In A Tree Dalmatian Day.mp4"}
	parseTV(&file)

	if len(file.Segments) != 1 {
		t.Fatalf("expected single segment, got %+v", file.Segments)
	}
	want := []string{"car", "in", "a", "tree", "dalmatian", "day"}
	if !reflect.DeepEqual(file.Segments[0].TitleTokens, want) {
		t.Fatalf("TitleTokens = %v", file.Segments[0].TitleTokens)
	}
}

func TestParseTVMultipleSpans(t *testing.T) {
	file := media.MediaFile{Path: "/tv/Show/Show-S01E01-E02-First Pair-E03-E04-Second Pair.mkv"}
	parseTV(&file)

	if len(file.Segments) != 2 {
		t.Fatalf("expected 2 segments, got %+v", file.Segments)
	}
	first, second := file.Segments[0], file.Segments[1]
	if first.Start != 1 || first.End != 2 || second.Start != 3 || second.End != 4 {
		t.Fatalf("intervals = [%d,%d] [%d,%d]", first.Start, first.End, second.Start, second.End)
	}
	if !reflect.DeepEqual(first.TitleTokens, []string{"first", "pair"}) {
		t.Fatalf("first tokens = %v", first.TitleTokens)
	}
	if !reflect.DeepEqual(second.TitleTokens, []string{"second", "pair"}) {
		t.Fatalf("second tokens = %v", second.TitleTokens)
	}
	if file.EpisodeEnd != 2 {
		t.Fatalf("EpisodeEnd = %d", file.EpisodeEnd)
	}
}

func TestParseTVDirectoryHintOnly(t *testing.T) {
	file := media.MediaFile{Path: "/tv/Bluey (2018)/Season 02/random name.mkv"}
	parseTV(&file)
	if file.Title != "Bluey" || file.Year != 2018 {
		t.Fatalf("hint not applied: %q (%d)", file.Title, file.Year)
	}
	if file.Season != 2 {
		t.Fatalf("Season = %d", file.Season)
	}
}

func TestParseMovie(t *testing.T) {
	file := media.MediaFile{Path: "/movies/Inception (2010)/Inception (2010).mkv"}
	parseMovie(&file)
	if file.Title != "Inception" || file.Year != 2010 {
		t.Fatalf("parsed %q (%d)", file.Title, file.Year)
	}
}

func TestParseMovieYearFromDirectory(t *testing.T) {
	file := media.MediaFile{Path: "/movies/Solaris (1972)/Solaris.mkv"}
	parseMovie(&file)
	if file.Title != "Solaris" || file.Year != 1972 {
		t.Fatalf("parsed %q (%d)", file.Title, file.Year)
	}
}

func TestParseMusic(t *testing.T) {
	file := media.MediaFile{Path: "/music/Daft Punk/Discovery (2001)/01 - One More Time.flac"}
	parseMusic(&file)
	if file.Artist != "Daft Punk" {
		t.Fatalf("Artist = %q", file.Artist)
	}
	if file.Album != "Discovery" || file.Year != 2001 {
		t.Fatalf("Album = %q (%d)", file.Album, file.Year)
	}
	if file.Track != 1 || file.Disc != 1 {
		t.Fatalf("Track = %d Disc = %d", file.Track, file.Disc)
	}
	if file.EpisodeTitle != "One More Time" {
		t.Fatalf("track title = %q", file.EpisodeTitle)
	}
}
