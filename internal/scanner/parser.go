package scanner

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/DouglasMacKrell/namegnome-serve/internal/media"
	"github.com/DouglasMacKrell/namegnome-serve/internal/textutil"
)

var (
	seasonEpisodePattern = regexp.MustCompile(`(?i)S(\d{1,2})E(\d{1,2})(?:-?E(\d{1,2}))?`)
	episodeSpanPattern   = regexp.MustCompile(`(?i)\bE(\d{1,2})(?:-?E(\d{1,2}))?\b`)
	yearPattern          = regexp.MustCompile(`\((\d{4})\)`)
	trackPattern         = regexp.MustCompile(`(?i)^(?:(\d)[-.])?(\d{1,3})\s*[-_. ]+\s*(.+)$`)
	seasonDirPattern     = regexp.MustCompile(`(?i)^season\s*(\d{1,2})$`)
)

// normalizeSeparators converts dots and underscores to spaces and collapses runs.
func normalizeSeparators(text string) string {
	text = strings.ReplaceAll(text, ".", " ")
	text = strings.ReplaceAll(text, "_", " ")
	return strings.Join(strings.Fields(text), " ")
}

func extractYear(text string) (int, string) {
	match := yearPattern.FindStringSubmatchIndex(text)
	if match == nil {
		return 0, text
	}
	year, _ := strconv.Atoi(text[match[2]:match[3]])
	remaining := strings.TrimSpace(text[:match[0]] + text[match[1]:])
	return year, remaining
}

// showHintFromPath extracts "Show (Year)" and "Season NN" hints from the
// directory structure above the file.
func showHintFromPath(path string) (title string, year, season int) {
	dir := filepath.Dir(path)
	for dir != "/" && dir != "." {
		base := filepath.Base(dir)
		if match := seasonDirPattern.FindStringSubmatch(base); match != nil {
			season, _ = strconv.Atoi(match[1])
		} else if hintYear, remaining := extractYear(base); hintYear > 0 && title == "" {
			title = strings.TrimSpace(remaining)
			year = hintYear
		}
		dir = filepath.Dir(dir)
	}
	return title, year, season
}

// parseTV fills TV fields and segments on the file.
func parseTV(file *media.MediaFile) {
	base := strings.TrimSuffix(filepath.Base(file.Path), filepath.Ext(file.Path))
	normalized := normalizeSeparators(base)

	dirTitle, dirYear, dirSeason := showHintFromPath(file.Path)
	if dirYear > 0 {
		file.Year = dirYear
	}

	match := seasonEpisodePattern.FindStringSubmatchIndex(normalized)
	if match == nil {
		if dirTitle != "" {
			file.Title = dirTitle
		} else {
			file.Title = normalized
		}
		if dirSeason > 0 {
			file.Season = dirSeason
		}
		return
	}

	season, _ := strconv.Atoi(normalized[match[2]:match[3]])
	episode, _ := strconv.Atoi(normalized[match[4]:match[5]])
	file.Season = season
	file.Episode = episode
	if match[6] >= 0 {
		file.EpisodeEnd, _ = strconv.Atoi(normalized[match[6]:match[7]])
	}

	before := strings.TrimRight(strings.TrimSpace(normalized[:match[0]]), "- ")
	if before != "" {
		if year, remaining := extractYear(before); year > 0 {
			file.Year = year
			before = remaining
		}
		// A trailing standalone year often belongs to the show, not the title.
		fields := strings.Fields(before)
		if len(fields) > 1 {
			if year, err := strconv.Atoi(fields[len(fields)-1]); err == nil && year >= 1900 && year <= 2100 {
				file.Year = year
				before = strings.Join(fields[:len(fields)-1], " ")
			}
		}
		file.Title = strings.TrimSpace(before)
	} else if dirTitle != "" {
		file.Title = dirTitle
	}

	after := normalized[match[1]:]
	file.Segments = parseSegments(episode, file.EpisodeEnd, after)
	if len(file.Segments) > 0 {
		file.EpisodeTitle = strings.TrimLeft(strings.TrimSpace(after), "- ")
	}
	if file.EpisodeEnd == 0 && len(file.Segments) > 0 {
		last := file.Segments[len(file.Segments)-1]
		if last.End > episode {
			file.EpisodeEnd = last.End
		}
	}
}

// parseSegments splits the text after the first SxxEyy marker into ordered
// segments. Additional Eyy(-Eyy) spans inside the remainder open new
// segments; text between spans becomes the preceding span's title.
func parseSegments(firstStart, firstEnd int, remainder string) []media.Segment {
	remainder = strings.TrimLeft(strings.TrimSpace(remainder), "- ")
	if firstEnd == 0 {
		firstEnd = firstStart
	}

	spans := episodeSpanPattern.FindAllStringSubmatchIndex(remainder, -1)
	segments := []media.Segment{{
		Start:   firstStart,
		End:     firstEnd,
		RawSpan: formatSpan(firstStart, firstEnd),
	}}

	cursor := 0
	for _, span := range spans {
		title := strings.Trim(strings.TrimSpace(remainder[cursor:span[0]]), "- ")
		if title != "" {
			segments[len(segments)-1].TitleTokens = textutil.Tokenize(title)
		}
		start, _ := strconv.Atoi(remainder[span[2]:span[3]])
		end := start
		if span[4] >= 0 {
			end, _ = strconv.Atoi(remainder[span[4]:span[5]])
		}
		segments = append(segments, media.Segment{
			Start:   start,
			End:     end,
			RawSpan: formatSpan(start, end),
			Offset:  span[0],
		})
		cursor = span[1]
	}
	tail := strings.Trim(strings.TrimSpace(remainder[cursor:]), "- ")
	if tail != "" {
		segments[len(segments)-1].TitleTokens = textutil.Tokenize(tail)
	}
	return segments
}

func formatSpan(start, end int) string {
	if end > start {
		return "E" + pad2(start) + "-E" + pad2(end)
	}
	return "E" + pad2(start)
}

func pad2(value int) string {
	s := strconv.Itoa(value)
	if len(s) < 2 {
		return "0" + s
	}
	return s
}

// parseMovie fills movie fields on the file.
func parseMovie(file *media.MediaFile) {
	base := strings.TrimSuffix(filepath.Base(file.Path), filepath.Ext(file.Path))
	normalized := normalizeSeparators(base)

	year, remaining := extractYear(normalized)
	if year > 0 {
		file.Year = year
	}
	file.Title = strings.TrimSpace(remaining)

	if file.Title == "" || file.Year == 0 {
		if dirTitle, dirYear, _ := showHintFromPath(file.Path); dirTitle != "" {
			if file.Title == "" {
				file.Title = dirTitle
			}
			if file.Year == 0 {
				file.Year = dirYear
			}
		}
	}
}

// parseMusic fills artist/album/track fields; Artist/Album (Year)/Track## - Title.
func parseMusic(file *media.MediaFile) {
	base := strings.TrimSuffix(filepath.Base(file.Path), filepath.Ext(file.Path))
	normalized := normalizeSeparators(base)

	if match := trackPattern.FindStringSubmatch(normalized); match != nil {
		if match[1] != "" {
			file.Disc, _ = strconv.Atoi(match[1])
		}
		file.Track, _ = strconv.Atoi(match[2])
		title := strings.TrimSpace(match[3])
		title = strings.TrimPrefix(title, "Track")
		file.EpisodeTitle = strings.TrimSpace(title)
	} else {
		file.EpisodeTitle = normalized
	}
	if file.Disc == 0 {
		file.Disc = 1
	}

	dir := filepath.Dir(file.Path)
	albumDir := filepath.Base(dir)
	if year, remaining := extractYear(albumDir); year > 0 {
		file.Year = year
		file.Album = strings.TrimSpace(remaining)
	} else {
		file.Album = albumDir
	}
	file.Artist = filepath.Base(filepath.Dir(dir))
	file.Title = file.Artist
}
