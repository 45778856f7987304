package namer

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/DouglasMacKrell/namegnome-serve/internal/services"
	"github.com/DouglasMacKrell/namegnome-serve/internal/textutil"
)

// TVPath builds the destination path for a (possibly multi-episode) TV item.
// Episodes must be contiguous and ascending.
func TVPath(root, show string, year, season int, episodes []int, titles []string, ext string) (string, error) {
	show = textutil.SanitizeFileName(show)
	if show == "" {
		return "", services.Wrap(services.ErrValidation, "namer", "tv", "show title required", nil)
	}
	if len(episodes) == 0 {
		return "", services.Wrap(services.ErrValidation, "namer", "tv", "at least one episode required", nil)
	}
	for i := 1; i < len(episodes); i++ {
		if episodes[i] != episodes[i-1]+1 {
			return "", services.Wrap(services.ErrValidation, "namer", "tv",
				fmt.Sprintf("episode range not contiguous: %v", episodes), nil)
		}
	}

	showDir := show
	if year > 0 {
		showDir = fmt.Sprintf("%s (%d)", show, year)
	}
	span := fmt.Sprintf("S%02dE%02d", season, episodes[0])
	if len(episodes) > 1 {
		span += fmt.Sprintf("-E%02d", episodes[len(episodes)-1])
	}

	name := fmt.Sprintf("%s - %s", show, span)
	if joined := joinTitles(titles); joined != "" {
		name += " - " + joined
	}
	return filepath.Join(root, showDir, fmt.Sprintf("Season %02d", season), name+normalizeExt(ext)), nil
}

// MoviePath builds the destination path for a movie item. Year is mandatory
// on remakes; callers pass zero only when the provider has no year at all.
func MoviePath(root, title string, year int, ext string) (string, error) {
	title = textutil.SanitizeFileName(title)
	if title == "" {
		return "", services.Wrap(services.ErrValidation, "namer", "movie", "title required", nil)
	}
	dir := title
	name := title
	if year > 0 {
		dir = fmt.Sprintf("%s (%d)", title, year)
		name = dir
	}
	return filepath.Join(root, dir, name+normalizeExt(ext)), nil
}

// MusicPath builds the destination path for a music track.
func MusicPath(root, artist, album string, year, track int, title, ext string) (string, error) {
	artist = textutil.SanitizeFileName(artist)
	album = textutil.SanitizeFileName(album)
	title = textutil.SanitizeFileName(title)
	if artist == "" || album == "" {
		return "", services.Wrap(services.ErrValidation, "namer", "music", "artist and album required", nil)
	}
	albumDir := album
	if year > 0 {
		albumDir = fmt.Sprintf("%s (%d)", album, year)
	}
	name := fmt.Sprintf("Track%02d", track)
	if title != "" {
		name += " - " + title
	}
	return filepath.Join(root, artist, albumDir, name+normalizeExt(ext)), nil
}

// joinTitles sanitizes and joins anthology titles with " & ".
func joinTitles(titles []string) string {
	cleaned := make([]string, 0, len(titles))
	for _, title := range titles {
		if sanitized := textutil.SanitizeFileName(title); sanitized != "" {
			cleaned = append(cleaned, sanitized)
		}
	}
	return strings.Join(cleaned, " & ")
}

func normalizeExt(ext string) string {
	ext = strings.TrimSpace(strings.ToLower(ext))
	if ext == "" {
		return ""
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
