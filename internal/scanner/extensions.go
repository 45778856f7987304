package scanner

import (
	"path/filepath"
	"strings"

	"github.com/DouglasMacKrell/namegnome-serve/internal/media"
)

var tvExtensions = map[string]struct{}{
	".mkv": {}, ".mp4": {}, ".avi": {}, ".m4v": {}, ".ts": {},
	".mpg": {}, ".mpeg": {}, ".wmv": {}, ".flv": {}, ".webm": {},
}

var movieExtensions = map[string]struct{}{
	".mkv": {}, ".mp4": {}, ".avi": {}, ".m4v": {}, ".iso": {}, ".img": {},
	".mpg": {}, ".mpeg": {}, ".wmv": {}, ".flv": {}, ".webm": {}, ".ts": {},
}

var musicExtensions = map[string]struct{}{
	".mp3": {}, ".flac": {}, ".m4a": {}, ".aac": {}, ".ogg": {},
	".opus": {}, ".wav": {}, ".wma": {}, ".ape": {}, ".alac": {},
}

func extensionAllowed(mediaType media.Type, path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	switch mediaType {
	case media.TypeTV:
		_, ok := tvExtensions[ext]
		return ok
	case media.TypeMovie:
		_, ok := movieExtensions[ext]
		return ok
	case media.TypeMusic:
		_, ok := musicExtensions[ext]
		return ok
	default:
		return false
	}
}
