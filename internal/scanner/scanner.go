package scanner

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/DouglasMacKrell/namegnome-serve/internal/logging"
	"github.com/DouglasMacKrell/namegnome-serve/internal/media"
	"github.com/DouglasMacKrell/namegnome-serve/internal/services"
)

// Options control a scan.
type Options struct {
	Root      string
	MediaType media.Type
	// Anthology marks every TV file with a parsed season/episode pair as an
	// anthology candidate, whatever its segment count.
	Anthology bool
}

// Scanner walks media roots.
type Scanner struct {
	logger *slog.Logger
}

// New constructs a Scanner.
func New(logger *slog.Logger) *Scanner {
	return &Scanner{logger: logging.NewComponentLogger(logger, "scanner")}
}

// Scan walks the root and returns an immutable snapshot of parsed media
// files ordered by path.
func (s *Scanner) Scan(ctx context.Context, opts Options) (*media.ScanSnapshot, error) {
	root := strings.TrimSpace(opts.Root)
	if root == "" {
		return nil, services.Wrap(services.ErrValidation, "scan", "validate", "root must not be empty", nil)
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "scan", "validate", "resolve root", err)
	}

	var files []media.MediaFile
	err = filepath.WalkDir(absRoot, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if entry.IsDir() {
			// Internal bookkeeping directories are never media.
			if entry.Name() == ".namegnome" {
				return fs.SkipDir
			}
			return nil
		}
		if !extensionAllowed(opts.MediaType, path) {
			return nil
		}
		info, err := entry.Info()
		if err != nil {
			return fmt.Errorf("stat %s: %w", path, err)
		}

		file := media.MediaFile{
			Path:    path,
			Size:    info.Size(),
			ModTime: info.ModTime(),
			Type:    opts.MediaType,
		}
		switch opts.MediaType {
		case media.TypeTV:
			parseTV(&file)
			if opts.Anthology && file.HasEpisodeNumbers() {
				file.AnthologyCandidate = true
			}
		case media.TypeMovie:
			parseMovie(&file)
		case media.TypeMusic:
			parseMusic(&file)
		}
		files = append(files, file)
		return nil
	})
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "scan", "walk", absRoot, err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })

	snapshot := &media.ScanSnapshot{
		ScanID:      "scn_" + strings.ReplaceAll(uuid.New().String(), "-", ""),
		Root:        absRoot,
		MediaType:   opts.MediaType,
		Files:       files,
		Fingerprint: media.SnapshotFingerprint(files),
		ScannedAt:   time.Now().UTC(),
	}
	s.logger.Info("scan complete",
		logging.String("root", absRoot),
		logging.Int("files", len(files)),
		logging.String("scan_id", snapshot.ScanID))
	return snapshot, nil
}
