package media

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"
)

// FingerprintEntry is one (path, mtime) observation contributing to a scan
// fingerprint.
type FingerprintEntry struct {
	Path    string
	ModTime time.Time
}

// Fingerprint computes the deterministic scan fingerprint H(paths ∥ mtimes):
// entries are sorted by path and hashed as "path\n<unix-nanos>\n" lines.
// Binding a PlanReview to this value lets apply detect stale plans.
func Fingerprint(entries []FingerprintEntry) string {
	sorted := make([]FingerprintEntry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	var b strings.Builder
	for _, entry := range sorted {
		b.WriteString(entry.Path)
		b.WriteByte('\n')
		fmt.Fprintf(&b, "%d", entry.ModTime.UnixNano())
		b.WriteByte('\n')
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// SnapshotFingerprint fingerprints the files of a snapshot.
func SnapshotFingerprint(files []MediaFile) string {
	entries := make([]FingerprintEntry, len(files))
	for i, file := range files {
		entries[i] = FingerprintEntry{Path: file.Path, ModTime: file.ModTime}
	}
	return Fingerprint(entries)
}
