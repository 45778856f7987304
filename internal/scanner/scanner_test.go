package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/DouglasMacKrell/namegnome-serve/internal/logging"
	"github.com/DouglasMacKrell/namegnome-serve/internal/media"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestScanFiltersAndOrders(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "Show (2020)", "Season 01", "Show-S01E02-Second.mkv"))
	writeFile(t, filepath.Join(root, "Show (2020)", "Season 01", "Show-S01E01-First.mkv"))
	writeFile(t, filepath.Join(root, "Show (2020)", "notes.txt"))
	writeFile(t, filepath.Join(root, ".namegnome", "rollbacks", "old.jsonl"))

	scan := New(logging.NewNop())
	snapshot, err := scan.Scan(t.Context(), Options{Root: root, MediaType: media.TypeTV})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(snapshot.Files) != 2 {
		t.Fatalf("expected 2 media files, got %d", len(snapshot.Files))
	}
	if snapshot.Files[0].Episode != 1 || snapshot.Files[1].Episode != 2 {
		t.Fatalf("files not ordered by path: %+v", snapshot.Files)
	}
	if snapshot.Fingerprint == "" || snapshot.ScanID == "" {
		t.Fatal("snapshot missing fingerprint or id")
	}
}

func TestScanAnthologyFlag(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "Firebuds-S01E01-Car In A Tree Dalmatian Day.mp4"))

	scan := New(logging.NewNop())
	snapshot, err := scan.Scan(t.Context(), Options{Root: root, MediaType: media.TypeTV, Anthology: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(snapshot.Files) != 1 || !snapshot.Files[0].AnthologyCandidate {
		t.Fatalf("anthology flag not set: %+v", snapshot.Files)
	}
}

func TestScanRejectsEmptyRoot(t *testing.T) {
	scan := New(logging.NewNop())
	if _, err := scan.Scan(t.Context(), Options{MediaType: media.TypeTV}); err == nil {
		t.Fatal("expected validation error")
	}
}
