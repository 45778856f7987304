package applier

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/DouglasMacKrell/namegnome-serve/internal/cachestore"
	"github.com/DouglasMacKrell/namegnome-serve/internal/logging"
	"github.com/DouglasMacKrell/namegnome-serve/internal/plan"
	"github.com/DouglasMacKrell/namegnome-serve/internal/services"
)

func newExecutor(t *testing.T) (*Executor, *cachestore.Store) {
	t.Helper()
	store, err := cachestore.Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return New(store, logging.NewNop(), time.Second, 10*time.Minute), store
}

// buildReview creates src files under root and a review renaming each
// srcName to dstName.
func buildReview(t *testing.T, root string, renames [][2]string) *plan.Review {
	t.Helper()
	review := &plan.Review{
		PlanID:        "pln_test",
		SchemaVersion: plan.SchemaVersion,
		MediaType:     "tv",
	}
	for i, pair := range renames {
		src := filepath.Join(root, pair[0])
		dst := filepath.Join(root, pair[1])
		if err := os.MkdirAll(filepath.Dir(src), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(src, []byte(pair[0]), 0o644); err != nil {
			t.Fatal(err)
		}
		info, err := os.Stat(src)
		if err != nil {
			t.Fatal(err)
		}
		review.Items = append(review.Items, plan.Item{
			ID:  fmt.Sprintf("pli_%04d", i+1),
			Src: plan.Src{Path: src},
			Dst: plan.Dst{Path: dst},
		})
		review.Groups = append(review.Groups, plan.Group{
			GroupKey: src,
			SrcFile: plan.SrcFile{
				Path:  src,
				Mtime: info.ModTime().UTC().Format(time.RFC3339Nano),
			},
		})
	}
	return review
}

func listFiles(t *testing.T, root string) []string {
	t.Helper()
	var files []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}
		rel, _ := filepath.Rel(root, path)
		if strings.HasPrefix(rel, ".namegnome") {
			return nil
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	sort.Strings(files)
	return files
}

func TestDryRunNeverMutates(t *testing.T) {
	executor, _ := newExecutor(t)
	root := t.TempDir()
	review := buildReview(t, root, [][2]string{{"a.mkv", "renamed/a.mkv"}})
	before := listFiles(t, root)

	result, err := executor.Apply(t.Context(), Request{Review: review, Root: root, Mode: ModeDryRun, Collision: CollisionSkip})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if result.Applied != 0 || len(result.Outcomes) != 1 || result.Outcomes[0].Status != StatusNoop {
		t.Fatalf("result = %+v", result)
	}
	after := listFiles(t, root)
	if len(before) != len(after) || before[0] != after[0] {
		t.Fatalf("dry run mutated filesystem: %v -> %v", before, after)
	}
}

func TestApplyRenamesInOrder(t *testing.T) {
	executor, _ := newExecutor(t)
	root := t.TempDir()
	review := buildReview(t, root, [][2]string{
		{"b.mkv", "Show/Season 01/b.mkv"},
		{"a.mkv", "Show/Season 01/a.mkv"},
	})

	result, err := executor.Apply(t.Context(), Request{Review: review, Root: root, Mode: ModeTransactional, Collision: CollisionSkip})
	if err != nil {
		t.Fatal(err)
	}
	if result.Applied != 2 || result.Failed != 0 {
		t.Fatalf("result = %+v", result)
	}
	// Execution order equals items[] order, observable via the outcomes.
	if result.Outcomes[0].Src != review.Items[0].Src.Path {
		t.Fatalf("order violated: %+v", result.Outcomes)
	}
	entries, err := readManifest(result.ManifestPath)
	if err != nil || len(entries) != 2 {
		t.Fatalf("manifest entries = %v, %v", entries, err)
	}
}

func TestTransactionalRollbackRestoresListing(t *testing.T) {
	executor, _ := newExecutor(t)
	root := t.TempDir()
	review := buildReview(t, root, [][2]string{
		{"a.mkv", "out/a.mkv"},
		{"b.mkv", "out/b.mkv"},
	})
	// Sabotage the second rename: drop its source after the snapshot, with a
	// recorded mtime mismatch avoided by deleting the group row (so the miss
	// is a hard failure rather than a stale skip).
	if err := os.Remove(review.Items[1].Src.Path); err != nil {
		t.Fatal(err)
	}
	review.Groups = review.Groups[:1]
	before := listFiles(t, root)

	result, err := executor.Apply(t.Context(), Request{Review: review, Root: root, Mode: ModeTransactional, Collision: CollisionSkip})
	if err != nil {
		t.Fatal(err)
	}
	if !result.RolledBack || result.Failed != 1 {
		t.Fatalf("result = %+v", result)
	}
	after := listFiles(t, root)
	if len(before) != len(after) {
		t.Fatalf("listing changed after rollback: %v -> %v", before, after)
	}
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("listing changed after rollback: %v -> %v", before, after)
		}
	}
}

func TestContinueOnErrorMintsRollbackToken(t *testing.T) {
	executor, _ := newExecutor(t)
	root := t.TempDir()
	review := buildReview(t, root, [][2]string{
		{"a.mkv", "out/a.mkv"},
		{"b.mkv", "out/b.mkv"},
	})
	if err := os.Remove(review.Items[0].Src.Path); err != nil {
		t.Fatal(err)
	}
	review.Groups = review.Groups[1:]

	result, err := executor.Apply(t.Context(), Request{Review: review, Root: root, Mode: ModeContinueOnError, Collision: CollisionSkip})
	if err != nil {
		t.Fatal(err)
	}
	if result.Applied != 1 || result.Failed != 1 {
		t.Fatalf("result = %+v", result)
	}
	if result.RollbackToken == "" {
		t.Fatal("rollback token missing")
	}

	rollback, err := executor.Rollback(t.Context(), result.RollbackToken)
	if err != nil {
		t.Fatalf("Rollback: %v", err)
	}
	if rollback.Applied != 1 {
		t.Fatalf("rollback = %+v", rollback)
	}
	if _, err := os.Stat(review.Items[1].Src.Path); err != nil {
		t.Fatalf("rollback did not restore source: %v", err)
	}

	// A token is single-use.
	if _, err := executor.Rollback(t.Context(), result.RollbackToken); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on reuse, got %v", err)
	}
}

func TestStaleItemSkipped(t *testing.T) {
	executor, _ := newExecutor(t)
	root := t.TempDir()
	review := buildReview(t, root, [][2]string{{"a.mkv", "out/a.mkv"}})
	// Touch the source after the scan snapshot.
	future := time.Now().Add(time.Hour)
	if err := os.Chtimes(review.Items[0].Src.Path, future, future); err != nil {
		t.Fatal(err)
	}

	result, err := executor.Apply(t.Context(), Request{Review: review, Root: root, Mode: ModeTransactional, Collision: CollisionSkip})
	if err != nil {
		t.Fatal(err)
	}
	if result.Outcomes[0].Status != StatusSkippedStale || result.Applied != 0 {
		t.Fatalf("result = %+v", result)
	}
}

func TestCollisionStrategies(t *testing.T) {
	executor, _ := newExecutor(t)
	root := t.TempDir()

	review := buildReview(t, root, [][2]string{{"a.mkv", "out/a.mkv"}})
	occupied := filepath.Join(root, "out", "a.mkv")
	if err := os.MkdirAll(filepath.Dir(occupied), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(occupied, []byte("existing"), 0o644); err != nil {
		t.Fatal(err)
	}

	result, err := executor.Apply(t.Context(), Request{Review: review, Root: root, Mode: ModeTransactional, Collision: CollisionSkip})
	if err != nil {
		t.Fatal(err)
	}
	if result.Outcomes[0].Status != StatusSkippedCollision {
		t.Fatalf("skip strategy: %+v", result.Outcomes[0])
	}

	result, err = executor.Apply(t.Context(), Request{Review: review, Root: root, Mode: ModeTransactional, Collision: CollisionBackup})
	if err != nil {
		t.Fatal(err)
	}
	if result.Outcomes[0].Status != StatusApplied || result.Outcomes[0].BackupPath == "" {
		t.Fatalf("backup strategy: %+v", result.Outcomes[0])
	}
	if _, err := os.Stat(result.Outcomes[0].BackupPath); err != nil {
		t.Fatalf("backup file missing: %v", err)
	}
}

func TestSecondApplySeesLocked(t *testing.T) {
	executor, store := newExecutor(t)
	root := t.TempDir()
	review := buildReview(t, root, [][2]string{{"a.mkv", "out/a.mkv"}})

	// Simulate a live holder in the store layer.
	if err := store.AcquireLock(t.Context(), root, "job_other", 10*time.Minute); err != nil {
		t.Fatal(err)
	}
	_, err := executor.Apply(t.Context(), Request{Review: review, Root: root, Mode: ModeTransactional, Collision: CollisionSkip})
	if !errors.Is(err, services.ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
	var locked *LockedError
	if !errors.As(err, &locked) || locked.Holder == nil || locked.Holder.Owner != "job_other" {
		t.Fatalf("locked error lacks holder metadata: %v", err)
	}

	// After release the same root applies cleanly.
	if err := store.ReleaseLock(t.Context(), root, "job_other"); err != nil {
		t.Fatal(err)
	}
	if _, err := executor.Apply(t.Context(), Request{Review: review, Root: root, Mode: ModeTransactional, Collision: CollisionSkip}); err != nil {
		t.Fatalf("apply after release: %v", err)
	}
}
