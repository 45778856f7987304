package testsupport

import (
	"path/filepath"
	"testing"

	"github.com/DouglasMacKrell/namegnome-serve/internal/cachestore"
)

// OpenStore opens a cache store under a per-test temp directory and closes
// it when the test ends.
func OpenStore(t testing.TB) *cachestore.Store {
	t.Helper()
	store, err := cachestore.Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("open cache store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}
