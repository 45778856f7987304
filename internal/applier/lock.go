package applier

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/DouglasMacKrell/namegnome-serve/internal/cachestore"
	"github.com/DouglasMacKrell/namegnome-serve/internal/services"
)

// lockFileName is the cooperative lock file placed under each apply root.
const lockFileName = ".namegnome.lock"

// LockedError reports an apply root held by another live owner.
type LockedError struct {
	Holder *cachestore.LockInfo
}

func (e *LockedError) Error() string {
	if e.Holder == nil {
		return "root is locked"
	}
	return fmt.Sprintf("root locked by %s since %s", e.Holder.Owner, e.Holder.AcquiredAt.Format(time.RFC3339))
}

func (e *LockedError) Unwrap() error { return services.ErrLocked }

// rootLock is the two-layer per-root lock: a flock file under the root and
// an advisory row in the cache store. Both must be held to apply.
type rootLock struct {
	store *cachestore.Store
	root  string
	owner string
	file  *flock.Flock
}

// acquire takes both layers. Orphaned store rows older than staleAfter are
// reclaimed; a live holder yields LockedError with its metadata.
func acquireRootLock(ctx context.Context, store *cachestore.Store, root, owner string, timeout, staleAfter time.Duration) (*rootLock, error) {
	lock := &rootLock{
		store: store,
		root:  root,
		owner: owner,
		file:  flock.New(filepath.Join(root, lockFileName)),
	}

	lockCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	ok, err := lock.file.TryLockContext(lockCtx, 100*time.Millisecond)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return nil, services.Wrap(services.ErrFilesystem, "apply", "lock", "acquire lock file", err)
	}
	if !ok {
		holder, _ := store.LockHolder(ctx, root)
		return nil, &LockedError{Holder: holder}
	}

	if err := store.AcquireLock(ctx, root, owner, staleAfter); err != nil {
		_ = lock.file.Unlock()
		if errors.Is(err, cachestore.ErrLockHeld) {
			holder, _ := store.LockHolder(ctx, root)
			return nil, &LockedError{Holder: holder}
		}
		return nil, services.Wrap(services.ErrFatal, "apply", "lock", "acquire lock row", err)
	}
	return lock, nil
}

// release frees both layers. Safe on any exit path, including cancellation:
// the row delete runs on a fresh context so a canceled apply still unlocks.
func (l *rootLock) release(context.Context) {
	if l == nil {
		return
	}
	releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = l.store.ReleaseLock(releaseCtx, l.root, l.owner)
	_ = l.file.Unlock()
}
