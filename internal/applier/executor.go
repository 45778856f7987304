package applier

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sys/unix"

	"github.com/DouglasMacKrell/namegnome-serve/internal/cachestore"
	"github.com/DouglasMacKrell/namegnome-serve/internal/logging"
	"github.com/DouglasMacKrell/namegnome-serve/internal/plan"
	"github.com/DouglasMacKrell/namegnome-serve/internal/services"
)

// Request describes one apply run.
type Request struct {
	Review    *plan.Review
	Root      string
	Mode      Mode
	Collision CollisionStrategy
	// Owner identifies the lock holder; defaults to the report id.
	Owner string
}

// Executor applies approved plans.
type Executor struct {
	store  *cachestore.Store
	logger *slog.Logger

	lockTimeout time.Duration
	lockStale   time.Duration
}

// New constructs an Executor.
func New(store *cachestore.Store, logger *slog.Logger, lockTimeout, lockStale time.Duration) *Executor {
	if lockTimeout <= 0 {
		lockTimeout = 5 * time.Second
	}
	if lockStale <= 0 {
		lockStale = 10 * time.Minute
	}
	return &Executor{
		store:       store,
		logger:      logging.NewComponentLogger(logger, "applier"),
		lockTimeout: lockTimeout,
		lockStale:   lockStale,
	}
}

// Apply executes the plan's renames in items[] order under the root's
// exclusive lock. Dry-run never mutates; transactional mode rolls back on
// the first hard failure; continue-on-error attempts everything and mints a
// rollback token for the committed subset.
func (e *Executor) Apply(ctx context.Context, req Request) (*Result, error) {
	if req.Review == nil {
		return nil, services.Wrap(services.ErrValidation, "apply", "validate", "plan review required", nil)
	}
	root := strings.TrimSpace(req.Root)
	if root == "" {
		return nil, services.Wrap(services.ErrValidation, "apply", "validate", "root required", nil)
	}

	reportID := "rpt_" + strings.ReplaceAll(uuid.New().String(), "-", "")
	owner := req.Owner
	if owner == "" {
		owner = reportID
	}

	result := &Result{
		ReportID:  reportID,
		PlanID:    req.Review.PlanID,
		Mode:      req.Mode,
		StartedAt: time.Now().UTC(),
	}

	lock, err := acquireRootLock(ctx, e.store, root, owner, e.lockTimeout, e.lockStale)
	if err != nil {
		return nil, err
	}
	defer lock.release(ctx)

	mtimes := snapshotMtimes(req.Review)

	var manifest *manifestWriter
	if req.Mode != ModeDryRun {
		manifest, err = newManifestWriter(root, reportID, req.Review.PlanID, req.Mode, req.Collision)
		if err != nil {
			return nil, services.Wrap(services.ErrFilesystem, "apply", "manifest", root, err)
		}
		defer func() { _ = manifest.close() }()
		result.ManifestPath = manifest.path
	}

	var committed []ManifestEntry
	for _, item := range req.Review.Items {
		if err := ctx.Err(); err != nil {
			// Cancellation mid-apply follows the active failure mode.
			if req.Mode == ModeTransactional {
				e.rollbackCommitted(committed, result)
			}
			return result, err
		}
		outcome := e.applyItem(item, mtimes, req.Mode, req.Collision, manifest)
		outcome.ItemID = item.ID
		result.Outcomes = append(result.Outcomes, outcome)

		switch outcome.Status {
		case StatusApplied:
			result.Applied++
			committed = append(committed, ManifestEntry{
				Src: outcome.Src, Dst: outcome.Dst, Status: StatusApplied, Backup: outcome.BackupPath,
				Inode: inodeAt(outcome.Dst),
			})
		case StatusFailed:
			result.Failed++
			if req.Mode == ModeTransactional {
				e.rollbackCommitted(committed, result)
				return result, nil
			}
		default:
			result.Skipped++
		}
	}

	if req.Mode == ModeContinueOnError && result.Applied > 0 {
		token := "rbk_" + strings.ReplaceAll(uuid.New().String(), "-", "")
		if err := e.store.PutKV(ctx, "rollback:"+token, result.ManifestPath); err != nil {
			e.logger.Warn("rollback token not persisted", logging.Error(err))
		} else {
			result.RollbackToken = token
		}
	}

	e.logger.Info("apply finished",
		logging.String("report_id", reportID),
		logging.Int("applied", result.Applied),
		logging.Int("skipped", result.Skipped),
		logging.Int("failed", result.Failed),
		logging.Bool("rolled_back", result.RolledBack))
	return result, nil
}

// applyItem performs one rename, recording it in the manifest when it
// commits.
func (e *Executor) applyItem(item plan.Item, mtimes map[string]string, mode Mode, collision CollisionStrategy, manifest *manifestWriter) Outcome {
	outcome := Outcome{Src: item.Src.Path, Dst: item.Dst.Path}

	info, err := os.Lstat(item.Src.Path)
	if err != nil {
		if _, tracked := mtimes[item.Src.Path]; tracked && errors.Is(err, fs.ErrNotExist) {
			outcome.Status = StatusSkippedStale
			outcome.Reason = "source vanished since scan"
			return outcome
		}
		outcome.Status = StatusFailed
		outcome.Reason = "source missing"
		return outcome
	}
	// Optimistic snapshot verification: the recorded scan mtime must still
	// hold before we touch the file.
	if expected, ok := mtimes[item.Src.Path]; ok {
		if actual := info.ModTime().UTC().Format(time.RFC3339Nano); actual != expected {
			outcome.Status = StatusSkippedStale
			outcome.Reason = fmt.Sprintf("mtime changed (%s != %s)", actual, expected)
			return outcome
		}
	}

	if item.Src.Path == item.Dst.Path {
		outcome.Status = StatusNoop
		outcome.Reason = "already named correctly"
		return outcome
	}

	if mode == ModeDryRun {
		outcome.Status = StatusNoop
		outcome.Reason = "dry_run"
		return outcome
	}

	if err := os.MkdirAll(filepath.Dir(item.Dst.Path), 0o755); err != nil {
		outcome.Status = StatusFailed
		outcome.Reason = "create destination directory: " + err.Error()
		return outcome
	}

	if !sameDevice(item.Src.Path, filepath.Dir(item.Dst.Path)) {
		outcome.Status = StatusFailed
		outcome.Reason = "cross-device move not supported"
		return outcome
	}

	if _, err := os.Lstat(item.Dst.Path); err == nil {
		switch collision {
		case CollisionSkip:
			outcome.Status = StatusSkippedCollision
			outcome.Reason = "destination exists"
			return outcome
		case CollisionOverwrite:
			if err := os.Remove(item.Dst.Path); err != nil {
				outcome.Status = StatusFailed
				outcome.Reason = "remove existing destination: " + err.Error()
				return outcome
			}
		case CollisionBackup:
			backup, err := backupExisting(item.Dst.Path)
			if err != nil {
				outcome.Status = StatusFailed
				outcome.Reason = "backup existing destination: " + err.Error()
				return outcome
			}
			outcome.BackupPath = backup
		}
	}

	if err := os.Rename(item.Src.Path, item.Dst.Path); err != nil {
		outcome.Status = StatusFailed
		outcome.Reason = "rename: " + err.Error()
		return outcome
	}

	outcome.Status = StatusApplied
	entry := ManifestEntry{
		Src:    item.Src.Path,
		Dst:    item.Dst.Path,
		Status: StatusApplied,
		Backup: outcome.BackupPath,
	}
	if stat, err := os.Lstat(item.Dst.Path); err == nil {
		entry.Mtime = stat.ModTime().UTC().Format(time.RFC3339Nano)
	}
	entry.Inode = inodeAt(item.Dst.Path)
	if manifest != nil {
		if err := manifest.append(entry); err != nil {
			e.logger.Warn("manifest append failed", logging.String("dst", item.Dst.Path), logging.Error(err))
		}
	}
	return outcome
}

// rollbackCommitted undoes committed renames in reverse order, verifying the
// recorded inode is still present at dst before restoring.
func (e *Executor) rollbackCommitted(committed []ManifestEntry, result *Result) {
	for i := len(committed) - 1; i >= 0; i-- {
		entry := committed[i]
		outcome := undoEntry(entry)
		result.Outcomes = append(result.Outcomes, outcome)
	}
	result.RolledBack = true
}

func undoEntry(entry ManifestEntry) Outcome {
	outcome := Outcome{Src: entry.Dst, Dst: entry.Src}
	if _, err := os.Lstat(entry.Dst); err != nil {
		outcome.Status = StatusRollbackSkipped
		outcome.Reason = "destination missing"
		return outcome
	}
	if entry.Inode != 0 && inodeAt(entry.Dst) != entry.Inode {
		outcome.Status = StatusRollbackSkipped
		outcome.Reason = "inode changed since apply"
		return outcome
	}
	if err := os.Rename(entry.Dst, entry.Src); err != nil {
		outcome.Status = StatusRollbackSkipped
		outcome.Reason = "restore rename: " + err.Error()
		return outcome
	}
	if entry.Backup != "" {
		// Restore the pre-apply occupant of dst.
		_ = os.Rename(entry.Backup, entry.Dst)
	}
	outcome.Status = StatusRolledBack
	return outcome
}

// Rollback undoes the committed subset recorded under a continue-on-error
// rollback token.
func (e *Executor) Rollback(ctx context.Context, token string) (*Result, error) {
	manifestPath, err := e.store.GetKV(ctx, "rollback:"+token)
	if err != nil {
		if errors.Is(err, cachestore.ErrNotFound) {
			return nil, services.Wrap(services.ErrNotFound, "apply", "rollback", "unknown rollback token", nil)
		}
		return nil, services.Wrap(services.ErrFatal, "apply", "rollback", token, err)
	}
	entries, err := readManifest(manifestPath)
	if err != nil {
		return nil, services.Wrap(services.ErrFilesystem, "apply", "rollback", manifestPath, err)
	}

	result := &Result{
		ReportID:  "rpt_" + strings.ReplaceAll(uuid.New().String(), "-", ""),
		Mode:      ModeContinueOnError,
		StartedAt: time.Now().UTC(),
	}
	for i := len(entries) - 1; i >= 0; i-- {
		outcome := undoEntry(entries[i])
		result.Outcomes = append(result.Outcomes, outcome)
		if outcome.Status == StatusRolledBack {
			result.Applied++
		} else {
			result.Skipped++
		}
	}
	result.RolledBack = true
	_ = e.store.DeleteKV(ctx, "rollback:"+token)
	return result, nil
}

func snapshotMtimes(review *plan.Review) map[string]string {
	mtimes := make(map[string]string, len(review.Groups))
	for _, group := range review.Groups {
		if group.SrcFile.Mtime != "" {
			mtimes[group.SrcFile.Path] = group.SrcFile.Mtime
		}
	}
	return mtimes
}

func sameDevice(src, dstDir string) bool {
	var srcStat, dstStat unix.Stat_t
	if err := unix.Stat(src, &srcStat); err != nil {
		return false
	}
	if err := unix.Stat(dstDir, &dstStat); err != nil {
		return false
	}
	return srcStat.Dev == dstStat.Dev
}

func inodeAt(path string) uint64 {
	var stat unix.Stat_t
	if err := unix.Stat(path, &stat); err != nil {
		return 0
	}
	return stat.Ino
}

func backupExisting(dst string) (string, error) {
	backupDir := filepath.Join(filepath.Dir(dst), ".namegnome", "backups")
	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		return "", err
	}
	baseExt := filepath.Ext(dst)
	stem := strings.TrimSuffix(filepath.Base(dst), baseExt)
	unique := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	backup := filepath.Join(backupDir, stem+".bak"+unique+baseExt)
	if err := os.Rename(dst, backup); err != nil {
		return "", err
	}
	return backup, nil
}
