package applier

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// manifestHeader is the first JSONL line of a rollback manifest.
type manifestHeader struct {
	Type          string `json:"type"`
	SchemaVersion string `json:"schema_version"`
	ReportID      string `json:"report_id"`
	PlanID        string `json:"plan_id,omitempty"`
	CreatedAt     string `json:"created_at"`
	Root          string `json:"root"`
	Mode          Mode   `json:"mode"`
	Collision     string `json:"collision_strategy"`
}

// ManifestEntry records one committed rename with enough state to reverse
// it: the destination inode is verified before any undo. The mtime is
// recorded but not checked.
type ManifestEntry struct {
	Type   string `json:"type"`
	Src    string `json:"src"`
	Dst    string `json:"dst"`
	Status string `json:"status"`
	Inode  uint64 `json:"inode"`
	Mtime  string `json:"mtime"`
	Backup string `json:"backup,omitempty"`
}

// manifestWriter appends fsynced JSONL lines so a crash mid-apply still
// leaves a usable rollback record.
type manifestWriter struct {
	path string
	file *os.File
}

func newManifestWriter(root, reportID, planID string, mode Mode, collision CollisionStrategy) (*manifestWriter, error) {
	dir := filepath.Join(root, ".namegnome", "rollbacks")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create rollback directory: %w", err)
	}
	path := filepath.Join(dir, reportID+".jsonl")
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open manifest %s: %w", path, err)
	}
	writer := &manifestWriter{path: path, file: file}
	header := manifestHeader{
		Type:          "header",
		SchemaVersion: "1.0",
		ReportID:      reportID,
		PlanID:        planID,
		CreatedAt:     time.Now().UTC().Format(time.RFC3339),
		Root:          root,
		Mode:          mode,
		Collision:     string(collision),
	}
	if err := writer.writeLine(header); err != nil {
		_ = file.Close()
		return nil, err
	}
	return writer, nil
}

func (w *manifestWriter) append(entry ManifestEntry) error {
	entry.Type = "rename"
	return w.writeLine(entry)
}

func (w *manifestWriter) writeLine(value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode manifest line: %w", err)
	}
	if _, err := w.file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write manifest line: %w", err)
	}
	return w.file.Sync()
}

func (w *manifestWriter) close() error {
	if w == nil || w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}

// readManifest loads the committed rename entries of a manifest, newest last.
func readManifest(path string) ([]ManifestEntry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open manifest %s: %w", path, err)
	}
	defer file.Close()

	var entries []ManifestEntry
	scan := bufio.NewScanner(file)
	scan.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scan.Scan() {
		line := scan.Bytes()
		if len(line) == 0 {
			continue
		}
		var entry ManifestEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			return nil, fmt.Errorf("decode manifest line: %w", err)
		}
		if entry.Type != "rename" || entry.Status != StatusApplied {
			continue
		}
		entries = append(entries, entry)
	}
	if err := scan.Err(); err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}
	return entries, nil
}
