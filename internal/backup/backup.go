// Package backup snapshots the managed network configuration files into
// timestamped directories and restores them on request. Snapshots are
// write-once and never deleted automatically.
package backup

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/vladdudu12/wall-e-control-go/internal/models"
)

const stampLayout = "20060102-150405"

// Manager creates and restores configuration snapshots.
type Manager struct {
	dir   string   // snapshot root, e.g. /var/lib/walle/backups
	files []string // absolute paths of the files covered by a snapshot
}

// NewManager creates a backup manager storing snapshots under dir, covering
// the given files. Files that do not exist at snapshot time are skipped.
func NewManager(dir string, files []string) *Manager {
	return &Manager{dir: dir, files: files}
}

// Snapshot copies the managed files into a new timestamped directory and
// returns its info. Missing source files are skipped, not errors — a fresh
// system may not have all four configs yet.
func (m *Manager) Snapshot() (models.BackupInfo, error) {
	id := time.Now().Format(stampLayout)
	dest := filepath.Join(m.dir, id)

	// Write-once: refuse to reuse an existing snapshot directory. Two
	// snapshots within the same second get a numeric suffix.
	for i := 2; ; i++ {
		if _, err := os.Stat(dest); os.IsNotExist(err) {
			break
		}
		dest = filepath.Join(m.dir, fmt.Sprintf("%s-%d", id, i))
	}
	id = filepath.Base(dest)

	if err := os.MkdirAll(dest, 0755); err != nil {
		return models.BackupInfo{}, fmt.Errorf("create snapshot dir: %w", err)
	}

	info := models.BackupInfo{ID: id, Path: dest}
	for _, src := range m.files {
		if _, err := os.Stat(src); os.IsNotExist(err) {
			continue
		}
		name := filepath.Base(src)
		if err := copyFile(src, filepath.Join(dest, name)); err != nil {
			return models.BackupInfo{}, fmt.Errorf("snapshot %s: %w", src, err)
		}
		info.Files = append(info.Files, name)
	}

	slog.Info("backup: snapshot created", "id", id, "files", len(info.Files))
	return info, nil
}

// List returns available snapshots sorted by ID (oldest first).
func (m *Manager) List() ([]models.BackupInfo, error) {
	entries, err := os.ReadDir(m.dir)
	if os.IsNotExist(err) {
		return []models.BackupInfo{}, nil
	}
	if err != nil {
		return nil, err
	}

	var backups []models.BackupInfo
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		info := models.BackupInfo{ID: e.Name(), Path: filepath.Join(m.dir, e.Name())}
		files, err := os.ReadDir(info.Path)
		if err != nil {
			continue
		}
		for _, f := range files {
			if !f.IsDir() {
				info.Files = append(info.Files, f.Name())
			}
		}
		backups = append(backups, info)
	}
	sort.Slice(backups, func(i, j int) bool { return backups[i].ID < backups[j].ID })
	return backups, nil
}

// Restore copies the files of the named snapshot back over the managed
// paths. The caller is responsible for rebooting or restarting daemons —
// restore itself only moves bytes.
func (m *Manager) Restore(id string) error {
	src := filepath.Join(m.dir, filepath.Base(id)) // Base() guards traversal
	if _, err := os.Stat(src); err != nil {
		return models.ErrNotFound(fmt.Sprintf("snapshot %q not found", id))
	}

	restored := 0
	for _, dst := range m.files {
		from := filepath.Join(src, filepath.Base(dst))
		if _, err := os.Stat(from); os.IsNotExist(err) {
			continue
		}
		if err := copyFile(from, dst); err != nil {
			return fmt.Errorf("restore %s: %w", dst, err)
		}
		restored++
	}
	if restored == 0 {
		return fmt.Errorf("snapshot %q contains no restorable files", id)
	}

	slog.Info("backup: snapshot restored", "id", id, "files", restored)
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	fi, err := in.Stat()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fi.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
