package netctl

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/vladdudu12/wall-e-control-go/internal/models"
)

// modeFlag persists the active network mode as a single plain-text word,
// exactly "client" or "access_point". Written atomically via temp + rename.
type modeFlag struct {
	path string
}

func newModeFlag(path string) *modeFlag {
	return &modeFlag{path: path}
}

// Read returns the persisted mode, ModeUnknown when the file is absent or
// holds anything but the two valid literals.
func (f *modeFlag) Read() models.NetworkMode {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return models.ModeUnknown
	}
	mode := models.NetworkMode(strings.TrimSpace(string(data)))
	if !mode.Valid() {
		return models.ModeUnknown
	}
	return mode
}

// Write persists the mode. Only valid modes are accepted; the flag never
// holds "unknown".
func (f *modeFlag) Write(mode models.NetworkMode) error {
	if !mode.Valid() {
		return models.ErrBadRequest("invalid network mode: " + string(mode))
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0755); err != nil {
		return err
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(mode+"\n"), 0644); err != nil {
		return err
	}
	return os.Rename(tmp, f.path)
}
