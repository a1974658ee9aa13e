package config

import (
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vladdudu12/wall-e-control-go/internal/models"
)

const (
	settingsFileName = "walle.json"
	debounceDelay    = 500 * time.Millisecond
)

// JSONStore is an atomic JSON file store with debounced writes.
type JSONStore struct {
	mu      sync.Mutex
	path    string
	timer   *time.Timer
	pending *models.Settings
}

// NewJSONStore creates a new JSON store in the given config directory.
func NewJSONStore(configDir string) *JSONStore {
	return &JSONStore{
		path: filepath.Join(configDir, settingsFileName),
	}
}

// Path returns the file path used by this store.
func (s *JSONStore) Path() string { return s.path }

// Load reads the settings from disk. Returns DefaultSettings on ENOENT or
// parse errors.
func (s *JSONStore) Load() (*models.Settings, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			def := models.DefaultSettings()
			return &def, nil
		}
		return nil, err
	}

	var settings models.Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		slog.Warn("config: corrupt JSON config, using defaults", "path", s.path, "err", err)
		def := models.DefaultSettings()
		return &def, nil
	}

	fillDefaults(&settings)
	return &settings, nil
}

// Save schedules a debounced write of the settings to disk.
// The actual write happens after 500ms of no further Save calls.
func (s *JSONStore) Save(settings *models.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Take a copy so we don't hold a reference to the caller's settings
	copy := settings.DeepCopy()
	s.pending = &copy

	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(debounceDelay, func() {
		s.mu.Lock()
		st := s.pending
		s.mu.Unlock()
		if st != nil {
			if err := s.writeAtomic(st); err != nil {
				slog.Error("config: failed to write settings", "path", s.path, "err", err)
			}
		}
	})
	return nil
}

// Flush forces an immediate write of any pending settings.
func (s *JSONStore) Flush() error {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	st := s.pending
	s.mu.Unlock()
	if st == nil {
		return nil
	}
	return s.writeAtomic(st)
}

func (s *JSONStore) writeAtomic(settings *models.Settings) error {
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return err
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}

	// Write to temp file, then rename (atomic on Linux)
	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmpPath, s.path)
}

// fillDefaults patches zero values left behind by configs written before a
// field existed.
func fillDefaults(s *models.Settings) {
	def := models.DefaultSettings()
	if s.Interface == "" {
		s.Interface = def.Interface
	}
	if s.AP.SSID == "" {
		s.AP = def.AP
	}
	if s.AP.Interface == "" {
		s.AP.Interface = s.Interface
	}
	if s.BaudRate == 0 {
		s.BaudRate = def.BaudRate
	}
	if len(s.SerialPorts) == 0 {
		s.SerialPorts = def.SerialPorts
	}
	if s.Volume == 0 {
		s.Volume = def.Volume
	}
	if s.ServoPositions == nil {
		s.ServoPositions = def.ServoPositions
	}
}
