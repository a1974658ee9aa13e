package config

import (
	"sync"

	"github.com/vladdudu12/wall-e-control-go/internal/models"
)

// MemStore is an in-memory Store for tests.
type MemStore struct {
	mu       sync.Mutex
	settings *models.Settings
	saves    int
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{}
}

func (s *MemStore) Load() (*models.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.settings == nil {
		def := models.DefaultSettings()
		return &def, nil
	}
	copy := s.settings.DeepCopy()
	return &copy, nil
}

func (s *MemStore) Save(settings *models.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copy := settings.DeepCopy()
	s.settings = &copy
	s.saves++
	return nil
}

func (s *MemStore) Flush() error { return nil }

// SaveCount returns how many times Save has been called (for tests).
func (s *MemStore) SaveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}
