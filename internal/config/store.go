// Package config persists daemon settings as JSON.
package config

import "github.com/vladdudu12/wall-e-control-go/internal/models"

// Store persists and loads the daemon settings.
type Store interface {
	// Load reads the settings, returning defaults if nothing is stored.
	Load() (*models.Settings, error)

	// Save schedules a write of the settings. Implementations may debounce.
	Save(settings *models.Settings) error

	// Flush forces any pending write to complete.
	Flush() error
}
