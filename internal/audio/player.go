package audio

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/vladdudu12/wall-e-control-go/internal/models"
)

// Player plays named robot sounds.
type Player interface {
	// Play plays a named sound, blocking until it finishes.
	Play(ctx context.Context, name string) error

	// SetVolume sets the master volume in percent, clamped to [0, 100].
	SetVolume(ctx context.Context, percent int) error

	// Sounds lists the available sound names.
	Sounds() []string
}

// ALSAPlayer renders tone patterns to WAV files on first use and plays them
// through aplay. Volume goes through the amixer Master control so Bluetooth
// sinks routed via ALSA are covered too.
type ALSAPlayer struct {
	dir string

	mu      sync.Mutex
	playing bool
}

// NewALSAPlayer creates a player caching WAV files under dir.
func NewALSAPlayer(dir string) *ALSAPlayer {
	return &ALSAPlayer{dir: dir}
}

// Play synthesizes the sound if not cached, then runs aplay. Concurrent
// plays are rejected rather than queued, matching the one-speaker hardware.
func (p *ALSAPlayer) Play(ctx context.Context, name string) error {
	pattern, ok := Patterns[name]
	if !ok {
		return models.ErrBadRequest(fmt.Sprintf("unknown sound %q", name))
	}

	p.mu.Lock()
	if p.playing {
		p.mu.Unlock()
		return models.ErrConflict("a sound is already playing")
	}
	p.playing = true
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		p.playing = false
		p.mu.Unlock()
	}()

	path, err := p.ensureWAV(name, pattern)
	if err != nil {
		return err
	}

	cmd := exec.CommandContext(ctx, "aplay", "-q", path)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("audio: aplay %s: %w: %s", name, err, out)
	}
	slog.Debug("audio: played sound", "name", name)
	return nil
}

// SetVolume adjusts the ALSA Master control.
func (p *ALSAPlayer) SetVolume(ctx context.Context, percent int) error {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	cmd := exec.CommandContext(ctx, "amixer", "-q", "set", "Master", strconv.Itoa(percent)+"%")
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("audio: amixer: %w: %s", err, out)
	}
	slog.Info("audio: volume set", "percent", percent)
	return nil
}

func (p *ALSAPlayer) Sounds() []string {
	return SoundNames()
}

func (p *ALSAPlayer) ensureWAV(name string, pattern []Tone) (string, error) {
	path := filepath.Join(p.dir, name+".wav")
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	if err := os.MkdirAll(p.dir, 0755); err != nil {
		return "", err
	}
	data := EncodeWAV(Synthesize(pattern))
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return "", err
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", err
	}
	return path, nil
}

// MockPlayer records played sounds for tests and --mock mode.
type MockPlayer struct {
	mu     sync.Mutex
	played []string
	volume int
}

// NewMockPlayer creates a silent player.
func NewMockPlayer() *MockPlayer {
	return &MockPlayer{volume: 70}
}

func (p *MockPlayer) Play(ctx context.Context, name string) error {
	if _, ok := Patterns[name]; !ok {
		return models.ErrBadRequest(fmt.Sprintf("unknown sound %q", name))
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.played = append(p.played, name)
	return nil
}

func (p *MockPlayer) SetVolume(ctx context.Context, percent int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	p.volume = percent
	return nil
}

func (p *MockPlayer) Sounds() []string { return SoundNames() }

// Played returns the sounds played so far.
func (p *MockPlayer) Played() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.played))
	copy(out, p.played)
	return out
}

// Volume returns the last set volume.
func (p *MockPlayer) Volume() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}
