package bluetooth

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const speakerKey = "SPEAKER_MAC"

// SpeakerFile persists the default audio sink MAC as a single KEY=value
// line in a per-user dotfile. Overwritten on every successful pairing.
type SpeakerFile struct {
	path string
}

// NewSpeakerFile creates a speaker file at the given path.
func NewSpeakerFile(path string) *SpeakerFile {
	return &SpeakerFile{path: path}
}

// Load reads the saved MAC. Returns "" with nil error when the file does
// not exist or holds no speaker line.
func (f *SpeakerFile) Load() (string, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if after, ok := strings.CutPrefix(line, speakerKey+"="); ok {
			mac := strings.TrimSpace(after)
			if err := ValidateMAC(mac); err != nil {
				return "", err
			}
			return mac, nil
		}
	}
	return "", nil
}

// Save writes the MAC, replacing any previous value.
func (f *SpeakerFile) Save(mac string) error {
	if err := ValidateMAC(mac); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0755); err != nil {
		return err
	}
	content := fmt.Sprintf("%s=%s\n", speakerKey, strings.ToUpper(mac))
	return os.WriteFile(f.path, []byte(content), 0600)
}
