package bluetooth

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/vladdudu12/wall-e-control-go/internal/models"
)

func TestValidateMAC(t *testing.T) {
	valid := []string{
		"AA:BB:CC:DD:EE:FF",
		"00:11:22:33:44:55",
		"aa:bb:cc:dd:ee:ff",
	}
	for _, mac := range valid {
		if err := ValidateMAC(mac); err != nil {
			t.Errorf("ValidateMAC(%q) = %v, want nil", mac, err)
		}
	}

	invalid := []string{
		"",
		"not-a-mac",
		"AA:BB:CC:DD:EE",       // too short
		"AA:BB:CC:DD:EE:FF:00", // too long
		"AA-BB-CC-DD-EE-FF",    // wrong separator
		"GG:BB:CC:DD:EE:FF",    // non-hex
		"AA:BB:CC:DD:EE:F",     // short octet
	}
	for _, mac := range invalid {
		err := ValidateMAC(mac)
		var appErr *models.AppError
		if !errors.As(err, &appErr) || appErr.Status != 400 {
			t.Errorf("ValidateMAC(%q) = %v, want bad request", mac, err)
		}
	}
}

func TestDevicePath(t *testing.T) {
	got := DevicePath("aa:bb:cc:dd:ee:ff")
	want := dbus.ObjectPath("/org/bluez/hci0/dev_AA_BB_CC_DD_EE_FF")
	if got != want {
		t.Errorf("DevicePath = %q, want %q", got, want)
	}
}

func TestSpeakerFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".walle_bluetooth")
	f := NewSpeakerFile(path)

	if err := f.Save("aa:bb:cc:dd:ee:ff"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	mac, err := f.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if mac != "AA:BB:CC:DD:EE:FF" {
		t.Errorf("Load = %q, want normalized uppercase MAC", mac)
	}

	// Overwrite on re-pair.
	if err := f.Save("00:11:22:33:44:55"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	mac, _ = f.Load()
	if mac != "00:11:22:33:44:55" {
		t.Errorf("Load after overwrite = %q", mac)
	}
}

func TestSpeakerFile_Missing(t *testing.T) {
	f := NewSpeakerFile(filepath.Join(t.TempDir(), "nope"))
	mac, err := f.Load()
	if err != nil || mac != "" {
		t.Errorf("Load missing file = (%q, %v), want empty, nil", mac, err)
	}
}

func TestSpeakerFile_RejectsMalformed(t *testing.T) {
	f := NewSpeakerFile(filepath.Join(t.TempDir(), ".walle_bluetooth"))
	if err := f.Save("not-a-mac"); err == nil {
		t.Error("Save accepted malformed MAC")
	}

	// A hand-edited file with garbage must not leak through Load.
	if err := os.WriteFile(f.path, []byte("SPEAKER_MAC=garbage\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := f.Load(); err == nil {
		t.Error("Load accepted malformed MAC from file")
	}
}
