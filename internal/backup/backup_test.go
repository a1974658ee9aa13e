package backup

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func writeFiles(t *testing.T, dir string, contents map[string]string) []string {
	t.Helper()
	var paths []string
	for name, content := range contents {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
		paths = append(paths, p)
	}
	return paths
}

func TestSnapshotAndRestore_ByteIdentical(t *testing.T) {
	srcDir := t.TempDir()
	files := writeFiles(t, srcDir, map[string]string{
		"dhcpcd.conf":         "hostname\npersistent\n",
		"hostapd.conf":        "interface=wlan0\nssid=Wall-E-Robot\n",
		"dnsmasq.conf":        "interface=wlan0\ndhcp-range=192.168.4.2,192.168.4.20\n",
		"wpa_supplicant.conf": "country=RO\nnetwork={\n    ssid=\"home\"\n}\n",
	})

	m := NewManager(filepath.Join(t.TempDir(), "backups"), files)

	info, err := m.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(info.Files) != 4 {
		t.Fatalf("snapshot covered %d files, want 4", len(info.Files))
	}

	originals := make(map[string][]byte)
	for _, p := range files {
		data, err := os.ReadFile(p)
		if err != nil {
			t.Fatal(err)
		}
		originals[p] = data
	}

	// Scribble over the live files, then restore.
	for _, p := range files {
		if err := os.WriteFile(p, []byte("corrupted\n"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	if err := m.Restore(info.ID); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	for _, p := range files {
		data, err := os.ReadFile(p)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(data, originals[p]) {
			t.Errorf("%s not byte-identical after restore:\ngot:  %q\nwant: %q", p, data, originals[p])
		}
	}
}

func TestSnapshot_SkipsMissingFiles(t *testing.T) {
	srcDir := t.TempDir()
	files := writeFiles(t, srcDir, map[string]string{"dhcpcd.conf": "hostname\n"})
	files = append(files, filepath.Join(srcDir, "does-not-exist.conf"))

	m := NewManager(filepath.Join(t.TempDir(), "backups"), files)
	info, err := m.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(info.Files) != 1 {
		t.Errorf("snapshot covered %d files, want 1", len(info.Files))
	}
}

func TestSnapshot_WriteOnce(t *testing.T) {
	srcDir := t.TempDir()
	files := writeFiles(t, srcDir, map[string]string{"dhcpcd.conf": "a\n"})
	m := NewManager(filepath.Join(t.TempDir(), "backups"), files)

	// Two snapshots within the same second must land in distinct dirs.
	a, err := m.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	b, err := m.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	if a.ID == b.ID {
		t.Errorf("two snapshots share ID %q", a.ID)
	}

	list, err := m.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Errorf("List returned %d snapshots, want 2", len(list))
	}
}

func TestRestore_UnknownID(t *testing.T) {
	m := NewManager(t.TempDir(), nil)
	if err := m.Restore("20240101-000000"); err == nil {
		t.Error("Restore of unknown snapshot succeeded")
	}
}

func TestRestore_PathTraversalGuard(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(dir, nil)
	// Base() reduces the ID to a plain name; with nothing stored this must
	// simply fail, not read outside the snapshot root.
	if err := m.Restore("../../etc"); err == nil {
		t.Error("Restore with traversal ID succeeded")
	}
}

func TestList_EmptyDir(t *testing.T) {
	m := NewManager(filepath.Join(t.TempDir(), "missing"), nil)
	list, err := m.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("List returned %d snapshots, want 0", len(list))
	}
}
