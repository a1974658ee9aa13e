// Package bluetooth pairs and connects Bluetooth audio sinks through the
// BlueZ D-Bus API, and remembers the default speaker in a dotfile so the
// daemon can reconnect to it at startup.
package bluetooth

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/godbus/dbus/v5"
	"github.com/vladdudu12/wall-e-control-go/internal/models"
)

const (
	bluezBus     = "org.bluez"
	adapterPath  = dbus.ObjectPath("/org/bluez/hci0")
	adapterIface = "org.bluez.Adapter1"
	deviceIface  = "org.bluez.Device1"

	// A2DP audio sink service class UUID.
	audioSinkUUID = "0000110b-0000-1000-8000-00805f9b34fb"

	defaultScanDuration = 10 * time.Second
)

var macPattern = regexp.MustCompile(`^([0-9A-Fa-f]{2}:){5}[0-9A-Fa-f]{2}$`)

// ValidateMAC checks a Bluetooth MAC address. Malformed input is rejected
// before any BlueZ call is made.
func ValidateMAC(mac string) error {
	if !macPattern.MatchString(mac) {
		return models.ErrBadRequest(fmt.Sprintf("invalid MAC address %q", mac))
	}
	return nil
}

// DevicePath converts a MAC address to its BlueZ object path.
func DevicePath(mac string) dbus.ObjectPath {
	return adapterPath + dbus.ObjectPath("/dev_"+strings.ToUpper(strings.ReplaceAll(mac, ":", "_")))
}

// Manager drives the BlueZ stack for speaker pairing and reconnection.
type Manager struct {
	speakers *SpeakerFile
}

// NewManager creates a Bluetooth manager persisting the default speaker to
// the given dotfile path.
func NewManager(speakerFile string) *Manager {
	return &Manager{speakers: NewSpeakerFile(speakerFile)}
}

// Status reports the adapter and saved-speaker state. A missing BlueZ stack
// is not an error — Available is simply false.
func (m *Manager) Status(ctx context.Context) models.BluetoothStatus {
	st := models.BluetoothStatus{}
	if mac, err := m.speakers.Load(); err == nil {
		st.SpeakerMAC = mac
	}

	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		slog.Debug("bluetooth: no system bus", "err", err)
		return st
	}
	defer conn.Close()

	adapter := conn.Object(bluezBus, adapterPath)
	powered, err := adapter.GetProperty(adapterIface + ".Powered")
	if err != nil {
		return st
	}
	st.Available = true
	st.Powered, _ = powered.Value().(bool)
	if v, err := adapter.GetProperty(adapterIface + ".Discovering"); err == nil {
		st.Discovering, _ = v.Value().(bool)
	}

	if st.SpeakerMAC != "" {
		dev := conn.Object(bluezBus, DevicePath(st.SpeakerMAC))
		if v, err := dev.GetProperty(deviceIface + ".Connected"); err == nil {
			st.Connected, _ = v.Value().(bool)
		}
		if v, err := dev.GetProperty(deviceIface + ".Alias"); err == nil {
			st.SpeakerName, _ = v.Value().(string)
		}
	}
	return st
}

// Scan powers the adapter, discovers for the given duration (bounded, not a
// detached background process), and returns the devices BlueZ knows about.
func (m *Manager) Scan(ctx context.Context, duration time.Duration) ([]models.BluetoothDevice, error) {
	if duration <= 0 {
		duration = defaultScanDuration
	}

	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, fmt.Errorf("bluetooth: connect system bus: %w", err)
	}
	defer conn.Close()

	adapter := conn.Object(bluezBus, adapterPath)
	if err := adapter.SetProperty(adapterIface+".Powered", dbus.MakeVariant(true)); err != nil {
		return nil, fmt.Errorf("bluetooth: power adapter: %w", err)
	}

	if call := adapter.CallWithContext(ctx, adapterIface+".StartDiscovery", 0); call.Err != nil {
		// InProgress just means someone else is already scanning.
		if !strings.Contains(call.Err.Error(), "InProgress") {
			return nil, fmt.Errorf("bluetooth: start discovery: %w", call.Err)
		}
	}

	select {
	case <-time.After(duration):
	case <-ctx.Done():
	}

	if call := adapter.CallWithContext(context.Background(), adapterIface+".StopDiscovery", 0); call.Err != nil {
		slog.Debug("bluetooth: stop discovery", "err", call.Err)
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	return listDevices(conn)
}

// Connect pairs, trusts and connects the speaker at the given MAC, saving
// it as the default sink on success.
func (m *Manager) Connect(ctx context.Context, mac string) error {
	if err := ValidateMAC(mac); err != nil {
		return err
	}

	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return fmt.Errorf("bluetooth: connect system bus: %w", err)
	}
	defer conn.Close()

	dev := conn.Object(bluezBus, DevicePath(mac))

	if call := dev.CallWithContext(ctx, deviceIface+".Pair", 0); call.Err != nil {
		if !strings.Contains(call.Err.Error(), "AlreadyExists") {
			return fmt.Errorf("bluetooth: pair %s: %w", mac, call.Err)
		}
	}
	if err := dev.SetProperty(deviceIface+".Trusted", dbus.MakeVariant(true)); err != nil {
		slog.Warn("bluetooth: trust failed", "mac", mac, "err", err)
	}
	if call := dev.CallWithContext(ctx, deviceIface+".Connect", 0); call.Err != nil {
		return fmt.Errorf("bluetooth: connect %s: %w", mac, call.Err)
	}

	if err := m.speakers.Save(mac); err != nil {
		slog.Warn("bluetooth: failed to save default speaker", "err", err)
	}
	slog.Info("bluetooth: speaker connected", "mac", mac)
	return nil
}

// Disconnect drops the connection to the saved default speaker.
func (m *Manager) Disconnect(ctx context.Context) error {
	mac, err := m.speakers.Load()
	if err != nil || mac == "" {
		return models.ErrNotFound("no default speaker configured")
	}

	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return fmt.Errorf("bluetooth: connect system bus: %w", err)
	}
	defer conn.Close()

	dev := conn.Object(bluezBus, DevicePath(mac))
	if call := dev.CallWithContext(ctx, deviceIface+".Disconnect", 0); call.Err != nil {
		return fmt.Errorf("bluetooth: disconnect %s: %w", mac, call.Err)
	}
	slog.Info("bluetooth: speaker disconnected", "mac", mac)
	return nil
}

// SpeakerMAC returns the saved default speaker, "" when none is configured.
func (m *Manager) SpeakerMAC() string {
	mac, err := m.speakers.Load()
	if err != nil {
		return ""
	}
	return mac
}

// RunAutoReconnect attempts a delayed reconnection to the saved speaker at
// startup, retrying with exponential backoff for a bounded time. Blocks
// until done or ctx is cancelled; intended to run as a goroutine.
func (m *Manager) RunAutoReconnect(ctx context.Context, initialDelay time.Duration) {
	mac, err := m.speakers.Load()
	if err != nil || mac == "" {
		return
	}

	select {
	case <-ctx.Done():
		return
	case <-time.After(initialDelay):
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 5 * time.Second
	policy.MaxElapsedTime = 2 * time.Minute

	err = backoff.Retry(func() error {
		return m.Connect(ctx, mac)
	}, backoff.WithContext(policy, ctx))
	if err != nil {
		slog.Warn("bluetooth: auto-reconnect gave up", "mac", mac, "err", err)
		return
	}
	slog.Info("bluetooth: auto-reconnected to saved speaker", "mac", mac)
}

// listDevices collects Device1 objects from the BlueZ object tree.
func listDevices(conn *dbus.Conn) ([]models.BluetoothDevice, error) {
	obj := conn.Object(bluezBus, "/")
	call := obj.Call("org.freedesktop.DBus.ObjectManager.GetManagedObjects", 0)
	if call.Err != nil {
		return nil, fmt.Errorf("bluetooth: get managed objects: %w", call.Err)
	}

	var objects map[dbus.ObjectPath]map[string]map[string]dbus.Variant
	if err := call.Store(&objects); err != nil {
		return nil, err
	}

	var devices []models.BluetoothDevice
	for _, interfaces := range objects {
		props, ok := interfaces[deviceIface]
		if !ok {
			continue
		}
		dev := models.BluetoothDevice{}
		if v, ok := props["Address"]; ok {
			dev.MAC, _ = v.Value().(string)
		}
		if v, ok := props["Alias"]; ok {
			dev.Name, _ = v.Value().(string)
		}
		if dev.Name == "" {
			if v, ok := props["Name"]; ok {
				dev.Name, _ = v.Value().(string)
			}
		}
		if v, ok := props["Paired"]; ok {
			dev.Paired, _ = v.Value().(bool)
		}
		if v, ok := props["Connected"]; ok {
			dev.Connected, _ = v.Value().(bool)
		}
		if v, ok := props["UUIDs"]; ok {
			if uuids, ok := v.Value().([]string); ok {
				for _, u := range uuids {
					if strings.EqualFold(u, audioSinkUUID) {
						dev.AudioSink = true
						break
					}
				}
			}
		}
		if dev.MAC != "" {
			devices = append(devices, dev)
		}
	}
	return devices, nil
}
