package network

import (
	"context"
	"fmt"
	"sync"

	"github.com/vladdudu12/wall-e-control-go/internal/models"
)

// Mock is a thread-safe in-memory network backend for testing and
// development. File writes land in an in-memory map and unit control flips
// booleans; probe results are configurable.
type Mock struct {
	mu      sync.Mutex
	files   map[string]string
	active  map[string]bool
	enabled map[string]bool
	addrs   map[string]string
	pkgs    map[string]bool

	// Probe configuration.
	routeExists  bool
	internetOK   bool
	listenPorts  map[int]bool
	hasNM        bool
	savedProfile bool

	// Failure injection.
	failWrite bool
	failUnits map[string]bool // StartUnit succeeds but unit never goes active
	unitErrs  map[string]error
}

// NewMock creates a mock backend resembling a Pi in client mode: dhcpcd and
// wpa_supplicant active, a default route present, internet reachable.
func NewMock() *Mock {
	return &Mock{
		files: map[string]string{
			PathDhcpcdConf:        "hostname\nclientid\npersistent\n",
			PathWpaSupplicantConf: RenderWpaSupplicantConf("home", "secret", "RO"),
		},
		active: map[string]bool{
			UnitDhcpcd:        true,
			UnitWpaSupplicant: true,
		},
		enabled:      map[string]bool{},
		addrs:        map[string]string{"wlan0": "192.168.1.37/24"},
		pkgs:         map[string]bool{"hostapd": true, "dnsmasq": true},
		routeExists:  true,
		internetOK:   true,
		listenPorts:  map[int]bool{},
		savedProfile: true,
		failUnits:    map[string]bool{},
		unitErrs:     map[string]error{},
	}
}

// --- test configuration knobs ---

// SetFailWrite makes all config file writes fail.
func (m *Mock) SetFailWrite(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWrite = fail
}

// SetUnitBroken makes the named unit refuse to reach active state.
func (m *Mock) SetUnitBroken(name string, broken bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failUnits[name] = broken
	if broken {
		m.active[name] = false
	}
}

// SetUnitError makes operations on the named unit return err.
func (m *Mock) SetUnitError(name string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unitErrs[name] = err
}

// SetRoute configures whether a default route exists.
func (m *Mock) SetRoute(exists bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routeExists = exists
}

// SetInternet configures internet reachability.
func (m *Mock) SetInternet(ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.internetOK = ok
}

// SetPortListening marks a local TCP port as open.
func (m *Mock) SetPortListening(port int, open bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listenPorts[port] = open
}

// SetNetworkManager configures NM presence.
func (m *Mock) SetNetworkManager(present bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hasNM = present
}

// SetSavedProfile configures whether a remembered WiFi profile exists.
func (m *Mock) SetSavedProfile(saved bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.savedProfile = saved
}

// SetAddr pins the interface address reported by InterfaceAddr.
func (m *Mock) SetAddr(iface, cidr string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.addrs[iface] = cidr
}

// File returns the in-memory content of a config file (for tests).
func (m *Mock) File(path string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.files[path]
}

// SetFile seeds the in-memory content of a config file (for tests).
func (m *Mock) SetFile(path, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path] = content
}

// IsActive returns the in-memory active state of a unit (for tests).
func (m *Mock) IsActive(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active[name]
}

// IsEnabled returns the in-memory enabled state of a unit (for tests).
func (m *Mock) IsEnabled(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.enabled[name]
}

// --- Backend implementation ---

func (m *Mock) writeFile(path, content string) error {
	if m.failWrite {
		return fmt.Errorf("mock: write failure configured for %s", path)
	}
	m.files[path] = content
	return nil
}

func (m *Mock) WriteAPConfig(ctx context.Context, ap models.APConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writeFile(PathHostapdConf, RenderHostapdConf(ap))
}

func (m *Mock) WriteDHCPConfig(ctx context.Context, dhcp models.DHCPConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writeFile(PathDnsmasqConf, RenderDnsmasqConf(dhcp))
}

func (m *Mock) EnsureStaticStanza(ctx context.Context, iface, cidr string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	content := m.files[PathDhcpcdConf]
	if HasStaticStanza(content) {
		return nil
	}
	return m.writeFile(PathDhcpcdConf, content+RenderStaticStanza(iface, cidr))
}

func (m *Mock) RemoveStaticStanza(ctx context.Context, iface string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writeFile(PathDhcpcdConf, StripStaticStanza(m.files[PathDhcpcdConf]))
}

func (m *Mock) WriteWifiCredentials(ctx context.Context, ssid, passphrase, country string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.writeFile(PathWpaSupplicantConf, RenderWpaSupplicantConf(ssid, passphrase, country)); err != nil {
		return err
	}
	m.savedProfile = true
	return nil
}

func (m *Mock) StartUnit(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.unitErrs[name]; err != nil {
		return err
	}
	if m.failUnits[name] {
		m.active[name] = false
		return nil // start "succeeds" but the unit dies, like a real daemon
	}
	m.active[name] = true
	return nil
}

func (m *Mock) StopUnit(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.unitErrs[name]; err != nil {
		return err
	}
	m.active[name] = false
	return nil
}

func (m *Mock) EnableUnit(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.unitErrs[name]; err != nil {
		return err
	}
	m.enabled[name] = true
	return nil
}

func (m *Mock) DisableUnit(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.unitErrs[name]; err != nil {
		return err
	}
	m.enabled[name] = false
	return nil
}

func (m *Mock) UnitActive(ctx context.Context, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.unitErrs[name]; err != nil {
		return false, err
	}
	return m.active[name], nil
}

func (m *Mock) FlushInterface(ctx context.Context, iface string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.addrs, iface)
	return nil
}

func (m *Mock) AssignStaticAddress(ctx context.Context, iface, cidr string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.addrs[iface] = cidr
	return nil
}

func (m *Mock) InterfaceAddr(ctx context.Context, iface string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.addrs[iface], nil
}

func (m *Mock) DefaultRouteExists(ctx context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.routeExists, nil
}

func (m *Mock) InternetReachable(ctx context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.internetOK
}

func (m *Mock) PortListening(ctx context.Context, port int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listenPorts[port]
}

func (m *Mock) HasNetworkManager() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hasNM
}

func (m *Mock) HasSavedWifiProfile(ctx context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.savedProfile {
		return true, nil
	}
	return HasNetworkBlock(m.files[PathWpaSupplicantConf]), nil
}

func (m *Mock) EnsurePackages(ctx context.Context, names ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range names {
		m.pkgs[n] = true
	}
	return nil
}

// HasPackage reports whether a package is installed in the mock (for tests).
func (m *Mock) HasPackage(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pkgs[name]
}
