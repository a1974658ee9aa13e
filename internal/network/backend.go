// Package network provides the OS abstraction layer for wireless mode
// switching. It defines the Backend interface and helper types used by both
// the real systemd-backed implementation and the mock.
package network

import (
	"context"

	"github.com/vladdudu12/wall-e-control-go/internal/models"
)

// Managed systemd unit names.
const (
	UnitHostapd        = "hostapd.service"
	UnitDnsmasq        = "dnsmasq.service"
	UnitWpaSupplicant  = "wpa_supplicant.service"
	UnitDhcpcd         = "dhcpcd.service"
	UnitNetworkManager = "NetworkManager.service"
)

// Managed configuration file paths. These four files are what a backup
// snapshot covers.
const (
	PathHostapdConf       = "/etc/hostapd/hostapd.conf"
	PathDnsmasqConf       = "/etc/dnsmasq.conf"
	PathDhcpcdConf        = "/etc/dhcpcd.conf"
	PathWpaSupplicantConf = "/etc/wpa_supplicant/wpa_supplicant.conf"
)

// ConfigFiles returns the four managed configuration paths.
func ConfigFiles() []string {
	return []string{PathDhcpcdConf, PathHostapdConf, PathDnsmasqConf, PathWpaSupplicantConf}
}

// Backend is the OS abstraction for network mode switching. All operations
// are context-aware. Implementations are safe for use by a single
// controller; cross-process exclusion is the controller's job.
type Backend interface {
	// WriteAPConfig writes the hostapd configuration.
	WriteAPConfig(ctx context.Context, ap models.APConfig) error

	// WriteDHCPConfig writes the dnsmasq pool configuration.
	WriteDHCPConfig(ctx context.Context, dhcp models.DHCPConfig) error

	// EnsureStaticStanza appends the AP static-IP stanza to dhcpcd.conf if
	// the marker comment is not already present. Idempotent.
	EnsureStaticStanza(ctx context.Context, iface, cidr string) error

	// RemoveStaticStanza strips the AP static-IP stanza from dhcpcd.conf.
	RemoveStaticStanza(ctx context.Context, iface string) error

	// WriteWifiCredentials writes a wpa_supplicant network block for the
	// given SSID and passphrase.
	WriteWifiCredentials(ctx context.Context, ssid, passphrase, country string) error

	// StartUnit, StopUnit, EnableUnit, DisableUnit control systemd units.
	StartUnit(ctx context.Context, name string) error
	StopUnit(ctx context.Context, name string) error
	EnableUnit(ctx context.Context, name string) error
	DisableUnit(ctx context.Context, name string) error

	// UnitActive reports whether a unit is in active state.
	UnitActive(ctx context.Context, name string) (bool, error)

	// FlushInterface removes all addresses from the wireless interface and
	// cycles it down/up.
	FlushInterface(ctx context.Context, iface string) error

	// AssignStaticAddress puts a static CIDR address on the interface.
	AssignStaticAddress(ctx context.Context, iface, cidr string) error

	// InterfaceAddr returns the first IPv4 CIDR on the interface, or "".
	InterfaceAddr(ctx context.Context, iface string) (string, error)

	// DefaultRouteExists reports whether a default route is present.
	DefaultRouteExists(ctx context.Context) (bool, error)

	// InternetReachable probes a fixed public address with a short timeout.
	InternetReachable(ctx context.Context) bool

	// PortListening reports whether a local TCP port accepts connections.
	PortListening(ctx context.Context, port int) bool

	// HasNetworkManager reports whether a NetworkManager-style stack is
	// installed on this system.
	HasNetworkManager() bool

	// HasSavedWifiProfile reports whether a remembered WiFi profile exists
	// (an NM connection or a wpa_supplicant network block).
	HasSavedWifiProfile(ctx context.Context) (bool, error)

	// EnsurePackages installs the named packages if they are missing.
	EnsurePackages(ctx context.Context, names ...string) error
}
