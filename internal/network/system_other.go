//go:build !linux

package network

import (
	"context"
	"fmt"

	"github.com/vladdudu12/wall-e-control-go/internal/models"
)

// System is only functional on Linux; this stub keeps non-Linux builds of
// the tooling compiling. Every operation fails.
type System struct{}

func NewSystem() *System { return &System{} }

func (s *System) Close() {}

var errUnsupported = fmt.Errorf("network: system backend requires linux")

func (s *System) WriteAPConfig(ctx context.Context, ap models.APConfig) error {
	return errUnsupported
}

func (s *System) WriteDHCPConfig(ctx context.Context, dhcp models.DHCPConfig) error {
	return errUnsupported
}

func (s *System) EnsureStaticStanza(ctx context.Context, iface, cidr string) error {
	return errUnsupported
}

func (s *System) RemoveStaticStanza(ctx context.Context, iface string) error {
	return errUnsupported
}

func (s *System) WriteWifiCredentials(ctx context.Context, ssid, passphrase, country string) error {
	return errUnsupported
}

func (s *System) StartUnit(ctx context.Context, name string) error   { return errUnsupported }
func (s *System) StopUnit(ctx context.Context, name string) error    { return errUnsupported }
func (s *System) EnableUnit(ctx context.Context, name string) error  { return errUnsupported }
func (s *System) DisableUnit(ctx context.Context, name string) error { return errUnsupported }

func (s *System) UnitActive(ctx context.Context, name string) (bool, error) {
	return false, errUnsupported
}

func (s *System) FlushInterface(ctx context.Context, iface string) error { return errUnsupported }

func (s *System) AssignStaticAddress(ctx context.Context, iface, cidr string) error {
	return errUnsupported
}

func (s *System) InterfaceAddr(ctx context.Context, iface string) (string, error) {
	return "", errUnsupported
}

func (s *System) DefaultRouteExists(ctx context.Context) (bool, error) {
	return false, errUnsupported
}

func (s *System) InternetReachable(ctx context.Context) bool       { return false }
func (s *System) PortListening(ctx context.Context, port int) bool { return false }
func (s *System) HasNetworkManager() bool                          { return false }

func (s *System) HasSavedWifiProfile(ctx context.Context) (bool, error) {
	return false, errUnsupported
}

func (s *System) EnsurePackages(ctx context.Context, names ...string) error {
	return errUnsupported
}
