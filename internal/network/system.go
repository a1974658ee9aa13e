//go:build linux

package network

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	sd "github.com/coreos/go-systemd/v22/dbus"
	"github.com/vladdudu12/wall-e-control-go/internal/models"
)

const (
	probeTarget  = "1.1.1.1:53"
	probeTimeout = 3 * time.Second
)

// System is the real network backend for a Raspberry Pi. Unit control goes
// through the systemd D-Bus API; interface manipulation shells out to ip(8);
// config files are written atomically.
type System struct {
	mu   sync.Mutex
	conn *sd.Conn
}

// NewSystem creates a new real network backend.
func NewSystem() *System {
	return &System{}
}

// Close releases the systemd D-Bus connection.
func (s *System) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
}

// systemd returns the shared D-Bus connection, dialing on first use.
func (s *System) systemd(ctx context.Context) (*sd.Conn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		return s.conn, nil
	}
	conn, err := sd.NewSystemConnectionContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("systemd dbus: %w", err)
	}
	s.conn = conn
	return conn, nil
}

func (s *System) WriteAPConfig(ctx context.Context, ap models.APConfig) error {
	return writeAtomic(PathHostapdConf, RenderHostapdConf(ap), 0600)
}

func (s *System) WriteDHCPConfig(ctx context.Context, dhcp models.DHCPConfig) error {
	return writeAtomic(PathDnsmasqConf, RenderDnsmasqConf(dhcp), 0644)
}

func (s *System) EnsureStaticStanza(ctx context.Context, iface, cidr string) error {
	data, err := os.ReadFile(PathDhcpcdConf)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	content := string(data)
	if HasStaticStanza(content) {
		return nil
	}
	return writeAtomic(PathDhcpcdConf, content+RenderStaticStanza(iface, cidr), 0644)
}

func (s *System) RemoveStaticStanza(ctx context.Context, iface string) error {
	data, err := os.ReadFile(PathDhcpcdConf)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	content := string(data)
	if !HasStaticStanza(content) {
		return nil
	}
	return writeAtomic(PathDhcpcdConf, StripStaticStanza(content), 0644)
}

func (s *System) WriteWifiCredentials(ctx context.Context, ssid, passphrase, country string) error {
	return writeAtomic(PathWpaSupplicantConf, RenderWpaSupplicantConf(ssid, passphrase, country), 0600)
}

func (s *System) StartUnit(ctx context.Context, name string) error {
	conn, err := s.systemd(ctx)
	if err != nil {
		return err
	}
	ch := make(chan string, 1)
	if _, err := conn.StartUnitContext(ctx, name, "replace", ch); err != nil {
		return fmt.Errorf("start %s: %w", name, err)
	}
	return waitJob(ctx, name, ch)
}

func (s *System) StopUnit(ctx context.Context, name string) error {
	conn, err := s.systemd(ctx)
	if err != nil {
		return err
	}
	ch := make(chan string, 1)
	if _, err := conn.StopUnitContext(ctx, name, "replace", ch); err != nil {
		return fmt.Errorf("stop %s: %w", name, err)
	}
	return waitJob(ctx, name, ch)
}

func (s *System) EnableUnit(ctx context.Context, name string) error {
	conn, err := s.systemd(ctx)
	if err != nil {
		return err
	}
	if _, _, err := conn.EnableUnitFilesContext(ctx, []string{name}, false, true); err != nil {
		return fmt.Errorf("enable %s: %w", name, err)
	}
	return nil
}

func (s *System) DisableUnit(ctx context.Context, name string) error {
	conn, err := s.systemd(ctx)
	if err != nil {
		return err
	}
	if _, err := conn.DisableUnitFilesContext(ctx, []string{name}, false); err != nil {
		return fmt.Errorf("disable %s: %w", name, err)
	}
	return nil
}

func (s *System) UnitActive(ctx context.Context, name string) (bool, error) {
	conn, err := s.systemd(ctx)
	if err != nil {
		return false, err
	}
	prop, err := conn.GetUnitPropertyContext(ctx, name, "ActiveState")
	if err != nil {
		return false, fmt.Errorf("query %s: %w", name, err)
	}
	return prop.Value.Value() == "active", nil
}

func (s *System) FlushInterface(ctx context.Context, iface string) error {
	if err := runIP(ctx, "addr", "flush", "dev", iface); err != nil {
		return err
	}
	if err := runIP(ctx, "link", "set", iface, "down"); err != nil {
		return err
	}
	return runIP(ctx, "link", "set", iface, "up")
}

func (s *System) AssignStaticAddress(ctx context.Context, iface, cidr string) error {
	return runIP(ctx, "addr", "add", cidr, "dev", iface)
}

func (s *System) InterfaceAddr(ctx context.Context, iface string) (string, error) {
	ifi, err := net.InterfaceByName(iface)
	if err != nil {
		return "", err
	}
	addrs, err := ifi.Addrs()
	if err != nil {
		return "", err
	}
	for _, a := range addrs {
		if ipn, ok := a.(*net.IPNet); ok && ipn.IP.To4() != nil {
			return ipn.String(), nil
		}
	}
	return "", nil
}

func (s *System) DefaultRouteExists(ctx context.Context) (bool, error) {
	out, err := exec.CommandContext(ctx, "ip", "route", "show", "default").Output()
	if err != nil {
		return false, fmt.Errorf("ip route: %w", err)
	}
	return strings.TrimSpace(string(out)) != "", nil
}

func (s *System) InternetReachable(ctx context.Context) bool {
	d := net.Dialer{Timeout: probeTimeout}
	conn, err := d.DialContext(ctx, "tcp", probeTarget)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

func (s *System) PortListening(ctx context.Context, port int) bool {
	d := net.Dialer{Timeout: time.Second}
	conn, err := d.DialContext(ctx, "tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

func (s *System) HasNetworkManager() bool {
	_, err := exec.LookPath("nmcli")
	return err == nil
}

func (s *System) HasSavedWifiProfile(ctx context.Context) (bool, error) {
	if s.HasNetworkManager() {
		out, err := exec.CommandContext(ctx, "nmcli", "-t", "-f", "NAME,TYPE", "connection", "show").Output()
		if err != nil {
			return false, fmt.Errorf("nmcli: %w", err)
		}
		for _, line := range strings.Split(string(out), "\n") {
			if strings.HasSuffix(line, ":802-11-wireless") {
				return true, nil
			}
		}
		return false, nil
	}
	data, err := os.ReadFile(PathWpaSupplicantConf)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return HasNetworkBlock(string(data)), nil
}

func (s *System) EnsurePackages(ctx context.Context, names ...string) error {
	var missing []string
	for _, name := range names {
		if err := exec.CommandContext(ctx, "dpkg", "-s", name).Run(); err != nil {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	slog.Info("network: installing missing packages", "packages", missing)
	args := append([]string{"install", "-y"}, missing...)
	cmd := exec.CommandContext(ctx, "apt-get", args...)
	cmd.Env = append(os.Environ(), "DEBIAN_FRONTEND=noninteractive")
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("apt-get install %v: %w: %s", missing, err, out)
	}
	return nil
}

// waitJob drains the systemd job result channel, tolerating a cancelled
// context.
func waitJob(ctx context.Context, name string, ch chan string) error {
	select {
	case result := <-ch:
		if result != "done" {
			return fmt.Errorf("unit %s job result: %s", name, result)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func runIP(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, "ip", args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ip %s: %w: %s", strings.Join(args, " "), err, out)
	}
	return nil
}

// writeAtomic writes content to path via a temp file and rename.
func writeAtomic(path, content string, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(content), perm); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
