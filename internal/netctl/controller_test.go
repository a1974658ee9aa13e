package netctl

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vladdudu12/wall-e-control-go/internal/models"
	"github.com/vladdudu12/wall-e-control-go/internal/network"
	"golang.org/x/sys/unix"
)

func newTestController(t *testing.T) (*Controller, *network.Mock) {
	t.Helper()
	mock := network.NewMock()
	dir := t.TempDir()
	ctrl := New(Options{
		Backend:      mock,
		FlagPath:     filepath.Join(dir, "network_mode"),
		LockPath:     filepath.Join(dir, "netctl.lock"),
		BackupDir:    filepath.Join(dir, "backups"),
		Interface:    "wlan0",
		AP:           models.DefaultSettings().AP,
		WaitInterval: time.Millisecond,
		WaitMax:      50 * time.Millisecond,
	})
	return ctrl, mock
}

func TestCurrentMode_Unknown(t *testing.T) {
	ctrl, _ := newTestController(t)
	if mode := ctrl.CurrentMode(); mode != models.ModeUnknown {
		t.Errorf("mode = %q, want unknown", mode)
	}
}

func TestCurrentMode_GarbageFlag(t *testing.T) {
	ctrl, _ := newTestController(t)
	if err := os.WriteFile(ctrl.flag.path, []byte("banana\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if mode := ctrl.CurrentMode(); mode != models.ModeUnknown {
		t.Errorf("mode = %q, want unknown", mode)
	}
}

func TestSwitchToAP(t *testing.T) {
	ctrl, mock := newTestController(t)

	tr, err := ctrl.SwitchToAP(context.Background())
	if err != nil {
		t.Fatalf("SwitchToAP: %v", err)
	}
	if tr.Status != models.TransitionVerified {
		t.Errorf("transition status = %q, want verified", tr.Status)
	}
	if mode := ctrl.CurrentMode(); mode != models.ModeAccessPoint {
		t.Errorf("mode = %q, want access_point", mode)
	}
	if !mock.IsActive(network.UnitHostapd) {
		t.Error("hostapd not active after AP switch")
	}
	if !mock.IsActive(network.UnitDnsmasq) {
		t.Error("dnsmasq not active after AP switch")
	}
	addr, _ := mock.InterfaceAddr(context.Background(), "wlan0")
	if addr != "192.168.4.1/24" {
		t.Errorf("interface address = %q, want 192.168.4.1/24", addr)
	}
	if got := mock.File(network.PathHostapdConf); !strings.Contains(got, "ssid=Wall-E-Robot") {
		t.Errorf("hostapd.conf missing SSID:\n%s", got)
	}
	if got := mock.File(network.PathDnsmasqConf); !strings.Contains(got, "address=/walle/192.168.4.1") {
		t.Errorf("dnsmasq.conf missing hostname mapping:\n%s", got)
	}
}

func TestSwitchToAP_Idempotent(t *testing.T) {
	ctrl, mock := newTestController(t)
	ctx := context.Background()

	if _, err := ctrl.SwitchToAP(ctx); err != nil {
		t.Fatalf("first SwitchToAP: %v", err)
	}
	first := mock.File(network.PathDhcpcdConf)

	if _, err := ctrl.SwitchToAP(ctx); err != nil {
		t.Fatalf("second SwitchToAP: %v", err)
	}
	second := mock.File(network.PathDhcpcdConf)

	if first != second {
		t.Errorf("dhcpcd.conf changed on repeated switch:\nfirst:\n%s\nsecond:\n%s", first, second)
	}
	if n := strings.Count(second, "wall-e access point static address"); n != 1 {
		t.Errorf("static stanza marker count = %d, want 1", n)
	}
	if mode := ctrl.CurrentMode(); mode != models.ModeAccessPoint {
		t.Errorf("mode = %q, want access_point", mode)
	}
	if !mock.IsActive(network.UnitHostapd) || !mock.IsActive(network.UnitDnsmasq) {
		t.Error("AP daemons not active after repeated switch")
	}
}

func TestSwitchToClient(t *testing.T) {
	ctrl, mock := newTestController(t)
	ctx := context.Background()

	// Start from AP mode so the switch has something to undo.
	if _, err := ctrl.SwitchToAP(ctx); err != nil {
		t.Fatalf("SwitchToAP: %v", err)
	}
	mock.SetRoute(true)

	tr, err := ctrl.SwitchToClient(ctx)
	if err != nil {
		t.Fatalf("SwitchToClient: %v", err)
	}
	if tr.Status != models.TransitionVerified {
		t.Errorf("transition status = %q, want verified", tr.Status)
	}
	if mode := ctrl.CurrentMode(); mode != models.ModeClient {
		t.Errorf("mode = %q, want client", mode)
	}
	if mock.IsActive(network.UnitHostapd) {
		t.Error("hostapd still active after client switch")
	}
	if mock.IsActive(network.UnitDnsmasq) {
		t.Error("dnsmasq still active after client switch")
	}
	if got := mock.File(network.PathDhcpcdConf); network.HasStaticStanza(got) {
		t.Errorf("static stanza still present after client switch:\n%s", got)
	}
}

func TestSwitchToClient_NoRoute_FlagUnchanged(t *testing.T) {
	ctrl, mock := newTestController(t)
	ctx := context.Background()

	if _, err := ctrl.SwitchToAP(ctx); err != nil {
		t.Fatalf("SwitchToAP: %v", err)
	}

	// Client stack comes up but no default route ever appears.
	mock.SetRoute(false)
	tr, err := ctrl.SwitchToClient(ctx)
	if err == nil {
		t.Fatal("SwitchToClient succeeded without a default route")
	}
	if tr.Status != models.TransitionFailed {
		t.Errorf("transition status = %q, want failed", tr.Status)
	}
	// The flag must still read the last verified mode.
	if mode := ctrl.CurrentMode(); mode != models.ModeAccessPoint {
		t.Errorf("mode = %q after failed transition, want access_point", mode)
	}
}

func TestSwitchToAP_HostapdBroken_FlagUnchanged(t *testing.T) {
	ctrl, mock := newTestController(t)
	mock.SetUnitBroken(network.UnitHostapd, true)

	tr, err := ctrl.SwitchToAP(context.Background())
	if err == nil {
		t.Fatal("SwitchToAP succeeded with a broken hostapd")
	}
	if tr.Status != models.TransitionFailed {
		t.Errorf("transition status = %q, want failed", tr.Status)
	}
	if mode := ctrl.CurrentMode(); mode != models.ModeUnknown {
		t.Errorf("mode = %q after failed transition, want unknown", mode)
	}
}

func TestAutoDetect_ClientSucceeds(t *testing.T) {
	ctrl, mock := newTestController(t)
	mock.SetSavedProfile(true)
	mock.SetRoute(true)

	tr, err := ctrl.AutoDetect(context.Background())
	if err != nil {
		t.Fatalf("AutoDetect: %v", err)
	}
	if tr.Target != models.ModeClient {
		t.Errorf("target = %q, want client", tr.Target)
	}
	if mode := ctrl.CurrentMode(); mode != models.ModeClient {
		t.Errorf("mode = %q, want client", mode)
	}
}

func TestAutoDetect_FallbackToAP(t *testing.T) {
	ctrl, mock := newTestController(t)
	mock.SetSavedProfile(true)
	mock.SetRoute(false) // client attempt will time out

	tr, err := ctrl.AutoDetect(context.Background())
	if err != nil {
		t.Fatalf("AutoDetect: %v", err)
	}
	if tr.Target != models.ModeAccessPoint {
		t.Errorf("target = %q, want access_point", tr.Target)
	}
	if mode := ctrl.CurrentMode(); mode != models.ModeAccessPoint {
		t.Errorf("mode = %q, want access_point", mode)
	}
}

func TestAutoDetect_NoProfile_StraightToAP(t *testing.T) {
	ctrl, mock := newTestController(t)
	mock.SetSavedProfile(false)
	mock.SetFile(network.PathWpaSupplicantConf, "ctrl_interface=DIR=/var/run/wpa_supplicant GROUP=netdev\n")

	tr, err := ctrl.AutoDetect(context.Background())
	if err != nil {
		t.Fatalf("AutoDetect: %v", err)
	}
	if tr.Target != models.ModeAccessPoint {
		t.Errorf("target = %q, want access_point", tr.Target)
	}
}

func TestTestConnection_APMode_HostapdStopped(t *testing.T) {
	ctrl, mock := newTestController(t)
	ctx := context.Background()

	if _, err := ctrl.SwitchToAP(ctx); err != nil {
		t.Fatalf("SwitchToAP: %v", err)
	}
	mock.SetPortListening(models.ControlPort, true)

	// Kill hostapd out from under the controller.
	if err := mock.StopUnit(ctx, network.UnitHostapd); err != nil {
		t.Fatal(err)
	}

	report := ctrl.TestConnection(ctx)
	if report.Mode != models.ModeAccessPoint {
		t.Errorf("report mode = %q, want access_point", report.Mode)
	}
	if c := report.Check("hostapd"); c == nil || c.OK {
		t.Error("hostapd check should fail")
	}
	for _, name := range []string{"dnsmasq", "static_address", "control_service"} {
		if c := report.Check(name); c == nil || !c.OK {
			t.Errorf("%s check should still pass", name)
		}
	}
	if report.AllOK() {
		t.Error("AllOK should be false with hostapd stopped")
	}
}

func TestTestConnection_ClientMode(t *testing.T) {
	ctrl, mock := newTestController(t)
	ctx := context.Background()

	mock.SetRoute(true)
	if _, err := ctrl.SwitchToClient(ctx); err != nil {
		t.Fatalf("SwitchToClient: %v", err)
	}
	mock.SetAddr("wlan0", "192.168.1.37/24")
	mock.SetInternet(false)

	report := ctrl.TestConnection(ctx)
	if c := report.Check("default_route"); c == nil || !c.OK {
		t.Error("default_route check should pass")
	}
	if c := report.Check("internet"); c == nil || c.OK {
		t.Error("internet check should fail")
	}
	if c := report.Check("local_address"); c == nil || !c.OK {
		t.Error("local_address check should pass")
	}
}

func TestConfigureWifi_Validation(t *testing.T) {
	ctrl, _ := newTestController(t)
	ctx := context.Background()

	cases := []struct {
		name, ssid, pass string
	}{
		{"empty ssid", "", "longenough"},
		{"short passphrase", "home", "short"},
		{"overlong passphrase", "home", strings.Repeat("x", 64)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ctrl.ConfigureWifi(ctx, tc.ssid, tc.pass)
			var appErr *models.AppError
			if !errors.As(err, &appErr) || appErr.Status != 400 {
				t.Errorf("ConfigureWifi(%q, %q) = %v, want bad request", tc.ssid, tc.pass, err)
			}
		})
	}
}

func TestConfigureWifi_WritesSupplicantConf(t *testing.T) {
	ctrl, mock := newTestController(t)

	if err := ctrl.ConfigureWifi(context.Background(), "HomeNet", "hunter2hunter2"); err != nil {
		t.Fatalf("ConfigureWifi: %v", err)
	}
	conf := mock.File(network.PathWpaSupplicantConf)
	if !strings.Contains(conf, `ssid="HomeNet"`) {
		t.Errorf("wpa_supplicant.conf missing ssid:\n%s", conf)
	}
	if !network.HasNetworkBlock(conf) {
		t.Error("wpa_supplicant.conf missing network block")
	}
}

func TestMutatingOps_RejectedWhileLocked(t *testing.T) {
	ctrl, _ := newTestController(t)

	// Hold the advisory lock from a second file description, as a
	// concurrent invocation would.
	f, err := os.OpenFile(ctrl.lock.path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		t.Fatalf("flock: %v", err)
	}
	defer func() { _ = unix.Flock(int(f.Fd()), unix.LOCK_UN) }()

	if _, err := ctrl.SwitchToAP(context.Background()); !errors.Is(err, ErrLocked) {
		t.Errorf("SwitchToAP under lock = %v, want ErrLocked", err)
	}
	if err := ctrl.Restore("whatever"); !errors.Is(err, ErrLocked) {
		t.Errorf("Restore under lock = %v, want ErrLocked", err)
	}
}

func TestRestartServices_UnknownMode(t *testing.T) {
	ctrl, _ := newTestController(t)
	err := ctrl.RestartServices(context.Background())
	var appErr *models.AppError
	if !errors.As(err, &appErr) || appErr.Status != 409 {
		t.Errorf("RestartServices with unknown mode = %v, want conflict", err)
	}
}
