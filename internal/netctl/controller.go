// Package netctl implements the network mode controller — the single source
// of truth for the robot's wireless mode. It sequences the OS daemons
// through the network.Backend, snapshots configuration before every
// transition, and commits the persisted mode flag only after the target
// state has been verified.
package netctl

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/vladdudu12/wall-e-control-go/internal/backup"
	"github.com/vladdudu12/wall-e-control-go/internal/models"
	"github.com/vladdudu12/wall-e-control-go/internal/network"
)

// Options configures a Controller.
type Options struct {
	Backend   network.Backend
	FlagPath  string // persisted mode flag file
	LockPath  string // advisory lock file guarding mutating operations
	BackupDir string
	Interface string
	AP        models.APConfig

	// Bounded verification wait. Zero values get defaults.
	WaitInterval time.Duration
	WaitMax      time.Duration

	// OnChange is called after every committed transition or external flag
	// edit, with the new network status.
	OnChange func(models.NetworkStatus)
}

const (
	defaultWaitInterval = 2 * time.Second
	defaultWaitMax      = 30 * time.Second
)

// Controller owns the wireless mode state machine. A transition runs
// Pending -> Verified/Failed; the on-disk flag only moves on Verified.
type Controller struct {
	mu      sync.Mutex
	be      network.Backend
	flag    *modeFlag
	lock    *fileLock
	backups *backup.Manager
	iface   string
	ap      models.APConfig

	waitInterval time.Duration
	waitMax      time.Duration

	last     *models.Transition
	onChange func(models.NetworkStatus)
}

// New creates a network mode controller.
func New(opts Options) *Controller {
	if opts.WaitInterval == 0 {
		opts.WaitInterval = defaultWaitInterval
	}
	if opts.WaitMax == 0 {
		opts.WaitMax = defaultWaitMax
	}
	return &Controller{
		be:           opts.Backend,
		flag:         newModeFlag(opts.FlagPath),
		lock:         newFileLock(opts.LockPath),
		backups:      backup.NewManager(opts.BackupDir, network.ConfigFiles()),
		iface:        opts.Interface,
		ap:           opts.AP,
		waitInterval: opts.WaitInterval,
		waitMax:      opts.WaitMax,
		onChange:     opts.OnChange,
	}
}

// CurrentMode returns the persisted mode flag, ModeUnknown if absent.
func (c *Controller) CurrentMode() models.NetworkMode {
	return c.flag.Read()
}

// Status returns the current network status snapshot.
func (c *Controller) Status(ctx context.Context) models.NetworkStatus {
	c.mu.Lock()
	last := c.last
	c.mu.Unlock()

	addr, _ := c.be.InterfaceAddr(ctx, c.iface)
	st := models.NetworkStatus{
		Mode:      c.flag.Read(),
		Interface: c.iface,
		Address:   addr,
	}
	if last != nil {
		t := *last
		st.LastTransition = &t
	}
	return st
}

// SwitchToClient brings the interface into DHCP-client mode: stop the AP
// daemons, reset the interface, drop the static stanza, restart whichever
// client stack is installed, and wait for a default route. The mode flag
// is written only if the route appears within the bounded wait.
func (c *Controller) SwitchToClient(ctx context.Context) (models.Transition, error) {
	release, err := c.lock.Acquire()
	if err != nil {
		return models.Transition{}, err
	}
	defer release()

	c.beginTransition(models.ModeClient)
	slog.Info("netctl: switching to client mode", "interface", c.iface)

	if _, err := c.backups.Snapshot(); err != nil {
		return c.failTransition(fmt.Errorf("pre-transition backup: %w", err))
	}

	// AP daemons down first; a dead hostapd is not an error here.
	c.stopQuiet(ctx, network.UnitHostapd)
	c.stopQuiet(ctx, network.UnitDnsmasq)

	if err := c.be.FlushInterface(ctx, c.iface); err != nil {
		return c.failTransition(fmt.Errorf("reset %s: %w", c.iface, err))
	}
	if err := c.be.RemoveStaticStanza(ctx, c.iface); err != nil {
		return c.failTransition(fmt.Errorf("remove static stanza: %w", err))
	}

	if err := c.startClientStack(ctx); err != nil {
		return c.failTransition(err)
	}

	if err := c.waitFor(ctx, "default route", func() (bool, error) {
		return c.be.DefaultRouteExists(ctx)
	}); err != nil {
		return c.failTransition(fmt.Errorf("no default route after client switch: %w", err))
	}

	return c.commitTransition(models.ModeClient)
}

// SwitchToAP brings the interface into access-point mode with the fixed
// SSID, WPA2 passphrase and static address, serving DHCP to clients. The
// mode flag is written only after hostapd and dnsmasq are verified active
// and the static address is present.
func (c *Controller) SwitchToAP(ctx context.Context) (models.Transition, error) {
	release, err := c.lock.Acquire()
	if err != nil {
		return models.Transition{}, err
	}
	defer release()

	c.beginTransition(models.ModeAccessPoint)
	slog.Info("netctl: switching to access point mode",
		"interface", c.iface, "ssid", c.ap.SSID, "address", c.ap.Address)

	if _, err := c.backups.Snapshot(); err != nil {
		return c.failTransition(fmt.Errorf("pre-transition backup: %w", err))
	}

	if err := c.be.EnsurePackages(ctx, "hostapd", "dnsmasq"); err != nil {
		return c.failTransition(fmt.Errorf("install AP packages: %w", err))
	}

	// Client stack down.
	if c.be.HasNetworkManager() {
		c.stopQuiet(ctx, network.UnitNetworkManager)
	}
	c.stopQuiet(ctx, network.UnitWpaSupplicant)
	c.stopQuiet(ctx, network.UnitDhcpcd)

	if err := c.be.WriteAPConfig(ctx, c.ap); err != nil {
		return c.failTransition(fmt.Errorf("write hostapd config: %w", err))
	}
	if err := c.be.WriteDHCPConfig(ctx, models.DHCPForAP(c.ap)); err != nil {
		return c.failTransition(fmt.Errorf("write dnsmasq config: %w", err))
	}
	if err := c.be.EnsureStaticStanza(ctx, c.iface, c.ap.Address); err != nil {
		return c.failTransition(fmt.Errorf("append static stanza: %w", err))
	}

	if err := c.be.FlushInterface(ctx, c.iface); err != nil {
		return c.failTransition(fmt.Errorf("reset %s: %w", c.iface, err))
	}
	if err := c.be.AssignStaticAddress(ctx, c.iface, c.ap.Address); err != nil {
		return c.failTransition(fmt.Errorf("assign %s: %w", c.ap.Address, err))
	}

	for _, unit := range []string{network.UnitHostapd, network.UnitDnsmasq} {
		if err := c.be.EnableUnit(ctx, unit); err != nil {
			slog.Warn("netctl: enable failed", "unit", unit, "err", err)
		}
		if err := c.be.StartUnit(ctx, unit); err != nil {
			return c.failTransition(fmt.Errorf("start %s: %w", unit, err))
		}
	}

	if err := c.waitFor(ctx, "AP daemons", func() (bool, error) {
		return c.apHealthy(ctx)
	}); err != nil {
		return c.failTransition(fmt.Errorf("AP daemons not active: %w", err))
	}

	return c.commitTransition(models.ModeAccessPoint)
}

// AutoDetect attempts client mode when a remembered WiFi profile exists and
// connectivity comes up within the bounded wait; otherwise it falls back to
// access-point mode. One attempt each, no further retries.
func (c *Controller) AutoDetect(ctx context.Context) (models.Transition, error) {
	saved, err := c.be.HasSavedWifiProfile(ctx)
	if err != nil {
		slog.Warn("netctl: saved profile check failed", "err", err)
	}
	if saved {
		t, err := c.SwitchToClient(ctx)
		if err == nil {
			return t, nil
		}
		slog.Warn("netctl: client mode failed, falling back to access point", "err", err)
	} else {
		slog.Info("netctl: no saved WiFi profile, starting access point")
	}
	return c.SwitchToAP(ctx)
}

// TestConnection runs the mode-conditional health checks. Every check is an
// independent pass/fail; nothing short-circuits.
func (c *Controller) TestConnection(ctx context.Context) models.HealthReport {
	mode := c.flag.Read()
	report := models.HealthReport{Mode: mode}

	add := func(name string, ok bool, info string) {
		report.Checks = append(report.Checks, models.HealthCheck{Name: name, OK: ok, Info: info})
	}

	switch mode {
	case models.ModeAccessPoint:
		hostapd, err := c.be.UnitActive(ctx, network.UnitHostapd)
		add("hostapd", hostapd && err == nil, errInfo(err))
		dnsmasq, err := c.be.UnitActive(ctx, network.UnitDnsmasq)
		add("dnsmasq", dnsmasq && err == nil, errInfo(err))
		addr, err := c.be.InterfaceAddr(ctx, c.iface)
		add("static_address", err == nil && addr == c.ap.Address, addr)
	case models.ModeClient:
		route, err := c.be.DefaultRouteExists(ctx)
		add("default_route", route && err == nil, errInfo(err))
		add("internet", c.be.InternetReachable(ctx), "")
		addr, err := c.be.InterfaceAddr(ctx, c.iface)
		add("local_address", err == nil && addr != "", addr)
	default:
		add("mode_flag", false, "mode flag missing or unknown")
	}

	add("control_service", c.be.PortListening(ctx, models.ControlPort),
		fmt.Sprintf("port %d", models.ControlPort))

	return report
}

// ConfigureWifi validates and persists client-mode credentials.
func (c *Controller) ConfigureWifi(ctx context.Context, ssid, passphrase string) error {
	if ssid == "" {
		return models.ErrBadRequest("ssid must not be empty")
	}
	if len(passphrase) < 8 || len(passphrase) > 63 {
		return models.ErrBadRequest("passphrase must be 8-63 characters (WPA2)")
	}
	release, err := c.lock.Acquire()
	if err != nil {
		return err
	}
	defer release()

	if err := c.be.WriteWifiCredentials(ctx, ssid, passphrase, c.ap.Country); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	slog.Info("netctl: wifi credentials updated", "ssid", ssid)
	return nil
}

// RestartServices restarts the daemons belonging to the current mode.
func (c *Controller) RestartServices(ctx context.Context) error {
	release, err := c.lock.Acquire()
	if err != nil {
		return err
	}
	defer release()

	var units []string
	switch c.flag.Read() {
	case models.ModeAccessPoint:
		units = []string{network.UnitHostapd, network.UnitDnsmasq}
	case models.ModeClient:
		if c.be.HasNetworkManager() {
			units = []string{network.UnitNetworkManager}
		} else {
			units = []string{network.UnitWpaSupplicant, network.UnitDhcpcd}
		}
	default:
		return models.ErrConflict("mode unknown; run auto-detect or pick a mode first")
	}

	for _, unit := range units {
		c.stopQuiet(ctx, unit)
		if err := c.be.StartUnit(ctx, unit); err != nil {
			return fmt.Errorf("restart %s: %w", unit, err)
		}
	}
	return nil
}

// Backup creates a configuration snapshot on demand.
func (c *Controller) Backup() (models.BackupInfo, error) {
	return c.backups.Snapshot()
}

// Backups lists available snapshots.
func (c *Controller) Backups() ([]models.BackupInfo, error) {
	return c.backups.List()
}

// Restore copies a snapshot's files back into place. A reboot is required
// for the restored configuration to take effect.
func (c *Controller) Restore(id string) error {
	release, err := c.lock.Acquire()
	if err != nil {
		return err
	}
	defer release()
	return c.backups.Restore(id)
}

// --- internals ---

func (c *Controller) startClientStack(ctx context.Context) error {
	if c.be.HasNetworkManager() {
		c.stopQuiet(ctx, network.UnitNetworkManager)
		if err := c.be.StartUnit(ctx, network.UnitNetworkManager); err != nil {
			return fmt.Errorf("start NetworkManager: %w", err)
		}
		return nil
	}
	for _, unit := range []string{network.UnitWpaSupplicant, network.UnitDhcpcd} {
		c.stopQuiet(ctx, unit)
		if err := c.be.StartUnit(ctx, unit); err != nil {
			return fmt.Errorf("start %s: %w", unit, err)
		}
	}
	return nil
}

func (c *Controller) apHealthy(ctx context.Context) (bool, error) {
	hostapd, err := c.be.UnitActive(ctx, network.UnitHostapd)
	if err != nil || !hostapd {
		return false, err
	}
	dnsmasq, err := c.be.UnitActive(ctx, network.UnitDnsmasq)
	if err != nil || !dnsmasq {
		return false, err
	}
	addr, err := c.be.InterfaceAddr(ctx, c.iface)
	if err != nil {
		return false, err
	}
	return addr == c.ap.Address, nil
}

// waitFor polls cond at a constant interval until it holds, the bounded
// wait elapses, or ctx is cancelled.
func (c *Controller) waitFor(ctx context.Context, what string, cond func() (bool, error)) error {
	b := backoff.WithContext(backoff.NewConstantBackOff(c.waitInterval), ctx)
	deadline := time.Now().Add(c.waitMax)
	return backoff.Retry(func() error {
		ok, err := cond()
		if err != nil {
			slog.Debug("netctl: verification probe error", "what", what, "err", err)
		}
		if ok {
			return nil
		}
		if time.Now().After(deadline) {
			return backoff.Permanent(fmt.Errorf("timed out waiting for %s", what))
		}
		return fmt.Errorf("waiting for %s", what)
	}, b)
}

func (c *Controller) beginTransition(target models.NetworkMode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last = &models.Transition{
		Target: target,
		Status: models.TransitionPending,
		At:     time.Now().Format(time.RFC3339),
	}
}

func (c *Controller) failTransition(err error) (models.Transition, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last.Status = models.TransitionFailed
	c.last.Detail = err.Error()
	c.last.At = time.Now().Format(time.RFC3339)
	slog.Warn("netctl: transition failed, mode flag unchanged",
		"target", c.last.Target, "err", err)
	return *c.last, err
}

func (c *Controller) commitTransition(target models.NetworkMode) (models.Transition, error) {
	if err := c.flag.Write(target); err != nil {
		return c.failTransition(fmt.Errorf("write mode flag: %w", err))
	}

	c.mu.Lock()
	c.last.Status = models.TransitionVerified
	c.last.At = time.Now().Format(time.RFC3339)
	t := *c.last
	c.mu.Unlock()

	slog.Info("netctl: transition verified", "mode", target)
	c.notify()
	return t, nil
}

func (c *Controller) notify() {
	if c.onChange != nil {
		c.onChange(c.Status(context.Background()))
	}
}

func (c *Controller) stopQuiet(ctx context.Context, unit string) {
	if err := c.be.StopUnit(ctx, unit); err != nil {
		slog.Debug("netctl: stop failed (ignored)", "unit", unit, "err", err)
	}
}

func errInfo(err error) string {
	if err != nil {
		return err.Error()
	}
	return ""
}
