// Command walled is the Wall-E robot control daemon. It serves the web
// control UI, drives the Arduino over serial, manages Bluetooth speakers
// and owns the WiFi client / access-point mode switching.
// Run with --mock to use simulated hardware (no Arduino or I2C required).
package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/spf13/pflag"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/vladdudu12/wall-e-control-go/internal/api"
	"github.com/vladdudu12/wall-e-control-go/internal/audio"
	"github.com/vladdudu12/wall-e-control-go/internal/battery"
	"github.com/vladdudu12/wall-e-control-go/internal/bluetooth"
	"github.com/vladdudu12/wall-e-control-go/internal/config"
	"github.com/vladdudu12/wall-e-control-go/internal/controller"
	"github.com/vladdudu12/wall-e-control-go/internal/display"
	"github.com/vladdudu12/wall-e-control-go/internal/events"
	"github.com/vladdudu12/wall-e-control-go/internal/models"
	"github.com/vladdudu12/wall-e-control-go/internal/netctl"
	"github.com/vladdudu12/wall-e-control-go/internal/network"
	"github.com/vladdudu12/wall-e-control-go/internal/robot"
	"github.com/vladdudu12/wall-e-control-go/internal/zeroconf"
)

func main() {
	var (
		mock    = pflag.Bool("mock", false, "use mock hardware (no Arduino, ADC or OLED required)")
		addr    = pflag.String("addr", ":5000", "HTTP listen address")
		dataDir = pflag.String("data-dir", "/var/lib/walle", "state directory (config, backups, sounds)")
		logFile = pflag.String("log-file", "", "log file path (default: stderr only)")
		debug   = pflag.Bool("debug", false, "enable debug logging")
	)
	pflag.Parse()

	setupLogging(*logFile, *debug)

	if err := os.MkdirAll(*dataDir, 0755); err != nil {
		slog.Error("cannot create data directory", "path", *dataDir, "err", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	store := config.NewJSONStore(*dataDir)
	settings, err := store.Load()
	if err != nil {
		slog.Error("cannot load settings", "err", err)
		os.Exit(1)
	}

	bus := events.NewBus()

	// Hardware
	var drv robot.Driver
	var player audio.Player
	var oled display.Display
	var reader battery.VoltageReader
	if *mock {
		slog.Info("using mock hardware")
		drv = robot.NewMock()
		player = audio.NewMockPlayer()
		oled = display.NewMock()
		reader = battery.NewSimulatedReader()
	} else {
		drv = robot.NewSerialDriver(settings.SerialPorts, settings.BaudRate)
		player = audio.NewALSAPlayer(filepath.Join(*dataDir, "sounds"))
		if d, err := display.NewSSD1306(); err != nil {
			slog.Warn("OLED unavailable", "err", err)
			oled = display.NewMock()
		} else {
			oled = d
			defer d.Close()
		}
		if r, err := battery.NewADS1015Reader(); err != nil {
			slog.Warn("battery ADC unavailable, simulating", "err", err)
			reader = battery.NewSimulatedReader()
		} else {
			reader = r
			defer r.Close()
		}
	}

	ctrl, err := controller.New(drv, player, store, bus)
	if err != nil {
		slog.Error("controller initialization failed", "err", err)
		os.Exit(1)
	}

	oled.Show(display.RenderStartup(time.Now()))

	// Network mode controller
	var backend network.Backend
	if *mock {
		backend = network.NewMock()
	} else {
		sys := network.NewSystem()
		defer sys.Close()
		backend = sys
	}
	net := netctl.New(netctl.Options{
		Backend:   backend,
		FlagPath:  filepath.Join(*dataDir, "network_mode"),
		LockPath:  filepath.Join(*dataDir, "netctl.lock"),
		BackupDir: filepath.Join(*dataDir, "backups"),
		Interface: settings.Interface,
		AP:        settings.AP,
		OnChange: func(ns models.NetworkStatus) {
			ctrl.SetNetworkStatus(ns)
		},
	})
	ctrl.SetNetworkStatus(net.Status(ctx))
	go func() {
		if err := net.WatchFlag(ctx); err != nil {
			slog.Warn("mode flag watcher stopped", "err", err)
		}
	}()

	// Bluetooth speaker manager
	home, _ := os.UserHomeDir()
	bt := bluetooth.NewManager(filepath.Join(home, ".walle_bluetooth"))
	go bt.RunAutoReconnect(ctx, 10*time.Second)

	// Battery monitor feeding the controller
	mon := battery.NewMonitor(reader, 0)
	mon.OnUpdate = ctrl.SetBattery
	mon.OnLow = func(percent int) {
		go player.Play(context.Background(), "worried")
		oled.Show(display.RenderMessage("Battery Low", ""))
	}
	mon.OnCritical = func(percent int) {
		oled.Show(display.RenderMessage("BATTERY", "CRITICAL"))
	}
	go mon.Run(ctx)

	// Sensor poller and status display
	go ctrl.RunSensorLoop(ctx)
	go runDisplayLoop(ctx, oled, ctrl)

	// Arduino handshake, servo restore, boot sound
	ctrl.Startup(ctx)

	// Zeroconf mDNS registration
	zc := zeroconf.New("walle", models.ControlPort)
	go func() {
		if err := zc.Start(ctx); err != nil {
			slog.Warn("zeroconf failed", "err", err)
		}
	}()

	router := api.NewRouter(ctrl, net, bt, bus)
	srv := &http.Server{
		Addr:         *addr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // 0 = no timeout (needed for SSE and WebSocket)
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("Wall-E control listening", "addr", *addr, "mock", *mock, "data", *dataDir)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			cancel()
		}
	}()

	if sent, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		slog.Debug("sd_notify failed", "err", err)
	} else if sent {
		slog.Debug("notified systemd ready")
	}

	<-ctx.Done()
	slog.Info("shutting down...")
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutCancel()

	ctrl.Shutdown()
	if err := store.Flush(); err != nil {
		slog.Warn("failed to flush config", "err", err)
	}
	if err := srv.Shutdown(shutCtx); err != nil {
		slog.Warn("server shutdown error", "err", err)
	}
	slog.Info("shutdown complete")
}

// setupLogging points slog at stderr, optionally teeing into a rotated
// log file.
func setupLogging(logFile string, debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	var w io.Writer = os.Stderr
	if logFile != "" {
		w = io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    10, // MB
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		})
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

// runDisplayLoop refreshes the OLED status screen once a second.
func runDisplayLoop(ctx context.Context, oled display.Display, ctrl *controller.Controller) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := oled.Show(display.RenderStatus(ctrl.Status(), time.Now())); err != nil {
				slog.Debug("display refresh failed", "err", err)
			}
		}
	}
}
