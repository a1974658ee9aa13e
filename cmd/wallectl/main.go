// Command wallectl is the root-only network administration tool for the
// robot: it switches between WiFi client and access-point modes, edits
// credentials, snapshots configuration and runs connectivity checks.
// Without a subcommand it drops into the interactive numbered menu.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jessevdk/go-flags"

	"github.com/vladdudu12/wall-e-control-go/internal/config"
	"github.com/vladdudu12/wall-e-control-go/internal/models"
	"github.com/vladdudu12/wall-e-control-go/internal/netctl"
	"github.com/vladdudu12/wall-e-control-go/internal/network"
)

type Options struct {
	DataDir string `long:"data-dir" default:"/var/lib/walle" description:"state directory (mode flag, backups)"`
	Debug   bool   `long:"debug" description:"enable debug logging"`

	Client  ClientCommand  `command:"client" description:"Switch to WiFi client mode"`
	AP      APCommand      `command:"ap" description:"Switch to access-point mode"`
	Status  StatusCommand  `command:"status" description:"Show network status"`
	Wifi    WifiCommand    `command:"wifi" description:"Set WiFi credentials"`
	Restart RestartCommand `command:"restart" description:"Restart the services of the current mode"`
	Test    TestCommand    `command:"test" description:"Run connectivity checks"`
	Detect  DetectCommand  `command:"detect" description:"Auto-detect the best mode and apply it"`
	Backup  BackupCommand  `command:"backup" description:"List, create or restore config snapshots"`
}

var opts Options
var parser = flags.NewParser(&opts, flags.Default)

func main() {
	parser.LongDescription = "Wall-E network mode control"

	// No arguments: interactive menu, the mode the installer documents.
	if len(os.Args) == 1 {
		if err := runMenu(); err != nil {
			fmt.Fprintln(os.Stderr, errStyle.Render("error: "+err.Error()))
			os.Exit(1)
		}
		return
	}

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}
}

// newController builds a netctl controller over the live system backend.
// Mutating operations need root; Status and Test work for any user.
func newController(requireRoot bool) (*netctl.Controller, error) {
	if requireRoot && os.Geteuid() != 0 {
		return nil, fmt.Errorf("this operation must run as root (try sudo)")
	}

	level := slog.LevelWarn
	if opts.Debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if opts.DataDir == "" {
		opts.DataDir = "/var/lib/walle"
	}

	settings, err := config.NewJSONStore(opts.DataDir).Load()
	if err != nil {
		settings = defaultSettings()
	}

	return netctl.New(netctl.Options{
		Backend:   network.NewSystem(),
		FlagPath:  filepath.Join(opts.DataDir, "network_mode"),
		LockPath:  filepath.Join(opts.DataDir, "netctl.lock"),
		BackupDir: filepath.Join(opts.DataDir, "backups"),
		Interface: settings.Interface,
		AP:        settings.AP,
	}), nil
}

func defaultSettings() *models.Settings {
	def := models.DefaultSettings()
	return &def
}
