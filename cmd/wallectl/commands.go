package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/vladdudu12/wall-e-control-go/internal/models"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

const opTimeout = 2 * time.Minute

type ClientCommand struct{}

func (c *ClientCommand) Execute(args []string) error {
	ctrl, err := newController(true)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	fmt.Println("Switching to WiFi client mode...")
	tr, err := ctrl.SwitchToClient(ctx)
	if err != nil {
		return err
	}
	printTransition(tr)
	return nil
}

type APCommand struct{}

func (c *APCommand) Execute(args []string) error {
	ctrl, err := newController(true)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	ap := defaultSettings().AP
	fmt.Printf("Switching to access-point mode (SSID %s)...\n", ap.SSID)
	tr, err := ctrl.SwitchToAP(ctx)
	if err != nil {
		return err
	}
	printTransition(tr)
	if tr.Status == models.TransitionVerified {
		fmt.Println(dimStyle.Render("Connect to the AP and open http://192.168.4.1:5000"))
	}
	return nil
}

type StatusCommand struct{}

func (c *StatusCommand) Execute(args []string) error {
	ctrl, err := newController(false)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	st := ctrl.Status(ctx)
	fmt.Println(headerStyle.Render("Network status"))
	fmt.Printf("  mode:      %s\n", st.Mode)
	fmt.Printf("  interface: %s\n", st.Interface)
	if st.Address != "" {
		fmt.Printf("  address:   %s\n", st.Address)
	}
	if st.LastTransition != nil {
		t := st.LastTransition
		fmt.Printf("  last switch: %s -> %s at %s", t.Target, t.Status, t.At)
		if t.Detail != "" {
			fmt.Printf(" (%s)", t.Detail)
		}
		fmt.Println()
	}
	return nil
}

type WifiCommand struct {
	SSID       string `long:"ssid" description:"network name (prompted if omitted)"`
	Passphrase string `long:"passphrase" description:"WPA passphrase (prompted if omitted)"`
}

func (c *WifiCommand) Execute(args []string) error {
	ctrl, err := newController(true)
	if err != nil {
		return err
	}
	if c.SSID == "" {
		c.SSID = prompt("WiFi SSID: ")
	}
	if c.Passphrase == "" {
		c.Passphrase = prompt("WPA passphrase (8-63 chars): ")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := ctrl.ConfigureWifi(ctx, c.SSID, c.Passphrase); err != nil {
		return err
	}
	fmt.Println(successStyle.Render("Credentials saved."))
	fmt.Println(dimStyle.Render("Run 'wallectl client' to connect."))
	return nil
}

type RestartCommand struct{}

func (c *RestartCommand) Execute(args []string) error {
	ctrl, err := newController(true)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	if err := ctrl.RestartServices(ctx); err != nil {
		return err
	}
	fmt.Println(successStyle.Render("Services restarted."))
	return nil
}

type TestCommand struct{}

func (c *TestCommand) Execute(args []string) error {
	ctrl, err := newController(false)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	report := ctrl.TestConnection(ctx)
	fmt.Println(headerStyle.Render(fmt.Sprintf("Connectivity checks (%s mode)", report.Mode)))
	for _, check := range report.Checks {
		mark := errStyle.Render("FAIL")
		if check.OK {
			mark = successStyle.Render(" OK ")
		}
		fmt.Printf("  [%s] %-16s %s\n", mark, check.Name, dimStyle.Render(check.Info))
	}
	if !report.AllOK() {
		return fmt.Errorf("%d check(s) failed", countFailed(report))
	}
	return nil
}

func countFailed(r models.HealthReport) int {
	n := 0
	for _, c := range r.Checks {
		if !c.OK {
			n++
		}
	}
	return n
}

type DetectCommand struct{}

func (c *DetectCommand) Execute(args []string) error {
	ctrl, err := newController(true)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	fmt.Println("Auto-detecting network mode...")
	tr, err := ctrl.AutoDetect(ctx)
	if err != nil {
		return err
	}
	printTransition(tr)
	return nil
}

type BackupCommand struct {
	Create  bool   `long:"create" description:"snapshot the current configuration"`
	Restore string `long:"restore" description:"restore the snapshot with this ID" value-name:"ID"`
}

func (c *BackupCommand) Execute(args []string) error {
	needRoot := c.Create || c.Restore != ""
	ctrl, err := newController(needRoot)
	if err != nil {
		return err
	}

	switch {
	case c.Create:
		info, err := ctrl.Backup()
		if err != nil {
			return err
		}
		fmt.Println(successStyle.Render("Snapshot " + info.ID))
		for _, f := range info.Files {
			fmt.Println("  " + f)
		}
		return nil
	case c.Restore != "":
		if err := ctrl.Restore(c.Restore); err != nil {
			return err
		}
		fmt.Println(successStyle.Render("Restored " + c.Restore))
		fmt.Println(dimStyle.Render("Reboot or restart services for it to take effect."))
		return nil
	default:
		backups, err := ctrl.Backups()
		if err != nil {
			return err
		}
		if len(backups) == 0 {
			fmt.Println(dimStyle.Render("No snapshots."))
			return nil
		}
		fmt.Println(headerStyle.Render("Snapshots"))
		for _, b := range backups {
			fmt.Printf("  %s  (%s)\n", b.ID, strings.Join(b.Files, ", "))
		}
		return nil
	}
}

func printTransition(tr models.Transition) {
	switch tr.Status {
	case models.TransitionVerified:
		fmt.Println(successStyle.Render(fmt.Sprintf("Now in %s mode.", tr.Target)))
	default:
		msg := fmt.Sprintf("Switch to %s %s", tr.Target, tr.Status)
		if tr.Detail != "" {
			msg += ": " + tr.Detail
		}
		fmt.Println(errStyle.Render(msg))
	}
}

func prompt(label string) string {
	fmt.Print(label)
	reader := bufio.NewReader(os.Stdin)
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}
