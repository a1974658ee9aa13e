package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

var menuStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("241")).
	Padding(0, 2)

// runMenu is the interactive numbered menu, kept compatible with the
// option numbering operators know from the original installer script.
func runMenu() error {
	for {
		fmt.Println(menuStyle.Render(headerStyle.Render("Wall-E Network Control") + `

 1) Switch to WiFi client mode
 2) Switch to access-point mode
 3) Show network status
 4) Set WiFi credentials
 5) Restart network services
 6) Test connection
 7) Auto-detect mode
 8) Backups
 9) Exit`))

		choice := prompt("Select option [1-9]: ")

		var err error
		switch choice {
		case "1":
			err = (&ClientCommand{}).Execute(nil)
		case "2":
			err = (&APCommand{}).Execute(nil)
		case "3":
			err = (&StatusCommand{}).Execute(nil)
		case "4":
			err = (&WifiCommand{}).Execute(nil)
		case "5":
			err = (&RestartCommand{}).Execute(nil)
		case "6":
			err = (&TestCommand{}).Execute(nil)
		case "7":
			err = (&DetectCommand{}).Execute(nil)
		case "8":
			err = runBackupMenu()
		case "9", "q", "":
			return nil
		default:
			fmt.Println(errStyle.Render("Unknown option " + choice))
			continue
		}
		if err != nil {
			fmt.Println(errStyle.Render("error: " + err.Error()))
		}
		fmt.Println()
	}
}

func runBackupMenu() error {
	fmt.Println(` 1) List snapshots
 2) Create snapshot
 3) Restore snapshot`)

	switch prompt("Select option [1-3]: ") {
	case "1":
		return (&BackupCommand{}).Execute(nil)
	case "2":
		return (&BackupCommand{Create: true}).Execute(nil)
	case "3":
		id := prompt("Snapshot ID: ")
		if id == "" {
			return fmt.Errorf("no snapshot ID given")
		}
		return (&BackupCommand{Restore: id}).Execute(nil)
	default:
		return nil
	}
}
