package models

// Settings is the persisted daemon configuration, stored as JSON by the
// config store. Runtime robot state (Status) is not persisted.
type Settings struct {
	// Network
	Interface string   `json:"interface"`
	AP        APConfig `json:"ap"`
	WifiSSID  string   `json:"wifi_ssid,omitempty"`

	// Audio
	Volume int `json:"volume"` // percent, [0, 100]

	// Arduino serial link
	SerialPorts []string `json:"serial_ports,omitempty"`
	BaudRate    int      `json:"baud_rate"`

	// Saved servo positions, restored at startup.
	ServoPositions map[string]int `json:"servo_positions"`
}

// DefaultSettings returns the factory configuration: AP mode parameters
// from the installer scripts and neutral servo centers.
func DefaultSettings() Settings {
	return Settings{
		Interface: "wlan0",
		AP: APConfig{
			Interface:  "wlan0",
			SSID:       "Wall-E-Robot",
			Passphrase: "walle2024",
			Channel:    7,
			Country:    "RO",
			Address:    "192.168.4.1/24",
		},
		Volume:      70,
		SerialPorts: []string{"/dev/ttyACM0", "/dev/ttyUSB0", "/dev/ttyACM1"},
		BaudRate:    9600,
		ServoPositions: map[string]int{
			ServoHeadPan:  90,
			ServoHeadTilt: 90,
			ServoLeftArm:  90,
			ServoRightArm: 90,
		},
	}
}

// DeepCopy returns a deep copy of the settings.
func (s Settings) DeepCopy() Settings {
	next := s
	if s.SerialPorts != nil {
		next.SerialPorts = make([]string, len(s.SerialPorts))
		copy(next.SerialPorts, s.SerialPorts)
	}
	next.ServoPositions = make(map[string]int, len(s.ServoPositions))
	for k, v := range s.ServoPositions {
		next.ServoPositions[k] = v
	}
	return next
}

// DefaultStatus returns the initial robot status before any hardware
// contact. Matches the Python app's initial walle_state.
func DefaultStatus() Status {
	return Status{
		Mode:         RobotIdle,
		BatteryLevel: 100,
		ServoPositions: map[string]int{
			ServoHeadPan:  90,
			ServoHeadTilt: 90,
			ServoLeftArm:  90,
			ServoRightArm: 90,
		},
		Network: NetworkStatus{Mode: ModeUnknown, Interface: "wlan0"},
	}
}

// DHCPForAP derives the dnsmasq pool configuration from the AP config.
// The pool and gateway are fixed relative to the AP address.
func DHCPForAP(ap APConfig) DHCPConfig {
	return DHCPConfig{
		Interface:  ap.Interface,
		RangeStart: "192.168.4.2",
		RangeEnd:   "192.168.4.20",
		Gateway:    "192.168.4.1",
		DNS:        "192.168.4.1",
		Domain:     "walle",
		Hostname:   "walle",
	}
}

// ControlPort is the fixed port the web control service listens on.
const ControlPort = 5000
