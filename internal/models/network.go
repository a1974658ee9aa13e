package models

// NetworkMode is the persisted wireless mode of the robot.
type NetworkMode string

const (
	ModeClient      NetworkMode = "client"
	ModeAccessPoint NetworkMode = "access_point"
	ModeUnknown     NetworkMode = "unknown"
)

// Valid reports whether m is one of the two persistable modes.
func (m NetworkMode) Valid() bool {
	return m == ModeClient || m == ModeAccessPoint
}

// TransitionStatus tracks the lifecycle of a mode switch. The mode flag on
// disk is only written once a transition reaches TransitionVerified.
type TransitionStatus string

const (
	TransitionPending  TransitionStatus = "pending"
	TransitionVerified TransitionStatus = "verified"
	TransitionFailed   TransitionStatus = "failed"
)

// Transition is the record of the most recent mode switch attempt.
type Transition struct {
	Target NetworkMode      `json:"target"`
	Status TransitionStatus `json:"status"`
	Detail string           `json:"detail,omitempty"`
	At     string           `json:"at"` // RFC3339
}

// HealthCheck is one independent pass/fail probe from TestConnection.
type HealthCheck struct {
	Name string `json:"name"`
	OK   bool   `json:"ok"`
	Info string `json:"info,omitempty"`
}

// HealthReport aggregates the mode-conditional connectivity checks.
// Checks are independent booleans; there is no composite score.
type HealthReport struct {
	Mode   NetworkMode   `json:"mode"`
	Checks []HealthCheck `json:"checks"`
}

// AllOK reports whether every check in the report passed.
func (r HealthReport) AllOK() bool {
	for _, c := range r.Checks {
		if !c.OK {
			return false
		}
	}
	return true
}

// Check returns the named check, or nil if not present.
func (r HealthReport) Check(name string) *HealthCheck {
	for i := range r.Checks {
		if r.Checks[i].Name == name {
			return &r.Checks[i]
		}
	}
	return nil
}

// NetworkStatus is the network section of the robot status.
type NetworkStatus struct {
	Mode           NetworkMode `json:"mode"`
	Interface      string      `json:"interface"`
	Address        string      `json:"address,omitempty"`
	LastTransition *Transition `json:"last_transition,omitempty"`
}

// APConfig is the fixed access-point configuration written to hostapd.
type APConfig struct {
	Interface  string `json:"interface"`
	SSID       string `json:"ssid"`
	Passphrase string `json:"-"` // never serialized
	Channel    int    `json:"channel"`
	Country    string `json:"country"`
	Address    string `json:"address"` // CIDR, e.g. 192.168.4.1/24
}

// DHCPConfig is the dnsmasq pool configuration served in AP mode.
type DHCPConfig struct {
	Interface  string `json:"interface"`
	RangeStart string `json:"range_start"`
	RangeEnd   string `json:"range_end"`
	Gateway    string `json:"gateway"`
	DNS        string `json:"dns"`
	Domain     string `json:"domain"`
	Hostname   string `json:"hostname"`
}

// BackupInfo describes one timestamped configuration snapshot.
type BackupInfo struct {
	ID    string   `json:"id"` // directory name, e.g. 20240813-142501
	Path  string   `json:"path"`
	Files []string `json:"files"`
}
