// Package models defines the data structures for the Wall-E control system.
// JSON field names match the Python implementation exactly for wire
// compatibility with the existing web UI.
package models

// RobotMode is the high-level behavioral mode of the robot.
type RobotMode string

const (
	RobotIdle      RobotMode = "idle"
	RobotGreeting  RobotMode = "greeting"
	RobotExploring RobotMode = "exploring"
	RobotManual    RobotMode = "manual"
)

// Servo names accepted by the servo command.
const (
	ServoHeadPan  = "head_pan"
	ServoHeadTilt = "head_tilt"
	ServoLeftArm  = "left_arm"
	ServoRightArm = "right_arm"
)

// ServoNames lists the valid servo identifiers.
var ServoNames = []string{ServoHeadPan, ServoHeadTilt, ServoLeftArm, ServoRightArm}

// Sensors holds the three ultrasonic distance readings in centimeters.
type Sensors struct {
	Front int `json:"front"`
	Left  int `json:"left"`
	Right int `json:"right"`
}

// Motors holds the tank-drive motor speeds, range [-255, 255].
type Motors struct {
	LeftSpeed  int `json:"left_speed"`
	RightSpeed int `json:"right_speed"`
}

// Status is the complete robot status returned by GET /api/status and
// streamed over SSE and WebSocket.
type Status struct {
	Mode           RobotMode      `json:"mode"`
	BatteryLevel   int            `json:"battery_level"`
	BatteryVoltage float64        `json:"battery_voltage"`
	Sensors        Sensors        `json:"sensors"`
	ServoPositions map[string]int `json:"servo_positions"`
	Motors         Motors         `json:"motors"`
	Connected      bool           `json:"connected"`
	Network        NetworkStatus  `json:"network"`
	LastUpdate     string         `json:"last_update"` // RFC3339
}

// DeepCopy returns a deep copy of the status.
func (s Status) DeepCopy() Status {
	next := s
	next.ServoPositions = make(map[string]int, len(s.ServoPositions))
	for k, v := range s.ServoPositions {
		next.ServoPositions[k] = v
	}
	if s.Network.LastTransition != nil {
		t := *s.Network.LastTransition
		next.Network.LastTransition = &t
	}
	return next
}

// BluetoothDevice is one device found during a scan.
type BluetoothDevice struct {
	MAC       string `json:"mac"`
	Name      string `json:"name"`
	Paired    bool   `json:"paired"`
	Connected bool   `json:"connected"`
	AudioSink bool   `json:"audio_sink"`
}

// BluetoothStatus is the current state of the Bluetooth audio subsystem.
type BluetoothStatus struct {
	Available   bool   `json:"available"`
	Powered     bool   `json:"powered"`
	SpeakerMAC  string `json:"speaker_mac,omitempty"`
	Connected   bool   `json:"connected"`
	SpeakerName string `json:"speaker_name,omitempty"`
	Discovering bool   `json:"discovering"`
}

// Servo limits. The Arduino clamps as well, but invalid angles are
// rejected before hitting the serial link.
const (
	ServoMinAngle = 0
	ServoMaxAngle = 180

	MotorMinSpeed = -255
	MotorMaxSpeed = 255
)
