package models

// CommandRequest is the generic command envelope from POST /api/command.
// Matches the Python app's {command, params} shape.
type CommandRequest struct {
	Command string                 `json:"command"`
	Params  map[string]interface{} `json:"params,omitempty"`
}

// CommandResponse is the result of a command dispatch.
type CommandResponse struct {
	Success bool   `json:"success"`
	Result  string `json:"result,omitempty"`
	Message string `json:"message"`
}

// MoveRequest is a direct movement command.
type MoveRequest struct {
	Direction string `json:"direction"` // forward | backward | left | right | stop
}

// ServoRequest positions a single servo.
type ServoRequest struct {
	Servo string `json:"servo"`
	Angle int    `json:"angle"`
}

// SoundRequest plays a named sound pattern.
type SoundRequest struct {
	Sound string `json:"sound"`
}

// MotorRequest sets tank-drive speeds directly (manual control).
type MotorRequest struct {
	LeftSpeed  int `json:"left_speed"`
	RightSpeed int `json:"right_speed"`
}

// WifiRequest carries client-mode credentials.
type WifiRequest struct {
	SSID       string `json:"ssid"`
	Passphrase string `json:"passphrase"`
}

// BluetoothConnectRequest identifies a speaker by MAC address.
type BluetoothConnectRequest struct {
	MAC string `json:"mac"`
}

// VolumeRequest sets the master audio volume, range [0, 100].
type VolumeRequest struct {
	Volume int `json:"volume"`
}

// RestoreRequest selects a backup snapshot by ID.
type RestoreRequest struct {
	ID string `json:"id"`
}
