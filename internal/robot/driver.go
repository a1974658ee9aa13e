// Package robot provides the Arduino serial bridge for motors, servos and
// ultrasonic sensors. It defines the Driver interface used by both the real
// serial driver and the mock.
package robot

import (
	"context"

	"github.com/vladdudu12/wall-e-control-go/internal/models"
)

// Servo channel mapping on the Arduino side.
var servoChannels = map[string]int{
	models.ServoHeadPan:  0,
	models.ServoHeadTilt: 1,
	models.ServoLeftArm:  2,
	models.ServoRightArm: 3,
}

// Single-character behavior commands understood by the Arduino sketch.
const (
	CmdWake    = 'w'
	CmdExplore = 'e'
	CmdStop    = 's'
	CmdReset   = 'r'
	CmdHalt    = 'x' // emergency stop, motors off and servos neutral
)

// Direction commands for tank-drive movement.
var directionCommands = map[string]byte{
	"forward":  'F',
	"backward": 'B',
	"left":     'L',
	"right":    'R',
	"stop":     'S',
}

// DirectionCommand maps a direction name to its wire command.
func DirectionCommand(direction string) (byte, bool) {
	c, ok := directionCommands[direction]
	return c, ok
}

// Driver is the hardware abstraction for the Arduino link.
type Driver interface {
	// Connect establishes the serial connection, probing the configured
	// ports in order.
	Connect(ctx context.Context) error

	// Connected reports whether the link is up.
	Connected() bool

	// SendCommand sends a single-character behavior command.
	SendCommand(ctx context.Context, cmd byte) error

	// SetServo positions a named servo, angle clamped to [0, 180].
	SetServo(ctx context.Context, name string, angle int) error

	// SetMotorSpeeds sets tank-drive speeds, clamped to [-255, 255].
	SetMotorSpeeds(ctx context.Context, left, right int) error

	// Sensors returns the most recent ultrasonic readings.
	Sensors() models.Sensors

	// Close stops the motors and shuts the link down.
	Close() error
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
