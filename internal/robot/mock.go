package robot

import (
	"context"
	"fmt"
	"sync"

	"github.com/vladdudu12/wall-e-control-go/internal/models"
)

// Mock is an in-memory Driver for tests and --mock mode. It records every
// command and lets tests inject sensor readings and write failures.
type Mock struct {
	mu        sync.Mutex
	connected bool
	failWrite bool

	commands []byte
	servos   map[string]int
	motors   models.Motors
	sensors  models.Sensors
}

// NewMock creates a mock driver with all servos centered.
func NewMock() *Mock {
	return &Mock{
		servos: map[string]int{
			models.ServoHeadPan:  90,
			models.ServoHeadTilt: 90,
			models.ServoLeftArm:  90,
			models.ServoRightArm: 90,
		},
		sensors: models.Sensors{Front: 100, Left: 100, Right: 100},
	}
}

func (m *Mock) Connect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = true
	return nil
}

func (m *Mock) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

func (m *Mock) SendCommand(ctx context.Context, cmd byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkLocked(); err != nil {
		return err
	}
	m.commands = append(m.commands, cmd)
	return nil
}

func (m *Mock) SetServo(ctx context.Context, name string, angle int) error {
	if _, ok := servoChannels[name]; !ok {
		return models.ErrBadRequest(fmt.Sprintf("unknown servo %q", name))
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkLocked(); err != nil {
		return err
	}
	m.servos[name] = clamp(angle, models.ServoMinAngle, models.ServoMaxAngle)
	return nil
}

func (m *Mock) SetMotorSpeeds(ctx context.Context, left, right int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkLocked(); err != nil {
		return err
	}
	m.motors = models.Motors{
		LeftSpeed:  clamp(left, models.MotorMinSpeed, models.MotorMaxSpeed),
		RightSpeed: clamp(right, models.MotorMinSpeed, models.MotorMaxSpeed),
	}
	return nil
}

func (m *Mock) Sensors() models.Sensors {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sensors
}

func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = false
	return nil
}

func (m *Mock) checkLocked() error {
	if !m.connected {
		return models.ErrUnavailable("Arduino not connected")
	}
	if m.failWrite {
		return fmt.Errorf("robot: serial write: injected failure")
	}
	return nil
}

// SetFailWrite makes every subsequent command fail.
func (m *Mock) SetFailWrite(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWrite = fail
}

// SetSensors injects a sensor reading.
func (m *Mock) SetSensors(s models.Sensors) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sensors = s
}

// Commands returns the behavior commands sent so far.
func (m *Mock) Commands() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]byte, len(m.commands))
	copy(out, m.commands)
	return out
}

// Servo returns the last commanded angle for a servo.
func (m *Mock) Servo(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.servos[name]
}

// Motors returns the last commanded motor speeds.
func (m *Mock) Motors() models.Motors {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.motors
}
