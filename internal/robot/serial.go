package robot

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"

	"github.com/vladdudu12/wall-e-control-go/internal/models"
)

// SerialDriver talks to the Arduino over a USB serial link. Commands are
// written synchronously; sensor and status lines arrive asynchronously on a
// background reader.
type SerialDriver struct {
	ports []string
	baud  int

	mu        sync.Mutex
	port      serial.Port
	connected bool

	sensorMu sync.RWMutex
	sensors  models.Sensors

	// OnSensors, if set, is invoked from the read loop for every sensor
	// line. Set before Connect.
	OnSensors func(models.Sensors)

	readDone chan struct{}
}

// NewSerialDriver creates a driver that probes the given ports in order at
// the given baud rate.
func NewSerialDriver(ports []string, baud int) *SerialDriver {
	if len(ports) == 0 {
		ports = models.DefaultSettings().SerialPorts
	}
	if baud <= 0 {
		baud = models.DefaultSettings().BaudRate
	}
	return &SerialDriver{ports: ports, baud: baud}
}

// Connect opens the first responding serial port and starts the read loop.
// The Arduino resets on port open, so the driver waits for the bootloader
// before sending the init command.
func (d *SerialDriver) Connect(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.connected {
		return nil
	}

	mode := &serial.Mode{BaudRate: d.baud}
	var lastErr error
	for _, name := range d.ports {
		port, err := serial.Open(name, mode)
		if err != nil {
			lastErr = err
			continue
		}

		// Arduino auto-reset on DTR toggle; give the sketch time to boot.
		select {
		case <-ctx.Done():
			port.Close()
			return ctx.Err()
		case <-time.After(2 * time.Second):
		}

		d.port = port
		d.connected = true
		d.readDone = make(chan struct{})
		go d.readLoop(port)

		if _, err := port.Write([]byte{CmdReset}); err != nil {
			slog.Warn("robot: reset command failed", "port", name, "err", err)
		}
		slog.Info("robot: connected to Arduino", "port", name, "baud", d.baud)
		return nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no serial ports configured")
	}
	return fmt.Errorf("robot: no Arduino found on %v: %w", d.ports, lastErr)
}

// Connected reports whether the serial link is up.
func (d *SerialDriver) Connected() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.connected
}

// SendCommand writes a single-character behavior command.
func (d *SerialDriver) SendCommand(ctx context.Context, cmd byte) error {
	return d.write(ctx, []byte{cmd})
}

// SetServo positions a named servo. Unknown names are rejected, angles are
// clamped to the servo range.
func (d *SerialDriver) SetServo(ctx context.Context, name string, angle int) error {
	ch, ok := servoChannels[name]
	if !ok {
		return models.ErrBadRequest(fmt.Sprintf("unknown servo %q", name))
	}
	angle = clamp(angle, models.ServoMinAngle, models.ServoMaxAngle)
	return d.write(ctx, []byte(fmt.Sprintf("SERVO,%d,%d\n", ch, angle)))
}

// SetMotorSpeeds sets the tank-drive motor speeds, clamped to the motor range.
func (d *SerialDriver) SetMotorSpeeds(ctx context.Context, left, right int) error {
	left = clamp(left, models.MotorMinSpeed, models.MotorMaxSpeed)
	right = clamp(right, models.MotorMinSpeed, models.MotorMaxSpeed)
	return d.write(ctx, []byte(fmt.Sprintf("MOTOR,%d,%d\n", left, right)))
}

// RequestSensors asks the Arduino for a fresh sensor reading. The response
// arrives asynchronously on the read loop.
func (d *SerialDriver) RequestSensors(ctx context.Context) error {
	return d.write(ctx, []byte("SENSORS\n"))
}

// Sensors returns the most recent ultrasonic readings.
func (d *SerialDriver) Sensors() models.Sensors {
	d.sensorMu.RLock()
	defer d.sensorMu.RUnlock()
	return d.sensors
}

// Close sends an emergency stop and closes the port.
func (d *SerialDriver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.connected {
		return nil
	}
	if _, err := d.port.Write([]byte{CmdHalt}); err != nil {
		slog.Warn("robot: emergency stop on close failed", "err", err)
	}
	err := d.port.Close()
	d.connected = false
	d.port = nil
	return err
}

func (d *SerialDriver) write(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.connected {
		return models.ErrUnavailable("Arduino not connected")
	}
	if _, err := d.port.Write(data); err != nil {
		return fmt.Errorf("robot: serial write: %w", err)
	}
	return nil
}

// readLoop consumes lines from the Arduino until the port closes.
func (d *SerialDriver) readLoop(port serial.Port) {
	defer close(d.readDone)
	scanner := bufio.NewScanner(port)
	for scanner.Scan() {
		d.handleLine(strings.TrimSpace(scanner.Text()))
	}
	d.mu.Lock()
	d.connected = false
	d.mu.Unlock()
	slog.Info("robot: serial read loop ended", "err", scanner.Err())
}

func (d *SerialDriver) handleLine(line string) {
	switch {
	case strings.HasPrefix(line, "SENSORS:"):
		s, err := ParseSensorLine(line)
		if err != nil {
			slog.Debug("robot: bad sensor line", "line", line, "err", err)
			return
		}
		d.sensorMu.Lock()
		d.sensors = s
		d.sensorMu.Unlock()
		if d.OnSensors != nil {
			d.OnSensors(s)
		}
	case strings.HasPrefix(line, "STATUS:"):
		slog.Debug("robot: status", "msg", strings.TrimPrefix(line, "STATUS:"))
	case strings.HasPrefix(line, "ERROR:"):
		slog.Warn("robot: arduino error", "msg", strings.TrimPrefix(line, "ERROR:"))
	case line == "":
	default:
		slog.Debug("robot: unrecognized line", "line", line)
	}
}

// ParseSensorLine parses a "SENSORS:front,left,right" line into distances.
func ParseSensorLine(line string) (models.Sensors, error) {
	body, ok := strings.CutPrefix(line, "SENSORS:")
	if !ok {
		return models.Sensors{}, fmt.Errorf("not a sensor line: %q", line)
	}
	parts := strings.Split(body, ",")
	if len(parts) != 3 {
		return models.Sensors{}, fmt.Errorf("expected 3 readings, got %d", len(parts))
	}
	vals := make([]int, 3)
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return models.Sensors{}, fmt.Errorf("reading %d: %w", i, err)
		}
		vals[i] = v
	}
	return models.Sensors{Front: vals[0], Left: vals[1], Right: vals[2]}, nil
}
