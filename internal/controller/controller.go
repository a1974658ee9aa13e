// Package controller implements the robot state machine — the single source
// of truth for mode, servo positions, motors, sensors, battery and network
// status. All state mutations go through the apply() method which ensures
// atomicity and event publishing.
package controller

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/vladdudu12/wall-e-control-go/internal/audio"
	"github.com/vladdudu12/wall-e-control-go/internal/config"
	"github.com/vladdudu12/wall-e-control-go/internal/events"
	"github.com/vladdudu12/wall-e-control-go/internal/models"
	"github.com/vladdudu12/wall-e-control-go/internal/robot"
)

const sensorInterval = 500 * time.Millisecond

// Controller is the central state machine for the robot.
type Controller struct {
	mu     sync.RWMutex
	status models.Status

	drv    robot.Driver
	player audio.Player
	store  config.Store
	bus    *events.Bus
}

// New creates the controller, restoring the saved servo positions from the
// settings store.
func New(drv robot.Driver, player audio.Player, store config.Store, bus *events.Bus) (*Controller, error) {
	settings, err := store.Load()
	if err != nil {
		return nil, err
	}

	status := models.DefaultStatus()
	for name, angle := range settings.ServoPositions {
		status.ServoPositions[name] = angle
	}
	status.LastUpdate = time.Now().Format(time.RFC3339)

	return &Controller{
		status: status,
		drv:    drv,
		player: player,
		store:  store,
		bus:    bus,
	}, nil
}

// Status returns a deep copy of the current robot status.
func (c *Controller) Status() models.Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status.DeepCopy()
}

// apply is the core mutation primitive. It copies the status, lets fn
// modify the copy, then commits and publishes it.
func (c *Controller) apply(fn func(*models.Status) error) (models.Status, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := c.status.DeepCopy()
	if err := fn(&next); err != nil {
		return models.Status{}, err
	}
	next.LastUpdate = time.Now().Format(time.RFC3339)

	c.status = next
	c.bus.Publish(c.status)
	return c.status, nil
}

// Startup connects the Arduino, centers the servos to their saved positions
// and plays the boot sound. A missing Arduino is not fatal — the web UI
// still works, commands just report unavailable.
func (c *Controller) Startup(ctx context.Context) {
	if err := c.drv.Connect(ctx); err != nil {
		slog.Warn("controller: Arduino unavailable", "err", err)
	}
	connected := c.drv.Connected()

	c.apply(func(st *models.Status) error {
		st.Connected = connected
		return nil
	})

	if connected {
		for name, angle := range c.Status().ServoPositions {
			if err := c.drv.SetServo(ctx, name, angle); err != nil {
				slog.Warn("controller: restore servo failed", "servo", name, "err", err)
			}
		}
	}
	if err := c.player.Play(ctx, "startup"); err != nil {
		slog.Debug("controller: startup sound", "err", err)
	}
}

// ProcessCommand dispatches a generic command envelope.
func (c *Controller) ProcessCommand(ctx context.Context, req models.CommandRequest) (models.CommandResponse, error) {
	switch req.Command {
	case "wake_up":
		return c.behavior(ctx, robot.CmdWake, models.RobotGreeting, "startup", "Wall-E is waking up!")
	case "explore":
		return c.behavior(ctx, robot.CmdExplore, models.RobotExploring, "curious", "Wall-E is exploring!")
	case "stop":
		return c.behavior(ctx, robot.CmdStop, models.RobotIdle, "", "Wall-E stopped")
	case "move":
		dir, _ := req.Params["direction"].(string)
		return c.commandResult(c.Move(ctx, dir), fmt.Sprintf("Moving %s", dir))
	case "servo":
		servo, _ := req.Params["servo"].(string)
		angle := 90
		if v, ok := req.Params["angle"].(float64); ok {
			angle = int(v)
		}
		return c.commandResult(c.SetServo(ctx, servo, angle), fmt.Sprintf("Set %s to %d°", servo, angle))
	case "sound":
		sound, _ := req.Params["sound"].(string)
		return c.commandResult(c.PlaySound(ctx, sound), fmt.Sprintf("Playing sound: %s", sound))
	default:
		return models.CommandResponse{}, models.ErrBadRequest(fmt.Sprintf("unknown command %q", req.Command))
	}
}

func (c *Controller) behavior(ctx context.Context, cmd byte, mode models.RobotMode, sound, result string) (models.CommandResponse, error) {
	if err := c.drv.SendCommand(ctx, cmd); err != nil {
		return models.CommandResponse{}, err
	}
	c.apply(func(st *models.Status) error {
		st.Mode = mode
		return nil
	})
	if sound != "" {
		go func() {
			if err := c.player.Play(context.Background(), sound); err != nil {
				slog.Debug("controller: behavior sound", "sound", sound, "err", err)
			}
		}()
	}
	return models.CommandResponse{Success: true, Result: result, Message: "Command executed successfully"}, nil
}

func (c *Controller) commandResult(err error, result string) (models.CommandResponse, error) {
	if err != nil {
		return models.CommandResponse{}, err
	}
	return models.CommandResponse{Success: true, Result: result, Message: "Command executed successfully"}, nil
}

// Move sends a direction command and flips the robot into manual mode.
// "stop" returns it to idle.
func (c *Controller) Move(ctx context.Context, direction string) error {
	cmd, ok := robot.DirectionCommand(direction)
	if !ok {
		return models.ErrBadRequest(fmt.Sprintf("unknown direction %q", direction))
	}
	if err := c.drv.SendCommand(ctx, cmd); err != nil {
		return err
	}
	c.apply(func(st *models.Status) error {
		if direction == "stop" {
			st.Mode = models.RobotIdle
			st.Motors = models.Motors{}
		} else {
			st.Mode = models.RobotManual
		}
		return nil
	})
	return nil
}

// SetServo positions a servo and persists the new position.
func (c *Controller) SetServo(ctx context.Context, name string, angle int) error {
	if err := c.drv.SetServo(ctx, name, angle); err != nil {
		return err
	}
	if angle < models.ServoMinAngle {
		angle = models.ServoMinAngle
	}
	if angle > models.ServoMaxAngle {
		angle = models.ServoMaxAngle
	}
	c.apply(func(st *models.Status) error {
		st.ServoPositions[name] = angle
		return nil
	})

	settings, err := c.store.Load()
	if err == nil {
		settings.ServoPositions[name] = angle
		if err := c.store.Save(settings); err != nil {
			slog.Warn("controller: persist servo position", "err", err)
		}
	}
	return nil
}

// SetMotors sets tank-drive speeds directly.
func (c *Controller) SetMotors(ctx context.Context, left, right int) error {
	if err := c.drv.SetMotorSpeeds(ctx, left, right); err != nil {
		return err
	}
	c.apply(func(st *models.Status) error {
		st.Mode = models.RobotManual
		st.Motors = models.Motors{
			LeftSpeed:  clampSpeed(left),
			RightSpeed: clampSpeed(right),
		}
		return nil
	})
	return nil
}

// PlaySound plays a named sound without touching robot state.
func (c *Controller) PlaySound(ctx context.Context, name string) error {
	return c.player.Play(ctx, name)
}

// SetVolume sets the audio volume and persists it.
func (c *Controller) SetVolume(ctx context.Context, percent int) error {
	if err := c.player.SetVolume(ctx, percent); err != nil {
		return err
	}
	settings, err := c.store.Load()
	if err != nil {
		return err
	}
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	settings.Volume = percent
	return c.store.Save(settings)
}

// Sounds lists the available sound names.
func (c *Controller) Sounds() []string {
	return c.player.Sounds()
}

// SetBattery feeds a battery sample into the status.
func (c *Controller) SetBattery(voltage float64, percent int) {
	c.apply(func(st *models.Status) error {
		st.BatteryVoltage = voltage
		st.BatteryLevel = percent
		return nil
	})
}

// SetNetworkStatus feeds the network subsystem state into the status.
func (c *Controller) SetNetworkStatus(ns models.NetworkStatus) {
	c.apply(func(st *models.Status) error {
		st.Network = ns
		return nil
	})
}

// RunSensorLoop polls the Arduino sensors until ctx is cancelled, publishing
// status whenever a reading or the link state changes.
func (c *Controller) RunSensorLoop(ctx context.Context) {
	ticker := time.NewTicker(sensorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		connected := c.drv.Connected()
		sensors := c.drv.Sensors()

		st := c.Status()
		if st.Connected == connected && st.Sensors == sensors {
			continue
		}
		c.apply(func(st *models.Status) error {
			st.Connected = connected
			st.Sensors = sensors
			return nil
		})
	}
}

// Shutdown stops the motors and releases the Arduino link.
func (c *Controller) Shutdown() {
	if err := c.drv.Close(); err != nil {
		slog.Warn("controller: close Arduino", "err", err)
	}
}

func clampSpeed(v int) int {
	if v < models.MotorMinSpeed {
		return models.MotorMinSpeed
	}
	if v > models.MotorMaxSpeed {
		return models.MotorMaxSpeed
	}
	return v
}
