// Package api implements the HTTP control surface for the robot: REST
// endpoints, the SSE status stream and the WebSocket channel the web UI
// uses for realtime control.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/vladdudu12/wall-e-control-go/internal/models"
)

// Handlers holds dependencies for all HTTP handlers.
type Handlers struct {
	ctrl    Controller
	network Network
	bt      Bluetooth
	events  EventBus
}

// Controller is the interface the handlers use for robot state and commands.
type Controller interface {
	Status() models.Status
	ProcessCommand(ctx context.Context, req models.CommandRequest) (models.CommandResponse, error)
	Move(ctx context.Context, direction string) error
	SetServo(ctx context.Context, name string, angle int) error
	SetMotors(ctx context.Context, left, right int) error
	PlaySound(ctx context.Context, name string) error
	SetVolume(ctx context.Context, percent int) error
	Sounds() []string
}

// Network is the interface to the network mode controller.
type Network interface {
	Status(ctx context.Context) models.NetworkStatus
	SwitchToClient(ctx context.Context) (models.Transition, error)
	SwitchToAP(ctx context.Context) (models.Transition, error)
	AutoDetect(ctx context.Context) (models.Transition, error)
	TestConnection(ctx context.Context) models.HealthReport
	ConfigureWifi(ctx context.Context, ssid, passphrase string) error
	RestartServices(ctx context.Context) error
	Backup() (models.BackupInfo, error)
	Backups() ([]models.BackupInfo, error)
	Restore(id string) error
}

// Bluetooth is the interface to the speaker manager.
type Bluetooth interface {
	Status(ctx context.Context) models.BluetoothStatus
	Scan(ctx context.Context, duration time.Duration) ([]models.BluetoothDevice, error)
	Connect(ctx context.Context, mac string) error
	Disconnect(ctx context.Context) error
}

// EventBus is the interface for subscribing to status change events.
type EventBus interface {
	Subscribe(id string) <-chan models.Status
	Unsubscribe(id string)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes an AppError as a JSON response.
func writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		w.WriteHeader(appErr.Status)
		_ = json.NewEncoder(w).Encode(appErr)
		return
	}
	w.WriteHeader(http.StatusInternalServerError)
	_ = json.NewEncoder(w).Encode(models.ErrInternal(err.Error()))
}

// decodeBody decodes a JSON request body into v.
func decodeBody(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return models.ErrBadRequest("invalid JSON body")
	}
	return nil
}
