package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/vladdudu12/wall-e-control-go/internal/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The UI is served from the robot itself; same permissive posture as
	// the CORS middleware.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsMessage is an inbound control message. Realtime controls (joystick and
// servo sliders) come through here instead of REST so slider drags do not
// generate a request per tick.
type wsMessage struct {
	Command string                 `json:"command"`
	Params  map[string]interface{} `json:"params,omitempty"`
}

// websocket handles GET /ws. Status updates are pushed as they happen;
// inbound messages are dispatched as control commands.
func (h *Handlers) websocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Debug("ws: upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	id := uuid.New().String()
	ch := h.events.Subscribe(id)
	defer h.events.Unsubscribe(id)

	// The connection allows one concurrent writer, so a single goroutine
	// owns the write side: it sends the initial snapshot, forwards bus
	// updates, and emits error frames handed over by the read loop.
	errs := make(chan string, 8)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := conn.WriteJSON(h.ctrl.Status()); err != nil {
			return
		}
		for {
			select {
			case status, ok := <-ch:
				if !ok {
					return
				}
				if err := conn.WriteJSON(status); err != nil {
					return
				}
			case msg := <-errs:
				if err := conn.WriteJSON(map[string]string{"error": msg}); err != nil {
					return
				}
			}
		}
	}()

	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}
		if err := h.dispatchWS(r, msg); err != nil {
			select {
			case errs <- err.Error():
			case <-done:
			}
		}
	}

	// Closing the subscription stops the writer; join it before the
	// deferred conn.Close.
	h.events.Unsubscribe(id)
	<-done
}

func (h *Handlers) dispatchWS(r *http.Request, msg wsMessage) error {
	ctx := r.Context()
	switch {
	case msg.Command == "motor_control":
		left, _ := msg.Params["left_speed"].(float64)
		right, _ := msg.Params["right_speed"].(float64)
		return h.ctrl.SetMotors(ctx, int(left), int(right))
	case strings.HasPrefix(msg.Command, "servo_"):
		name := strings.TrimPrefix(msg.Command, "servo_")
		angle, ok := msg.Params["angle"].(float64)
		if !ok {
			return models.ErrBadRequest("missing angle")
		}
		return h.ctrl.SetServo(ctx, name, int(angle))
	default:
		_, err := h.ctrl.ProcessCommand(ctx, models.CommandRequest{
			Command: msg.Command,
			Params:  msg.Params,
		})
		return err
	}
}
