package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/vladdudu12/wall-e-control-go/internal/models"
)

// getBluetoothStatus handles GET /api/bluetooth/status
func (h *Handlers) getBluetoothStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.bt.Status(r.Context()))
}

// postBluetoothScan handles POST /api/bluetooth/scan
func (h *Handlers) postBluetoothScan(w http.ResponseWriter, r *http.Request) {
	var duration time.Duration
	if s := r.URL.Query().Get("seconds"); s != "" {
		secs, err := strconv.Atoi(s)
		if err != nil || secs < 1 || secs > 60 {
			writeError(w, models.ErrBadRequest("seconds must be an integer in [1, 60]"))
			return
		}
		duration = time.Duration(secs) * time.Second
	}

	devices, err := h.bt.Scan(r.Context(), duration)
	if err != nil {
		writeError(w, err)
		return
	}
	if devices == nil {
		devices = []models.BluetoothDevice{}
	}
	writeJSON(w, http.StatusOK, devices)
}

// postBluetoothConnect handles POST /api/bluetooth/connect
func (h *Handlers) postBluetoothConnect(w http.ResponseWriter, r *http.Request) {
	var req models.BluetoothConnectRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.bt.Connect(r.Context(), req.MAC); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.bt.Status(r.Context()))
}

// postBluetoothTest handles POST /api/bluetooth/test. Plays a short beep so
// the operator can confirm audio reaches the connected speaker.
func (h *Handlers) postBluetoothTest(w http.ResponseWriter, r *http.Request) {
	if err := h.ctrl.PlaySound(r.Context(), "beep"); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.CommandResponse{
		Success: true,
		Result:  "Playing sound: beep",
		Message: "Command executed successfully",
	})
}

// postBluetoothDisconnect handles POST /api/bluetooth/disconnect
func (h *Handlers) postBluetoothDisconnect(w http.ResponseWriter, r *http.Request) {
	if err := h.bt.Disconnect(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.bt.Status(r.Context()))
}
