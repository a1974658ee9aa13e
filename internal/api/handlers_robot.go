package api

import (
	"net/http"

	"github.com/vladdudu12/wall-e-control-go/internal/models"
)

// getStatus handles GET /api/status
func (h *Handlers) getStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.ctrl.Status())
}

// postCommand handles POST /api/command
func (h *Handlers) postCommand(w http.ResponseWriter, r *http.Request) {
	var req models.CommandRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Command == "" {
		writeError(w, models.ErrBadRequest("missing command"))
		return
	}
	resp, err := h.ctrl.ProcessCommand(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// postMove handles POST /api/move
func (h *Handlers) postMove(w http.ResponseWriter, r *http.Request) {
	var req models.MoveRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.ctrl.Move(r.Context(), req.Direction); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.CommandResponse{
		Success: true,
		Result:  "Moving " + req.Direction,
		Message: "Command executed successfully",
	})
}

// postServo handles POST /api/servo
func (h *Handlers) postServo(w http.ResponseWriter, r *http.Request) {
	var req models.ServoRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.ctrl.SetServo(r.Context(), req.Servo, req.Angle); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.ctrl.Status())
}

// postMotor handles POST /api/motor
func (h *Handlers) postMotor(w http.ResponseWriter, r *http.Request) {
	var req models.MotorRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.ctrl.SetMotors(r.Context(), req.LeftSpeed, req.RightSpeed); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.ctrl.Status())
}

// getSounds handles GET /api/sounds
func (h *Handlers) getSounds(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"sounds": h.ctrl.Sounds()})
}

// postSound handles POST /api/sound
func (h *Handlers) postSound(w http.ResponseWriter, r *http.Request) {
	var req models.SoundRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.ctrl.PlaySound(r.Context(), req.Sound); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.CommandResponse{
		Success: true,
		Result:  "Playing sound: " + req.Sound,
		Message: "Command executed successfully",
	})
}

// postVolume handles POST /api/volume
func (h *Handlers) postVolume(w http.ResponseWriter, r *http.Request) {
	var req models.VolumeRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.ctrl.SetVolume(r.Context(), req.Volume); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"volume": req.Volume})
}
