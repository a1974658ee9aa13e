package api

import (
	"net/http"

	"github.com/vladdudu12/wall-e-control-go/internal/models"
)

// getNetworkStatus handles GET /api/network/status
func (h *Handlers) getNetworkStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.network.Status(r.Context()))
}

// postNetworkClient handles POST /api/network/client
func (h *Handlers) postNetworkClient(w http.ResponseWriter, r *http.Request) {
	tr, err := h.network.SwitchToClient(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tr)
}

// postNetworkAP handles POST /api/network/ap
func (h *Handlers) postNetworkAP(w http.ResponseWriter, r *http.Request) {
	tr, err := h.network.SwitchToAP(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tr)
}

// postNetworkDetect handles POST /api/network/detect
func (h *Handlers) postNetworkDetect(w http.ResponseWriter, r *http.Request) {
	tr, err := h.network.AutoDetect(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tr)
}

// getNetworkTest handles GET /api/network/test
func (h *Handlers) getNetworkTest(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.network.TestConnection(r.Context()))
}

// postNetworkWifi handles POST /api/network/wifi
func (h *Handlers) postNetworkWifi(w http.ResponseWriter, r *http.Request) {
	var req models.WifiRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.network.ConfigureWifi(r.Context(), req.SSID, req.Passphrase); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"ssid": req.SSID})
}

// postNetworkRestart handles POST /api/network/restart
func (h *Handlers) postNetworkRestart(w http.ResponseWriter, r *http.Request) {
	if err := h.network.RestartServices(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"restarted": true})
}

// getNetworkBackups handles GET /api/network/backups
func (h *Handlers) getNetworkBackups(w http.ResponseWriter, r *http.Request) {
	backups, err := h.network.Backups()
	if err != nil {
		writeError(w, err)
		return
	}
	if backups == nil {
		backups = []models.BackupInfo{}
	}
	writeJSON(w, http.StatusOK, backups)
}

// postNetworkBackup handles POST /api/network/backup
func (h *Handlers) postNetworkBackup(w http.ResponseWriter, r *http.Request) {
	info, err := h.network.Backup()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, info)
}

// postNetworkRestore handles POST /api/network/restore
func (h *Handlers) postNetworkRestore(w http.ResponseWriter, r *http.Request) {
	var req models.RestoreRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.ID == "" {
		writeError(w, models.ErrBadRequest("missing backup id"))
		return
	}
	if err := h.network.Restore(req.ID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"restored": req.ID})
}
