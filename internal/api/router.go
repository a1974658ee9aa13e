package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"
)

// NewRouter creates and returns the main HTTP router.
func NewRouter(ctrl Controller, network Network, bt Bluetooth, bus EventBus) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(corsMiddleware)
	r.Use(middleware.CleanPath)

	h := &Handlers{ctrl: ctrl, network: network, bt: bt, events: bus}

	// Bluetooth discovery holds the adapter for seconds at a time, so
	// scans are rate limited to one every 15 seconds.
	scanLimiter := rate.NewLimiter(rate.Every(15*time.Second), 1)

	// Web UI
	r.Get("/", h.index)

	// Robot state and commands
	r.Get("/api/status", h.getStatus)
	r.Post("/api/command", h.postCommand)
	r.Post("/api/move", h.postMove)
	r.Post("/api/servo", h.postServo)
	r.Post("/api/motor", h.postMotor)

	// Audio
	r.Get("/api/sounds", h.getSounds)
	r.Post("/api/sound", h.postSound)
	r.Post("/api/volume", h.postVolume)

	// Bluetooth speakers
	r.Get("/api/bluetooth/status", h.getBluetoothStatus)
	r.With(limitMiddleware(scanLimiter)).Post("/api/bluetooth/scan", h.postBluetoothScan)
	r.Post("/api/bluetooth/connect", h.postBluetoothConnect)
	r.Post("/api/bluetooth/disconnect", h.postBluetoothDisconnect)
	r.Post("/api/bluetooth/test", h.postBluetoothTest)

	// Network mode control
	r.Get("/api/network", h.getNetworkStatus)
	r.Get("/api/network/status", h.getNetworkStatus)
	r.Post("/api/network/client", h.postNetworkClient)
	r.Post("/api/network/ap", h.postNetworkAP)
	r.Post("/api/network/detect", h.postNetworkDetect)
	r.Get("/api/network/test", h.getNetworkTest)
	r.Post("/api/network/wifi", h.postNetworkWifi)
	r.Post("/api/network/restart", h.postNetworkRestart)
	r.Get("/api/network/backups", h.getNetworkBackups)
	r.Post("/api/network/backup", h.postNetworkBackup)
	r.Post("/api/network/restore", h.postNetworkRestore)

	// Realtime streams
	r.Get("/api/subscribe", h.sseEvents)
	r.Get("/ws", h.websocket)

	return r
}

// corsMiddleware adds permissive CORS headers for local network access.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func limitMiddleware(limiter *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				http.Error(w, "scan rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
