package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/onnwee/twitch-recorder/telemetry"
)

// HandleHealthz responds to liveness probes. The loop has no external
// dependency worth probing, so a running process is healthy.
func (h *Handlers) HandleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// HandleStatus writes the current loop snapshot as JSON.
func (h *Handlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(h.src.Snapshot()); err != nil {
		telemetry.LoggerWithCorr(r.Context()).Warn("encode status", slog.Any("err", err))
	}
}
