package controllers

import (
	"encoding/json"
	"net/http"

	"nova/services/connmon"
	"nova/services/session"
)

type HealthController struct {
	monitor  *connmon.Monitor
	sessions *session.Manager
}

func NewHealthController(monitor *connmon.Monitor, sessions *session.Manager) *HealthController {
	return &HealthController{monitor: monitor, sessions: sessions}
}

func (h *HealthController) HealthCheck(w http.ResponseWriter, r *http.Request) {
	state := h.monitor.State()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":   "ok",
		"online":   state.Online,
		"healthy":  state.Healthy,
		"sessions": h.sessions.Len(),
	})
}
