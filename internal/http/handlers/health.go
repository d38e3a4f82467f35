package handlers

import "net/http"

// ConnCounter reports the number of open live connections
type ConnCounter interface {
	Len() int
}

// HealthHandler answers liveness probes
type HealthHandler struct {
	conns ConnCounter
}

func NewHealthHandler(conns ConnCounter) *HealthHandler {
	return &HealthHandler{conns: conns}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{"status": "ok"}
	if h.conns != nil {
		body["connections"] = h.conns.Len()
	}
	writeJSON(w, http.StatusOK, body)
}
