package httpd

import (
	"net/http"
	"time"
)

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"service":   "web-client",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) ReadyCheck(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "ready",
		"service":   "web-client",
		"uptime":    time.Since(h.started).Round(time.Second).String(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if h.stats != nil {
		response["workers"] = h.stats.GetStats()
	}

	writeJSON(w, r, http.StatusOK, response)
}

func (h *Handler) LiveCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"status": "alive",
	})
}
