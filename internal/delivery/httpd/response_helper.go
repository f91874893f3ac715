package httpd

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// writeJSON пишет ошибки кодирования в логгер запроса.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			zerolog.Ctx(r.Context()).Error().Err(err).Int("status", status).Msg("Failed to encode response")
		}
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeErrorFields(w, r, status, message, nil)
}

// writeErrorFields добавляет ошибки по полям формы, если они есть.
func writeErrorFields(w http.ResponseWriter, r *http.Request, status int, message string, fields map[string]string) {
	body := map[string]interface{}{
		"code":    status,
		"message": message,
		"type":    http.StatusText(status),
	}
	if len(fields) > 0 {
		body["fields"] = fields
	}

	response := map[string]interface{}{
		"error":     body,
		"success":   false,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	writeJSON(w, r, status, response)
}

func writeSuccess(w http.ResponseWriter, r *http.Request, data interface{}) {
	response := map[string]interface{}{
		"success":   true,
		"data":      data,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	writeJSON(w, r, http.StatusOK, response)
}

func redirect(w http.ResponseWriter, r *http.Request, url string) {
	http.Redirect(w, r, url, http.StatusSeeOther)
}
