package httpd

import (
	"bytes"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSON_LogsEncodeError(t *testing.T) {
	var logs bytes.Buffer
	logger := zerolog.New(&logs)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req = req.WithContext(logger.WithContext(req.Context()))
	rec := httptest.NewRecorder()

	writeJSON(rec, req, http.StatusOK, map[string]interface{}{"value": math.Inf(1)})

	assert.Equal(t, http.StatusOK, rec.Code)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(logs.Bytes(), &entry))
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "Failed to encode response", entry["message"])
	assert.Contains(t, entry["error"], "unsupported value")
}

func TestWriteError_Envelope(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/check-plagiarism", nil)
	rec := httptest.NewRecorder()

	writeErrorFields(rec, req, http.StatusBadRequest, "Invalid File", map[string]string{"document1": "bad"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body struct {
		Success bool `json:"success"`
		Error   struct {
			Code    int               `json:"code"`
			Message string            `json:"message"`
			Fields  map[string]string `json:"fields"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.False(t, body.Success)
	assert.Equal(t, http.StatusBadRequest, body.Error.Code)
	assert.Equal(t, "Invalid File", body.Error.Message)
	assert.Equal(t, "bad", body.Error.Fields["document1"])
}
