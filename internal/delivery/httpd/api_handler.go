package httpd

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/RubachokBoss/plagiarism-checker/web-client/internal/models"
	"github.com/RubachokBoss/plagiarism-checker/web-client/internal/service"
	"github.com/RubachokBoss/plagiarism-checker/web-client/internal/service/integration"
)

// CheckPlagiarism принимает тот же multipart, что и удалённый сервис, и
// проверяет синхронно.
func (h *Handler) CheckPlagiarism(w http.ResponseWriter, r *http.Request) {
	sub, err := h.parseSubmission(w, r)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, r, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		writeError(w, r, http.StatusBadRequest, "Failed to parse form data")
		return
	}

	// режим определяется по присланным полям, а не по "mode"
	if sub.Document1 != nil || sub.Document2 != nil {
		sub.Mode = models.ModeDocuments
	} else {
		sub.Mode = models.ModeContent
	}

	response, err := h.checker.CheckNow(r.Context(), sub)
	if err != nil {
		h.handleCheckError(w, r, err)
		return
	}

	writeSuccess(w, r, response)
}

func (h *Handler) handleCheckError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *service.ValidationError
	var apiErr *integration.APIError

	switch {
	case errors.As(err, &ve):
		writeErrorFields(w, r, validationStatus(ve), ve.Description, ve.Fields)
	case errors.As(err, &apiErr):
		h.logger.Warn().Err(err).Int("status", apiErr.StatusCode).Msg("Plagiarism service rejected request")
		writeError(w, r, http.StatusBadGateway, fmt.Sprintf("Plagiarism service returned status %d", apiErr.StatusCode))
	case errors.Is(err, integration.ErrInvalidResponse):
		writeError(w, r, http.StatusBadGateway, "Plagiarism service returned an invalid response")
	case errors.Is(err, integration.ErrServiceUnavailable):
		writeError(w, r, http.StatusServiceUnavailable, "Plagiarism service unavailable")
	default:
		h.logger.Error().Err(err).Msg("Check error")
		writeError(w, r, http.StatusInternalServerError, "Failed to check documents")
	}
}

func validationStatus(ve *service.ValidationError) int {
	switch {
	case errors.Is(ve, service.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(ve, service.ErrFileTypeNotAllowed), errors.Is(ve, service.ErrFileNotText):
		return http.StatusUnsupportedMediaType
	default:
		return http.StatusBadRequest
	}
}
