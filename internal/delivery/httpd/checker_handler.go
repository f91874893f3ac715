package httpd

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/RubachokBoss/plagiarism-checker/web-client/internal/models"
	"github.com/RubachokBoss/plagiarism-checker/web-client/internal/repository"
	"github.com/RubachokBoss/plagiarism-checker/web-client/internal/service"
)

const checkerPath = "/checker"

var noticeUploadTooLarge = models.Notice{
	Title:       "Upload Too Large",
	Description: "The uploaded files exceed the allowed size. Please choose smaller documents.",
	Variant:     models.NoticeDestructive,
}

func (h *Handler) SubmitCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sessionID, err := h.ensureSession(w, r)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to start session")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	sub, err := h.parseSubmission(w, r)
	if err != nil {
		h.logger.Info().Err(err).Str("session_id", sessionID).Msg("Failed to parse checker form")
		if perr := h.checker.PushNotice(ctx, sessionID, formErrorNotice(err)); perr != nil {
			h.logger.Warn().Err(perr).Str("session_id", sessionID).Msg("Failed to push notice")
		}
		redirect(w, r, checkerPath)
		return
	}

	err = h.checker.Submit(ctx, sessionID, sub)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrCheckInProgress):
		h.logger.Debug().Str("session_id", sessionID).Msg("Check already in progress")
	default:
		var ve *service.ValidationError
		if !errors.As(err, &ve) {
			h.logger.Error().Err(err).Str("session_id", sessionID).Msg("Failed to submit check")
		}
	}

	redirect(w, r, checkerPath)
}

func (h *Handler) ResetCheck(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionID(r)
	if ok {
		err := h.checker.Reset(r.Context(), sessionID)
		if err != nil && !errors.Is(err, service.ErrCheckInProgress) && !errors.Is(err, repository.ErrSessionNotFound) {
			h.logger.Error().Err(err).Str("session_id", sessionID).Msg("Failed to reset session")
		}
	}

	redirect(w, r, checkerPath)
}

func (h *Handler) DownloadReport(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := h.sessionID(r)
	if !ok {
		writeError(w, r, http.StatusNotFound, "No result available")
		return
	}

	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" {
		format = service.FormatJSON
	}

	report, err := h.checker.Report(r.Context(), sessionID, format)
	if err != nil {
		h.handleReportError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", report.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.Name))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(report.Data); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("report", report.Name).Msg("Failed to write report")
	}
}

func (h *Handler) handleReportError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrNoResult), errors.Is(err, repository.ErrSessionNotFound):
		writeError(w, r, http.StatusNotFound, "No result available")
	case errors.Is(err, service.ErrUnsupportedFormat):
		writeError(w, r, http.StatusBadRequest, "Supported formats: json, csv, txt")
	default:
		h.logger.Error().Err(err).Msg("Report export error")
		writeError(w, r, http.StatusInternalServerError, "Failed to export report")
	}
}

// ensureSession возвращает сессию из cookie или заводит новую.
func (h *Handler) ensureSession(w http.ResponseWriter, r *http.Request) (string, error) {
	if id, ok := h.sessionID(r); ok {
		if _, err := h.checker.State(r.Context(), id); err == nil {
			return id, nil
		}
	}

	view, err := h.checker.StartSession(r.Context())
	if err != nil {
		return "", err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.config.CookieName,
		Value:    view.ID,
		Path:     "/",
		MaxAge:   int(h.config.SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	return view.ID, nil
}

func (h *Handler) sessionID(r *http.Request) (string, bool) {
	c, err := r.Cookie(h.config.CookieName)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

// parseSubmission читает multipart-форму; лимит тела берётся из конфига.
func (h *Handler) parseSubmission(w http.ResponseWriter, r *http.Request) (*models.Submission, error) {
	if h.config.MaxUploadSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.config.MaxUploadSize)
	}

	if err := r.ParseMultipartForm(h.config.MaxUploadSize); err != nil {
		return nil, err
	}

	sub := &models.Submission{
		Mode: models.ParseSubmissionMode(r.FormValue("mode")),
		Text: r.FormValue(service.FieldText),
		URL:  strings.TrimSpace(r.FormValue(service.FieldURL)),
	}

	fields := []struct {
		name string
		dst  **models.UploadedFile
	}{
		{service.FieldDocument1, &sub.Document1},
		{service.FieldDocument2, &sub.Document2},
		{service.FieldFile, &sub.File},
	}

	for _, f := range fields {
		file, err := h.readUpload(r, f.name)
		if err != nil {
			return nil, err
		}
		*f.dst = file
	}

	return sub, nil
}

// readUpload возвращает nil, если поле пустое. Читаем не больше
// MaxFileSize+1 байт: превышение всё равно отсекает валидация по Size.
func (h *Handler) readUpload(r *http.Request, field string) (*models.UploadedFile, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", field, err)
	}
	defer file.Close()

	if header.Filename == "" && header.Size == 0 {
		return nil, nil
	}

	var reader io.Reader = file
	if h.config.MaxFileSize > 0 {
		reader = io.LimitReader(file, h.config.MaxFileSize+1)
	}

	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", field, err)
	}

	return &models.UploadedFile{
		Name:    header.Filename,
		Size:    header.Size,
		Content: content,
	}, nil
}

func formErrorNotice(err error) models.Notice {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return noticeUploadTooLarge
	}
	return models.Notice{
		Title:       "Invalid Form",
		Description: "The form could not be read. Please try again.",
		Variant:     models.NoticeDestructive,
	}
}
