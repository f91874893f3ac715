package httpd

import (
	"errors"
	"net/http"

	"github.com/RubachokBoss/plagiarism-checker/web-client/internal/models"
	"github.com/RubachokBoss/plagiarism-checker/web-client/internal/service"
)

func (h *Handler) HomePage(w http.ResponseWriter, r *http.Request) {
	h.render(w, pageHome, &pageData{
		Title:  "AI-Based Plagiarism Detection System",
		Active: "home",
	})
}

func (h *Handler) AboutPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, pageAbout, &pageData{
		Title:  "About",
		Active: "about",
	})
}

func (h *Handler) CheckerPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sessionID, err := h.ensureSession(w, r)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to start session")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if mode := r.URL.Query().Get("mode"); mode != "" {
		err := h.checker.SetMode(ctx, sessionID, models.ParseSubmissionMode(mode))
		if err != nil && !errors.Is(err, service.ErrCheckInProgress) {
			h.logger.Warn().Err(err).Str("session_id", sessionID).Msg("Failed to switch mode")
		}
	}

	view, err := h.checker.State(ctx, sessionID)
	if err != nil {
		h.logger.Error().Err(err).Str("session_id", sessionID).Msg("Failed to load session")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	data := &pageData{
		Title:   "Plagiarism Checker",
		Active:  "checker",
		Session: view,
	}

	// пока идёт проверка, уведомления не забираем: они относятся к её итогу
	if view.IsLoading() {
		data.Refresh = h.config.RefreshInterval
	} else {
		notices, err := h.checker.TakeNotices(ctx, sessionID)
		if err != nil {
			h.logger.Warn().Err(err).Str("session_id", sessionID).Msg("Failed to take notices")
		}
		data.Notices = notices
	}

	h.render(w, pageChecker, data)
}
