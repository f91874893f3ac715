package httpd

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/RubachokBoss/plagiarism-checker/web-client/internal/service"
)

// StatsProvider отдаёт статистику для /ready.
type StatsProvider interface {
	GetStats() map[string]interface{}
}

type HandlerConfig struct {
	CookieName      string
	CookieSecure    bool
	SessionTTL      time.Duration
	MaxUploadSize   int64
	MaxFileSize     int64
	AllowedTypes    []string
	RefreshInterval int
}

type Handler struct {
	checker service.CheckerService
	stats   StatsProvider
	pages   *renderer
	logger  zerolog.Logger
	config  HandlerConfig
	started time.Time
}

func NewHandler(
	checker service.CheckerService,
	stats StatsProvider,
	logger zerolog.Logger,
	config HandlerConfig,
) *Handler {
	if config.CookieName == "" {
		config.CookieName = "checker_session"
	}
	if config.RefreshInterval <= 0 {
		config.RefreshInterval = 2
	}

	return &Handler{
		checker: checker,
		stats:   stats,
		pages:   mustLoadTemplates(),
		logger:  logger,
		config:  config,
		started: time.Now(),
	}
}

func (h *Handler) RegisterRoutes(router chi.Router) {
	// Health check
	router.Get("/health", h.HealthCheck)
	router.Get("/ready", h.ReadyCheck)
	router.Get("/live", h.LiveCheck)

	// Страницы
	router.Get("/", h.HomePage)
	router.Get("/about", h.AboutPage)
	router.Route("/checker", func(r chi.Router) {
		r.Get("/", h.CheckerPage)
		r.Post("/", h.SubmitCheck)
		r.Post("/reset", h.ResetCheck)
		r.Get("/report", h.DownloadReport)
	})

	// Versioned API
	router.Route("/api/v1", func(api chi.Router) {
		api.Post("/check-plagiarism", h.CheckPlagiarism)
	})
}
