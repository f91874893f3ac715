package app

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/RubachokBoss/plagiarism-checker/web-client/internal/config"
	"github.com/RubachokBoss/plagiarism-checker/web-client/internal/delivery/httpd"
	"github.com/RubachokBoss/plagiarism-checker/web-client/internal/middleware"
	"github.com/RubachokBoss/plagiarism-checker/web-client/internal/repository"
	"github.com/RubachokBoss/plagiarism-checker/web-client/internal/server"
	"github.com/RubachokBoss/plagiarism-checker/web-client/internal/service"
	"github.com/RubachokBoss/plagiarism-checker/web-client/internal/service/integration"
	"github.com/RubachokBoss/plagiarism-checker/web-client/internal/worker"
)

type App struct {
	server      *server.Server
	logger      zerolog.Logger
	config      *config.Config
	workerPool  *worker.WorkerPool
	sessions    repository.SessionRepository
	stopSweeper context.CancelFunc
	sweeperDone chan struct{}
}

func New(cfg *config.Config, log zerolog.Logger) (*App, error) {
	sessions := repository.NewSessionRepository(cfg.Session.TTL, log)

	plagiarismClient := integration.NewPlagiarismClient(
		cfg.API.URL,
		cfg.API.CheckEndpoint,
		cfg.API.Timeout,
		log,
	)

	validator := service.NewValidator(service.ValidationConfig{
		MaxFileSize:   cfg.Checker.MaxFileSize,
		AllowedTypes:  cfg.Checker.AllowedTypes,
		MaxTextLength: cfg.Checker.MaxTextLength,
	})

	workerPool := worker.NewWorkerPool(cfg.Worker.MaxWorkers, log)

	checkerService := service.NewCheckerService(
		sessions,
		plagiarismClient,
		validator,
		workerPool,
		log,
		service.CheckerConfig{
			CheckTimeout: cfg.API.Timeout,
		},
	)

	handler := httpd.NewHandler(
		checkerService,
		workerPool,
		log,
		httpd.HandlerConfig{
			CookieName:      cfg.Session.CookieName,
			CookieSecure:    cfg.Session.Secure,
			SessionTTL:      cfg.Session.TTL,
			MaxUploadSize:   cfg.Server.MaxUploadSize,
			MaxFileSize:     cfg.Checker.MaxFileSize,
			AllowedTypes:    cfg.Checker.AllowedTypes,
			RefreshInterval: cfg.Checker.RefreshInterval,
		},
	)

	router := chi.NewRouter()

	srv := server.NewServer(server.ServerConfig{
		Address:      cfg.Server.Address,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}, router, log)

	srv.SetupMiddleware(server.Middleware{
		CORS: middleware.NewCORS(middleware.CORSConfig{
			AllowedOrigins:   cfg.CORS.AllowedOrigins,
			AllowedMethods:   cfg.CORS.AllowedMethods,
			AllowedHeaders:   cfg.CORS.AllowedHeaders,
			ExposedHeaders:   cfg.CORS.ExposedHeaders,
			AllowCredentials: cfg.CORS.AllowCredentials,
			MaxAge:           cfg.CORS.MaxAge,
		}),
		Logger:   middleware.RequestLogger(log),
		Recovery: middleware.Recovery(log),
		Timeout:  middleware.Timeout(cfg.Server.RequestTimeout),
	})

	// важно: middleware должны быть навешаны до регистрации роутов
	handler.RegisterRoutes(router)

	return &App{
		server:     srv,
		logger:     log,
		config:     cfg,
		workerPool: workerPool,
		sessions:   sessions,
	}, nil
}

// Handler нужен тестам, чтобы гонять запросы без сети.
func (a *App) Handler() http.Handler {
	return a.server.Handler()
}

func (a *App) Run() error {
	a.workerPool.Start()

	ctx, cancel := context.WithCancel(context.Background())
	a.stopSweeper = cancel
	a.sweeperDone = make(chan struct{})
	go func() {
		defer close(a.sweeperDone)
		repository.RunSweeper(ctx, a.sessions, a.config.Session.SweepInterval, a.logger)
	}()

	a.logger.Info().
		Str("api_url", a.config.API.URL).
		Int("workers", a.config.Worker.MaxWorkers).
		Msg("Checker started")

	return a.server.Start()
}

// Shutdown: сервер, затем пул (дожидаемся начатых проверок), затем чистильщик сессий.
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info().Msg("Shutting down web client...")

	var shutdownErr error
	if err := a.server.Shutdown(ctx); err != nil {
		a.logger.Error().Err(err).Msg("Failed to shutdown HTTP server")
		shutdownErr = err
	}

	a.workerPool.Stop()

	if a.stopSweeper != nil {
		a.stopSweeper()
		<-a.sweeperDone
	}

	a.logger.Info().Msg("Web client stopped")
	return shutdownErr
}
