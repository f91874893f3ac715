package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/RubachokBoss/plagiarism-checker/web-client/internal/models"
	"github.com/RubachokBoss/plagiarism-checker/web-client/internal/repository"
	"github.com/RubachokBoss/plagiarism-checker/web-client/internal/service/integration"
	"github.com/RubachokBoss/plagiarism-checker/web-client/internal/worker"
)

var (
	noticeComplete = models.Notice{
		Title:       "Analysis Complete",
		Description: "Your documents have been analyzed successfully.",
		Variant:     models.NoticeDefault,
	}
	noticeFailed = models.Notice{
		Title:       "Analysis Failed",
		Description: "An error occurred while analyzing the documents. Please try again.",
		Variant:     models.NoticeDestructive,
	}
)

type CheckerService interface {
	StartSession(ctx context.Context) (*models.SessionView, error)
	State(ctx context.Context, sessionID string) (*models.SessionView, error)
	TakeNotices(ctx context.Context, sessionID string) ([]models.Notice, error)
	PushNotice(ctx context.Context, sessionID string, notice models.Notice) error
	SetMode(ctx context.Context, sessionID string, mode models.SubmissionMode) error
	Submit(ctx context.Context, sessionID string, sub *models.Submission) error
	CheckNow(ctx context.Context, sub *models.Submission) (*models.CheckResponse, error)
	Reset(ctx context.Context, sessionID string) error
	Report(ctx context.Context, sessionID, format string) (*ReportFile, error)
}

type CheckerConfig struct {
	// CheckTimeout ограничивает фоновую проверку, которая живёт дольше запроса.
	CheckTimeout time.Duration
}

type checkerService struct {
	sessions  repository.SessionRepository
	client    integration.PlagiarismClient
	validator *Validator
	pool      *worker.WorkerPool
	logger    zerolog.Logger
	config    CheckerConfig
	now       func() time.Time
}

func NewCheckerService(
	sessions repository.SessionRepository,
	client integration.PlagiarismClient,
	validator *Validator,
	pool *worker.WorkerPool,
	logger zerolog.Logger,
	config CheckerConfig,
) CheckerService {
	return &checkerService{
		sessions:  sessions,
		client:    client,
		validator: validator,
		pool:      pool,
		logger:    logger,
		config:    config,
		now:       time.Now,
	}
}

func (s *checkerService) StartSession(ctx context.Context) (*models.SessionView, error) {
	return s.sessions.Create(ctx)
}

func (s *checkerService) State(ctx context.Context, sessionID string) (*models.SessionView, error) {
	return s.sessions.Get(ctx, sessionID, false)
}

func (s *checkerService) TakeNotices(ctx context.Context, sessionID string) ([]models.Notice, error) {
	view, err := s.sessions.Get(ctx, sessionID, true)
	if err != nil {
		return nil, err
	}
	return view.Notices, nil
}

func (s *checkerService) PushNotice(ctx context.Context, sessionID string, notice models.Notice) error {
	return s.sessions.Update(ctx, sessionID, func(sess *models.Session) error {
		sess.PushNotice(notice)
		return nil
	})
}

// SetMode переключает форму; во время проверки режим не меняется.
func (s *checkerService) SetMode(ctx context.Context, sessionID string, mode models.SubmissionMode) error {
	return s.sessions.Update(ctx, sessionID, func(sess *models.Session) error {
		if sess.State.InFlight() {
			return ErrCheckInProgress
		}
		if sess.Mode != mode {
			sess.Mode = mode
			sess.FieldErrors = nil
		}
		return nil
	})
}

func (s *checkerService) Submit(ctx context.Context, sessionID string, sub *models.Submission) error {
	log := s.logger.With().Str("session_id", sessionID).Str("mode", sub.Mode.String()).Logger()

	err := s.sessions.Update(ctx, sessionID, func(sess *models.Session) error {
		if sess.State.InFlight() {
			return ErrCheckInProgress
		}
		reuseUploads(sub, sess.Uploads)
		sess.State = models.CheckStateValidating
		sess.Mode = sub.Mode
		sess.FieldErrors = nil
		sess.Result = nil
		sess.LastError = ""
		sess.Files = submissionFiles(sub, nil)
		sess.Text = sub.Text
		sess.URL = sub.URL
		return nil
	})
	if err != nil {
		return err
	}

	if verr := s.validate(sub); verr != nil {
		log.Info().Err(verr).Msg("Submission rejected")

		var ve *ValidationError
		errors.As(verr, &ve)
		_ = s.sessions.Update(ctx, sessionID, func(sess *models.Session) error {
			sess.State = models.CheckStateIdle
			if ve != nil {
				sess.FieldErrors = ve.Fields
				keepUploads(sess, sub, ve.Fields)
				sess.Files = submissionFiles(sub, ve.Fields)
				sess.PushNotice(models.Notice{
					Title:       ve.Title,
					Description: ve.Description,
					Variant:     models.NoticeDestructive,
				})
			}
			return nil
		})
		return verr
	}

	checkID := uuid.New().String()
	err = s.sessions.Update(ctx, sessionID, func(sess *models.Session) error {
		keepUploads(sess, sub, nil)
		sess.State = models.CheckStateLoading
		sess.CheckID = checkID
		sess.StartedAt = s.now()
		sess.CompletedAt = time.Time{}
		return nil
	})
	if err != nil {
		return err
	}

	log = log.With().Str("check_id", checkID).Logger()

	task := func() {
		s.runCheck(sessionID, checkID, sub, log)
	}

	if err := s.pool.Submit(task); err != nil {
		log.Error().Err(err).Msg("Failed to schedule check")
		s.finish(sessionID, checkID, nil, err)
		return fmt.Errorf("failed to schedule check: %w", err)
	}

	log.Info().Msg("Check scheduled")
	return nil
}

// runCheck выполняется в пуле; запрос пользователя к этому моменту уже завершён.
func (s *checkerService) runCheck(sessionID, checkID string, sub *models.Submission, log zerolog.Logger) {
	ctx := context.Background()
	if s.config.CheckTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.CheckTimeout)
		defer cancel()
	}

	start := s.now()
	result, err := s.call(ctx, sub)
	if err != nil {
		log.Error().Err(err).Dur("duration", s.now().Sub(start)).Msg("Check failed")
	} else {
		log.Info().
			Float64("plagiarism_percentage", result.PlagiarismPercentage).
			Str("level", result.Level().String()).
			Dur("duration", s.now().Sub(start)).
			Msg("Check completed")
	}

	s.finish(sessionID, checkID, result, err)
}

func (s *checkerService) finish(sessionID, checkID string, result *models.CheckResult, checkErr error) {
	err := s.sessions.Update(context.Background(), sessionID, func(sess *models.Session) error {
		if sess.CheckID != checkID {
			return nil
		}
		sess.CompletedAt = s.now()
		if checkErr != nil {
			sess.State = models.CheckStateError
			sess.LastError = checkErr.Error()
			sess.PushNotice(noticeFailed)
			return nil
		}
		sess.State = models.CheckStateResult
		sess.Result = result
		sess.PushNotice(noticeComplete)
		return nil
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("session_id", sessionID).Str("check_id", checkID).Msg("Session gone before check finished")
	}
}

func (s *checkerService) CheckNow(ctx context.Context, sub *models.Submission) (*models.CheckResponse, error) {
	if err := s.validate(sub); err != nil {
		return nil, err
	}

	checkID := uuid.New().String()
	result, err := s.call(ctx, sub)
	if err != nil {
		s.logger.Error().Err(err).Str("check_id", checkID).Str("mode", sub.Mode.String()).Msg("Check failed")
		return nil, err
	}

	level := result.Level()
	return &models.CheckResponse{
		CheckID:    checkID,
		Mode:       sub.Mode.String(),
		Result:     result,
		Level:      level,
		LevelLabel: level.Label(),
		CheckedAt:  s.now(),
	}, nil
}

func (s *checkerService) Reset(ctx context.Context, sessionID string) error {
	return s.sessions.Update(ctx, sessionID, func(sess *models.Session) error {
		if sess.State.InFlight() {
			return ErrCheckInProgress
		}
		sess.Clear()
		return nil
	})
}

func (s *checkerService) Report(ctx context.Context, sessionID, format string) (*ReportFile, error) {
	view, err := s.sessions.Get(ctx, sessionID, false)
	if err != nil {
		return nil, err
	}
	if !view.HasResult() {
		return nil, ErrNoResult
	}

	return ExportReport(&models.ReportExport{
		CheckID:     view.CheckID,
		GeneratedAt: s.now(),
		Level:       view.Result.Level(),
		Result:      view.Result,
	}, format)
}

func (s *checkerService) validate(sub *models.Submission) error {
	if sub.Mode == models.ModeContent {
		return s.validator.ValidateContent(sub.Text, sub.File, sub.URL)
	}
	return s.validator.ValidateDocuments(sub.Document1, sub.Document2)
}

func (s *checkerService) call(ctx context.Context, sub *models.Submission) (*models.CheckResult, error) {
	if sub.Mode == models.ModeContent {
		return s.client.CheckContent(ctx, sub.Text, sub.File, sub.URL)
	}
	return s.client.CheckDocuments(ctx, sub.Document1, sub.Document2)
}

type uploadSlot struct {
	field string
	file  **models.UploadedFile
}

// uploadSlots: файловые поля отправки для её режима.
func uploadSlots(sub *models.Submission) []uploadSlot {
	if sub.Mode == models.ModeContent {
		return []uploadSlot{{FieldFile, &sub.File}}
	}
	return []uploadSlot{
		{FieldDocument1, &sub.Document1},
		{FieldDocument2, &sub.Document2},
	}
}

// reuseUploads подставляет сохранённые файлы в пустые поля отправки.
func reuseUploads(sub *models.Submission, kept map[string]*models.UploadedFile) {
	for _, slot := range uploadSlots(sub) {
		if *slot.file == nil {
			*slot.file = kept[slot.field]
		}
	}
}

// keepUploads запоминает файлы без ошибки поля; файл с ошибкой
// вытесняет ранее сохранённый.
func keepUploads(sess *models.Session, sub *models.Submission, fieldErrors map[string]string) {
	for _, slot := range uploadSlots(sub) {
		file := *slot.file
		if file == nil {
			continue
		}
		if _, bad := fieldErrors[slot.field]; bad {
			delete(sess.Uploads, slot.field)
			continue
		}
		if sess.Uploads == nil {
			sess.Uploads = make(map[string]*models.UploadedFile)
		}
		sess.Uploads[slot.field] = file
	}
}

func submissionFiles(sub *models.Submission, fieldErrors map[string]string) map[string]*models.FileInfo {
	files := make(map[string]*models.FileInfo)
	for _, slot := range uploadSlots(sub) {
		if _, bad := fieldErrors[slot.field]; bad || *slot.file == nil {
			continue
		}
		files[slot.field] = models.NewFileInfo(*slot.file)
	}

	if len(files) == 0 {
		return nil
	}
	return files
}
