package repository

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/RubachokBoss/plagiarism-checker/web-client/internal/models"
)

var ErrSessionNotFound = errors.New("session not found")

type SessionRepository interface {
	Create(ctx context.Context) (*models.SessionView, error)
	Get(ctx context.Context, id string, takeNotices bool) (*models.SessionView, error)
	Update(ctx context.Context, id string, fn func(s *models.Session) error) error
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context) int
	Count() int
}

// sessionRepository хранит сессии в памяти; после рестарта они теряются.
type sessionRepository struct {
	mu       sync.Mutex
	sessions map[string]*models.Session
	ttl      time.Duration
	now      func() time.Time
	logger   zerolog.Logger
}

func NewSessionRepository(ttl time.Duration, logger zerolog.Logger) SessionRepository {
	return newSessionRepository(ttl, time.Now, logger)
}

func newSessionRepository(ttl time.Duration, now func() time.Time, logger zerolog.Logger) *sessionRepository {
	return &sessionRepository{
		sessions: make(map[string]*models.Session),
		ttl:      ttl,
		now:      now,
		logger:   logger,
	}
}

func (r *sessionRepository) Create(ctx context.Context) (*models.SessionView, error) {
	id := uuid.New().String()
	s := models.NewSession(id, r.now())

	r.mu.Lock()
	r.sessions[id] = s
	v := s.Snapshot(false)
	r.mu.Unlock()

	r.logger.Debug().Str("session_id", id).Msg("Session created")

	return &v, nil
}

func (r *sessionRepository) Get(ctx context.Context, id string, takeNotices bool) (*models.SessionView, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, err := r.lookup(id)
	if err != nil {
		return nil, err
	}

	v := s.Snapshot(takeNotices)
	return &v, nil
}

// Update применяет fn под блокировкой; fn не должна делать I/O.
func (r *sessionRepository) Update(ctx context.Context, id string, fn func(s *models.Session) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, err := r.lookup(id)
	if err != nil {
		return err
	}

	return fn(s)
}

func (r *sessionRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(r.sessions, id)
	return nil
}

// DeleteExpired не трогает сессии с незавершённой проверкой.
func (r *sessionRepository) DeleteExpired(ctx context.Context) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	deadline := r.now().Add(-r.ttl)
	removed := 0
	for id, s := range r.sessions {
		if s.State.InFlight() {
			continue
		}
		if s.LastSeenAt.Before(deadline) {
			delete(r.sessions, id)
			removed++
		}
	}

	if removed > 0 {
		r.logger.Debug().Int("removed", removed).Int("remaining", len(r.sessions)).Msg("Expired sessions removed")
	}

	return removed
}

func (r *sessionRepository) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *sessionRepository) lookup(id string) (*models.Session, error) {
	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}

	now := r.now()
	if !s.State.InFlight() && now.Sub(s.LastSeenAt) > r.ttl {
		delete(r.sessions, id)
		return nil, ErrSessionNotFound
	}

	s.LastSeenAt = now
	return s, nil
}

// RunSweeper периодически чистит просроченные сессии до отмены ctx.
func RunSweeper(ctx context.Context, repo SessionRepository, interval time.Duration, logger zerolog.Logger) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Debug().Msg("Session sweeper stopped")
			return
		case <-ticker.C:
			repo.DeleteExpired(ctx)
		}
	}
}
