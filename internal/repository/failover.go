package repository

import (
	"context"
	"sync/atomic"
	"time"

	"belleza/internal/domain"
	"belleza/internal/models"

	"github.com/rs/zerolog"
)

// recoveryInterval is how long the failover waits before probing the primary
// again after marking it down.
const recoveryInterval = time.Minute

// FailoverSessionRepository prefers the primary (Redis) and falls back to the
// in-memory repository when the primary errors, probing for recovery
// periodically. Conversational state is advisory, so losing it on failover is
// acceptable; booking correctness never depends on it.
type FailoverSessionRepository struct {
	primary  domain.SessionRepository
	fallback domain.SessionRepository
	logger   *zerolog.Logger

	isDown    atomic.Bool
	lastCheck atomic.Int64
}

func NewFailoverSessionRepository(primary, fallback domain.SessionRepository, logger *zerolog.Logger) *FailoverSessionRepository {
	return &FailoverSessionRepository{primary: primary, fallback: fallback, logger: logger}
}

func (r *FailoverSessionRepository) markDown(err error) {
	r.logger.Error().Err(err).Msg("primary session repository failed, falling back to memory")
	r.isDown.Store(true)
	r.lastCheck.Store(time.Now().UnixNano())
}

func (r *FailoverSessionRepository) shouldProbe() bool {
	return time.Since(time.Unix(0, r.lastCheck.Load())) > recoveryInterval
}

func (r *FailoverSessionRepository) GetSession(ctx context.Context, chatID int64) (*models.Session, error) {
	if !r.isDown.Load() {
		session, err := r.primary.GetSession(ctx, chatID)
		if err == nil {
			return session, nil
		}
		r.markDown(err)
	} else if r.shouldProbe() {
		session, err := r.primary.GetSession(ctx, chatID)
		if err == nil {
			r.isDown.Store(false)
			return session, nil
		}
		r.lastCheck.Store(time.Now().UnixNano())
	}
	return r.fallback.GetSession(ctx, chatID)
}

func (r *FailoverSessionRepository) SetSession(ctx context.Context, session *models.Session) error {
	if !r.isDown.Load() {
		if err := r.primary.SetSession(ctx, session); err == nil {
			return nil
		} else {
			r.markDown(err)
		}
	}
	return r.fallback.SetSession(ctx, session)
}

func (r *FailoverSessionRepository) ClearSession(ctx context.Context, chatID int64) error {
	if !r.isDown.Load() {
		if err := r.primary.ClearSession(ctx, chatID); err == nil {
			return nil
		} else {
			r.markDown(err)
		}
	}
	return r.fallback.ClearSession(ctx, chatID)
}

func (r *FailoverSessionRepository) CheckRateLimit(ctx context.Context, chatID int64, limit int, window time.Duration) (bool, error) {
	if !r.isDown.Load() {
		ok, err := r.primary.CheckRateLimit(ctx, chatID, limit, window)
		if err == nil {
			return ok, nil
		}
		r.markDown(err)
	}
	return r.fallback.CheckRateLimit(ctx, chatID, limit, window)
}
