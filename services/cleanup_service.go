package services

import (
	"context"
	"time"

	"jaryo/logger"
	"jaryo/repositories"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type CleanupService interface {
	PurgeExpiredSessions(ctx context.Context) (int64, error)
}

type cleanupService struct {
	sessions repositories.SessionRepository
	now      func() time.Time
}

func NewCleanupService(sessions repositories.SessionRepository) CleanupService {
	return &cleanupService{sessions: sessions, now: time.Now}
}

func (s *cleanupService) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	removed, err := s.sessions.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, newAppError(KindInternal, "failed to purge sessions", err)
	}
	if removed > 0 {
		logger.Info("purged expired sessions", zap.Int64("count", removed))
	}
	return removed, nil
}

// StartCleanupWorkers schedules the background cleanup jobs. The caller stops the returned cron.
func StartCleanupWorkers(spec string, cleanup CleanupService) (*cron.Cron, error) {
	scheduler := cron.New()
	_, err := scheduler.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, err := cleanup.PurgeExpiredSessions(ctx); err != nil {
			logger.Error("session cleanup failed", zap.Error(err))
		}
	})
	if err != nil {
		return nil, err
	}
	scheduler.Start()
	return scheduler, nil
}
