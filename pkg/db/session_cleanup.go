package db

import (
	"context"
	"time"

	"github.com/smith3v/vocab-srs/pkg/logger"
	"github.com/smith3v/vocab-srs/pkg/session"
)

const (
	SessionCleanupInterval = time.Hour
	DefaultSessionTTL      = 24 * time.Hour
)

// CloseStaleSessions marks open sessions idle for longer than ttl as expired.
func (r *Repository) CloseStaleSessions(ctx context.Context, now time.Time, ttl time.Duration) (int64, error) {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	reason := string(session.EndExpired)
	res := r.db.WithContext(ctx).Model(&LearningSession{}).
		Where("ended_at IS NULL AND last_activity_at <= ?", now.Add(-ttl)).
		Updates(map[string]interface{}{
			"ended_at":     now,
			"ended_reason": reason,
		})
	return res.RowsAffected, res.Error
}

func (r *Repository) StartSessionCleanup(ctx context.Context, interval, ttl time.Duration, now func() time.Time) {
	if interval <= 0 {
		interval = SessionCleanupInterval
	}
	if now == nil {
		now = time.Now
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			closed, err := r.CloseStaleSessions(ctx, now().UTC(), ttl)
			if err != nil {
				logger.Error("failed to close stale sessions", "error", err)
				continue
			}
			if closed > 0 {
				logger.Info("closed stale sessions", "count", closed)
			}
		}
	}
}
