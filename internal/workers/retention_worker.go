package workers

import (
	"context"
	"time"

	"todo_backend/internal/logger"
	"todo_backend/internal/repositories"
)

// RetentionWorker periodically deletes read notifications older than
// the configured retention window.
type RetentionWorker struct {
	notifications repositories.NotificationRepository
	maxAge        time.Duration
	interval      time.Duration
}

func NewRetentionWorker(notifications repositories.NotificationRepository, maxAgeDays, intervalHours int) *RetentionWorker {
	return &RetentionWorker{
		notifications: notifications,
		maxAge:        time.Duration(maxAgeDays) * 24 * time.Hour,
		interval:      time.Duration(intervalHours) * time.Hour,
	}
}

// Start launches the cleanup loop.
func (w *RetentionWorker) Start(ctx context.Context) {
	go w.cleanOldNotifications(ctx)
}

func (w *RetentionWorker) cleanOldNotifications(ctx context.Context) {
	if w.maxAge <= 0 {
		logger.Info("notification retention disabled")
		return
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("retention worker stopped")
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-w.maxAge)
			deleted, err := w.notifications.DeleteReadOlderThan(cutoff)
			if err != nil {
				logger.WorkerLog("retention", "clean old notifications", err)
				continue
			}
			if deleted > 0 {
				logger.Info("deleted old read notifications", "count", deleted)
			}
		}
	}
}
