package crisis

import (
	"context"
	"encoding/json"
	"time"

	"Attune/internal/models"
	"Attune/pkg/logger"
	"Attune/pkg/metrics"
	"Attune/pkg/notification"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	dispatchBatchSize = 32
	dispatchBaseDelay = 30 * time.Second
)

// Dispatcher drains the pending notification queue. Failed deliveries back
// off exponentially; once MaxAttempts is exhausted the row moves to the
// manual queue for a human operator instead of being dropped.
type Dispatcher struct {
	db          *gorm.DB
	notifier    notification.Notifier
	maxAttempts int
}

func NewDispatcher(db *gorm.DB, notifier notification.Notifier, maxAttempts int) *Dispatcher {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &Dispatcher{db: db, notifier: notifier, maxAttempts: maxAttempts}
}

// RunOnce processes one batch of due dispatches. Called from the scheduler.
func (d *Dispatcher) RunOnce(ctx context.Context) error {
	now := time.Now()
	due, err := models.DuePendingDispatches(d.db, now, dispatchBatchSize)
	if err != nil {
		return err
	}

	for i := range due {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		d.process(ctx, &due[i], now)
	}

	if pending, err := models.CountPendingDispatches(d.db); err == nil {
		metrics.Global().SetPendingDispatches(int(pending))
	}
	return nil
}

func (d *Dispatcher) process(ctx context.Context, row *models.NotificationDispatch, now time.Time) {
	var payload notification.Payload
	if err := json.Unmarshal([]byte(row.Payload), &payload); err != nil {
		// 载荷损坏无法重试，转人工
		logger.Error("dispatch payload unreadable", zap.Uint("dispatch", row.ID), zap.Error(err))
		_ = models.MarkDispatchManual(d.db, row.ID, "payload unreadable: "+err.Error())
		metrics.Global().RecordDispatch("manual_queue")
		return
	}

	err := d.notifier.Notify(ctx, row.AlertID, string(row.Severity), payload)
	if err == nil {
		if mErr := models.MarkDispatchDelivered(d.db, row.ID); mErr != nil {
			logger.Error("failed to mark dispatch delivered", zap.Error(mErr))
			return
		}
		d.clearPending(row.AlertID)
		metrics.Global().RecordDispatch("delivered")
		logger.Info("queued notification delivered",
			zap.String("alert", row.AlertID), zap.Int("attempts", row.Attempts+1))
		return
	}

	attempts := row.Attempts + 1
	if attempts >= d.maxAttempts {
		logger.Error("dispatch attempts exhausted, moving to manual queue",
			zap.String("alert", row.AlertID), zap.Int("attempts", attempts), zap.Error(err))
		_ = models.MarkDispatchManual(d.db, row.ID, err.Error())
		metrics.Global().RecordDispatch("manual_queue")
		return
	}

	next := now.Add(dispatchBaseDelay * (1 << uint(attempts)))
	if rErr := models.MarkDispatchRetry(d.db, row.ID, attempts, next, err.Error()); rErr != nil {
		logger.Error("failed to schedule dispatch retry", zap.Error(rErr))
	}
	metrics.Global().RecordDispatch("retry")
}

// clearPending drops the alert's pending marker once delivery lands.
func (d *Dispatcher) clearPending(alertID string) {
	if err := d.db.Model(&models.CrisisAlert{}).
		Where("id = ? AND pending_notify = ?", alertID, true).
		Update("pending_notify", false).Error; err != nil {
		logger.Warn("failed to clear pending flag", zap.String("alert", alertID), zap.Error(err))
	}
}
