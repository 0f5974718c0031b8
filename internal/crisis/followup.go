package crisis

import (
	"context"
	"fmt"
	"time"

	"Attune/internal/models"
	"Attune/pkg/cache"
	"Attune/pkg/logger"
	"Attune/pkg/util"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	followUpBatchSize = 50
	followUpGrace     = 24 * time.Hour
)

// FollowUpWorker sweeps scheduled follow-ups. System checkpoints fire once
// and complete; human checkpoints get a reminder, and past the grace window
// they are marked missed so they show up in review.
type FollowUpWorker struct {
	db    *gorm.DB
	store cache.Cache
}

func NewFollowUpWorker(db *gorm.DB, store cache.Cache) *FollowUpWorker {
	return &FollowUpWorker{db: db, store: store}
}

func (w *FollowUpWorker) RunOnce(ctx context.Context) error {
	now := time.Now()
	due, err := models.DueFollowUps(w.db, now, followUpBatchSize)
	if err != nil {
		return err
	}

	for i := range due {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		f := &due[i]
		switch {
		case f.Responsible == models.ResponsibleSystem:
			util.Sig().Emit(models.SigFollowUpDue, f)
			if err := models.MarkFollowUp(w.db, f.ID, models.FollowUpDone); err != nil {
				logger.Warn("failed to complete follow-up", zap.Uint("followup", f.ID), zap.Error(err))
			}
		case now.Sub(f.ScheduledAt) > followUpGrace:
			logger.Warn("follow-up missed",
				zap.Uint("followup", f.ID),
				zap.String("alert", f.AlertID),
				zap.String("responsible", string(f.Responsible)))
			_ = models.MarkFollowUp(w.db, f.ID, models.FollowUpMissed)
		default:
			w.remind(ctx, f)
		}
	}
	return nil
}

// remind emits at most one reminder per checkpoint per grace window.
func (w *FollowUpWorker) remind(ctx context.Context, f *models.FollowUpAction) {
	key := fmt.Sprintf("followup:remind:%d", f.ID)
	fresh, err := w.store.SetNX(ctx, key, 1, followUpGrace)
	if err == nil && !fresh {
		return
	}
	util.Sig().Emit(models.SigFollowUpDue, f)
}
