package notification

import (
	"context"

	"Attune/pkg/logger"

	"go.uber.org/zap"
)

// LogNotifier writes escalations to the process log. Used when no real
// channel is configured so escalations are never silently dropped.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, alertID, severity string, payload Payload) error {
	logger.Warn("crisis escalation (no notification channel configured)",
		zap.String("alert", alertID),
		zap.String("severity", severity),
		zap.Uint("user", payload.UserID),
		zap.String("summary", payload.Summary))
	return nil
}
