package listeners

import (
	"strconv"

	"Attune/internal/models"
	"Attune/pkg/logger"
	"Attune/pkg/sse"
	"Attune/pkg/util"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// InitCrisisListeners wires alert lifecycle signals to the event stream so
// connected caregiver dashboards see new alerts and transitions live.
func InitCrisisListeners(db *gorm.DB, hub *sse.Hub) {
	util.Sig().Connect(models.SigAlertCreated, func(sender any, params ...any) {
		alert := sender.(*models.CrisisAlert)
		logger.Info("crisis alert created",
			zap.String("alert", alert.ID),
			zap.Uint("user", alert.UserID),
			zap.String("severity", string(alert.Severity)))

		hub.SendToGroupJSON(alertGroup(alert.UserID), map[string]any{
			"event": "alert_created",
			"alert": alert,
		})
	})

	util.Sig().Connect(models.SigAlertTransition, func(sender any, params ...any) {
		alert := sender.(*models.CrisisAlert)
		from, to := "", ""
		if len(params) >= 2 {
			from, _ = params[0].(string)
			to, _ = params[1].(string)
		}
		logger.Info("crisis alert transition",
			zap.String("alert", alert.ID),
			zap.String("from", from),
			zap.String("to", to))

		hub.SendToGroupJSON(alertGroup(alert.UserID), map[string]any{
			"event": "alert_transition",
			"alert": alert,
			"from":  from,
			"to":    to,
		})
	})

	util.Sig().Connect(models.SigFollowUpDue, func(sender any, params ...any) {
		f := sender.(*models.FollowUpAction)
		alert, err := models.LoadAlert(db, f.AlertID)
		if err != nil {
			logger.Warn("follow-up without readable alert", zap.String("alert", f.AlertID), zap.Error(err))
			return
		}
		logger.Info("follow-up due",
			zap.Uint("followup", f.ID),
			zap.String("alert", f.AlertID),
			zap.String("action", f.Action))

		hub.SendToGroupJSON(alertGroup(alert.UserID), map[string]any{
			"event":    "follow_up_due",
			"followUp": f,
		})
	})
}

func alertGroup(userID uint) string {
	return "alerts:" + strconv.FormatUint(uint64(userID), 10)
}
