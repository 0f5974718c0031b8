package crisis

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"Attune/internal/models"
	"Attune/pkg/errors"
	"Attune/pkg/logger"
	"Attune/pkg/metrics"
	"Attune/pkg/notification"
	"Attune/pkg/util"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// EvaluateRequest is one utterance to assess.
type EvaluateRequest struct {
	UserID   uint
	CoupleID *uint
	Text     string
	Context  ContextTag
	Geo      string // jurisdiction hint, ISO country code
}

// EvaluateResult is what the caller always gets: a severity verdict plus
// support resources, even when the enhancement or notification legs degraded.
type EvaluateResult struct {
	Assessment models.SafetyAssessment `json:"assessment"`
	Resources  []models.CrisisResource `json:"resources"`
	AlertID    string                  `json:"alertId,omitempty"`
}

// Coordinator owns the CrisisAlert lifecycle. It runs the detection pipeline,
// creates and advances alerts, triggers professional escalation, and
// schedules follow-ups. All collaborators are passed in at construction; the
// coordinator keeps no hidden module-level state.
type Coordinator struct {
	db         *gorm.DB
	extractor  *Extractor
	classifier *Classifier
	gateway    *AnalysisGateway // optional
	history    *HistoryTracker
	matcher    *ResourceMatcher
	planner    *Planner
	notifier   notification.Notifier

	mu         sync.Mutex
	alertLocks map[string]*sync.Mutex
}

func NewCoordinator(db *gorm.DB, gateway *AnalysisGateway, history *HistoryTracker, matcher *ResourceMatcher, notifier notification.Notifier) *Coordinator {
	return &Coordinator{
		db:         db,
		extractor:  NewExtractor(),
		classifier: NewClassifier(),
		gateway:    gateway,
		history:    history,
		matcher:    matcher,
		planner:    NewPlanner(),
		notifier:   notifier,
		alertLocks: make(map[string]*sync.Mutex),
	}
}

// lockAlert serializes status transitions per alert id.
func (c *Coordinator) lockAlert(id string) func() {
	c.mu.Lock()
	l, ok := c.alertLocks[id]
	if !ok {
		l = &sync.Mutex{}
		c.alertLocks[id] = l
	}
	c.mu.Unlock()
	l.Lock()
	return l.Unlock
}

// Evaluate runs the full pipeline for one utterance.
func (c *Coordinator) Evaluate(ctx context.Context, req EvaluateRequest) (*EvaluateResult, error) {
	start := time.Now()

	// 校验失败在任何状态产生之前拒绝
	if req.UserID == 0 {
		return nil, errors.WithCode(errors.CodeValidation, "userId is required")
	}
	if strings.TrimSpace(req.Text) == "" {
		return nil, errors.WithCode(errors.CodeValidation, "text is required")
	}
	if req.Context == "" {
		req.Context = ContextGeneral
	}

	indicators := c.extractor.Extract(req.Text, req.Context)
	ruleSeverity := c.classifier.RuleSeverity(indicators, req.Context)

	var opinion *DeepOpinion
	if c.gateway.ShouldInvoke(ruleSeverity, req.Context, len(req.Text), c.history.EnhancedMonitoring(req.UserID)) {
		op := c.gateway.Analyze(ctx, req.Text, req.Context)
		opinion = &op
	}

	assessment := c.classifier.Classify(indicators, opinion, req.Context)
	assessment.UserID = req.UserID
	assessment.CoupleID = req.CoupleID

	escalating, err := c.history.Append(&assessment)
	if err != nil {
		return nil, errors.Wrap(err, "failed to record assessment")
	}
	if escalating && !assessment.RequiresReview {
		// 单次评估不足以触发复核，但趋势在升级
		assessment.RequiresReview = true
		if err := c.db.Model(&models.SafetyAssessment{}).
			Where("id = ?", assessment.ID).
			Update("requires_review", true).Error; err != nil {
			logger.Warn("failed to persist review flag", zap.Error(err))
		}
	}

	ctype := dominantCrisisType(indicators)
	resources := c.matcher.Match(ctx, ctype, req.Geo)

	result := &EvaluateResult{Assessment: assessment, Resources: resources}

	if assessment.Severity.AtLeast(models.SeverityMedium) || assessment.RequiresReview {
		alert, err := c.ensureAlert(ctx, &assessment, ctype, resources)
		if err != nil {
			// 警报处理失败不应吞掉用户可用的评估结果
			logger.Error("alert handling failed", zap.Error(err), zap.Uint("user", req.UserID))
		} else if alert != nil {
			result.AlertID = alert.ID
		}
	}

	metrics.Global().RecordAssessment(string(assessment.Severity), time.Since(start))
	return result, nil
}

// ensureAlert creates or escalates the user's active alert for this episode.
func (c *Coordinator) ensureAlert(ctx context.Context, a *models.SafetyAssessment, ctype models.CrisisType, resources []models.CrisisResource) (*models.CrisisAlert, error) {
	active, err := models.ActiveAlertsByUser(c.db, a.UserID)
	if err != nil {
		return nil, err
	}

	var alert *models.CrisisAlert
	if len(active) > 0 {
		alert = &active[0]
		unlock := c.lockAlert(alert.ID)
		defer unlock()
		if a.Severity.Rank() > alert.Severity.Rank() {
			alert.Severity = a.Severity
			alert.Indicators = a.Indicators
			if err := models.SaveAlert(c.db, alert); err != nil {
				return nil, err
			}
		}
	} else {
		now := time.Now()
		alert = &models.CrisisAlert{
			ID:         models.NewAlertID(),
			UserID:     a.UserID,
			CoupleID:   a.CoupleID,
			Severity:   a.Severity,
			Type:       ctype,
			Indicators: a.Indicators,
			Status:     models.AlertDetected,
			Plan:       c.planner.BuildPlan(a.Severity, ctype, now, resources),
		}
		unlock := c.lockAlert(alert.ID)
		defer unlock()
		if err := models.SaveAlert(c.db, alert); err != nil {
			return nil, err
		}
		followUps := alert.Plan.FollowUpSchedule
		for i := range followUps {
			followUps[i].AlertID = alert.ID
		}
		if err := models.SaveFollowUps(c.db, followUps); err != nil {
			logger.Warn("failed to persist follow-ups", zap.Error(err), zap.String("alert", alert.ID))
		}
		util.Sig().Emit(models.SigAlertCreated, alert)
	}

	switch {
	case a.Severity == models.SeverityCritical:
		// 关键级在请求返回前同步升级到专业通知
		if err := c.transitionLocked(ctx, alert, models.AlertProfessionalNotified, "", true); err != nil {
			return alert, err
		}
	case a.Severity == models.SeverityHigh, a.RequiresReview:
		// 高风险（或历史趋势要求复核）至少进入 escalated
		if alert.Status == models.AlertDetected {
			if err := c.transitionLocked(ctx, alert, models.AlertEscalated, "", false); err != nil {
				return alert, err
			}
		}
	}
	return alert, nil
}

// transitionLocked advances the alert (caller holds the per-alert lock) and
// handles the notification leg for escalation states.
func (c *Coordinator) transitionLocked(ctx context.Context, alert *models.CrisisAlert, to models.AlertStatus, note string, synchronous bool) error {
	if alert.Status == to {
		return nil
	}
	from := alert.Status
	updated, err := models.TransitionAlert(c.db, alert.ID, to, note)
	if err != nil {
		return err
	}
	*alert = *updated
	metrics.Global().RecordTransition(string(from), string(to))
	util.Sig().Emit(models.SigAlertTransition, alert, string(from), string(to))
	logger.Info("alert transition",
		zap.String("alert", alert.ID),
		zap.String("from", string(from)),
		zap.String("to", string(to)))

	if to == models.AlertEscalated || to == models.AlertProfessionalNotified {
		if synchronous {
			c.dispatchNotification(ctx, alert)
		} else {
			// 通知腿不阻塞用户侧响应
			go c.dispatchNotification(context.Background(), alert)
		}
	}
	return nil
}

// dispatchNotification attempts delivery once; failures leave the alert with
// a pending marker and a queued retry, never a silent success.
func (c *Coordinator) dispatchNotification(ctx context.Context, alert *models.CrisisAlert) {
	payload := notification.Payload{
		AlertID:    alert.ID,
		UserID:     alert.UserID,
		Severity:   string(alert.Severity),
		CrisisType: string(alert.Type),
		Summary:    summarize(alert.Indicators),
		CreatedAt:  alert.CreatedAt,
	}

	err := c.notifier.Notify(ctx, alert.ID, string(alert.Severity), payload)
	if err == nil {
		metrics.Global().RecordDispatch("delivered")
		if alert.PendingNotify {
			alert.PendingNotify = false
			_ = models.SaveAlert(c.db, alert)
		}
		return
	}

	metrics.Global().RecordDispatch("failed")
	logger.Error("notification dispatch failed, queuing retry",
		zap.String("alert", alert.ID), zap.Error(err))

	alert.PendingNotify = true
	if saveErr := models.SaveAlert(c.db, alert); saveErr != nil {
		logger.Error("failed to mark alert pending", zap.Error(saveErr))
	}
	body, _ := json.Marshal(payload)
	if qErr := models.EnqueueDispatch(c.db, &models.NotificationDispatch{
		AlertID:       alert.ID,
		Severity:      alert.Severity,
		Payload:       string(body),
		Attempts:      1,
		LastError:     err.Error(),
		NextAttemptAt: time.Now().Add(dispatchBaseDelay),
	}); qErr != nil {
		logger.Error("failed to enqueue dispatch retry", zap.Error(qErr))
	}
}

// MatchResources exposes resource lookup for the support catalog endpoint.
func (c *Coordinator) MatchResources(ctx context.Context, ctype models.CrisisType, geo string) []models.CrisisResource {
	return c.matcher.Match(ctx, ctype, geo)
}

// GetActiveAlerts lists the user's non-terminal alerts.
func (c *Coordinator) GetActiveAlerts(userID uint) ([]models.CrisisAlert, error) {
	if userID == 0 {
		return nil, errors.WithCode(errors.CodeValidation, "userId is required")
	}
	return models.ActiveAlertsByUser(c.db, userID)
}

// ResolveAlert closes an alert. Terminal alerts reject further transitions.
func (c *Coordinator) ResolveAlert(ctx context.Context, alertID, note string) (*models.CrisisAlert, error) {
	return c.closeAlert(ctx, alertID, models.AlertResolved, note)
}

// TransferAlert hands an alert to an external care provider.
func (c *Coordinator) TransferAlert(ctx context.Context, alertID, note string) (*models.CrisisAlert, error) {
	return c.closeAlert(ctx, alertID, models.AlertTransferred, note)
}

func (c *Coordinator) closeAlert(ctx context.Context, alertID string, to models.AlertStatus, note string) (*models.CrisisAlert, error) {
	if alertID == "" {
		return nil, errors.WithCode(errors.CodeValidation, "alertId is required")
	}
	unlock := c.lockAlert(alertID)
	defer unlock()

	alert, err := models.LoadAlert(c.db, alertID)
	if err != nil {
		return nil, err
	}
	if err := c.transitionLocked(ctx, alert, to, note, false); err != nil {
		return nil, err
	}
	return alert, nil
}

// dominantCrisisType picks the alert's coarse type from the strongest
// indicator.
func dominantCrisisType(indicators []models.RiskIndicator) models.CrisisType {
	best := models.CrisisOther
	bestScore := -1.0
	for _, ind := range indicators {
		score := ind.Confidence + float64(baseSeverity[ind.Category].Rank())
		if score > bestScore {
			bestScore = score
			best = models.CrisisType(ind.Category)
		}
	}
	return best
}

func summarize(indicators []models.RiskIndicator) string {
	if len(indicators) == 0 {
		return "no lexical indicators; escalated by review"
	}
	parts := make([]string, 0, len(indicators))
	for _, ind := range indicators {
		parts = append(parts, string(ind.Category))
	}
	return strings.Join(parts, ", ")
}
