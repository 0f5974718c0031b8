package crisis

import (
	"time"

	"Attune/internal/models"
	"Attune/pkg/logger"

	"go.uber.org/zap"
)

// 类别到基础等级的查表
var baseSeverity = map[models.IndicatorCategory]models.Severity{
	models.IndicatorSuicidalIdeation: models.SeverityCritical,
	models.IndicatorSelfHarm:         models.SeverityHigh,
	models.IndicatorDomesticViolence: models.SeverityHigh,
	models.IndicatorSubstanceAbuse:   models.SeverityMedium,
	models.IndicatorSevereDistress:   models.SeverityMedium,
	models.IndicatorOther:            models.SeverityLow,
}

// Classifier reduces indicators (plus an optional deep-analysis opinion) to
// one severity level. It never surfaces an internal failure: if anything goes
// wrong it fails closed to a cautious medium assessment flagged for review.
type Classifier struct{}

func NewClassifier() *Classifier { return &Classifier{} }

// RuleSeverity is the rule-based baseline before any deep analysis: the
// maximum of the per-category table, with a critical override when the
// context is already a crisis flow and any indicator is present.
func (c *Classifier) RuleSeverity(indicators []models.RiskIndicator, tag ContextTag) models.Severity {
	severity := models.SeverityNone
	for _, ind := range indicators {
		severity = models.MaxSeverity(severity, baseSeverity[ind.Category])
	}
	if tag == ContextCrisis && len(indicators) > 0 {
		severity = models.SeverityCritical
	}
	return severity
}

// Classify builds the assessment. The deep-analysis opinion can only raise
// severity, never lower it.
func (c *Classifier) Classify(indicators []models.RiskIndicator, opinion *DeepOpinion, tag ContextTag) (out models.SafetyAssessment) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("classifier failure, failing closed", zap.Any("panic", r))
			out = FailSafeAssessment()
		}
	}()

	severity := c.RuleSeverity(indicators, tag)
	confidence := 0.9 // 无指标时对 "none" 的默认置信度
	if len(indicators) > 0 {
		confidence = 0
		for _, ind := range indicators {
			if ind.Confidence > confidence {
				confidence = ind.Confidence
			}
		}
	}

	requiresReview := false
	if opinion != nil && opinion.Valid {
		// 深度分析只抬高、不平均
		severity = models.MaxSeverity(severity, opinion.Severity)
		if opinion.RequiresReview {
			requiresReview = true
		}
	}

	return models.SafetyAssessment{
		Severity:                      severity,
		Indicators:                    indicators,
		RequiresImmediateIntervention: severity == models.SeverityCritical,
		RequiresReview:                requiresReview,
		Confidence:                    confidence,
		CreatedAt:                     time.Now(),
	}
}

// FailSafeAssessment is the fail-closed default: medium severity, minimal
// confidence, flagged for human review. This contract keeps an internal
// detection failure from ever reading as "no risk".
func FailSafeAssessment() models.SafetyAssessment {
	return models.SafetyAssessment{
		Severity:       models.SeverityMedium,
		RequiresReview: true,
		Confidence:     0.1,
		CreatedAt:      time.Now(),
	}
}
