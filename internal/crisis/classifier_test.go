package crisis

import (
	"testing"

	"Attune/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestRuleSeverity(t *testing.T) {
	c := NewClassifier()

	t.Run("no indicators means none", func(t *testing.T) {
		assert.Equal(t, models.SeverityNone, c.RuleSeverity(nil, ContextGeneral))
	})

	t.Run("maximum of category table", func(t *testing.T) {
		got := c.RuleSeverity([]models.RiskIndicator{
			{Category: models.IndicatorSevereDistress, Confidence: 0.6},
			{Category: models.IndicatorSelfHarm, Confidence: 0.8},
		}, ContextGeneral)
		assert.Equal(t, models.SeverityHigh, got)
	})

	t.Run("crisis context escalates any indicator to critical", func(t *testing.T) {
		got := c.RuleSeverity([]models.RiskIndicator{
			{Category: models.IndicatorSevereDistress, Confidence: 0.5},
		}, ContextCrisis)
		assert.Equal(t, models.SeverityCritical, got)
	})

	t.Run("crisis context without indicators stays none", func(t *testing.T) {
		assert.Equal(t, models.SeverityNone, c.RuleSeverity(nil, ContextCrisis))
	})
}

func TestClassify(t *testing.T) {
	c := NewClassifier()

	t.Run("clean input", func(t *testing.T) {
		got := c.Classify(nil, nil, ContextGeneral)
		assert.Equal(t, models.SeverityNone, got.Severity)
		assert.False(t, got.RequiresImmediateIntervention)
		assert.False(t, got.RequiresReview)
		assert.InDelta(t, 0.9, got.Confidence, 0.001)
	})

	t.Run("critical requires immediate intervention", func(t *testing.T) {
		got := c.Classify([]models.RiskIndicator{
			{Category: models.IndicatorSuicidalIdeation, Confidence: 0.95},
		}, nil, ContextGeneral)
		assert.Equal(t, models.SeverityCritical, got.Severity)
		assert.True(t, got.RequiresImmediateIntervention)
		assert.InDelta(t, 0.95, got.Confidence, 0.001)
	})

	t.Run("opinion can raise severity", func(t *testing.T) {
		got := c.Classify([]models.RiskIndicator{
			{Category: models.IndicatorSevereDistress, Confidence: 0.6},
		}, &DeepOpinion{Valid: true, Severity: models.SeverityHigh}, ContextGeneral)
		assert.Equal(t, models.SeverityHigh, got.Severity)
	})

	t.Run("opinion never lowers severity", func(t *testing.T) {
		got := c.Classify([]models.RiskIndicator{
			{Category: models.IndicatorSuicidalIdeation, Confidence: 0.95},
		}, &DeepOpinion{Valid: true, Severity: models.SeverityLow}, ContextGeneral)
		assert.Equal(t, models.SeverityCritical, got.Severity)
	})

	t.Run("invalid opinion is ignored", func(t *testing.T) {
		got := c.Classify(nil, &DeepOpinion{Valid: false, Severity: models.SeverityCritical}, ContextGeneral)
		assert.Equal(t, models.SeverityNone, got.Severity)
	})

	t.Run("opinion review flag carries through", func(t *testing.T) {
		got := c.Classify(nil, &DeepOpinion{Valid: true, Severity: models.SeverityLow, RequiresReview: true}, ContextGeneral)
		assert.True(t, got.RequiresReview)
	})
}

func TestFailSafeAssessment(t *testing.T) {
	got := FailSafeAssessment()
	assert.Equal(t, models.SeverityMedium, got.Severity)
	assert.True(t, got.RequiresReview)
	assert.InDelta(t, 0.1, got.Confidence, 0.001)
	assert.False(t, got.RequiresImmediateIntervention)
}
