package crisis

import (
	"testing"

	"Attune/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func indicatorFor(indicators []models.RiskIndicator, category models.IndicatorCategory) *models.RiskIndicator {
	for i := range indicators {
		if indicators[i].Category == category {
			return &indicators[i]
		}
	}
	return nil
}

func TestExtractor(t *testing.T) {
	e := NewExtractor()

	t.Run("empty input yields nothing", func(t *testing.T) {
		assert.Nil(t, e.Extract("", ContextGeneral))
		assert.Nil(t, e.Extract("   \n\t ", ContextCrisis))
	})

	t.Run("neutral text yields nothing", func(t *testing.T) {
		got := e.Extract("We had a nice dinner and talked about the weekend", ContextGeneral)
		assert.Empty(t, got)
	})

	t.Run("suicidal phrase", func(t *testing.T) {
		got := e.Extract("Sometimes I just want to die", ContextGeneral)
		ind := indicatorFor(got, models.IndicatorSuicidalIdeation)
		require.NotNil(t, ind)
		assert.InDelta(t, 0.95, ind.Confidence, 0.001)
		assert.Contains(t, ind.Description, "want to die")
	})

	t.Run("matching is case-insensitive", func(t *testing.T) {
		got := e.Extract("I WANT TO DIE", ContextGeneral)
		require.NotNil(t, indicatorFor(got, models.IndicatorSuicidalIdeation))
	})

	t.Run("multiple phrases raise confidence", func(t *testing.T) {
		one := e.Extract("I want to die", ContextGeneral)
		two := e.Extract("I want to die, I could just kill myself", ContextGeneral)
		a := indicatorFor(one, models.IndicatorSuicidalIdeation)
		b := indicatorFor(two, models.IndicatorSuicidalIdeation)
		require.NotNil(t, a)
		require.NotNil(t, b)
		assert.Greater(t, b.Confidence, a.Confidence)
		assert.LessOrEqual(t, b.Confidence, 0.99)
	})

	t.Run("distinct categories extracted independently", func(t *testing.T) {
		got := e.Extract("He hit me again and I feel completely hopeless", ContextGeneral)
		assert.NotNil(t, indicatorFor(got, models.IndicatorDomesticViolence))
		assert.NotNil(t, indicatorFor(got, models.IndicatorSevereDistress))
	})
}
