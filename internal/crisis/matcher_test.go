package crisis

import (
	"context"
	"errors"
	"testing"

	"Attune/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticCatalog struct {
	resources []models.CrisisResource
	err       error
}

func (s staticCatalog) Active() ([]models.CrisisResource, error) { return s.resources, s.err }

func resourceIDs(resources []models.CrisisResource) []string {
	out := make([]string, 0, len(resources))
	for _, r := range resources {
		out = append(out, r.ID)
	}
	return out
}

func TestResourceMatcher(t *testing.T) {
	ctx := context.Background()

	t.Run("never returns empty", func(t *testing.T) {
		m := NewResourceMatcher(staticCatalog{}, nil)
		got := m.Match(ctx, models.CrisisType("unknown_type"), "ZZ")
		require.NotEmpty(t, got)
	})

	t.Run("catalog failure still serves the fallback set", func(t *testing.T) {
		m := NewResourceMatcher(staticCatalog{err: errors.New("db down")}, nil)
		got := m.Match(ctx, models.CrisisSuicidalIdeation, "US")
		require.NotEmpty(t, got)
		assert.Contains(t, resourceIDs(got), "us-988-lifeline")
	})

	t.Run("specific matches rank before the fallback set", func(t *testing.T) {
		local := models.CrisisResource{
			ID:   "tx-dv-shelter",
			Name: "Texas DV Shelter Network",
			Targeting: models.Targeting{
				Geo:         []string{"US"},
				CrisisTypes: []models.CrisisType{models.CrisisDomesticViolence},
			},
			QualityRating: 8,
			IsActive:      true,
		}
		m := NewResourceMatcher(staticCatalog{resources: []models.CrisisResource{local}}, nil)
		got := m.Match(ctx, models.CrisisDomesticViolence, "US")
		require.NotEmpty(t, got)
		assert.Equal(t, "tx-dv-shelter", got[0].ID)
	})

	t.Run("geo-mismatched resource excluded", func(t *testing.T) {
		foreign := models.CrisisResource{
			ID:   "uk-helpline",
			Name: "UK Helpline",
			Targeting: models.Targeting{
				Geo:         []string{"GB"},
				CrisisTypes: []models.CrisisType{models.CrisisDomesticViolence},
			},
			IsActive: true,
		}
		m := NewResourceMatcher(staticCatalog{resources: []models.CrisisResource{foreign}}, nil)
		got := m.Match(ctx, models.CrisisDomesticViolence, "US")
		assert.NotContains(t, resourceIDs(got), "uk-helpline")
	})

	t.Run("duplicates collapse to one entry", func(t *testing.T) {
		dup := models.NationalFallbackResources()[0]
		m := NewResourceMatcher(staticCatalog{resources: []models.CrisisResource{dup}}, nil)
		got := m.Match(ctx, dup.Targeting.CrisisTypes[0], "US")
		count := 0
		for _, id := range resourceIDs(got) {
			if id == dup.ID {
				count++
			}
		}
		assert.Equal(t, 1, count)
	})
}
