package crisis

import (
	"context"
	"fmt"
	"sort"
	"time"

	"Attune/internal/models"
	"Attune/pkg/cache"
	"Attune/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ResourceMatcher ranks support resources for a crisis type and jurisdiction.
// Its output is never empty: the hardcoded national set is always appended
// after specific matches.
type ResourceMatcher struct {
	db    resourceCatalog
	cache cache.Cache
	ttl   time.Duration
}

// resourceCatalog is the read-only catalog boundary.
type resourceCatalog interface {
	Active() ([]models.CrisisResource, error)
}

// GormCatalog serves the catalog from the resource table.
type GormCatalog struct{ DB *gorm.DB }

func (g GormCatalog) Active() ([]models.CrisisResource, error) {
	return models.ActiveResources(g.DB)
}

func NewResourceMatcher(catalog resourceCatalog, c cache.Cache) *ResourceMatcher {
	return &ResourceMatcher{db: catalog, cache: c, ttl: 10 * time.Minute}
}

// Match returns resources ordered most relevant first.
func (m *ResourceMatcher) Match(ctx context.Context, ctype models.CrisisType, geo string) []models.CrisisResource {
	key := fmt.Sprintf("resources:%s:%s", ctype, geo)
	if m.cache != nil {
		if v, ok := m.cache.Get(ctx, key); ok {
			if cached, ok := v.([]models.CrisisResource); ok {
				return cached
			}
		}
	}

	catalog, err := m.db.Active()
	if err != nil {
		logger.Warn("resource catalog unavailable, serving fallback set", zap.Error(err))
		catalog = nil
	}

	type scored struct {
		r     models.CrisisResource
		score float64
	}
	var matches []scored
	for _, r := range catalog {
		s := score(r, ctype, geo)
		if s <= 0 {
			continue
		}
		matches = append(matches, scored{r: r, score: s})
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].score > matches[j].score })

	seen := make(map[string]bool)
	var out []models.CrisisResource
	for _, sc := range matches {
		if !seen[sc.r.ID] {
			seen[sc.r.ID] = true
			out = append(out, sc.r)
		}
	}
	// 兜底资源永远追加在特定匹配之后
	for _, r := range models.NationalFallbackResources() {
		if !seen[r.ID] {
			seen[r.ID] = true
			out = append(out, r)
		}
	}

	if m.cache != nil {
		_ = m.cache.Set(ctx, key, out, m.ttl)
	}
	return out
}

func score(r models.CrisisResource, ctype models.CrisisType, geo string) float64 {
	typeMatch := false
	for _, ct := range r.Targeting.CrisisTypes {
		if ct == ctype {
			typeMatch = true
			break
		}
	}
	geoMatch := false
	global := false
	for _, g := range r.Targeting.Geo {
		if g == "*" {
			global = true
		}
		if geo != "" && g == geo {
			geoMatch = true
		}
	}

	s := 0.0
	if typeMatch {
		s += 2
	}
	if geoMatch {
		s += 1
	} else if !global && geo != "" {
		// 地域明确不符的资源不参与特定匹配
		return 0
	}
	if !typeMatch && !geoMatch && !global {
		return 0
	}
	return s + r.QualityRating/10
}
