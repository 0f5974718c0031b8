package crisis

import (
	"sync"
	"time"

	"Attune/internal/models"

	lru "github.com/hashicorp/golang-lru/v2"
	"gorm.io/gorm"
)

const (
	historyWindowSize = 50
	historyLookback   = 24 * time.Hour
	patternMinRun     = 3
)

type userWindow struct {
	mu     sync.Mutex
	loaded bool
	items  []models.SafetyAssessment
}

// HistoryTracker keeps a short per-user rolling window of assessments and
// spots escalating trends. Appends for one user are serialized on that
// user's window lock so pattern checks never read a half-updated window.
type HistoryTracker struct {
	db      *gorm.DB
	windows *lru.Cache[uint, *userWindow]
}

func NewHistoryTracker(db *gorm.DB) (*HistoryTracker, error) {
	windows, err := lru.New[uint, *userWindow](1024)
	if err != nil {
		return nil, err
	}
	return &HistoryTracker{db: db, windows: windows}, nil
}

func (t *HistoryTracker) window(userID uint) *userWindow {
	if w, ok := t.windows.Get(userID); ok {
		return w
	}
	w := &userWindow{}
	if prev, ok, _ := t.windows.PeekOrAdd(userID, w); ok {
		return prev
	}
	return w
}

// Append records an assessment into the user's window (and the database) and
// reports whether the window, including this assessment, shows an
// escalating pattern.
func (t *HistoryTracker) Append(a *models.SafetyAssessment) (escalating bool, err error) {
	w := t.window(a.UserID)
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.loaded {
		items, err := models.RecentAssessments(t.db, a.UserID, time.Now().Add(-historyLookback), historyWindowSize)
		if err != nil {
			return false, err
		}
		w.items = items
		w.loaded = true
	}

	if err := models.SaveAssessment(t.db, a); err != nil {
		return false, err
	}

	w.items = append(w.items, *a)
	if len(w.items) > historyWindowSize {
		w.items = w.items[len(w.items)-historyWindowSize:]
	}

	return escalatingPattern(w.items, time.Now()), nil
}

// EnhancedMonitoring reports whether the user recently produced an elevated
// assessment, which widens the deep-analysis gate.
func (t *HistoryTracker) EnhancedMonitoring(userID uint) bool {
	w := t.window(userID)
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, a := range w.items {
		if a.Severity.AtLeast(models.SeverityHigh) {
			return true
		}
	}
	return false
}

// escalatingPattern: the last patternMinRun assessments all fall inside the
// lookback window, severities never decrease across them, and they end above
// none.
func escalatingPattern(items []models.SafetyAssessment, now time.Time) bool {
	if len(items) < patternMinRun {
		return false
	}
	tail := items[len(items)-patternMinRun:]
	cutoff := now.Add(-historyLookback)
	prev := -1
	for _, a := range tail {
		if a.CreatedAt.Before(cutoff) {
			return false
		}
		r := a.Severity.Rank()
		if r < prev {
			return false
		}
		prev = r
	}
	return tail[len(tail)-1].Severity.Rank() > models.SeverityNone.Rank()
}
