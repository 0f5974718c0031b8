package crisis

import (
	"context"
	"errors"
	"testing"
	"time"

	"Attune/internal/models"

	"github.com/stretchr/testify/assert"
)

type stubAnalyzer struct {
	reply string
	err   error
	delay time.Duration
}

func (s *stubAnalyzer) Analyze(ctx context.Context, text, contextTag string) (string, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return s.reply, s.err
}

func (s *stubAnalyzer) Reset() {}

func TestShouldInvoke(t *testing.T) {
	g := NewAnalysisGateway(&stubAnalyzer{}, time.Second)

	t.Run("elevated rule severity invokes", func(t *testing.T) {
		assert.True(t, g.ShouldInvoke(models.SeverityMedium, ContextGeneral, 10, false))
	})

	t.Run("crisis context invokes", func(t *testing.T) {
		assert.True(t, g.ShouldInvoke(models.SeverityNone, ContextCrisis, 10, false))
	})

	t.Run("long text invokes", func(t *testing.T) {
		assert.True(t, g.ShouldInvoke(models.SeverityNone, ContextGeneral, 400, false))
	})

	t.Run("enhanced monitoring invokes", func(t *testing.T) {
		assert.True(t, g.ShouldInvoke(models.SeverityNone, ContextGeneral, 10, true))
	})

	t.Run("short benign text skips", func(t *testing.T) {
		assert.False(t, g.ShouldInvoke(models.SeverityLow, ContextGeneral, 10, false))
	})

	t.Run("nil provider never invokes", func(t *testing.T) {
		none := NewAnalysisGateway(nil, time.Second)
		assert.False(t, none.ShouldInvoke(models.SeverityCritical, ContextCrisis, 400, true))
	})
}

func TestAnalyze(t *testing.T) {
	t.Run("timeout degrades to no opinion", func(t *testing.T) {
		g := NewAnalysisGateway(&stubAnalyzer{reply: "high risk", delay: time.Second}, 30*time.Millisecond)
		start := time.Now()
		got := g.Analyze(context.Background(), "some text", ContextGeneral)
		assert.False(t, got.Valid)
		assert.Less(t, time.Since(start), 500*time.Millisecond)
	})

	t.Run("provider error degrades to no opinion", func(t *testing.T) {
		g := NewAnalysisGateway(&stubAnalyzer{err: errors.New("upstream boom")}, time.Second)
		got := g.Analyze(context.Background(), "some text", ContextGeneral)
		assert.False(t, got.Valid)
	})

	t.Run("opinion parsed from prose", func(t *testing.T) {
		g := NewAnalysisGateway(&stubAnalyzer{
			reply: "Severity level: high. Recommend connecting with a professional and a follow up call.",
		}, time.Second)
		got := g.Analyze(context.Background(), "some text", ContextGeneral)
		assert.True(t, got.Valid)
		assert.Equal(t, models.SeverityHigh, got.Severity)
		assert.Contains(t, got.RecommendedActions, "Connect with a mental health professional")
		assert.Contains(t, got.RecommendedActions, "Schedule a follow-up check-in")
	})
}

func TestParseOpinion(t *testing.T) {
	t.Run("highest mentioned level wins", func(t *testing.T) {
		got := parseOpinion("Not just moderate concern, this reads as critical.")
		assert.True(t, got.Valid)
		assert.Equal(t, models.SeverityCritical, got.Severity)
	})

	t.Run("legacy vocabulary understood", func(t *testing.T) {
		got := parseOpinion("Overall this is a caution situation.")
		assert.True(t, got.Valid)
		assert.Equal(t, models.SeverityLow, got.Severity)
	})

	t.Run("no recognizable level means no opinion", func(t *testing.T) {
		got := parseOpinion("The user seems to be describing their day.")
		assert.False(t, got.Valid)
	})

	t.Run("uncertainty flags review", func(t *testing.T) {
		got := parseOpinion("Low risk but I am uncertain about the context.")
		assert.True(t, got.RequiresReview)
	})
}
