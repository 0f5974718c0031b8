package crisis

import (
	"context"
	"strings"
	"time"

	"Attune/internal/models"
	"Attune/pkg/llm"
	"Attune/pkg/logger"
	"Attune/pkg/metrics"

	"go.uber.org/zap"
)

// DeepOpinion is the gateway's independent read on an utterance. Valid=false
// means "no opinion", and the rule-based result stands alone.
type DeepOpinion struct {
	Valid              bool
	Severity           models.Severity
	Reasoning          string
	RecommendedActions []string
	RequiresReview     bool
}

// AnalysisSystemPrompt is handed to the LLM provider as its system role.
const AnalysisSystemPrompt = `You are a clinical triage assistant reviewing a single message from a relationship-wellness app user. Assess crisis risk. State a severity level (none, low, medium, high, or critical), explain briefly, and recommend next steps.`

// AnalysisGateway wraps the slow external analysis call. The keyword-level
// parsing of the model's free text is intentionally coarse: the contract only
// needs a directional escalation signal, and keeping it a substring check
// here means a structured-output provider can replace it without touching the
// coordinator.
type AnalysisGateway struct {
	provider  llm.Analyzer
	timeout   time.Duration
	minLength int
}

func NewAnalysisGateway(provider llm.Analyzer, timeout time.Duration) *AnalysisGateway {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &AnalysisGateway{provider: provider, timeout: timeout, minLength: 280}
}

// ShouldInvoke gates the expensive call: only ambiguous or already-elevated
// cases go out to the provider.
func (g *AnalysisGateway) ShouldInvoke(ruleSeverity models.Severity, tag ContextTag, textLen int, enhancedMonitoring bool) bool {
	if g == nil || g.provider == nil {
		return false
	}
	if ruleSeverity.AtLeast(models.SeverityMedium) {
		return true
	}
	if tag == ContextCrisis {
		return true
	}
	if textLen > g.minLength {
		return true
	}
	return enhancedMonitoring
}

// Analyze runs one bounded call. Timeouts and provider errors degrade to "no
// opinion"; they never block past the deadline and never downgrade a case.
func (g *AnalysisGateway) Analyze(ctx context.Context, text string, tag ContextTag) DeepOpinion {
	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	raw, err := g.provider.Analyze(callCtx, text, string(tag))
	if err != nil {
		outcome := "error"
		if callCtx.Err() == context.DeadlineExceeded {
			outcome = "timeout"
		}
		metrics.Global().RecordAnalysis(outcome)
		logger.Warn("deep analysis unavailable", zap.String("outcome", outcome), zap.Error(err))
		return DeepOpinion{}
	}
	metrics.Global().RecordAnalysis("ok")
	return parseOpinion(raw)
}

// parseOpinion extracts a severity and recommended actions from free text via
// keyword presence. Both historical severity vocabularies are understood; the
// highest level mentioned wins.
func parseOpinion(raw string) DeepOpinion {
	lowered := strings.ToLower(raw)

	severity := models.SeverityNone
	found := false
	for _, word := range []string{"critical", "crisis", "high", "concern", "moderate", "medium", "caution", "low", "safe", "none"} {
		if strings.Contains(lowered, word) {
			if parsed, ok := models.ParseSeverity(word); ok {
				severity = models.MaxSeverity(severity, parsed)
				found = true
			}
		}
	}
	if !found {
		// 模型没有给出可识别的等级，视为无意见
		return DeepOpinion{}
	}

	var actions []string
	for keyword, action := range map[string]string{
		"emergency":    "Contact emergency services",
		"safety plan":  "Review the safety plan together",
		"professional": "Connect with a mental health professional",
		"follow up":    "Schedule a follow-up check-in",
		"follow-up":    "Schedule a follow-up check-in",
	} {
		if strings.Contains(lowered, keyword) {
			actions = appendUnique(actions, action)
		}
	}

	return DeepOpinion{
		Valid:              true,
		Severity:           severity,
		Reasoning:          strings.TrimSpace(raw),
		RecommendedActions: actions,
		RequiresReview:     strings.Contains(lowered, "review") || strings.Contains(lowered, "uncertain"),
	}
}

func appendUnique(list []string, s string) []string {
	for _, have := range list {
		if have == s {
			return list
		}
	}
	return append(list, s)
}
