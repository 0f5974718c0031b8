package crisis

import (
	"fmt"
	"strings"

	"Attune/internal/models"
)

// ContextTag marks where an utterance came from.
type ContextTag string

const (
	ContextCrisis     ContextTag = "crisis"
	ContextAssessment ContextTag = "assessment"
	ContextGeneral    ContextTag = "general"
)

type lexEntry struct {
	phrase string
	weight float64
}

// 词表按类别分组，权重即词面匹配强度
var lexicon = map[models.IndicatorCategory][]lexEntry{
	models.IndicatorSuicidalIdeation: {
		{"kill myself", 0.95},
		{"want to die", 0.95},
		{"end my life", 0.9},
		{"suicide", 0.85},
		{"suicidal", 0.85},
		{"better off dead", 0.8},
		{"no reason to live", 0.8},
		{"end it all", 0.7},
	},
	models.IndicatorSelfHarm: {
		{"cut myself", 0.85},
		{"hurt myself", 0.8},
		{"self-harm", 0.8},
		{"self harm", 0.8},
		{"burn myself", 0.8},
		{"cutting again", 0.7},
	},
	models.IndicatorDomesticViolence: {
		{"threatened to kill", 0.9},
		{"hits me", 0.85},
		{"hit me", 0.8},
		{"afraid of my partner", 0.8},
		{"scared of my partner", 0.8},
		{"not safe at home", 0.8},
		{"abusive", 0.7},
		{"controls everything i do", 0.6},
	},
	models.IndicatorSubstanceAbuse: {
		{"overdose", 0.85},
		{"can't stop drinking", 0.75},
		{"cant stop drinking", 0.75},
		{"blackout drunk", 0.7},
		{"relapse", 0.65},
		{"using again", 0.55},
	},
	models.IndicatorSevereDistress: {
		{"can't go on", 0.75},
		{"cant go on", 0.75},
		{"completely hopeless", 0.7},
		{"hopeless", 0.6},
		{"unbearable", 0.6},
		{"falling apart", 0.55},
		{"panic attack", 0.5},
	},
}

// Extractor scans an utterance for typed risk indicators. It is a pure
// function of its input: garbled or empty text yields an empty list, never an
// error.
type Extractor struct{}

func NewExtractor() *Extractor { return &Extractor{} }

// Extract returns zero or more indicators. Confidence is the strongest
// matched phrase weight for the category, nudged up when several distinct
// phrases hit, capped below 1.
func (e *Extractor) Extract(text string, _ ContextTag) []models.RiskIndicator {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	lowered := strings.ToLower(text)

	var out []models.RiskIndicator
	for category, entries := range lexicon {
		best := 0.0
		hits := 0
		first := ""
		for _, entry := range entries {
			if strings.Contains(lowered, entry.phrase) {
				hits++
				if entry.weight > best {
					best = entry.weight
					first = entry.phrase
				}
			}
		}
		if hits == 0 {
			continue
		}
		confidence := best + 0.02*float64(hits-1)
		if confidence > 0.99 {
			confidence = 0.99
		}
		out = append(out, models.RiskIndicator{
			Category:    category,
			Confidence:  confidence,
			Description: fmt.Sprintf("lexical match on %q", first),
		})
	}
	return out
}
