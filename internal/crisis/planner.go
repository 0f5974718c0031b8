package crisis

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"Attune/internal/models"
)

// Planner assembles the intervention plan for a severity/type pair. The
// mapping is deterministic so plans are reproducible and testable.
type Planner struct{}

func NewPlanner() *Planner { return &Planner{} }

var immediateActions = map[models.Severity][]string{
	models.SeverityCritical: {
		"Stay with the person; do not leave them alone",
		"Remove access to anything that could cause harm",
		"Call the crisis line together",
	},
	models.SeverityHigh: {
		"Call a crisis line now",
		"Reach out to a trusted support person",
		"Use the steps in your safety plan",
	},
	models.SeverityMedium: {
		"Check in with a counselor this week",
		"Practice a grounding exercise",
		"Tell someone you trust how you are feeling",
	},
	models.SeverityLow: {
		"Keep a daily mood journal",
		"Schedule time for something restorative",
	},
}

// followUpTable 等级到跟进节奏
var followUpTable = map[models.Severity][]string{
	models.SeverityCritical: {"1 hour", "24 hours", "3 days", "1 week"},
	models.SeverityHigh:     {"6 hours", "24 hours", "1 week"},
	models.SeverityMedium:   {"24 hours", "1 week"},
	models.SeverityLow:      {"1 week"},
}

var safetyPlanTemplates = map[models.CrisisType][]models.SafetyPlanItem{
	models.CrisisDomesticViolence: {
		{Title: "Identify a safe place to go", Description: "A friend's home, a shelter, or any place your partner does not control"},
		{Title: "Pack an emergency bag", Description: "Documents, keys, medication, some cash"},
		{Title: "Agree on a code word", Description: "A word that tells a trusted person to call for help"},
	},
	models.CrisisSuicidalIdeation: {
		{Title: "List your warning signs", Description: "Thoughts or situations that tell you a crisis may be building"},
		{Title: "Write down reasons for living"},
		{Title: "Keep crisis numbers where you can see them"},
	},
}

var genericSafetySteps = []models.SafetyPlanItem{
	{Title: "Name three people you can call"},
	{Title: "List two coping strategies that have helped before"},
}

// BuildPlan assembles the full plan. createdAt anchors every follow-up:
// scheduledAt is exactly createdAt plus the parsed offset.
func (p *Planner) BuildPlan(severity models.Severity, ctype models.CrisisType, createdAt time.Time, resources []models.CrisisResource) models.InterventionPlan {
	actions := buildImmediateActions(severity, ctype)

	plan := models.InterventionPlan{
		ImmediateActions: actions,
		Resources:        resources,
		FollowUpSchedule: p.BuildFollowUps(severity, createdAt),
		SafetyPlanSteps:  buildSafetySteps(ctype),
	}

	for _, r := range resources {
		for _, cm := range r.ContactMethods {
			if cm.IsPrimary {
				plan.EmergencyContacts = append(plan.EmergencyContacts, fmt.Sprintf("%s: %s", r.Name, cm.Value))
				break
			}
		}
	}
	if severity.AtLeast(models.SeverityMedium) {
		plan.ProfessionalReferrals = []string{
			"Licensed couples or family therapist",
			"Crisis counselor",
		}
		if ctype == models.CrisisSubstanceAbuse {
			plan.ProfessionalReferrals = append(plan.ProfessionalReferrals, "Addiction treatment specialist")
		}
	}
	return plan
}

// buildImmediateActions: critical puts contacting emergency services first;
// domestic violence inserts reaching physical safety before the generic steps.
func buildImmediateActions(severity models.Severity, ctype models.CrisisType) []string {
	var out []string
	if severity == models.SeverityCritical {
		out = append(out, "Contact emergency services (call 911) if there is immediate danger")
	}
	if ctype == models.CrisisDomesticViolence {
		out = append(out, "Get to a physically safe location before anything else")
	}
	return append(out, immediateActions[severity]...)
}

func buildSafetySteps(ctype models.CrisisType) []models.SafetyPlanItem {
	if steps, ok := safetyPlanTemplates[ctype]; ok {
		return append(append([]models.SafetyPlanItem{}, steps...), genericSafetySteps...)
	}
	return genericSafetySteps
}

// BuildFollowUps expands the severity's timeframe table into concrete
// scheduled actions.
func (p *Planner) BuildFollowUps(severity models.Severity, createdAt time.Time) []models.FollowUpAction {
	var out []models.FollowUpAction
	for i, frame := range followUpTable[severity] {
		offset, err := ParseTimeframe(frame)
		if err != nil {
			continue
		}
		responsible := models.ResponsibleSystem
		priority := "normal"
		if severity == models.SeverityCritical && i == 0 {
			responsible = models.ResponsibleProfessional
			priority = "urgent"
		}
		out = append(out, models.FollowUpAction{
			RelativeTimeframe: frame,
			ScheduledAt:       createdAt.Add(offset),
			Action:            fmt.Sprintf("Check in with the user (%s after alert)", frame),
			Responsible:       responsible,
			Priority:          priority,
			Status:            models.FollowUpScheduled,
		})
	}
	return out
}

var timeframeRe = regexp.MustCompile(`^(\d+)\s*(hour|hours|day|days|week|weeks)$`)

// ParseTimeframe turns "6 hours" / "3 days" / "1 week" into a duration.
func ParseTimeframe(s string) (time.Duration, error) {
	m := timeframeRe.FindStringSubmatch(strings.ToLower(strings.TrimSpace(s)))
	if m == nil {
		return 0, fmt.Errorf("unrecognized timeframe %q", s)
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, err
	}
	switch {
	case strings.HasPrefix(m[2], "hour"):
		return time.Duration(n) * time.Hour, nil
	case strings.HasPrefix(m[2], "day"):
		return time.Duration(n) * 24 * time.Hour, nil
	default:
		return time.Duration(n) * 7 * 24 * time.Hour, nil
	}
}
