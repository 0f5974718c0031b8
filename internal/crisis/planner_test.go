package crisis

import (
	"testing"
	"time"

	"Attune/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildFollowUps(t *testing.T) {
	p := NewPlanner()
	t0 := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	t.Run("high severity cadence", func(t *testing.T) {
		got := p.BuildFollowUps(models.SeverityHigh, t0)
		require.Len(t, got, 3)
		assert.Equal(t, t0.Add(6*time.Hour), got[0].ScheduledAt)
		assert.Equal(t, t0.Add(24*time.Hour), got[1].ScheduledAt)
		assert.Equal(t, t0.Add(7*24*time.Hour), got[2].ScheduledAt)
		for _, f := range got {
			assert.Equal(t, models.FollowUpScheduled, f.Status)
		}
	})

	t.Run("critical first check-in is professional and urgent", func(t *testing.T) {
		got := p.BuildFollowUps(models.SeverityCritical, t0)
		require.Len(t, got, 4)
		assert.Equal(t, t0.Add(time.Hour), got[0].ScheduledAt)
		assert.Equal(t, models.ResponsibleProfessional, got[0].Responsible)
		assert.Equal(t, "urgent", got[0].Priority)
		assert.Equal(t, models.ResponsibleSystem, got[1].Responsible)
	})

	t.Run("none severity has no schedule", func(t *testing.T) {
		assert.Empty(t, p.BuildFollowUps(models.SeverityNone, t0))
	})
}

func TestParseTimeframe(t *testing.T) {
	cases := []struct {
		in   string
		want time.Duration
		ok   bool
	}{
		{"1 hour", time.Hour, true},
		{"6 hours", 6 * time.Hour, true},
		{"24 hours", 24 * time.Hour, true},
		{"3 days", 3 * 24 * time.Hour, true},
		{"1 week", 7 * 24 * time.Hour, true},
		{"2 weeks", 14 * 24 * time.Hour, true},
		{" 6 Hours ", 6 * time.Hour, true},
		{"soon", 0, false},
		{"6", 0, false},
		{"hours", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseTimeframe(tc.in)
		if !tc.ok {
			assert.Error(t, err, tc.in)
			continue
		}
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestBuildPlan(t *testing.T) {
	p := NewPlanner()
	t0 := time.Now()

	t.Run("critical leads with emergency services", func(t *testing.T) {
		plan := p.BuildPlan(models.SeverityCritical, models.CrisisSuicidalIdeation, t0, nil)
		require.NotEmpty(t, plan.ImmediateActions)
		assert.Contains(t, plan.ImmediateActions[0], "emergency services")
	})

	t.Run("domestic violence leads with physical safety", func(t *testing.T) {
		plan := p.BuildPlan(models.SeverityHigh, models.CrisisDomesticViolence, t0, nil)
		require.NotEmpty(t, plan.ImmediateActions)
		assert.Contains(t, plan.ImmediateActions[0], "safe location")
	})

	t.Run("critical domestic violence orders both ahead of generic steps", func(t *testing.T) {
		plan := p.BuildPlan(models.SeverityCritical, models.CrisisDomesticViolence, t0, nil)
		require.GreaterOrEqual(t, len(plan.ImmediateActions), 2)
		assert.Contains(t, plan.ImmediateActions[0], "emergency services")
		assert.Contains(t, plan.ImmediateActions[1], "safe location")
	})

	t.Run("emergency contacts from primary contact methods", func(t *testing.T) {
		resources := models.NationalFallbackResources()
		plan := p.BuildPlan(models.SeverityHigh, models.CrisisSuicidalIdeation, t0, resources)
		require.NotEmpty(t, plan.EmergencyContacts)
		assert.Contains(t, plan.EmergencyContacts[0], "988")
	})

	t.Run("referrals from medium up", func(t *testing.T) {
		low := p.BuildPlan(models.SeverityLow, models.CrisisOther, t0, nil)
		assert.Empty(t, low.ProfessionalReferrals)

		medium := p.BuildPlan(models.SeverityMedium, models.CrisisOther, t0, nil)
		assert.NotEmpty(t, medium.ProfessionalReferrals)
	})

	t.Run("substance abuse adds addiction specialist", func(t *testing.T) {
		plan := p.BuildPlan(models.SeverityHigh, models.CrisisSubstanceAbuse, t0, nil)
		assert.Contains(t, plan.ProfessionalReferrals, "Addiction treatment specialist")
	})

	t.Run("typed safety steps precede generic ones", func(t *testing.T) {
		plan := p.BuildPlan(models.SeverityHigh, models.CrisisDomesticViolence, t0, nil)
		require.NotEmpty(t, plan.SafetyPlanSteps)
		assert.Contains(t, plan.SafetyPlanSteps[0].Title, "safe place")
		generic := p.BuildPlan(models.SeverityLow, models.CrisisOther, t0, nil)
		assert.Len(t, generic.SafetyPlanSteps, len(genericSafetySteps))
	})
}
