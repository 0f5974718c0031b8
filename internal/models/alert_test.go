package models

import (
	"testing"
	"time"

	"Attune/pkg/errors"
	"Attune/pkg/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := util.InitDatabase("", ":memory:")
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, AutoMigrate(db))
	return db
}

func seedAlert(t *testing.T, db *gorm.DB, status AlertStatus) *CrisisAlert {
	t.Helper()
	a := &CrisisAlert{
		ID:       NewAlertID(),
		UserID:   1,
		Severity: SeverityHigh,
		Type:     CrisisSelfHarm,
		Status:   status,
	}
	require.NoError(t, SaveAlert(db, a))
	return a
}

func TestTransitionAlert(t *testing.T) {
	db := newTestDB(t)

	t.Run("forward transition succeeds", func(t *testing.T) {
		a := seedAlert(t, db, AlertDetected)
		got, err := TransitionAlert(db, a.ID, AlertEscalated, "")
		require.NoError(t, err)
		assert.Equal(t, AlertEscalated, got.Status)
	})

	t.Run("skipping a stage is allowed forward", func(t *testing.T) {
		a := seedAlert(t, db, AlertDetected)
		got, err := TransitionAlert(db, a.ID, AlertProfessionalNotified, "")
		require.NoError(t, err)
		assert.Equal(t, AlertProfessionalNotified, got.Status)
	})

	t.Run("regression rejected", func(t *testing.T) {
		a := seedAlert(t, db, AlertProfessionalNotified)
		_, err := TransitionAlert(db, a.ID, AlertEscalated, "")
		require.Error(t, err)
		assert.Equal(t, errors.CodeInvalidTransition, errors.GetCode(err))
	})

	t.Run("terminal state rejects any transition", func(t *testing.T) {
		a := seedAlert(t, db, AlertResolved)
		_, err := TransitionAlert(db, a.ID, AlertTransferred, "")
		require.Error(t, err)
		assert.Equal(t, errors.CodeInvalidTransition, errors.GetCode(err))
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := TransitionAlert(db, NewAlertID(), AlertEscalated, "")
		require.Error(t, err)
		assert.Equal(t, errors.CodeAlertNotFound, errors.GetCode(err))
	})

	t.Run("note recorded on close", func(t *testing.T) {
		a := seedAlert(t, db, AlertEscalated)
		got, err := TransitionAlert(db, a.ID, AlertResolved, "handed off to therapist")
		require.NoError(t, err)
		assert.Equal(t, "handed off to therapist", got.ResolutionNote)
	})
}

func TestActiveAlertsByUser(t *testing.T) {
	db := newTestDB(t)

	open := seedAlert(t, db, AlertEscalated)
	seedAlert(t, db, AlertResolved)
	seedAlert(t, db, AlertTransferred)

	got, err := ActiveAlertsByUser(db, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, open.ID, got[0].ID)
}

func TestSafetyPlanLifecycle(t *testing.T) {
	db := newTestDB(t)

	first, err := GetOrCreateSafetyPlan(db, 42)
	require.NoError(t, err)
	assert.Equal(t, "draft", first.ReviewStatus)
	assert.NotEmpty(t, first.CopingStrategies)
	require.NotEmpty(t, first.CrisisContacts)
	assert.Equal(t, "988", first.CrisisContacts[0].Phone)

	// 第二次取回同一份
	again, err := GetOrCreateSafetyPlan(db, 42)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)

	before := again.LastUpdated
	time.Sleep(10 * time.Millisecond)
	again.WarningSigns = StringList{"withdrawing from friends"}
	again.ReviewStatus = ""
	require.NoError(t, UpdateSafetyPlan(db, again))
	assert.Equal(t, "needs_review", again.ReviewStatus)
	assert.True(t, again.LastUpdated.After(before))

	reloaded, err := GetOrCreateSafetyPlan(db, 42)
	require.NoError(t, err)
	assert.Equal(t, StringList{"withdrawing from friends"}, reloaded.WarningSigns)
}

func TestSeedNationalResources(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, SeedNationalResources(db))
	// 重复播种是幂等的
	require.NoError(t, SeedNationalResources(db))

	got, err := ActiveResources(db)
	require.NoError(t, err)
	assert.Len(t, got, len(NationalFallbackResources()))
}

func TestDueFollowUps(t *testing.T) {
	db := newTestDB(t)
	now := time.Now()

	actions := []FollowUpAction{
		{AlertID: "a", ScheduledAt: now.Add(-time.Hour), Action: "check in", Responsible: ResponsibleSystem, Status: FollowUpScheduled},
		{AlertID: "a", ScheduledAt: now.Add(time.Hour), Action: "check in later", Responsible: ResponsibleSystem, Status: FollowUpScheduled},
	}
	require.NoError(t, SaveFollowUps(db, actions))

	due, err := DueFollowUps(db, now, 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "check in", due[0].Action)

	require.NoError(t, MarkFollowUp(db, due[0].ID, FollowUpDone))
	due, err = DueFollowUps(db, now, 10)
	require.NoError(t, err)
	assert.Empty(t, due)
}
