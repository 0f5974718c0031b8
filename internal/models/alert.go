package models

import (
	"database/sql/driver"
	"time"

	"Attune/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// 信号名
const (
	SigAlertCreated    = "alert.created"
	SigAlertTransition = "alert.transition"
)

// CrisisType 危机类别（与指标类别同词表，粒度更粗）
type CrisisType string

const (
	CrisisSuicidalIdeation CrisisType = "suicidal_ideation"
	CrisisSelfHarm         CrisisType = "self_harm"
	CrisisDomesticViolence CrisisType = "domestic_violence"
	CrisisSubstanceAbuse   CrisisType = "substance_abuse"
	CrisisSevereDistress   CrisisType = "severe_distress"
	CrisisOther            CrisisType = "other"
)

// AlertStatus 警报生命周期状态
type AlertStatus string

const (
	AlertDetected             AlertStatus = "detected"
	AlertEscalated            AlertStatus = "escalated"
	AlertProfessionalNotified AlertStatus = "professional_notified"
	AlertResolved             AlertStatus = "resolved"
	AlertTransferred          AlertStatus = "transferred"
)

// Status only ever advances through this ranking; resolved and transferred
// are terminal.
var statusRank = map[AlertStatus]int{
	AlertDetected:             0,
	AlertEscalated:            1,
	AlertProfessionalNotified: 2,
	AlertResolved:             3,
	AlertTransferred:          3,
}

func (s AlertStatus) Terminal() bool {
	return s == AlertResolved || s == AlertTransferred
}

// SafetyPlanItem 安全计划条目
type SafetyPlanItem struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// InterventionPlan is assembled once per alert and embedded in it.
type InterventionPlan struct {
	ImmediateActions      []string         `json:"immediateActions"`
	Resources             []CrisisResource `json:"resources"`
	FollowUpSchedule      []FollowUpAction `json:"followUpSchedule"`
	SafetyPlanSteps       []SafetyPlanItem `json:"safetyPlanSteps"`
	EmergencyContacts     []string         `json:"emergencyContacts"`
	ProfessionalReferrals []string         `json:"professionalReferrals"`
}

func (p InterventionPlan) Value() (driver.Value, error) { return valueJSON(p) }
func (p *InterventionPlan) Scan(src any) error          { return scanJSON(p, src) }

// CrisisAlert is the durable record of one active crisis episode.
type CrisisAlert struct {
	ID                   string           `json:"id" gorm:"primaryKey;size:36"`
	UserID               uint             `json:"userId" gorm:"index"`
	CoupleID             *uint            `json:"coupleId,omitempty"`
	Severity             Severity         `json:"severity" gorm:"size:16"`
	Type                 CrisisType       `json:"type" gorm:"size:32"`
	Indicators           IndicatorList    `json:"indicators" gorm:"type:text"`
	Status               AlertStatus      `json:"status" gorm:"size:32;index"`
	Plan                 InterventionPlan `json:"interventionPlan" gorm:"type:text"`
	ProfessionalContacts StringList       `json:"professionalContacts" gorm:"type:text"`
	PendingNotify        bool             `json:"pendingNotify"` // 通知未送达的挂起标记
	ResolutionNote       string           `json:"resolutionNote,omitempty" gorm:"size:1024"`
	CreatedAt            time.Time        `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt            time.Time        `json:"updatedAt" gorm:"autoUpdateTime"`
}

// NewAlertID 生成警报ID
func NewAlertID() string { return uuid.NewString() }

// SaveAlert 持久化警报
func SaveAlert(db *gorm.DB, a *CrisisAlert) error {
	return db.Save(a).Error
}

// LoadAlert 按ID读取警报
func LoadAlert(db *gorm.DB, id string) (*CrisisAlert, error) {
	var a CrisisAlert
	if err := db.First(&a, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.WithCodef(errors.CodeAlertNotFound, "alert %s not found", id)
		}
		return nil, err
	}
	return &a, nil
}

// ActiveAlertsByUser returns the user's non-terminal alerts, newest first.
func ActiveAlertsByUser(db *gorm.DB, userID uint) ([]CrisisAlert, error) {
	var out []CrisisAlert
	err := db.Where("user_id = ? AND status NOT IN ?", userID,
		[]AlertStatus{AlertResolved, AlertTransferred}).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

// TransitionAlert advances an alert's status inside a row-locked transaction.
// Regressions and transitions out of a terminal state are rejected.
func TransitionAlert(db *gorm.DB, id string, to AlertStatus, note string) (*CrisisAlert, error) {
	var alert CrisisAlert
	err := db.Transaction(func(tx *gorm.DB) error {
		q := tx
		// SQLite 不支持 FOR UPDATE，事务内写入本就串行
		if tx.Dialector.Name() != "sqlite" {
			q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		if err := q.First(&alert, "id = ?", id).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return errors.WithCodef(errors.CodeAlertNotFound, "alert %s not found", id)
			}
			return err
		}
		if alert.Status.Terminal() {
			return errors.WithCodef(errors.CodeInvalidTransition,
				"alert %s already %s", id, alert.Status)
		}
		if statusRank[to] < statusRank[alert.Status] {
			return errors.WithCodef(errors.CodeInvalidTransition,
				"alert %s cannot move %s -> %s", id, alert.Status, to)
		}
		alert.Status = to
		if note != "" {
			alert.ResolutionNote = note
		}
		return tx.Save(&alert).Error
	})
	if err != nil {
		return nil, err
	}
	return &alert, nil
}
