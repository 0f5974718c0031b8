package models

import (
	"time"

	"gorm.io/gorm"
)

// Responsible 跟进责任方
type Responsible string

const (
	ResponsibleUser         Responsible = "user"
	ResponsibleProfessional Responsible = "professional"
	ResponsibleSystem       Responsible = "system"
)

// FollowUpStatus 跟进状态
type FollowUpStatus string

const (
	FollowUpScheduled FollowUpStatus = "scheduled"
	FollowUpDone      FollowUpStatus = "done"
	FollowUpMissed    FollowUpStatus = "missed"
)

const SigFollowUpDue = "followup.due"

// FollowUpAction is one scheduled checkpoint after an alert.
// ScheduledAt is always alert creation time plus the parsed offset.
type FollowUpAction struct {
	ID                uint           `json:"id,omitempty" gorm:"primaryKey"`
	AlertID           string         `json:"alertId" gorm:"index;size:36"`
	RelativeTimeframe string         `json:"relativeTimeframe" gorm:"size:32"` // e.g. "6 hours"
	ScheduledAt       time.Time      `json:"scheduledAt" gorm:"index"`
	Action            string         `json:"action" gorm:"size:512"`
	Responsible       Responsible    `json:"responsible" gorm:"size:16"`
	Priority          string         `json:"priority" gorm:"size:16"`
	Status            FollowUpStatus `json:"status" gorm:"size:16"`
	CreatedAt         time.Time      `json:"createdAt,omitempty" gorm:"autoCreateTime"`
	UpdatedAt         time.Time      `json:"updatedAt,omitempty" gorm:"autoUpdateTime"`
}

// SaveFollowUps 批量写入跟进计划
func SaveFollowUps(db *gorm.DB, actions []FollowUpAction) error {
	if len(actions) == 0 {
		return nil
	}
	return db.Create(&actions).Error
}

// DueFollowUps returns scheduled follow-ups whose time has passed.
func DueFollowUps(db *gorm.DB, now time.Time, limit int) ([]FollowUpAction, error) {
	var out []FollowUpAction
	err := db.Where("status = ? AND scheduled_at <= ?", FollowUpScheduled, now).
		Order("scheduled_at").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// MarkFollowUp updates one follow-up's status.
func MarkFollowUp(db *gorm.DB, id uint, status FollowUpStatus) error {
	return db.Model(&FollowUpAction{}).Where("id = ?", id).
		Update("status", status).Error
}
