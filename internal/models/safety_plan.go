package models

import (
	"database/sql/driver"
	"time"

	"gorm.io/gorm"
)

// PlanContact 安全计划中的联系人
type PlanContact struct {
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
	Role  string `json:"role,omitempty"` // friend / family / therapist / crisis_line
}

type PlanContactList []PlanContact

func (l PlanContactList) Value() (driver.Value, error) { return valueJSON([]PlanContact(l)) }
func (l *PlanContactList) Scan(src any) error          { return scanJSON(l, src) }

// SafetyPlan is the user's long-lived plan, independent of any single alert.
// It is only ever superseded, never silently deleted.
type SafetyPlan struct {
	ID                   uint            `json:"id" gorm:"primaryKey"`
	UserID               uint            `json:"userId" gorm:"uniqueIndex"`
	WarningSigns         StringList      `json:"warningSigns" gorm:"type:text"`
	CopingStrategies     StringList      `json:"copingStrategies" gorm:"type:text"`
	SupportNetwork       PlanContactList `json:"supportNetwork" gorm:"type:text"`
	ProfessionalContacts PlanContactList `json:"professionalContacts" gorm:"type:text"`
	CrisisContacts       PlanContactList `json:"crisisContacts" gorm:"type:text"`
	ReviewStatus         string          `json:"reviewStatus" gorm:"size:32"` // draft / reviewed / needs_review
	LastUpdated          time.Time       `json:"lastUpdated"`
	CreatedAt            time.Time       `json:"createdAt" gorm:"autoCreateTime"`
}

// GetOrCreateSafetyPlan returns the user's plan, creating a starter plan on
// first use.
func GetOrCreateSafetyPlan(db *gorm.DB, userID uint) (*SafetyPlan, error) {
	var plan SafetyPlan
	err := db.Where("user_id = ?", userID).First(&plan).Error
	if err == nil {
		return &plan, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	plan = SafetyPlan{
		UserID: userID,
		CopingStrategies: StringList{
			"Step away from the situation and breathe slowly for two minutes",
			"Call or text someone from your support network",
		},
		CrisisContacts: PlanContactList{
			{Name: "988 Suicide & Crisis Lifeline", Phone: "988", Role: "crisis_line"},
		},
		ReviewStatus: "draft",
		LastUpdated:  time.Now(),
	}
	if err := db.Create(&plan).Error; err != nil {
		return nil, err
	}
	return &plan, nil
}

// UpdateSafetyPlan supersedes plan content and bumps LastUpdated.
func UpdateSafetyPlan(db *gorm.DB, plan *SafetyPlan) error {
	plan.LastUpdated = time.Now()
	if plan.ReviewStatus == "" {
		plan.ReviewStatus = "needs_review"
	}
	return db.Save(plan).Error
}
