package models

import (
	"database/sql/driver"
	"time"

	"gorm.io/gorm"
)

// IndicatorCategory 风险指标类别
type IndicatorCategory string

const (
	IndicatorSuicidalIdeation IndicatorCategory = "suicidal_ideation"
	IndicatorSelfHarm         IndicatorCategory = "self_harm"
	IndicatorDomesticViolence IndicatorCategory = "domestic_violence"
	IndicatorSubstanceAbuse   IndicatorCategory = "substance_abuse"
	IndicatorSevereDistress   IndicatorCategory = "severe_distress"
	IndicatorOther            IndicatorCategory = "other"
)

// RiskIndicator is one typed signal found in an utterance. Produced fresh per
// assessment, never mutated.
type RiskIndicator struct {
	Category    IndicatorCategory `json:"category"`
	Confidence  float64           `json:"confidence"` // [0,1]
	Description string            `json:"description"`
}

// IndicatorList 以 JSON 存储的指标数组
type IndicatorList []RiskIndicator

func (l IndicatorList) Value() (driver.Value, error) { return valueJSON([]RiskIndicator(l)) }
func (l *IndicatorList) Scan(src any) error          { return scanJSON(l, src) }

// SafetyAssessment records one evaluated utterance. Rows are append-only.
type SafetyAssessment struct {
	ID                            uint          `json:"id" gorm:"primaryKey"`
	UserID                        uint          `json:"userId" gorm:"index:idx_assessment_user_time"`
	CoupleID                      *uint         `json:"coupleId,omitempty"`
	Severity                      Severity      `json:"severity" gorm:"size:16"`
	Indicators                    IndicatorList `json:"indicators" gorm:"type:text"`
	RequiresImmediateIntervention bool          `json:"requiresImmediateIntervention"`
	RequiresReview                bool          `json:"requiresReview"`
	Confidence                    float64       `json:"confidence"`
	CreatedAt                     time.Time     `json:"createdAt" gorm:"index:idx_assessment_user_time;autoCreateTime"`
}

// SaveAssessment 持久化一次评估结果
func SaveAssessment(db *gorm.DB, a *SafetyAssessment) error {
	return db.Create(a).Error
}

// RecentAssessments returns up to limit assessments for a user since the
// cutoff, oldest first.
func RecentAssessments(db *gorm.DB, userID uint, since time.Time, limit int) ([]SafetyAssessment, error) {
	var out []SafetyAssessment
	err := db.Where("user_id = ? AND created_at >= ?", userID, since).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	// 反转为时间正序
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}
