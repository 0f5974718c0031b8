package models

import (
	"database/sql/driver"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ContactMethod 资源联系方式
type ContactMethod struct {
	Type      string `json:"type"` // phone / text / chat / web
	Value     string `json:"value"`
	IsPrimary bool   `json:"isPrimary"`
}

type ContactMethodList []ContactMethod

func (l ContactMethodList) Value() (driver.Value, error) { return valueJSON([]ContactMethod(l)) }
func (l *ContactMethodList) Scan(src any) error          { return scanJSON(l, src) }

// Availability 可用时段与语言
type Availability struct {
	Hours     string   `json:"hours"` // e.g. "24/7"
	Languages []string `json:"languages"`
}

func (a Availability) Value() (driver.Value, error) { return valueJSON(a) }
func (a *Availability) Scan(src any) error          { return scanJSON(a, src) }

// Targeting 资源适用范围
type Targeting struct {
	Geo         []string     `json:"geo"` // ISO country codes; "*" 表示全球
	Demographic string       `json:"demographic,omitempty"`
	CrisisTypes []CrisisType `json:"crisisTypes"`
}

func (t Targeting) Value() (driver.Value, error) { return valueJSON(t) }
func (t *Targeting) Scan(src any) error          { return scanJSON(t, src) }

// CrisisResource 外部支援资源（只读参考数据，外部维护版本）
type CrisisResource struct {
	ID                 string            `json:"id" gorm:"primaryKey;size:64"`
	Name               string            `json:"name" gorm:"size:255"`
	Type               string            `json:"type" gorm:"size:32"` // hotline / text_line / shelter / clinic
	ContactMethods     ContactMethodList `json:"contactMethods" gorm:"type:text"`
	Availability       Availability      `json:"availability" gorm:"type:text"`
	Targeting          Targeting         `json:"targeting" gorm:"type:text"`
	QualityRating      float64           `json:"qualityRating"`
	VerificationStatus string            `json:"verificationStatus" gorm:"size:32"`
	IsActive           bool              `json:"isActive"`
	UpdatedAt          time.Time         `json:"updatedAt" gorm:"autoUpdateTime"`
}

// ActiveResources 读取全部可用资源（目录很小，过滤在内存进行）
func ActiveResources(db *gorm.DB) ([]CrisisResource, error) {
	var out []CrisisResource
	err := db.Where("is_active = ?", true).Order("quality_rating DESC").Find(&out).Error
	return out, err
}

// NationalFallbackResources is the hardcoded national/global set appended to
// every match result so no caller ever receives an empty list.
func NationalFallbackResources() []CrisisResource {
	return []CrisisResource{
		{
			ID:   "us-988-lifeline",
			Name: "988 Suicide & Crisis Lifeline",
			Type: "hotline",
			ContactMethods: ContactMethodList{
				{Type: "phone", Value: "988", IsPrimary: true},
				{Type: "chat", Value: "https://988lifeline.org/chat", IsPrimary: false},
			},
			Availability:       Availability{Hours: "24/7", Languages: []string{"en", "es"}},
			Targeting:          Targeting{Geo: []string{"US"}, CrisisTypes: []CrisisType{CrisisSuicidalIdeation, CrisisSelfHarm, CrisisSevereDistress}},
			QualityRating:      9.8,
			VerificationStatus: "verified",
			IsActive:           true,
		},
		{
			ID:   "crisis-text-line",
			Name: "Crisis Text Line",
			Type: "text_line",
			ContactMethods: ContactMethodList{
				{Type: "text", Value: "HOME to 741741", IsPrimary: true},
			},
			Availability:       Availability{Hours: "24/7", Languages: []string{"en", "es"}},
			Targeting:          Targeting{Geo: []string{"US", "CA", "GB", "IE"}, CrisisTypes: []CrisisType{CrisisSuicidalIdeation, CrisisSelfHarm, CrisisSevereDistress, CrisisSubstanceAbuse}},
			QualityRating:      9.5,
			VerificationStatus: "verified",
			IsActive:           true,
		},
		{
			ID:   "us-ndvh",
			Name: "National Domestic Violence Hotline",
			Type: "hotline",
			ContactMethods: ContactMethodList{
				{Type: "phone", Value: "1-800-799-7233", IsPrimary: true},
				{Type: "text", Value: "START to 88788", IsPrimary: false},
			},
			Availability:       Availability{Hours: "24/7", Languages: []string{"en", "es"}},
			Targeting:          Targeting{Geo: []string{"US"}, CrisisTypes: []CrisisType{CrisisDomesticViolence}},
			QualityRating:      9.6,
			VerificationStatus: "verified",
			IsActive:           true,
		},
		{
			ID:   "us-samhsa",
			Name: "SAMHSA National Helpline",
			Type: "hotline",
			ContactMethods: ContactMethodList{
				{Type: "phone", Value: "1-800-662-4357", IsPrimary: true},
			},
			Availability:       Availability{Hours: "24/7", Languages: []string{"en", "es"}},
			Targeting:          Targeting{Geo: []string{"US"}, CrisisTypes: []CrisisType{CrisisSubstanceAbuse}},
			QualityRating:      9.2,
			VerificationStatus: "verified",
			IsActive:           true,
		},
		{
			ID:   "iasp-centres",
			Name: "IASP Crisis Centres Directory",
			Type: "web",
			ContactMethods: ContactMethodList{
				{Type: "web", Value: "https://www.iasp.info/resources/Crisis_Centres", IsPrimary: true},
			},
			Availability:       Availability{Hours: "24/7", Languages: []string{"en"}},
			Targeting:          Targeting{Geo: []string{"*"}, CrisisTypes: []CrisisType{CrisisSuicidalIdeation, CrisisSelfHarm, CrisisDomesticViolence, CrisisSubstanceAbuse, CrisisSevereDistress, CrisisOther}},
			QualityRating:      8.5,
			VerificationStatus: "verified",
			IsActive:           true,
		},
	}
}

// SeedNationalResources upserts the fallback set so a fresh database always
// has a usable catalog.
func SeedNationalResources(db *gorm.DB) error {
	for _, r := range NationalFallbackResources() {
		if err := db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&r).Error; err != nil {
			return err
		}
	}
	return nil
}
