package models

import (
	"time"

	"gorm.io/gorm"
)

// DispatchStatus 通知投递状态
type DispatchStatus string

const (
	DispatchPending     DispatchStatus = "pending"
	DispatchDelivered   DispatchStatus = "delivered"
	DispatchManualQueue DispatchStatus = "manual_queue" // 重试耗尽，转人工处理
)

// NotificationDispatch is one professional-notification leg. Legs are retried
// to at-least-once completion by the dispatch worker; they are never dropped.
type NotificationDispatch struct {
	ID            uint           `json:"id" gorm:"primaryKey"`
	AlertID       string         `json:"alertId" gorm:"index;size:36"`
	Severity      Severity       `json:"severity" gorm:"size:16"`
	Payload       string         `json:"payload" gorm:"type:text"`
	Status        DispatchStatus `json:"status" gorm:"size:16;index:idx_dispatch_due"`
	Attempts      int            `json:"attempts"`
	NextAttemptAt time.Time      `json:"nextAttemptAt" gorm:"index:idx_dispatch_due"`
	LastError     string         `json:"lastError,omitempty" gorm:"size:1024"`
	CreatedAt     time.Time      `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt     time.Time      `json:"updatedAt" gorm:"autoUpdateTime"`
}

// EnqueueDispatch 登记一条待投递通知
func EnqueueDispatch(db *gorm.DB, d *NotificationDispatch) error {
	d.Status = DispatchPending
	if d.NextAttemptAt.IsZero() {
		d.NextAttemptAt = time.Now()
	}
	return db.Create(d).Error
}

// DuePendingDispatches returns pending legs whose next attempt time has come.
func DuePendingDispatches(db *gorm.DB, now time.Time, limit int) ([]NotificationDispatch, error) {
	var out []NotificationDispatch
	err := db.Where("status = ? AND next_attempt_at <= ?", DispatchPending, now).
		Order("next_attempt_at").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// CountPendingDispatches 待投递数量（指标用）
func CountPendingDispatches(db *gorm.DB) (int64, error) {
	var n int64
	err := db.Model(&NotificationDispatch{}).Where("status = ?", DispatchPending).Count(&n).Error
	return n, err
}

// MarkDispatchDelivered 标记投递成功
func MarkDispatchDelivered(db *gorm.DB, id uint) error {
	return db.Model(&NotificationDispatch{}).Where("id = ?", id).
		Update("status", DispatchDelivered).Error
}

// MarkDispatchRetry 记录失败并安排下次尝试
func MarkDispatchRetry(db *gorm.DB, id uint, attempts int, next time.Time, lastErr string) error {
	return db.Model(&NotificationDispatch{}).Where("id = ?", id).
		Updates(map[string]any{
			"attempts":        attempts,
			"next_attempt_at": next,
			"last_error":      lastErr,
		}).Error
}

// MarkDispatchManual 重试耗尽，移入人工队列
func MarkDispatchManual(db *gorm.DB, id uint, lastErr string) error {
	return db.Model(&NotificationDispatch{}).Where("id = ?", id).
		Updates(map[string]any{
			"status":     DispatchManualQueue,
			"last_error": lastErr,
		}).Error
}

// AutoMigrate 建表
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&SafetyAssessment{},
		&CrisisAlert{},
		&FollowUpAction{},
		&CrisisResource{},
		&SafetyPlan{},
		&NotificationDispatch{},
	)
}
