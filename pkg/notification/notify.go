package notification

import (
	"context"
	"fmt"
	"time"

	"Attune/pkg/cache"
)

// Payload carries the escalation context a professional responder sees.
type Payload struct {
	AlertID   string    `json:"alert_id"`
	UserID    uint      `json:"user_id"`
	Severity  string    `json:"severity"`
	CrisisType string   `json:"crisis_type"`
	Summary   string    `json:"summary"`
	CreatedAt time.Time `json:"created_at"`
}

// Notifier 专业升级通知渠道
type Notifier interface {
	// Notify delivers one escalation. Implementations must tolerate retries:
	// the same alert at the same severity must not page twice.
	Notify(ctx context.Context, alertID, severity string, payload Payload) error
}

// DedupeNotifier wraps a Notifier with an idempotency window so a retried
// dispatch of the same alert+severity is acknowledged without re-paging.
type DedupeNotifier struct {
	inner Notifier
	store cache.Cache
	ttl   time.Duration
}

func NewDedupeNotifier(inner Notifier, store cache.Cache, ttl time.Duration) *DedupeNotifier {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &DedupeNotifier{inner: inner, store: store, ttl: ttl}
}

func (d *DedupeNotifier) Notify(ctx context.Context, alertID, severity string, payload Payload) error {
	key := fmt.Sprintf("notify:%s:%s", alertID, severity)
	fresh, err := d.store.SetNX(ctx, key, 1, d.ttl)
	if err != nil {
		// 缓存不可用不拦截通知
		return d.inner.Notify(ctx, alertID, severity, payload)
	}
	if !fresh {
		return nil
	}
	if err := d.inner.Notify(ctx, alertID, severity, payload); err != nil {
		// 释放幂等键，让重试可以再次投递
		_ = d.store.Delete(ctx, key)
		return err
	}
	return nil
}

// Fanout notifies every channel, returning the first error after trying all.
type Fanout []Notifier

func (f Fanout) Notify(ctx context.Context, alertID, severity string, payload Payload) error {
	var firstErr error
	for _, n := range f {
		if err := n.Notify(ctx, alertID, severity, payload); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
