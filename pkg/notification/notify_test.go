package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	"Attune/pkg/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingNotifier struct {
	calls int
	err   error
}

func (c *countingNotifier) Notify(_ context.Context, _, _ string, _ Payload) error {
	c.calls++
	return c.err
}

func TestDedupeNotifier(t *testing.T) {
	store := cache.NewGoCache(cache.LocalConfig{
		DefaultExpiration: time.Minute,
		CleanupInterval:   time.Minute,
	})
	defer store.Close()
	ctx := context.Background()

	t.Run("same alert and severity pages once", func(t *testing.T) {
		inner := &countingNotifier{}
		d := NewDedupeNotifier(inner, store, time.Minute)

		require.NoError(t, d.Notify(ctx, "alert-1", "critical", Payload{}))
		require.NoError(t, d.Notify(ctx, "alert-1", "critical", Payload{}))
		assert.Equal(t, 1, inner.calls)
	})

	t.Run("different severity pages again", func(t *testing.T) {
		inner := &countingNotifier{}
		d := NewDedupeNotifier(inner, store, time.Minute)

		require.NoError(t, d.Notify(ctx, "alert-2", "high", Payload{}))
		require.NoError(t, d.Notify(ctx, "alert-2", "critical", Payload{}))
		assert.Equal(t, 2, inner.calls)
	})

	t.Run("failure releases the key so a retry can deliver", func(t *testing.T) {
		inner := &countingNotifier{err: errors.New("boom")}
		d := NewDedupeNotifier(inner, store, time.Minute)

		require.Error(t, d.Notify(ctx, "alert-3", "critical", Payload{}))
		inner.err = nil
		require.NoError(t, d.Notify(ctx, "alert-3", "critical", Payload{}))
		assert.Equal(t, 2, inner.calls)
	})
}

func TestFanout(t *testing.T) {
	ok := &countingNotifier{}
	bad := &countingNotifier{err: errors.New("channel down")}

	err := Fanout{bad, ok}.Notify(context.Background(), "a", "high", Payload{})
	assert.Error(t, err)
	// 一个渠道失败不拦截其余渠道
	assert.Equal(t, 1, ok.calls)
	assert.Equal(t, 1, bad.calls)
}
