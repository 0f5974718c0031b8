package metrics

import "sync"

var (
	globalOnce sync.Once
	global     *Metrics
)

// Global returns the process-wide metrics manager.
func Global() *Metrics {
	globalOnce.Do(func() { global = NewMetrics() })
	return global
}
