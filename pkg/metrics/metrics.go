package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics 指标管理器
type Metrics struct {
	// HTTP请求指标
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// 安全评估指标
	assessmentsTotal  *prometheus.CounterVec
	alertTransitions  *prometheus.CounterVec
	analysisOutcomes  *prometheus.CounterVec
	dispatchAttempts  *prometheus.CounterVec
	evaluateDuration  prometheus.Histogram
	pendingDispatches prometheus.Gauge
}

// NewMetrics 创建指标管理器
func NewMetrics() *Metrics {
	return &Metrics{
		httpRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		assessmentsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "safety_assessments_total",
				Help: "Assessments evaluated, by resulting severity",
			},
			[]string{"severity"},
		),
		alertTransitions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crisis_alert_transitions_total",
				Help: "Crisis alert status transitions",
			},
			[]string{"from", "to"},
		),
		analysisOutcomes: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deep_analysis_outcomes_total",
				Help: "Deep analysis calls by outcome (ok, timeout, error, skipped)",
			},
			[]string{"outcome"},
		),
		dispatchAttempts: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notification_dispatch_attempts_total",
				Help: "Professional notification dispatch attempts by result",
			},
			[]string{"result"},
		),
		evaluateDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "safety_evaluate_duration_seconds",
				Help:    "End-to-end Evaluate duration",
				Buckets: prometheus.DefBuckets,
			},
		),
		pendingDispatches: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "notification_dispatches_pending",
				Help: "Dispatch legs currently awaiting retry",
			},
		),
	}
}

func (m *Metrics) RecordHTTPRequest(method, path, status string, d time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.httpRequestDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

func (m *Metrics) RecordAssessment(severity string, d time.Duration) {
	m.assessmentsTotal.WithLabelValues(severity).Inc()
	m.evaluateDuration.Observe(d.Seconds())
}

func (m *Metrics) RecordTransition(from, to string) {
	m.alertTransitions.WithLabelValues(from, to).Inc()
}

func (m *Metrics) RecordAnalysis(outcome string) {
	m.analysisOutcomes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordDispatch(result string) {
	m.dispatchAttempts.WithLabelValues(result).Inc()
}

func (m *Metrics) SetPendingDispatches(n int) {
	m.pendingDispatches.Set(float64(n))
}
