package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// QueueMetrics — счётчики жизненного цикла записей. Nil-приёмник допустим.
type QueueMetrics struct {
	submissions   *prometheus.CounterVec
	transitions   *prometheus.CounterVec
	rejections    *prometheus.CounterVec
	notifications *prometheus.CounterVec
	feedPublishes *prometheus.CounterVec
	opLatency     *prometheus.HistogramVec
}

func NewQueueMetrics(reg prometheus.Registerer) *QueueMetrics {
	m := &QueueMetrics{
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "queuecore",
			Subsystem: "booking",
			Name:      "submissions_total",
			Help:      "Accepted booking submissions",
		}, []string{"urgent", "rebooking"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "queuecore",
			Subsystem: "booking",
			Name:      "transitions_total",
			Help:      "Appointment status transitions",
		}, []string{"from", "to"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "queuecore",
			Subsystem: "booking",
			Name:      "rejections_total",
			Help:      "Operations rejected with an application error",
		}, []string{"operation", "type"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "queuecore",
			Subsystem: "booking",
			Name:      "notifications_total",
			Help:      "Notification deliveries",
		}, []string{"category", "status"}),
		feedPublishes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "queuecore",
			Subsystem: "booking",
			Name:      "feed_publishes_total",
			Help:      "Change feed publishes",
		}, []string{"kind", "status"}),
		opLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "queuecore",
			Subsystem: "booking",
			Name:      "operation_duration_seconds",
			Help:      "Latency of lifecycle operations",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.submissions, m.transitions, m.rejections, m.notifications, m.feedPublishes, m.opLatency)
	return m
}

func (m *QueueMetrics) ObserveSubmission(urgent, rebooking bool) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(boolLabel(urgent), boolLabel(rebooking)).Inc()
}

func (m *QueueMetrics) ObserveTransition(from, to string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(from, to).Inc()
}

func (m *QueueMetrics) ObserveRejection(operation, errType string) {
	if m == nil {
		return
	}
	m.rejections.WithLabelValues(operation, errType).Inc()
}

func (m *QueueMetrics) ObserveNotification(category string, err error) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(category, statusLabel(err)).Inc()
}

func (m *QueueMetrics) ObserveFeedPublish(kind string, err error) {
	if m == nil {
		return
	}
	m.feedPublishes.WithLabelValues(kind, statusLabel(err)).Inc()
}

func (m *QueueMetrics) ObserveOperation(operation string, started time.Time) {
	if m == nil {
		return
	}
	m.opLatency.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}

func boolLabel(v bool) string {
	if v {
		return "true"
	}
	return "false"
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
