package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestQueueMetricsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewQueueMetrics(reg)

	m.ObserveSubmission(true, false)
	m.ObserveSubmission(true, false)
	m.ObserveTransition("pending", "scheduled")
	m.ObserveRejection("submit", "CAPACITY_EXCEEDED")
	m.ObserveNotification("queue", errors.New("down"))
	m.ObserveFeedPublish("transition", nil)
	m.ObserveOperation("submit", time.Now())

	require.Equal(t, 2.0, testutil.ToFloat64(m.submissions.WithLabelValues("true", "false")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.transitions.WithLabelValues("pending", "scheduled")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.rejections.WithLabelValues("submit", "CAPACITY_EXCEEDED")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.notifications.WithLabelValues("queue", "error")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.feedPublishes.WithLabelValues("transition", "ok")))
}

func TestQueueMetricsNilSafe(t *testing.T) {
	var m *QueueMetrics
	m.ObserveSubmission(false, false)
	m.ObserveTransition("a", "b")
	m.ObserveRejection("op", "t")
	m.ObserveNotification("c", nil)
	m.ObserveFeedPublish("k", nil)
	m.ObserveOperation("op", time.Now())
}
