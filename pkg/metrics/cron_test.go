package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCronJobMetricsObserveRun(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCronJobMetrics(reg)

	m.ObserveRun("shift-reminders", 250*time.Millisecond, nil)
	m.ObserveRun("shift-reminders", time.Second, errors.New("telegram down"))
	m.ObserveRun("shift-reminders", 100*time.Millisecond, nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.runs.WithLabelValues("shift-reminders", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("shift-reminders", "error")))
	assert.Greater(t, testutil.ToFloat64(m.lastSuccess.WithLabelValues("shift-reminders")), 0.0)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	sum, err := histogramSum(mfs, "venueops_cron_job_duration_seconds", map[string]string{"job": "shift-reminders"})
	require.NoError(t, err)
	assert.InDelta(t, 1.35, sum, 0.0001)
}

func TestCronJobMetricsItemsAndLockSkips(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCronJobMetrics(reg)

	m.AddItems("shift-reminders", "sent", 3)
	m.AddItems("shift-reminders", "skipped", 0)
	m.AddItems("", "failed", 1)
	m.IncLockSkipped()

	mfs, err := reg.Gather()
	require.NoError(t, err)
	sent, err := counterValue(mfs, "venueops_cron_job_items_total", map[string]string{"job": "shift-reminders", "outcome": "sent"})
	require.NoError(t, err)
	assert.Equal(t, 3.0, sent)
	_, err = counterValue(mfs, "venueops_cron_job_items_total", map[string]string{"outcome": "skipped"})
	assert.Error(t, err, "zero adds should not create a series")
	unknown, err := counterValue(mfs, "venueops_cron_job_items_total", map[string]string{"job": "unknown", "outcome": "failed"})
	require.NoError(t, err)
	assert.Equal(t, 1.0, unknown)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.lockSkipped))
}

func TestNilMetricsAreNoops(t *testing.T) {
	var m *CronJobMetrics
	assert.NotPanics(t, func() {
		m.ObserveRun("x", time.Second, nil)
		m.AddItems("x", "sent", 1)
		m.IncLockSkipped()
		NewCronJobMetrics(nil).ObserveRun("x", time.Second, errors.New("boom"))
		NewNotifyMetrics(nil).Observe("bot", "ok")
	})
}
