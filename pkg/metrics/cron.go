package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "venueops"

// CronJobMetrics covers cron-worker cycles. A nil value records nothing.
type CronJobMetrics struct {
	duration    *prometheus.HistogramVec
	runs        *prometheus.CounterVec
	lastSuccess *prometheus.GaugeVec
	items       *prometheus.CounterVec
	lockSkipped prometheus.Counter
}

func NewCronJobMetrics(reg prometheus.Registerer) *CronJobMetrics {
	if reg == nil {
		return nil
	}
	m := &CronJobMetrics{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "cron",
			Name:      "job_duration_seconds",
			Help:      "Wall time of a single cron job run.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"job"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cron",
			Name:      "job_runs_total",
			Help:      "Cron job runs by result (ok, error).",
		}, []string{"job", "result"}),
		lastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "cron",
			Name:      "job_last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run.",
		}, []string{"job"}),
		items: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cron",
			Name:      "job_items_total",
			Help:      "Items handled by cron jobs, by outcome.",
		}, []string{"job", "outcome"}),
		lockSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cron",
			Name:      "cycles_skipped_locked_total",
			Help:      "Cycles skipped because another worker held the lock.",
		}),
	}
	reg.MustRegister(m.duration, m.runs, m.lastSuccess, m.items, m.lockSkipped)
	return m
}

// ObserveRun records one finished run; err decides the result label.
func (c *CronJobMetrics) ObserveRun(job string, took time.Duration, err error) {
	if c == nil {
		return
	}
	job = normalizeLabel(job)
	c.duration.WithLabelValues(job).Observe(took.Seconds())
	if err != nil {
		c.runs.WithLabelValues(job, "error").Inc()
		return
	}
	c.runs.WithLabelValues(job, "ok").Inc()
	c.lastSuccess.WithLabelValues(job).SetToCurrentTime()
}

// AddItems counts per-item outcomes such as sent, skipped and failed.
func (c *CronJobMetrics) AddItems(job, outcome string, n int) {
	if c == nil || n <= 0 {
		return
	}
	c.items.WithLabelValues(normalizeLabel(job), normalizeLabel(outcome)).Add(float64(n))
}

func (c *CronJobMetrics) IncLockSkipped() {
	if c == nil {
		return
	}
	c.lockSkipped.Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
