package metrics

import "github.com/prometheus/client_golang/prometheus"

// NotifyMetrics counts outbound Telegram messages by channel and outcome.
type NotifyMetrics struct {
	sent *prometheus.CounterVec
}

func NewNotifyMetrics(reg prometheus.Registerer) *NotifyMetrics {
	if reg == nil {
		return &NotifyMetrics{}
	}
	sent := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_total",
		Help:      "Outbound notifications by channel and outcome.",
	}, []string{"channel", "outcome"})
	reg.MustRegister(sent)
	return &NotifyMetrics{sent: sent}
}

// Observe records one delivery attempt.
func (n *NotifyMetrics) Observe(channel, outcome string) {
	if n == nil || n.sent == nil {
		return
	}
	n.sent.WithLabelValues(normalizeLabel(channel), normalizeLabel(outcome)).Inc()
}
