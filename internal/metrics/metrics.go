package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "bookpay"

// Checkout holds the collectors recorded by the checkout flow and the
// gateway client.
type Checkout struct {
	Transitions     *prometheus.CounterVec
	IntentsCreated  *prometheus.CounterVec
	AttachOutcomes  *prometheus.CounterVec
	GatewayDuration *prometheus.HistogramVec
	ActiveSessions  prometheus.Gauge
}

// NewCheckout builds the collectors and registers them on reg. A nil reg
// leaves them unregistered, which is what most tests want.
func NewCheckout(reg prometheus.Registerer) *Checkout {
	m := &Checkout{
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "checkout",
			Name:      "transitions_total",
			Help:      "Checkout state transitions by source and target phase.",
		}, []string{"from", "to"}),
		IntentsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "payment",
			Name:      "intents_created_total",
			Help:      "Payment intents created, by schedule and method.",
		}, []string{"schedule", "method"}),
		AttachOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "payment",
			Name:      "attach_outcomes_total",
			Help:      "Results of attaching a method to an intent.",
		}, []string{"method", "status"}),
		GatewayDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "request_duration_seconds",
			Help:      "Latency of payment gateway operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op", "outcome"}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "checkout",
			Name:      "active_sessions",
			Help:      "Checkout sessions currently held in memory.",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.Transitions, m.IntentsCreated, m.AttachOutcomes, m.GatewayDuration, m.ActiveSessions)
	}
	return m
}

// ObserveGateway records one gateway call measured by t.
func (m *Checkout) ObserveGateway(op string, t *Timer, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.GatewayDuration.WithLabelValues(op, outcome).Observe(t.Duration().Seconds())
}

type Timer struct {
	start time.Time
}

func StartTimer() *Timer {
	return &Timer{start: time.Now()}
}

func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
