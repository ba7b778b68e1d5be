// Package metrics exports dispatch counters to Prometheus.
package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "freightdispatch"

// Prometheus implements ports.DispatchMetrics.
type Prometheus struct {
	offers              prometheus.Counter
	reminders           prometheus.Counter
	attemptsClosed      *prometheus.CounterVec
	chainsCompleted     *prometheus.CounterVec
	chainsEscalated     *prometheus.CounterVec
	chainsCancelled     prometheus.Counter
	escalationDelivery  *prometheus.CounterVec
	notificationsFailed *prometheus.CounterVec
	scanDuration        prometheus.Histogram
	scanChains          prometheus.Gauge
	staleEscalations    prometheus.Gauge
}

// NewPrometheus registers the dispatch metrics on reg. A nil registerer
// defaults to the global one. Collectors that are already registered are
// reused so that several instances can share one registry.
func NewPrometheus(reg prometheus.Registerer) (*Prometheus, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Prometheus{
		offers: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "offers_sent_total",
			Help: "Offers sent to carriers",
		}),
		reminders: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "reminders_sent_total",
			Help: "Reminders sent to carriers holding an offer",
		}),
		attemptsClosed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "attempts_closed_total",
			Help: "Dispatch attempts closed by outcome",
		}, []string{"outcome"}),
		chainsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "chains_completed_total",
			Help: "Chains that ended with an assigned carrier",
		}, []string{"via_escalation"}),
		chainsEscalated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "chains_escalated_total",
			Help: "Chains handed to the external matching service",
		}, []string{"reason"}),
		chainsCancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "chains_cancelled_total",
			Help: "Chains cancelled before completion",
		}),
		escalationDelivery: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "escalation_deliveries_total",
			Help: "Escalation submissions to the matching service by result",
		}, []string{"result"}),
		notificationsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "notifications_failed_total",
			Help: "Carrier notifications that could not be sent",
		}, []string{"kind"}),
		scanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "monitor_scan_duration_seconds",
			Help:    "Duration of one timeout monitor pass",
			Buckets: prometheus.DefBuckets,
		}),
		scanChains: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "monitor_chains_in_progress",
			Help: "Chains inspected by the last timeout monitor pass",
		}),
		staleEscalations: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "stale_escalations",
			Help: "Chains escalated for longer than the reporting threshold",
		}),
	}

	var err error
	if m.offers, err = register(reg, m.offers); err != nil {
		return nil, err
	}
	if m.reminders, err = register(reg, m.reminders); err != nil {
		return nil, err
	}
	if m.attemptsClosed, err = register(reg, m.attemptsClosed); err != nil {
		return nil, err
	}
	if m.chainsCompleted, err = register(reg, m.chainsCompleted); err != nil {
		return nil, err
	}
	if m.chainsEscalated, err = register(reg, m.chainsEscalated); err != nil {
		return nil, err
	}
	if m.chainsCancelled, err = register(reg, m.chainsCancelled); err != nil {
		return nil, err
	}
	if m.escalationDelivery, err = register(reg, m.escalationDelivery); err != nil {
		return nil, err
	}
	if m.notificationsFailed, err = register(reg, m.notificationsFailed); err != nil {
		return nil, err
	}
	if m.scanDuration, err = register(reg, m.scanDuration); err != nil {
		return nil, err
	}
	if m.scanChains, err = register(reg, m.scanChains); err != nil {
		return nil, err
	}
	if m.staleEscalations, err = register(reg, m.staleEscalations); err != nil {
		return nil, err
	}
	return m, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (m *Prometheus) OfferSent()    { m.offers.Inc() }
func (m *Prometheus) ReminderSent() { m.reminders.Inc() }

func (m *Prometheus) AttemptClosed(outcome string) {
	m.attemptsClosed.WithLabelValues(outcome).Inc()
}

func (m *Prometheus) ChainCompleted(viaEscalation bool) {
	m.chainsCompleted.WithLabelValues(strconv.FormatBool(viaEscalation)).Inc()
}

func (m *Prometheus) ChainEscalated(reason string) {
	m.chainsEscalated.WithLabelValues(reason).Inc()
}

func (m *Prometheus) ChainCancelled() { m.chainsCancelled.Inc() }

func (m *Prometheus) EscalationDelivery(ok bool) {
	result := "failed"
	if ok {
		result = "submitted"
	}
	m.escalationDelivery.WithLabelValues(result).Inc()
}

func (m *Prometheus) NotificationFailed(kind string) {
	m.notificationsFailed.WithLabelValues(kind).Inc()
}

func (m *Prometheus) MonitorScan(duration time.Duration, chains int) {
	m.scanDuration.Observe(duration.Seconds())
	m.scanChains.Set(float64(chains))
}

func (m *Prometheus) StaleEscalations(n int) {
	m.staleEscalations.Set(float64(n))
}
