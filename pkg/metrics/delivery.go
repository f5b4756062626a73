package metrics

import "github.com/prometheus/client_golang/prometheus"

// DeliveryMetrics tracks the delivery workflow.
type DeliveryMetrics struct {
	transitions   *prometheus.CounterVec
	rejections    *prometheus.CounterVec
	notifyFailure *prometheus.CounterVec
}

// NewDeliveryMetrics registers delivery counters. A nil registerer yields a no-op recorder.
func NewDeliveryMetrics(reg prometheus.Registerer) *DeliveryMetrics {
	if reg == nil {
		return &DeliveryMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "delivery",
		Name:      "transitions_total",
		Help:      "Committed delivery status transitions.",
	}, []string{"from", "to"})
	rejections := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "delivery",
		Name:      "rejections_total",
		Help:      "Accept and status requests rejected by the delivery workflow, by error code.",
	}, []string{"operation", "code"})
	notifyFailure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "notifications",
		Name:      "dispatch_failures_total",
		Help:      "Notifications that could not be emitted after commit.",
	}, []string{"kind"})
	reg.MustRegister(transitions, rejections, notifyFailure)
	return &DeliveryMetrics{
		transitions:   transitions,
		rejections:    rejections,
		notifyFailure: notifyFailure,
	}
}

func (d *DeliveryMetrics) Transition(from, to string) {
	if d == nil || d.transitions == nil {
		return
	}
	d.transitions.WithLabelValues(normalizeLabel(from), normalizeLabel(to)).Inc()
}

func (d *DeliveryMetrics) Rejected(operation, code string) {
	if d == nil || d.rejections == nil {
		return
	}
	d.rejections.WithLabelValues(normalizeLabel(operation), normalizeLabel(code)).Inc()
}

func (d *DeliveryMetrics) NotificationFailed(kind string) {
	if d == nil || d.notifyFailure == nil {
		return
	}
	d.notifyFailure.WithLabelValues(normalizeLabel(kind)).Inc()
}
