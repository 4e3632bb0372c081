package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "table_service"

// Metrics holds the service collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	eventsDispatched  *prometheus.CounterVec
	handlerFailures   *prometheus.CounterVec
	orderTransitions  *prometheus.CounterVec
	ticketTransitions *prometheus.CounterVec
	escalations       *prometheus.CounterVec
	ticketsCreated    prometheus.Counter
	published         *prometheus.CounterVec
	consumed          *prometheus.CounterVec
	reconcileSeconds  prometheus.Histogram
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		eventsDispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_dispatched_total",
			Help:      "Domain events handed to the dispatcher",
		}, []string{"event"}),
		handlerFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "event_handler_failures_total",
			Help:      "Event handler invocations that returned an error or panicked",
		}, []string{"event", "handler"}),
		orderTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_commands_total",
			Help:      "Order commands by outcome",
		}, []string{"command", "result"}),
		ticketTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticket_transitions_total",
			Help:      "Kitchen ticket status changes by action",
		}, []string{"action"}),
		escalations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_escalations_total",
			Help:      "Order status changes driven by ticket reconciliation",
		}, []string{"to"}),
		ticketsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tickets_created_total",
			Help:      "Kitchen tickets created by order submission",
		}),
		published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_published_total",
			Help:      "Notification messages published to the broker",
		}, []string{"routing_key", "result"}),
		consumed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_consumed_total",
			Help:      "Notification messages consumed by the subscriber",
		}, []string{"channel", "result"}),
		reconcileSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reconcile_duration_seconds",
			Help:      "Time spent applying a ticket action and reconciling its order",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	registry.MustRegister(
		m.eventsDispatched, m.handlerFailures, m.orderTransitions, m.ticketTransitions,
		m.escalations, m.ticketsCreated, m.published, m.consumed, m.reconcileSeconds,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) EventDispatched(event string) {
	if m != nil {
		m.eventsDispatched.WithLabelValues(event).Inc()
	}
}

func (m *Metrics) HandlerFailed(event, handler string) {
	if m != nil {
		m.handlerFailures.WithLabelValues(event, handler).Inc()
	}
}

func (m *Metrics) OrderCommand(command string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "rejected"
	}
	m.orderTransitions.WithLabelValues(command, result).Inc()
}

func (m *Metrics) TicketTransition(action string) {
	if m != nil {
		m.ticketTransitions.WithLabelValues(action).Inc()
	}
}

func (m *Metrics) Escalated(to string) {
	if m != nil {
		m.escalations.WithLabelValues(to).Inc()
	}
}

func (m *Metrics) TicketsCreated(n int) {
	if m != nil {
		m.ticketsCreated.Add(float64(n))
	}
}

func (m *Metrics) Published(routingKey string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.published.WithLabelValues(routingKey, result).Inc()
}

func (m *Metrics) Consumed(channel, result string) {
	if m != nil {
		m.consumed.WithLabelValues(channel, result).Inc()
	}
}

func (m *Metrics) ObserveReconcile(seconds float64) {
	if m != nil {
		m.reconcileSeconds.Observe(seconds)
	}
}
