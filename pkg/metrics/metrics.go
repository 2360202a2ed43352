package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Webhook outcomes.
const (
	OutcomeHandled   = "handled"
	OutcomeNoop      = "noop"
	OutcomeDuplicate = "duplicate"
	OutcomeRejected  = "rejected"
	OutcomeFailed    = "failed"
)

// Metrics holds the Prometheus collectors exported on /metrics.
type Metrics struct {
	registry *prometheus.Registry

	WebhooksTotal       *prometheus.CounterVec
	ProviderUnavailable *prometheus.CounterVec
	CallLogsCreated     *prometheus.CounterVec
	EventsCreated       prometheus.Counter
}

// New registers all collectors on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		WebhooksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "twilio_webhooks_total",
				Help: "Twilio webhook deliveries by webhook and outcome",
			},
			[]string{"webhook", "outcome"},
		),
		ProviderUnavailable: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "twilio_provider_unavailable_total",
				Help: "Operations skipped because Twilio settings are missing or disabled",
			},
			[]string{"operation"},
		),
		CallLogsCreated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "call_logs_created_total",
				Help: "Call logs created by direction",
			},
			[]string{"type"},
		),
		EventsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "call_events_created_total",
			Help: "Calendar events created from call logs",
		}),
	}
	reg.MustRegister(
		m.WebhooksTotal,
		m.ProviderUnavailable,
		m.CallLogsCreated,
		m.EventsCreated,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Webhook counts one delivery. Safe on a nil receiver.
func (m *Metrics) Webhook(name, outcome string) {
	if m == nil {
		return
	}
	m.WebhooksTotal.WithLabelValues(name, outcome).Inc()
}

// Unavailable counts an operation skipped for a disabled provider. Safe on a nil receiver.
func (m *Metrics) Unavailable(operation string) {
	if m == nil {
		return
	}
	m.ProviderUnavailable.WithLabelValues(operation).Inc()
}

// CallLogCreated counts a new call log. Safe on a nil receiver.
func (m *Metrics) CallLogCreated(callType string) {
	if m == nil {
		return
	}
	m.CallLogsCreated.WithLabelValues(callType).Inc()
}

// EventCreated counts a new calendar event. Safe on a nil receiver.
func (m *Metrics) EventCreated() {
	if m == nil {
		return
	}
	m.EventsCreated.Inc()
}

// Handler exposes the registry for scraping.
func (m *Metrics) Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}
