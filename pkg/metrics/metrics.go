// Package metrics exposes the Prometheus counters of the governance layer.
//
// A nil *Collector is valid and records nothing, so components take an
// optional collector without branching at every call site.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "quotaguard"

// Collector owns a private registry and the counters registered on it.
type Collector struct {
	registry *prometheus.Registry

	quotaDecisions   *prometheus.CounterVec
	quotaRecordFails *prometheus.CounterVec
	gateDecisions    *prometheus.CounterVec
	authDecisions    *prometheus.CounterVec
	deliveries       *prometheus.CounterVec
	deliveryDuration *prometheus.HistogramVec
	linkageAttempts  *prometheus.CounterVec
}

// New creates a collector with process and Go runtime collectors attached.
func New() *Collector {
	reg := prometheus.NewRegistry()
	c := &Collector{
		registry: reg,
		quotaDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "quota",
			Name:      "decisions_total",
			Help:      "Rate limiter decisions by event kind and outcome.",
		}, []string{"event", "decision"}),
		quotaRecordFails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "quota",
			Name:      "record_failures_total",
			Help:      "Successful requests whose usage event could not be recorded.",
		}, []string{"event"}),
		gateDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "entitlement",
			Name:      "decisions_total",
			Help:      "Subscription gate decisions by gate and outcome.",
		}, []string{"gate", "decision"}),
		authDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "decisions_total",
			Help:      "Authentication outcomes by authenticator.",
		}, []string{"authenticator", "decision"}),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "webhook",
			Name:      "deliveries_total",
			Help:      "Webhook deliveries by provider, event kind and terminal state.",
		}, []string{"provider", "kind", "state"}),
		deliveryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "webhook",
			Name:      "delivery_duration_seconds",
			Help:      "Time spent handling a webhook delivery.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider", "state"}),
		linkageAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "webhook",
			Name:      "linkage_attempts_total",
			Help:      "Customer to user lookups made while reconciling payments.",
		}, []string{"result"}),
	}

	reg.MustRegister(
		c.quotaDecisions,
		c.quotaRecordFails,
		c.gateDecisions,
		c.authDecisions,
		c.deliveries,
		c.deliveryDuration,
		c.linkageAttempts,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// QuotaDecision counts an "allowed", "rejected" or "error" decision.
func (c *Collector) QuotaDecision(event, decision string) {
	if c == nil {
		return
	}
	c.quotaDecisions.WithLabelValues(event, decision).Inc()
}

func (c *Collector) QuotaRecordFailure(event string) {
	if c == nil {
		return
	}
	c.quotaRecordFails.WithLabelValues(event).Inc()
}

// GateDecision counts a subscription gate outcome.
func (c *Collector) GateDecision(gate, decision string) {
	if c == nil {
		return
	}
	c.gateDecisions.WithLabelValues(gate, decision).Inc()
}

func (c *Collector) AuthDecision(authenticator, decision string) {
	if c == nil {
		return
	}
	c.authDecisions.WithLabelValues(authenticator, decision).Inc()
}

// Delivery counts a webhook delivery in its terminal state.
func (c *Collector) Delivery(provider, kind, state string, took time.Duration) {
	if c == nil {
		return
	}
	c.deliveries.WithLabelValues(provider, kind, state).Inc()
	c.deliveryDuration.WithLabelValues(provider, state).Observe(took.Seconds())
}

// LinkageAttempt counts one customer lookup: "found", "missing" or "error".
func (c *Collector) LinkageAttempt(result string) {
	if c == nil {
		return
	}
	c.linkageAttempts.WithLabelValues(result).Inc()
}
