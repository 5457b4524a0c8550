package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "vetbilling"

// Metrics holds the collectors recorded by the ledger and the HTTP layer
type Metrics struct {
	registry *prometheus.Registry

	InvoicesCreated    prometheus.Counter
	InvoicesCancelled  prometheus.Counter
	InvoicesDeleted    prometheus.Counter
	PaymentsRecorded   *prometheus.CounterVec
	AmountCollected    *prometheus.CounterVec
	NumberRetries      prometheus.Counter
	LedgerErrors       *prometheus.CounterVec
	HTTPRequests       *prometheus.CounterVec
	HTTPRequestLatency *prometheus.HistogramVec
}

// New creates the collectors on a fresh registry, so tests can build as many
// instances as they like.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: reg,
		InvoicesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "invoices_created_total",
			Help: "Invoices created.",
		}),
		InvoicesCancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "invoices_cancelled_total",
			Help: "Invoices cancelled.",
		}),
		InvoicesDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "invoices_deleted_total",
			Help: "Invoices deleted before any payment.",
		}),
		PaymentsRecorded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "payments_recorded_total",
			Help: "Payments recorded, by payment method.",
		}, []string{"method"}),
		AmountCollected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "amount_collected_total",
			Help: "Sum of recorded payment amounts, by payment method.",
		}, []string{"method"}),
		NumberRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "invoice_number_retries_total",
			Help: "Invoice creations retried after an invoice number collision.",
		}),
		LedgerErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "ledger_errors_total",
			Help: "Rejected ledger operations, by operation and error kind.",
		}, []string{"operation", "kind"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "http_requests_total",
			Help: "HTTP requests, by route, method and status.",
		}, []string{"route", "method", "status"}),
		HTTPRequestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "http_request_duration_seconds",
			Help:    "HTTP request latency, by route and method.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}

	reg.MustRegister(
		m.InvoicesCreated, m.InvoicesCancelled, m.InvoicesDeleted,
		m.PaymentsRecorded, m.AmountCollected, m.NumberRetries, m.LedgerErrors,
		m.HTTPRequests, m.HTTPRequestLatency,
	)
	return m
}

// Registry exposes the underlying registry, mainly for tests
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
