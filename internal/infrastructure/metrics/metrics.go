package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Party metrics
	PartiesCreated *prometheus.CounterVec

	// Payment metrics
	PaymentsRecorded *prometheus.CounterVec
	PaymentAmount    prometheus.Histogram
	PaymentDuration  prometheus.Histogram
	PaymentErrors    *prometheus.CounterVec

	// Transaction metrics
	TransactionsAdded   *prometheus.CounterVec
	TransactionsDeleted prometheus.Counter

	// Ledger metrics
	LedgerReports       *prometheus.CounterVec
	LedgerRejectedTotal prometheus.Counter

	// Stats metrics
	StatsCacheLookups *prometheus.CounterVec

	// Reconciliation metrics
	ReconciliationChecks *prometheus.CounterVec

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
	HTTPInFlight prometheus.Gauge

	// Authentication metrics
	AuthFailures *prometheus.CounterVec

	// Rate limiting metrics
	RateLimitHits prometheus.Counter

	// Event metrics
	EventsPublished *prometheus.CounterVec
}

// New creates all Prometheus metrics and registers them with reg.
// Passing prometheus.DefaultRegisterer exposes them on the default /metrics handler.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		// Party metrics
		PartiesCreated: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "partyledger_parties_created_total",
				Help: "Total number of parties created by type",
			},
			[]string{"party_type"},
		),

		// Payment metrics
		PaymentsRecorded: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "partyledger_payments_recorded_total",
				Help: "Total number of payments recorded by party type",
			},
			[]string{"party_type"},
		),
		PaymentAmount: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "partyledger_payment_amount",
			Help:    "Payment amounts",
			Buckets: []float64{1, 10, 100, 1000, 10000, 100000, 1000000},
		}),
		PaymentDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "partyledger_payment_duration_seconds",
			Help:    "Duration of payment recording",
			Buckets: prometheus.DefBuckets,
		}),
		PaymentErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "partyledger_payment_errors_total",
				Help: "Total number of payment errors by type",
			},
			[]string{"error_type"},
		),

		// Transaction metrics
		TransactionsAdded: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "partyledger_transactions_added_total",
				Help: "Total number of transactions entered by type",
			},
			[]string{"transaction_type"},
		),
		TransactionsDeleted: f.NewCounter(prometheus.CounterOpts{
			Name: "partyledger_transactions_deleted_total",
			Help: "Total number of transactions deleted",
		}),

		// Ledger metrics
		LedgerReports: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "partyledger_ledger_reports_total",
				Help: "Total ledger reports by outcome",
			},
			[]string{"outcome"},
		),
		LedgerRejectedTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "partyledger_ledger_rejected_transactions_total",
			Help: "Transactions left out of ledger reports because they could not be folded",
		}),

		// Stats metrics
		StatsCacheLookups: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "partyledger_stats_cache_lookups_total",
				Help: "List stats cache lookups by result",
			},
			[]string{"result"},
		),

		// Reconciliation metrics
		ReconciliationChecks: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "partyledger_reconciliation_checks_total",
				Help: "Cached versus recomputed balance checks by result",
			},
			[]string{"result"},
		),

		// API metrics
		HTTPRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "partyledger_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "partyledger_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPInFlight: f.NewGauge(prometheus.GaugeOpts{
			Name: "partyledger_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		}),

		// Authentication metrics
		AuthFailures: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "partyledger_auth_failures_total",
				Help: "Total authentication failures",
			},
			[]string{"reason"},
		),

		// Rate limiting metrics
		RateLimitHits: f.NewCounter(prometheus.CounterOpts{
			Name: "partyledger_rate_limit_hits_total",
			Help: "Total requests rejected by the rate limiter",
		}),

		// Event metrics
		EventsPublished: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "partyledger_events_published_total",
				Help: "Party events handed to the notifier by result",
			},
			[]string{"event_type", "result"},
		),
	}
}
