// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Trading metrics
	TradesTotal      *prometheus.CounterVec
	AttemptsTotal    *prometheus.CounterVec
	FallbacksTotal   *prometheus.CounterVec
	TradeVolumeSOL   *prometheus.CounterVec
	TradeFeesSOL     prometheus.Counter
	SwapDuration     *prometheus.HistogramVec
	PriceAlertsTotal *prometheus.CounterVec

	// Session metrics
	ActiveSessions prometheus.Gauge
	CyclesTotal    *prometheus.CounterVec

	// Funding metrics
	FundingTotal   *prometheus.CounterVec
	ReclaimTotal   *prometheus.CounterVec
	ReclaimedSOL   prometheus.Counter
	FundedSOL      prometheus.Counter

	// Latency metrics
	RPCCallLatency *prometheus.HistogramVec
	RPCCallErrors  *prometheus.CounterVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance registered on reg.
// A nil reg registers on the default registry.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "volume_bot"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Metrics{
		TradesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "swap",
			Name:      "trades_total",
			Help:      "Total number of routed swaps by venue, action and status",
		}, []string{"venue", "action", "status"}),
		AttemptsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "swap",
			Name:      "attempts_total",
			Help:      "Total number of venue attempts by outcome",
		}, []string{"venue", "outcome"}),
		FallbacksTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "swap",
			Name:      "fallbacks_total",
			Help:      "Total number of fallbacks away from a venue with no route",
		}, []string{"venue"}),
		TradeVolumeSOL: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "swap",
			Name:      "buy_volume_sol_total",
			Help:      "Total SOL spent on successful buys",
		}, []string{"dry_run"}),
		TradeFeesSOL: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "swap",
			Name:      "fees_sol_total",
			Help:      "Total network fees paid in SOL",
		}),
		SwapDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "swap",
			Name:      "duration_seconds",
			Help:      "End-to-end routed swap duration in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 45, 90},
		}, []string{"action"}),
		PriceAlertsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "price",
			Name:      "alerts_total",
			Help:      "Total number of price moves above the alert threshold",
		}, []string{"source"}),

		ActiveSessions: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "orchestrator",
			Name:      "active_sessions",
			Help:      "Number of running volume-loop sessions",
		}),
		CyclesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "orchestrator",
			Name:      "cycles_total",
			Help:      "Total number of completed loop cycles by mode",
		}, []string{"mode"}),

		FundingTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "funding",
			Name:      "transfers_total",
			Help:      "Total number of funding transfers by status",
		}, []string{"status"}),
		ReclaimTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "funding",
			Name:      "reclaims_total",
			Help:      "Total number of wallet reclaims by result",
		}, []string{"result"}),
		ReclaimedSOL: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "funding",
			Name:      "reclaimed_sol_total",
			Help:      "Total SOL returned to the main wallet",
		}),
		FundedSOL: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "funding",
			Name:      "funded_sol_total",
			Help:      "Total SOL sent from the main wallet",
		}),

		RPCCallLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_call_latency_seconds",
			Help:      "Solana RPC call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		RPCCallErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_call_errors_total",
			Help:      "Total number of failed Solana RPC calls",
		}, []string{"method"}),

		DBQueryDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("", nil)

// RecordTrade counts a routed swap and its volume.
func (m *Metrics) RecordTrade(venue, action string, ok, dryRun bool, buySOL, feeSOL float64, seconds float64) {
	status := "success"
	if !ok {
		status = "failed"
	}
	m.TradesTotal.WithLabelValues(venue, action, status).Inc()
	m.SwapDuration.WithLabelValues(action).Observe(seconds)
	if !ok {
		return
	}
	if buySOL > 0 {
		label := "false"
		if dryRun {
			label = "true"
		}
		m.TradeVolumeSOL.WithLabelValues(label).Add(buySOL)
	}
	if feeSOL > 0 {
		m.TradeFeesSOL.Add(feeSOL)
	}
}

// RecordAttempt counts one venue attempt.
func (m *Metrics) RecordAttempt(venue, outcome string) {
	m.AttemptsTotal.WithLabelValues(venue, outcome).Inc()
}

// RecordFallback counts a fallthrough away from venue.
func (m *Metrics) RecordFallback(venue string) {
	m.FallbacksTotal.WithLabelValues(venue).Inc()
}

// RecordPriceAlert counts a price move above the alert threshold.
func (m *Metrics) RecordPriceAlert(source string) {
	m.PriceAlertsTotal.WithLabelValues(source).Inc()
}

// SetActiveSessions updates the running sessions gauge.
func (m *Metrics) SetActiveSessions(n int) {
	m.ActiveSessions.Set(float64(n))
}

// RecordCycle counts a completed loop cycle.
func (m *Metrics) RecordCycle(dryRun bool) {
	mode := "live"
	if dryRun {
		mode = "dry_run"
	}
	m.CyclesTotal.WithLabelValues(mode).Inc()
}

// RecordFunding counts a funding transfer.
func (m *Metrics) RecordFunding(sol float64, err error) {
	if err != nil {
		m.FundingTotal.WithLabelValues("failed").Inc()
		return
	}
	m.FundingTotal.WithLabelValues("success").Inc()
	m.FundedSOL.Add(sol)
}

// RecordReclaim counts a reclaim with result reclaimed, skipped or failed.
func (m *Metrics) RecordReclaim(result string, sol float64) {
	m.ReclaimTotal.WithLabelValues(result).Inc()
	if sol > 0 {
		m.ReclaimedSOL.Add(sol)
	}
}

// RecordRPCLatency records RPC call latency.
func (m *Metrics) RecordRPCLatency(method string, seconds float64, err error) {
	m.RPCCallLatency.WithLabelValues(method).Observe(seconds)
	if err != nil {
		m.RPCCallErrors.WithLabelValues(method).Inc()
	}
}

// RecordDBQuery records database query metrics.
func (m *Metrics) RecordDBQuery(database, operation string, seconds float64, err error) {
	m.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		m.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
