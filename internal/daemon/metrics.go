package daemon

import (
	"net/http"

	"github.com/theirongolddev/ratewatch/internal/model"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics records fetch-cycle outcomes and the latest indicator values.
// Each instance owns its registry so tests can build several services.
type Metrics struct {
	reg *prometheus.Registry

	cycles    *prometheus.CounterVec
	failures  *prometheus.CounterVec
	duration  prometheus.Histogram
	indicator *prometheus.GaugeVec
	lastOK    prometheus.Gauge
}

// NewMetrics creates a recorder backed by a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		reg: reg,
		cycles: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ratewatch_fetch_cycles_total",
				Help: "Total number of settled fetch cycles",
			},
			[]string{"result"},
		),
		failures: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ratewatch_fetch_failures_total",
				Help: "Failed fetch cycles by failing source",
			},
			[]string{"source"},
		),
		duration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ratewatch_fetch_duration_seconds",
				Help:    "Duration of fetch cycles in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		indicator: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "ratewatch_indicator_percent",
				Help: "Latest indicator value in percent",
			},
			[]string{"indicator"},
		),
		lastOK: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "ratewatch_last_success_timestamp_seconds",
				Help: "Unix time of the last successful fetch cycle",
			},
		),
	}
}

// RecordSuccess records a successful cycle and exports the snapshot values.
// Null indicators are removed from the gauge so scrapers don't see stale data.
func (m *Metrics) RecordSuccess(snap *model.MarketSnapshot, seconds float64) {
	m.cycles.WithLabelValues("success").Inc()
	m.duration.Observe(seconds)
	if snap == nil {
		return
	}
	m.lastOK.Set(float64(snap.FetchedAt.Unix()))

	m.setIndicator("inflation", snap.Inflation)
	m.setIndicator("tbill", snap.TBill)
	if snap.LongTermRates != nil {
		m.setIndicator("bond_yield", &snap.LongTermRates.BondYield)
		m.setIndicator("tips_yield", &snap.LongTermRates.TIPSYield)
	} else {
		m.setIndicator("bond_yield", nil)
		m.setIndicator("tips_yield", nil)
	}
}

// RecordFailure records a failed cycle attributed to source.
func (m *Metrics) RecordFailure(source string, seconds float64) {
	if source == "" {
		source = "unknown"
	}
	m.cycles.WithLabelValues("failure").Inc()
	m.failures.WithLabelValues(source).Inc()
	m.duration.Observe(seconds)
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

func (m *Metrics) setIndicator(name string, v *float64) {
	if v == nil {
		m.indicator.DeleteLabelValues(name)
		return
	}
	m.indicator.WithLabelValues(name).Set(*v)
}
