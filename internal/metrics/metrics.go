// Package metrics exports Prometheus collectors for the daemon.
// Grounded on the teacher's transitive prometheus/client_golang
// dependency (pulled in via k8s client-go but never exercised by any
// teacher component) and promauto's standard must-register idiom; no
// teacher file instantiates a collector, so the naming and the four
// series below are original to this package.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/opkgd/pkgbrokerd/internal/enums"
)

// Collector holds the daemon's Prometheus series and satisfies
// internal/control.Metrics.
type Collector struct {
	inFlight        prometheus.Gauge
	transactions    *prometheus.CounterVec
	backendDuration *prometheus.HistogramVec
	dbSize          prometheus.Gauge
}

// New registers the daemon's collectors against reg. Pass
// prometheus.NewRegistry() for an isolated registry (tests) or
// prometheus.DefaultRegisterer to expose via the default /metrics
// handler.
func New(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		inFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "pkgbrokerd",
			Name:      "transactions_in_flight",
			Help:      "Number of transactions currently allocated (SETUP through FINISHED).",
		}),
		transactions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pkgbrokerd",
			Name:      "transactions_total",
			Help:      "Finished transactions, by role and exit status.",
		}, []string{"role", "exit"}),
		backendDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "pkgbrokerd",
			Name:      "backend_call_duration_seconds",
			Help:      "Wall-clock duration of a transaction's backend invocation, by role.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"role"}),
		dbSize: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "pkgbrokerd",
			Name:      "transaction_db_rows",
			Help:      "Row count of the transaction database.",
		}),
	}
}

// TransactionStarted increments the in-flight gauge. Called from
// internal/control.GetTid at allocation time, before the role is bound.
func (c *Collector) TransactionStarted() {
	c.inFlight.Inc()
}

// TransactionFinished decrements the in-flight gauge and records the
// completed transaction's role, exit status, and backend duration.
func (c *Collector) TransactionFinished(role enums.Role, exit enums.Exit, runtimeMS int64) {
	c.inFlight.Dec()
	c.transactions.WithLabelValues(role.String(), exit.String()).Inc()
	c.backendDuration.WithLabelValues(role.String()).Observe(float64(runtimeMS) / 1000)
}

// SetTransactionDBSize reports the transaction database's current row
// count. Nothing in cmd/pkgbrokerd calls it, so the gauge stays at zero
// unless a caller sets it.
func (c *Collector) SetTransactionDBSize(rows int) {
	c.dbSize.Set(float64(rows))
}
