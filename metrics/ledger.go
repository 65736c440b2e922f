// Package metrics records Prometheus metrics for ledger operations.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	appendTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledgerchain",
		Subsystem: "ledger",
		Name:      "append_total",
		Help:      "Count of append attempts.",
	}, []string{"chain", "status"})

	appendDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ledgerchain",
		Subsystem: "ledger",
		Name:      "append_duration_seconds",
		Help:      "Duration of appending a block.",
		Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
	}, []string{"chain", "status"})

	verifyTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledgerchain",
		Subsystem: "ledger",
		Name:      "verify_total",
		Help:      "Count of blockchain verifications.",
	}, []string{"chain", "status"})

	verifyDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ledgerchain",
		Subsystem: "ledger",
		Name:      "verify_duration_seconds",
		Help:      "Duration of verifying the whole blockchain.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"chain", "status"})

	verifiedBlocks = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "ledgerchain",
		Subsystem: "ledger",
		Name:      "verified_blocks",
		Help:      "Number of blocks covered by the last verification.",
	}, []string{"chain"})
)

// Ledger observes append and verify operations of one blockchain. It
// satisfies ledger.Observer.
type Ledger struct {
	chain string
}

func NewLedger(chain string) *Ledger {
	if chain == "" {
		chain = "default"
	}
	return &Ledger{chain: chain}
}

func (m Ledger) ObserveAppend(err error, started time.Time) {
	status := "success"
	if err != nil {
		status = "error"
	}
	appendTotal.WithLabelValues(m.chain, status).Inc()
	appendDuration.WithLabelValues(m.chain, status).Observe(time.Since(started).Seconds())
}

func (m Ledger) ObserveVerify(err error, length int, started time.Time) {
	status := "valid"
	if err != nil {
		status = "invalid"
	}
	verifyTotal.WithLabelValues(m.chain, status).Inc()
	verifyDuration.WithLabelValues(m.chain, status).Observe(time.Since(started).Seconds())
	verifiedBlocks.WithLabelValues(m.chain).Set(float64(length))
}
