package submitter

import (
	"sync"

	"github.com/bitcoin-sv/btcx/util"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	prometheusSubmitterDirect    prometheus.Histogram
	prometheusSubmitterRequests  prometheus.Counter
	prometheusSubmitterCallbacks *prometheus.CounterVec
	prometheusSubmitterRelay     prometheus.Histogram
)

var (
	prometheusMetricsInitOnce sync.Once
)

func initPrometheusMetrics() {
	prometheusMetricsInitOnce.Do(_initPrometheusMetrics)
}

func _initPrometheusMetrics() {
	prometheusSubmitterDirect = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "btcx",
			Subsystem: "submitter",
			Name:      "direct_submit",
			Help:      "Histogram of direct header submissions",
			Buckets:   util.MetricsBucketsMilliSeconds,
		},
	)

	prometheusSubmitterRequests = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "btcx",
			Subsystem: "submitter",
			Name:      "attestation_requests",
			Help:      "Number of attestation requests sent to the relay",
		},
	)

	prometheusSubmitterCallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "btcx",
			Subsystem: "submitter",
			Name:      "attestation_outcomes",
			Help:      "Number of attestation requests by final state",
		},
		[]string{"state"},
	)

	prometheusSubmitterRelay = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "btcx",
			Subsystem: "submitter",
			Name:      "relay_send",
			Help:      "Histogram of requests to the proof relay",
			Buckets:   util.MetricsBucketsMilliSeconds,
		},
	)
}
