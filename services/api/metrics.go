package api

import (
	"sync"

	"github.com/bitcoin-sv/btcx/util"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	prometheusAPISubmit      prometheus.Histogram
	prometheusAPIAttestation prometheus.Histogram
	prometheusAPIRequests    *prometheus.CounterVec
)

var (
	prometheusMetricsInitOnce sync.Once
)

func initPrometheusMetrics() {
	prometheusMetricsInitOnce.Do(_initPrometheusMetrics)
}

func _initPrometheusMetrics() {
	prometheusAPISubmit = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "btcx",
			Subsystem: "api",
			Name:      "submit",
			Help:      "Histogram of direct header submissions",
			Buckets:   util.MetricsBucketsMilliSeconds,
		},
	)

	prometheusAPIAttestation = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "btcx",
			Subsystem: "api",
			Name:      "attestation",
			Help:      "Histogram of relay attestation callbacks",
			Buckets:   util.MetricsBucketsMilliSeconds,
		},
	)

	prometheusAPIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "btcx",
			Subsystem: "api",
			Name:      "requests",
			Help:      "Number of API requests by method",
		},
		[]string{"method"},
	)
}
