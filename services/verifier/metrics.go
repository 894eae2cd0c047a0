package verifier

import (
	"sync"

	"github.com/bitcoin-sv/btcx/util"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	prometheusVerifierVerify            prometheus.Histogram
	prometheusVerifierVerifyRetargeting prometheus.Histogram
	prometheusVerifierHeaders           prometheus.Counter
	prometheusVerifierBatchSize         prometheus.Histogram
	prometheusVerifierRejected          *prometheus.CounterVec
)

var (
	prometheusMetricsInitOnce sync.Once
)

func initPrometheusMetrics() {
	prometheusMetricsInitOnce.Do(_initPrometheusMetrics)
}

func _initPrometheusMetrics() {
	prometheusVerifierVerify = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "btcx",
			Subsystem: "verifier",
			Name:      "verify",
			Help:      "Histogram of fixed difficulty batch verification",
			Buckets:   util.MetricsBucketsMilliSeconds,
		},
	)

	prometheusVerifierVerifyRetargeting = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "btcx",
			Subsystem: "verifier",
			Name:      "verify_retargeting",
			Help:      "Histogram of retargeting batch verification",
			Buckets:   util.MetricsBucketsMilliSeconds,
		},
	)

	prometheusVerifierHeaders = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "btcx",
			Subsystem: "verifier",
			Name:      "headers",
			Help:      "Number of headers that passed verification",
		},
	)

	prometheusVerifierBatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "btcx",
			Subsystem: "verifier",
			Name:      "batch_size",
			Help:      "Headers per verified batch, evidence included",
			Buckets:   util.MetricsBucketsHeaderCount,
		},
	)

	prometheusVerifierRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "btcx",
			Subsystem: "verifier",
			Name:      "rejected",
			Help:      "Number of rejected batches by error code",
		},
		[]string{"code"},
	)
}
