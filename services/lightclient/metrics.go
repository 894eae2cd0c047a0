package lightclient

import (
	"sync"

	"github.com/bitcoin-sv/btcx/util"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	prometheusLightClientApply     prometheus.Histogram
	prometheusLightClientRejected  *prometheus.CounterVec
	prometheusLightClientTipHeight prometheus.Gauge
	prometheusLightClientReorgs    prometheus.Counter
	prometheusLightClientNotifyErr prometheus.Counter
)

var (
	prometheusMetricsInitOnce sync.Once
)

func initPrometheusMetrics() {
	prometheusMetricsInitOnce.Do(_initPrometheusMetrics)
}

func _initPrometheusMetrics() {
	prometheusLightClientApply = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "btcx",
			Subsystem: "lightclient",
			Name:      "apply",
			Help:      "Histogram of chain state updates",
			Buckets:   util.MetricsBucketsMilliSeconds,
		},
	)

	prometheusLightClientRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "btcx",
			Subsystem: "lightclient",
			Name:      "rejected",
			Help:      "Number of rejected updates by error code",
		},
		[]string{"code"},
	)

	prometheusLightClientTipHeight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "btcx",
			Subsystem: "lightclient",
			Name:      "tip_height",
			Help:      "Height of the canonical tip",
		},
	)

	prometheusLightClientReorgs = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "btcx",
			Subsystem: "lightclient",
			Name:      "reorgs",
			Help:      "Number of accepted updates whose parent was below the tip",
		},
	)

	prometheusLightClientNotifyErr = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "btcx",
			Subsystem: "lightclient",
			Name:      "notify_errors",
			Help:      "Number of tip notifications that could not be published",
		},
	)
}
