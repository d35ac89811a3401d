// internal/service/seckill/application/metrics.go
package application

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	outcomeTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "seckill_outcomes_total",
		Help: "Purchase attempt outcomes, accepted or partitioned by rejection reason.",
	}, []string{"strategy", "outcome"})

	executeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "seckill_execute_duration_seconds",
		Help:    "Latency of the seckill execution strategy.",
		Buckets: prometheus.DefBuckets,
	}, []string{"strategy"})
)
