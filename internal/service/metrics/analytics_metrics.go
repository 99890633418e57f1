package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	EndpointLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fxrisk",
			Subsystem: "api",
			Name:      "endpoint_latency_seconds",
			Help:      "Latency of analytics endpoints",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"endpoint"},
	)

	EndpointErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fxrisk",
			Subsystem: "api",
			Name:      "endpoint_errors_total",
			Help:      "Errors by analytics endpoint and code",
		},
		[]string{"endpoint", "code"},
	)
)

// Register adds the endpoint collectors to the default registry once.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(EndpointLatency, EndpointErrors)
	})
}
