package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain repository.Metrics on Prometheus.
type Recorder struct {
	computations *prometheus.CounterVec
	errorsTotal  *prometheus.CounterVec
	lastSpot     *prometheus.GaugeVec
	latency      *prometheus.HistogramVec
}

// New registers the recorder's collectors with reg. A nil reg uses the
// default registry.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Recorder{
		computations: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fxrisk_computations_total",
				Help: "Analytics computations by kind and outcome",
			},
			[]string{"kind", "status"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fxrisk_errors_total",
				Help: "Errors encountered by kind",
			},
			[]string{"kind"},
		),
		lastSpot: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "fxrisk_last_spot",
				Help: "Last spot used as a risk cone anchor",
			},
			[]string{"pair"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fxrisk_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"operation"},
		),
	}
}

func (r *Recorder) RecordComputation(kind, status string) {
	r.computations.WithLabelValues(kind, status).Inc()
}

func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

func (r *Recorder) RecordLastSpot(pair string, spot float64) {
	r.lastSpot.WithLabelValues(pair).Set(spot)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
