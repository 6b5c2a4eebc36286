package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	collections *prometheus.CounterVec
	errorsTotal *prometheus.CounterVec
	netInflow   *prometheus.GaugeVec
	latency     *prometheus.HistogramVec
	wsClients   prometheus.Gauge
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		collections: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fundflow_collections_total",
				Help: "Collection attempts per source and outcome",
			},
			[]string{"source", "status"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fundflow_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		netInflow: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "fundflow_net_inflow_dollars",
				Help: "Last computed net inflow per source",
			},
			[]string{"source"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fundflow_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		wsClients: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "fundflow_ws_clients",
				Help: "Currently connected live-feed clients",
			},
		),
	}
}

// RecordCollection records one collection attempt outcome for a source.
func (r *Recorder) RecordCollection(source, status string) {
	r.collections.WithLabelValues(source, status).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordNetInflow records the last computed net inflow for a source.
func (r *Recorder) RecordNetInflow(source string, amount float64) {
	r.netInflow.WithLabelValues(source).Set(amount)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// RecordClients records the live-feed client count.
func (r *Recorder) RecordClients(n int) {
	r.wsClients.Set(float64(n))
}
