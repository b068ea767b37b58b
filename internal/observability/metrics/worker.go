package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	synthesisTotal    *prometheus.CounterVec
	synthesisDuration *prometheus.HistogramVec
	synthesisInFlight prometheus.Gauge
	queueLag          *prometheus.HistogramVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	synthesisTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "readalong",
			Subsystem: "worker",
			Name:      "page_audio_total",
			Help:      "Total page audio jobs by status.",
		},
		[]string{"service", "status"},
	)
	synthesisDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "readalong",
			Subsystem: "worker",
			Name:      "page_audio_duration_seconds",
			Help:      "Page audio synthesis duration in seconds by status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)
	synthesisInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "readalong",
			Subsystem: "worker",
			Name:      "page_audio_in_flight",
			Help:      "Number of in-flight page audio jobs.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	queueLag := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "readalong",
			Subsystem: "worker",
			Name:      "queue_lag_seconds",
			Help:      "Delay between page upload and synthesis start.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"service"},
	)

	registry.MustRegister(synthesisTotal, synthesisDuration, synthesisInFlight, queueLag)

	return &WorkerMetrics{
		registry:          registry,
		synthesisTotal:    synthesisTotal,
		synthesisDuration: synthesisDuration,
		synthesisInFlight: synthesisInFlight,
		queueLag:          queueLag,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartPage() {
	m.synthesisInFlight.Inc()
}

func (m *WorkerMetrics) FinishPage(service string, duration time.Duration, err error) {
	m.synthesisInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}

	m.synthesisTotal.WithLabelValues(service, status).Inc()
	m.synthesisDuration.WithLabelValues(service, status).Observe(duration.Seconds())
}

func (m *WorkerMetrics) ObserveQueueLag(service string, lag time.Duration) {
	if lag < 0 {
		return
	}
	m.queueLag.WithLabelValues(service).Observe(lag.Seconds())
}
