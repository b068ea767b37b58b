package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	pagesIngestedTotal   *prometheus.CounterVec
	unprocessableTotal   *prometheus.CounterVec
	regionsPerPage       *prometheus.HistogramVec
	ingestDuration       *prometheus.HistogramVec
	sentencesTotal       *prometheus.CounterVec
	sessionsStartedTotal *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "readalong",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "readalong",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "readalong",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	pagesIngestedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "readalong",
			Subsystem: "pipeline",
			Name:      "pages_ingested_total",
			Help:      "Total pages that completed the synchronous pipeline.",
		},
		[]string{"service", "kind"},
	)
	unprocessableTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "readalong",
			Subsystem: "pipeline",
			Name:      "unprocessable_pages_total",
			Help:      "Total uploads rejected because no text regions were found.",
		},
		[]string{"service"},
	)
	regionsPerPage := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "readalong",
			Subsystem: "pipeline",
			Name:      "regions_per_page",
			Help:      "Distribution of text regions detected per page.",
			Buckets:   []float64{1, 2, 3, 4, 5, 8, 13, 21},
		},
		[]string{"service"},
	)
	ingestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "readalong",
			Subsystem: "pipeline",
			Name:      "ingest_duration_seconds",
			Help:      "Synchronous page pipeline duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "kind"},
	)
	sentencesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "readalong",
			Subsystem: "pipeline",
			Name:      "sentences_total",
			Help:      "Total narrated sentences by outcome.",
		},
		[]string{"service", "outcome"},
	)
	sessionsStartedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "readalong",
			Subsystem: "session",
			Name:      "started_total",
			Help:      "Total reading sessions started.",
		},
		[]string{"service"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		pagesIngestedTotal,
		unprocessableTotal,
		regionsPerPage,
		ingestDuration,
		sentencesTotal,
		sessionsStartedTotal,
	)

	return &HTTPServerMetrics{
		registry:             registry,
		requestTotal:         requestTotal,
		requestDuration:      requestDuration,
		requestInFlight:      requestInFlight,
		pagesIngestedTotal:   pagesIngestedTotal,
		unprocessableTotal:   unprocessableTotal,
		regionsPerPage:       regionsPerPage,
		ingestDuration:       ingestDuration,
		sentencesTotal:       sentencesTotal,
		sessionsStartedTotal: sessionsStartedTotal,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/session/"):
		return "/session/{op}"
	default:
		return path
	}
}

func (m *HTTPServerMetrics) RecordPageIngest(service string, frontPage bool, regions int, duration time.Duration) {
	m.pagesIngestedTotal.WithLabelValues(service, pageKind(frontPage)).Inc()
	m.regionsPerPage.WithLabelValues(service).Observe(float64(regions))
	m.ingestDuration.WithLabelValues(service, pageKind(frontPage)).Observe(duration.Seconds())
}

func (m *HTTPServerMetrics) RecordUnprocessablePage(service string) {
	m.unprocessableTotal.WithLabelValues(service).Inc()
}

func (m *HTTPServerMetrics) RecordSentences(service string, narrated, dropped int) {
	if narrated > 0 {
		m.sentencesTotal.WithLabelValues(service, "narrated").Add(float64(narrated))
	}
	if dropped > 0 {
		m.sentencesTotal.WithLabelValues(service, "dropped").Add(float64(dropped))
	}
}

func (m *HTTPServerMetrics) RecordSessionStart(service string) {
	m.sessionsStartedTotal.WithLabelValues(service).Inc()
}

func pageKind(frontPage bool) string {
	if frontPage {
		return "front"
	}
	return "story"
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
