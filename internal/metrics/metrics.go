package metrics

import (
	"context"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/DMarby/additive-mask/internal/handler"
	"github.com/DMarby/additive-mask/internal/health"
	"github.com/DMarby/additive-mask/internal/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"
)

const namespace = "additive_mask"

// Conversion outcomes
const (
	Converted = "converted"
	Skipped   = "skipped"
	Failed    = "failed"
)

// Metrics holds the prometheus collectors, a nil *Metrics records nothing
type Metrics struct {
	Registry *prometheus.Registry

	conversions        *prometheus.CounterVec
	conversionDuration prometheus.Histogram

	QueueSize            prometheus.Gauge
	HTTPRequestsInFlight prometheus.Gauge
	HTTPRequestDuration  *prometheus.HistogramVec
}

// New creates and registers the collectors
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		conversions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conversions_total",
			Help:      "Processed input paths by outcome.",
		}, []string{"outcome"}),
		conversionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "conversion_duration_seconds",
			Help:      "Time spent converting a single image.",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 5, 10},
		}),
		QueueSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "processor_queue_size",
			Help:      "Images waiting for or being processed by the worker queue.",
		}),
		HTTPRequestsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "HTTP requests currently being served.",
		}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status code.",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 5, 10},
		}, []string{"path", "code"}),
	}

	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.conversions,
		m.conversionDuration,
		m.QueueSize,
		m.HTTPRequestsInFlight,
		m.HTTPRequestDuration,
	)

	return m
}

// ObserveConversion records the outcome of one input path
func (m *Metrics) ObserveConversion(outcome string, duration time.Duration) {
	if m == nil {
		return
	}

	m.conversions.WithLabelValues(outcome).Inc()
	if outcome != Skipped {
		m.conversionDuration.Observe(duration.Seconds())
	}
}

// Handler returns a http handler exposing the metrics
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// Push sends the metrics to a prometheus pushgateway, for batch runs that exit before being scraped
func (m *Metrics) Push(ctx context.Context, url, job string) error {
	return push.New(url, job).Gatherer(m.Registry).PushContext(ctx)
}

// Serve starts an http server for metrics and healthchecks
func Serve(ctx context.Context, log *logger.Logger, m *Metrics, healthChecker *health.Checker, listenAddress string) {
	router := http.NewServeMux()
	router.Handle("/metrics", m.Handler())
	router.Handle("/health", handler.Health(healthChecker))

	router.HandleFunc("/debug/pprof/", pprof.Index)
	router.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	router.HandleFunc("/debug/pprof/profile", pprof.Profile)
	router.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	router.HandleFunc("/debug/pprof/trace", pprof.Trace)

	server := &http.Server{
		Addr:    listenAddress,
		Handler: router,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Infof("shutting down the metrics http server: %s", err)
		}
	}()

	log.Infof("metrics http server listening on %s", listenAddress)

	<-ctx.Done()

	if err := server.Close(); err != nil {
		log.Warnf("error shutting down metrics http server: %s", err)
	}
}
