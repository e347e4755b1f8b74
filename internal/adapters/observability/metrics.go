package observability

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const namespace = "staybook"

// backend calls are expected well under a second; retries push the tail out
var backendBuckets = []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}

var (
	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "http_requests_total",
		Help: "Page and API requests served, by chi route pattern.",
	}, []string{"route", "method", "status"})

	httpLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace, Name: "http_request_duration_seconds",
		Help:    "Time to render a page or answer an API call.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})

	backendRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "external_requests_total",
		Help: "Requests sent to the hotel backend; status 0 is a transport error.",
	}, []string{"service", "endpoint", "status"})

	backendLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace, Name: "external_request_duration_seconds",
		Help:    "Hotel backend round trip per attempt.",
		Buckets: backendBuckets,
	}, []string{"service", "endpoint"})

	fetchFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "fetch_failures_total",
		Help: "Reads that failed and were rendered as an empty section.",
	}, []string{"op"})

	cacheEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "cache_events_total",
		Help: "Location cache and session mirror traffic.",
	}, []string{"cache", "event"})
)

// InitRegistry returns a registry holding the service vectors plus the Go
// runtime and process collectors.
func InitRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		httpRequests, httpLatency,
		backendRequests, backendLatency,
		fetchFailures, cacheEvents,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func MetricsHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// Serve exposes reg on a separate listener and returns it so the caller can
// shut it down. An empty addr disables it and returns nil.
func Serve(addr string, reg *prometheus.Registry) *http.Server {
	if addr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", MetricsHandler(reg))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		log.Info().Str("addr", addr).Msg("metrics listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("metrics listener stopped")
		}
	}()
	return srv
}

func ObserveHTTP(route, method string, status int, dur time.Duration) {
	httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	httpLatency.WithLabelValues(route, method).Observe(dur.Seconds())
}

func ObserveExternal(service, endpoint string, status int, dur time.Duration) {
	backendRequests.WithLabelValues(service, endpoint, strconv.Itoa(status)).Inc()
	backendLatency.WithLabelValues(service, endpoint).Observe(dur.Seconds())
}

// ObserveCache counts hit, miss, set and del events.
func ObserveCache(cache, event string) { cacheEvents.WithLabelValues(cache, event).Inc() }

func ObserveFetchFailure(op string) { fetchFailures.WithLabelValues(op).Inc() }
