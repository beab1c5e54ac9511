package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder collects request and store-validation metrics. A nil Recorder is
// valid and records nothing.
type Recorder struct {
	requests   *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	validation *prometheus.HistogramVec
}

// New registers the metrics on reg under the given service label.
func New(reg prometheus.Registerer, service string) *Recorder {
	if reg == nil {
		return nil
	}
	labels := prometheus.Labels{"service": service}
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "handler_requests_total",
		Help:        "Handled requests by action and status code.",
		ConstLabels: labels,
	}, []string{"action", "status"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:        "handler_request_duration_seconds",
		Help:        "Request handling time by action.",
		Buckets:     prometheus.DefBuckets,
		ConstLabels: labels,
	}, []string{"action"})
	validation := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:        "store_validation_duration_seconds",
		Help:        "Latency of store existence checks by outcome.",
		Buckets:     []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
		ConstLabels: labels,
	}, []string{"outcome"})
	reg.MustRegister(requests, duration, validation)
	return &Recorder{requests: requests, duration: duration, validation: validation}
}

// ObserveRequest records one handled request.
func (r *Recorder) ObserveRequest(action string, status int, elapsed time.Duration) {
	if r == nil {
		return
	}
	action = normalizeLabel(action)
	r.requests.WithLabelValues(action, strconv.Itoa(status)).Inc()
	r.duration.WithLabelValues(action).Observe(elapsed.Seconds())
}

// ObserveValidation records one call to the store service.
func (r *Recorder) ObserveValidation(outcome string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.validation.WithLabelValues(normalizeLabel(outcome)).Observe(elapsed.Seconds())
}

func normalizeLabel(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "unknown"
	}
	return v
}
