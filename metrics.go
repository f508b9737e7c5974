package endpoints

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Observation describes one handled request.
type Observation struct {
	Type     string
	Method   Method
	Status   int
	Duration time.Duration
}

// Observer receives one Observation per request served by a Handler.
type Observer interface {
	Observe(ctx context.Context, o Observation)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(ctx context.Context, o Observation)

// Observe calls f(ctx, o).
func (f ObserverFunc) Observe(ctx context.Context, o Observation) { f(ctx, o) }

// PrometheusObserver records request counts and latencies.
type PrometheusObserver struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewPrometheusObserver creates the collectors under namespace and registers
// them with reg.
func NewPrometheusObserver(reg prometheus.Registerer, namespace string) (*PrometheusObserver, error) {
	o := &PrometheusObserver{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "endpoints",
				Name:      "requests_total",
				Help:      "Total number of resource requests handled.",
			},
			[]string{"type", "method", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "endpoints",
				Name:      "request_duration_seconds",
				Help:      "Duration of resource requests.",
				Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
			},
			[]string{"type", "method"},
		),
	}

	for _, c := range []prometheus.Collector{o.requests, o.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// Observe implements Observer.
func (o *PrometheusObserver) Observe(_ context.Context, obs Observation) {
	o.requests.WithLabelValues(obs.Type, string(obs.Method), strconv.Itoa(obs.Status)).Inc()
	o.duration.WithLabelValues(obs.Type, string(obs.Method)).Observe(obs.Duration.Seconds())
}
