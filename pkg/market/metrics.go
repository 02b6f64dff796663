package market

import (
	"errors"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"signet/pkg/core"
)

const outcomeSuccess = "success"

type metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// newMetrics builds the client collectors. They are registered only when r is
// non-nil; clients sharing a registry share the collectors.
func newMetrics(r prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "signet",
				Subsystem: "market",
				Name:      "requests_total",
				Help:      "Market data calls by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "signet",
				Subsystem: "market",
				Name:      "request_duration_seconds",
				Help:      "Duration of market data calls",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
	if r == nil {
		return m, nil
	}

	var err error
	if m.requests, err = register(r, m.requests); err != nil {
		return nil, err
	}
	if m.duration, err = register(r, m.duration); err != nil {
		return nil, err
	}
	return m, nil
}

func register[C prometheus.Collector](r prometheus.Registerer, c C) (C, error) {
	if err := r.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func outcome(err error) string {
	if err == nil {
		return outcomeSuccess
	}
	return strings.ToLower(core.TypeOf(err).String())
}

func (m *metrics) observe(op core.Operation, err error, elapsed time.Duration) {
	m.requests.WithLabelValues(op.String(), outcome(err)).Inc()
	m.duration.WithLabelValues(op.String()).Observe(elapsed.Seconds())
}
