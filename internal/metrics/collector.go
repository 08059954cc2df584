// Package metrics records Phantom API request metrics with Prometheus.
package metrics

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector holds the request metrics of one client.
type Collector struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	transportErrors *prometheus.CounterVec
}

// NewCollector creates a Collector and registers it with reg. Collectors
// already registered by another client on the same registry are reused.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "phantom_client_requests_total",
				Help: "Total number of Phantom API requests by response status",
			},
			[]string{"method", "endpoint", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "phantom_client_request_duration_seconds",
				Help:    "Phantom API request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),
		transportErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "phantom_client_transport_errors_total",
				Help: "Requests that failed before a response was received",
			},
			[]string{"method", "endpoint"},
		),
	}

	var err error
	if c.requestsTotal, err = register(reg, c.requestsTotal); err != nil {
		return nil, err
	}
	if c.requestDuration, err = register(reg, c.requestDuration); err != nil {
		return nil, err
	}
	if c.transportErrors, err = register(reg, c.transportErrors); err != nil {
		return nil, err
	}
	return c, nil
}

func register[T prometheus.Collector](reg prometheus.Registerer, col T) (T, error) {
	if err := reg.Register(col); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return col, err
	}
	return col, nil
}

// ObserveResponse records a completed request.
func (c *Collector) ObserveResponse(method, path string, status int, d time.Duration) {
	if c == nil {
		return
	}
	endpoint := Endpoint(path)
	c.requestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
	c.requestDuration.WithLabelValues(method, endpoint).Observe(d.Seconds())
}

// ObserveError records a request that failed in transport.
func (c *Collector) ObserveError(method, path string) {
	if c == nil {
		return
	}
	c.transportErrors.WithLabelValues(method, Endpoint(path)).Inc()
}

// Endpoint collapses numeric path segments so that per-object URLs share
// one label value: /rest/container/42 becomes /rest/container/:id.
func Endpoint(path string) string {
	parts := strings.Split(path, "/")
	for i, p := range parts {
		if p == "" {
			continue
		}
		if _, err := strconv.ParseInt(p, 10, 64); err == nil {
			parts[i] = ":id"
		}
	}
	return strings.Join(parts, "/")
}
