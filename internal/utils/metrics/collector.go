// internal/utils/metrics/collector.go
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "launchpad"

// Collector владеет собственным реестром, поэтому несколько экземпляров
// (например, в тестах) не конфликтуют при регистрации.
// Все методы безопасны для nil-получателя.
type Collector struct {
	registry *prometheus.Registry

	operations        *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	rpcLatency        *prometheus.HistogramVec
	rpcRetries        *prometheus.CounterVec
	eventsDecoded     *prometheus.CounterVec
	eventsSkipped     *prometheus.CounterVec
	eventsStored      prometheus.Counter
	reserves          *prometheus.GaugeVec
}

// NewCollector создает коллектор и регистрирует все метрики.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operations_total",
				Help:      "Protocol operations by outcome",
			},
			[]string{"op", "status"},
		),
		operationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Protocol operation duration in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
			},
			[]string{"op"},
		),
		rpcLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "rpc_latency_seconds",
				Help:      "RPC request latency in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.001, 2, 10),
			},
			[]string{"method"},
		),
		rpcRetries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rpc_retries_total",
				Help:      "Retried read requests",
			},
			[]string{"method"},
		),
		eventsDecoded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_decoded_total",
				Help:      "Program events decoded from transaction logs",
			},
			[]string{"kind"},
		),
		eventsSkipped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_skipped_total",
				Help:      "Program data lines skipped while reading the event log",
			},
			[]string{"reason"},
		),
		eventsStored: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_stored_total",
				Help:      "Events written to the archive",
			},
		),
		reserves: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "launch_reserve",
				Help:      "Last observed real reserve of a launch",
			},
			[]string{"launch", "side"},
		),
	}

	c.registry.MustRegister(
		c.operations,
		c.operationDuration,
		c.rpcLatency,
		c.rpcRetries,
		c.eventsDecoded,
		c.eventsSkipped,
		c.eventsStored,
		c.reserves,
	)
	return c
}

// Registry возвращает реестр коллектора.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// Handler отдает метрики в формате Prometheus.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Reset сбрасывает все метрики (полезно для тестирования)
func (c *Collector) Reset() {
	if c == nil {
		return
	}
	c.operations.Reset()
	c.operationDuration.Reset()
	c.rpcLatency.Reset()
	c.rpcRetries.Reset()
	c.eventsDecoded.Reset()
	c.eventsSkipped.Reset()
	c.reserves.Reset()
}
