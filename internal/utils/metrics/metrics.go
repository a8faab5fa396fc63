// internal/utils/metrics/metrics.go
package metrics

import (
	"time"
)

const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// RecordOperation записывает исход и длительность операции протокола.
func (c *Collector) RecordOperation(op string, duration time.Duration, err error) {
	if c == nil {
		return
	}
	status := StatusSuccess
	if err != nil {
		status = StatusFailed
	}
	c.operations.WithLabelValues(op, status).Inc()
	c.operationDuration.WithLabelValues(op).Observe(duration.Seconds())
}

// RecordRPCLatency записывает метрики RPC-запроса
func (c *Collector) RecordRPCLatency(method string, duration time.Duration) {
	if c == nil {
		return
	}
	c.rpcLatency.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordRPCRetry отмечает повтор чтения.
func (c *Collector) RecordRPCRetry(method string) {
	if c == nil {
		return
	}
	c.rpcRetries.WithLabelValues(method).Inc()
}

// RecordEventDecoded отмечает успешно декодированное событие.
func (c *Collector) RecordEventDecoded(kind string) {
	if c == nil {
		return
	}
	c.eventsDecoded.WithLabelValues(kind).Inc()
}

// RecordEventSkipped отмечает пропущенную строку "Program data:".
func (c *Collector) RecordEventSkipped(reason string) {
	if c == nil {
		return
	}
	c.eventsSkipped.WithLabelValues(reason).Inc()
}

// RecordEventsStored добавляет n сохраненных событий.
func (c *Collector) RecordEventsStored(n int) {
	if c == nil || n <= 0 {
		return
	}
	c.eventsStored.Add(float64(n))
}

// UpdateReserves обновляет последние наблюдаемые резервы launch-а.
func (c *Collector) UpdateReserves(launch string, solReserve, tokenReserve uint64) {
	if c == nil {
		return
	}
	c.reserves.WithLabelValues(launch, "sol").Set(float64(solReserve))
	c.reserves.WithLabelValues(launch, "token").Set(float64(tokenReserve))
}
