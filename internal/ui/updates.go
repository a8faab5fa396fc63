package ui

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

// UpdateStats counts queued and dropped background messages.
type UpdateStats struct {
	Sent    uint64
	Dropped uint64
}

// DropRate is the share of dropped messages in percent.
func (s UpdateStats) DropRate() float64 {
	total := s.Sent + s.Dropped
	if total == 0 {
		return 0
	}
	return float64(s.Dropped) / float64(total) * 100
}

// UpdateSender queues messages from background goroutines for the viewer.
// Producers never wait on a slow UI; surplus messages are dropped.
type UpdateSender struct {
	queue   chan tea.Msg
	sent    atomic.Uint64
	dropped atomic.Uint64
	logger  *zap.Logger
	once    sync.Once
}

// NewUpdateSender creates a sender with a queue of size messages.
func NewUpdateSender(size int, logger *zap.Logger) *UpdateSender {
	if size <= 0 {
		size = 1
	}
	return &UpdateSender{
		queue:  make(chan tea.Msg, size),
		logger: logger,
	}
}

// SendUpdate queues msg without blocking.
func (us *UpdateSender) SendUpdate(msg tea.Msg) {
	select {
	case us.queue <- msg:
		us.sent.Add(1)
	default:
		if us.dropped.Add(1) == 1 {
			us.logger.Debug("Viewer queue full, dropping updates",
				zap.String("type", fmt.Sprintf("%T", msg)))
		}
	}
}

// Forward delivers queued messages to send until ctx is done. Pass
// (*tea.Program).Send.
func (us *UpdateSender) Forward(ctx context.Context, send func(tea.Msg)) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-us.queue:
			send(msg)
		}
	}
}

// Stats returns the current counters.
func (us *UpdateSender) Stats() UpdateStats {
	return UpdateStats{Sent: us.sent.Load(), Dropped: us.dropped.Load()}
}

// Close reports the counters once. Messages still queued are discarded.
func (us *UpdateSender) Close() {
	us.once.Do(func() {
		stats := us.Stats()
		level := zap.DebugLevel
		if stats.Dropped > 0 {
			level = zap.WarnLevel
		}
		us.logger.Log(level, "Viewer update statistics",
			zap.Uint64("sent", stats.Sent),
			zap.Uint64("dropped", stats.Dropped),
			zap.Float64("drop_rate", stats.DropRate()))
	})
}
