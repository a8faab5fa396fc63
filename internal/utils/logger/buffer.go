package logger

import (
	"sync"
	"time"

	"go.uber.org/zap/zapcore"
)

// Entry is a single log entry in the buffer
type Entry struct {
	Time    time.Time
	Level   zapcore.Level
	Logger  string
	Message string
}

// Buffer is a thread-safe ring buffer of recent log entries.
type Buffer struct {
	mu      sync.Mutex
	entries []Entry
	next    int
	wrapped bool
	total   uint64
}

// NewBuffer creates a buffer that keeps the last size entries.
func NewBuffer(size int) *Buffer {
	if size <= 0 {
		size = 1
	}
	return &Buffer{entries: make([]Entry, size)}
}

// Add appends an entry, overwriting the oldest once full.
func (b *Buffer) Add(e Entry) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.entries[b.next] = e
	b.next = (b.next + 1) % len(b.entries)
	if b.next == 0 {
		b.wrapped = true
	}
	b.total++
}

// Recent returns up to limit of the newest entries, oldest first. A limit of
// zero returns everything buffered.
func (b *Buffer) Recent(limit int) []Entry {
	b.mu.Lock()
	defer b.mu.Unlock()

	count := b.next
	start := 0
	if b.wrapped {
		count = len(b.entries)
		start = b.next
	}
	if limit > 0 && limit < count {
		start += count - limit
		count = limit
	}

	out := make([]Entry, 0, count)
	for i := range count {
		out = append(out, b.entries[(start+i)%len(b.entries)])
	}
	return out
}

// Total returns how many entries were ever added.
func (b *Buffer) Total() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.total
}

// bufferCore writes entries into a Buffer, dropping structured fields.
type bufferCore struct {
	zapcore.LevelEnabler
	buf *Buffer
}

func newBufferCore(buf *Buffer, level zapcore.LevelEnabler) zapcore.Core {
	return &bufferCore{LevelEnabler: level, buf: buf}
}

func (c *bufferCore) With([]zapcore.Field) zapcore.Core { return c }

func (c *bufferCore) Check(e zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(e.Level) {
		return ce.AddCore(e, c)
	}
	return ce
}

func (c *bufferCore) Write(e zapcore.Entry, _ []zapcore.Field) error {
	c.buf.Add(Entry{Time: e.Time, Level: e.Level, Logger: e.LoggerName, Message: e.Message})
	return nil
}

func (c *bufferCore) Sync() error { return nil }
