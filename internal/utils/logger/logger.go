// internal/utils/logger/logger.go
package logger

import (
	"errors"
	"io"
	"os"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger расширяет функционал zap.Logger
type Logger struct {
	*zap.Logger
	config *Config
	closer io.Closer
}

// Option добавляет ядро к логгеру.
type Option func(*options)

type options struct {
	console io.Writer
	buffer  *Buffer
}

// WithConsole перенаправляет консольный вывод (по умолчанию stderr, stdout
// занят выводом команд).
func WithConsole(w io.Writer) Option {
	return func(o *options) { o.console = w }
}

// WithBuffer дублирует записи в кольцевой буфер для TUI.
func WithBuffer(b *Buffer) Option {
	return func(o *options) { o.buffer = b }
}

// New создает новый логгер с расширенной функциональностью
func New(cfg *Config, opts ...Option) (*Logger, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	o := options{console: os.Stderr}
	for _, opt := range opts {
		opt(&o)
	}

	// Базовая конфигурация энкодера
	encoderConfig := zap.NewProductionEncoderConfig()
	if cfg.Development {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
	}

	// Улучшаем конфигурацию энкодера
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	encoderConfig.EncodeDuration = zapcore.StringDurationEncoder
	encoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	// Определяем уровень логирования
	level := zapcore.InfoLevel
	if cfg.Development {
		level = zapcore.DebugLevel
	}

	var (
		cores  []zapcore.Core
		closer io.Closer
	)
	if !cfg.Quiet {
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), zapcore.Lock(zapcore.AddSync(o.console)), level))
	}
	if cfg.LogFile != "" {
		// Настройка ротации логов
		logRotator := &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.AddSync(logRotator), level))
		closer = logRotator
	}
	if o.buffer != nil {
		cores = append(cores, newBufferCore(o.buffer, level))
	}

	// Создаем логгер с дополнительными опциями
	return &Logger{
		Logger: zap.New(zapcore.NewTee(cores...),
			zap.AddCaller(),
			zap.AddStacktrace(zapcore.ErrorLevel),
		),
		config: cfg,
		closer: closer,
	}, nil
}

// WithTransaction добавляет контекст транзакции к логам
func WithTransaction(base *zap.Logger, signature string) *zap.Logger {
	return base.With(
		zap.String("tx_hash", signature),
		zap.Time("tx_time", time.Now().UTC()),
	)
}

// WithOperation добавляет к логгеру имя операции и correlation id.
func WithOperation(base *zap.Logger, operation string) *zap.Logger {
	return base.With(
		zap.String("operation", operation),
		zap.String("correlation_id", uuid.New().String()),
		zap.Time("start_time", time.Now().UTC()),
	)
}

// TrackPerformance отслеживает производительность операции. Возвращаемый
// логгер несёт correlation id, end пишет длительность.
func TrackPerformance(base *zap.Logger, operation string) (opLogger *zap.Logger, end func()) {
	start := time.Now()
	opLogger = WithOperation(base, operation)

	opLogger.Debug("Starting operation")

	return opLogger, func() {
		duration := time.Since(start)
		opLogger.Debug("Operation completed",
			zap.Duration("duration", duration),
			zap.Float64("duration_ms", float64(duration.Microseconds())/1000),
		)
	}
}

// Sync реализует безопасный вызов Sync
func (l *Logger) Sync() error {
	err := l.Logger.Sync()
	if errors.Is(err, syscall.EINVAL) || errors.Is(err, syscall.ENOTTY) {
		return nil
	}
	return err
}

// Close сбрасывает буферы и закрывает файл лога.
func (l *Logger) Close() error {
	err := l.Sync()
	if l.closer != nil {
		if cerr := l.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
