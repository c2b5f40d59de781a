package metrics

import (
	"context"
	"log/slog"
	"sync"
)

// NoopMetrics discards everything. It is the default when no backend is set.
type NoopMetrics struct{}

func NewNoopMetrics() *NoopMetrics { return &NoopMetrics{} }

func (NoopMetrics) Initialize(context.Context) error { return nil }
func (NoopMetrics) Flush(context.Context) error      { return nil }
func (NoopMetrics) Shutdown(context.Context) error   { return nil }

func (NoopMetrics) UpdateGauge(context.Context, string, float64, ...Label) error     { return nil }
func (NoopMetrics) IncrementCounter(context.Context, string, uint64, ...Label) error { return nil }
func (NoopMetrics) RecordHistogram(context.Context, string, float64, ...Label) error { return nil }

// LogMetrics keeps gauge and counter series in memory and writes every update
// to a slog logger at debug level. Flush logs the current totals.
type LogMetrics struct {
	logger *slog.Logger

	mu       sync.RWMutex
	gauges   map[string]float64
	counters map[string]uint64
}

// NewLogMetrics logs to logger, or to slog.Default when logger is nil.
func NewLogMetrics(logger *slog.Logger) *LogMetrics {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogMetrics{
		logger:   logger,
		gauges:   make(map[string]float64),
		counters: make(map[string]uint64),
	}
}

func (l *LogMetrics) Initialize(context.Context) error {
	l.logger.Info("metrics initialized")
	return nil
}

func (l *LogMetrics) Flush(context.Context) error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.logger.Info("metrics flush", "gauges", l.gauges, "counters", l.counters)
	return nil
}

func (l *LogMetrics) Shutdown(context.Context) error {
	l.logger.Info("metrics shutdown")
	return nil
}

func (l *LogMetrics) UpdateGauge(_ context.Context, name string, value float64, labels ...Label) error {
	key := SeriesKey(name, labels)
	l.mu.Lock()
	l.gauges[key] = value
	l.mu.Unlock()

	l.logger.Debug("gauge updated", "series", key, "value", value)
	return nil
}

func (l *LogMetrics) IncrementCounter(_ context.Context, name string, value uint64, labels ...Label) error {
	key := SeriesKey(name, labels)
	l.mu.Lock()
	l.counters[key] += value
	total := l.counters[key]
	l.mu.Unlock()

	l.logger.Debug("counter incremented", "series", key, "value", value, "total", total)
	return nil
}

func (l *LogMetrics) RecordHistogram(_ context.Context, name string, value float64, labels ...Label) error {
	l.logger.Debug("histogram recorded", "series", SeriesKey(name, labels), "value", value)
	return nil
}

// Gauge returns the last value of a gauge series.
func (l *LogMetrics) Gauge(name string, labels ...Label) (float64, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	v, ok := l.gauges[SeriesKey(name, labels)]
	return v, ok
}

// Counter returns the total of a counter series.
func (l *LogMetrics) Counter(name string, labels ...Label) uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.counters[SeriesKey(name, labels)]
}
