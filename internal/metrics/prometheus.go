package metrics

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusConfig configures PrometheusMetrics.
type PrometheusConfig struct {
	// Namespace prefixes every metric name.
	Namespace string

	// Registerer receives the collectors. Defaults to a fresh registry.
	Registerer prometheus.Registerer

	// Buckets are the histogram buckets. Defaults to prometheus.DefBuckets.
	Buckets []float64
}

// PrometheusMetrics exports metrics through client_golang collectors.
// Vectors are created on first use, keyed by metric name; every later call for
// the same name must use the same label names.
type PrometheusMetrics struct {
	namespace  string
	registerer prometheus.Registerer
	buckets    []float64

	mu         sync.Mutex
	gauges     map[string]*prometheus.GaugeVec
	counters   map[string]*prometheus.CounterVec
	histograms map[string]*prometheus.HistogramVec
	labels     map[string][]string
}

// NewPrometheusMetrics creates a Prometheus-backed Metrics.
func NewPrometheusMetrics(cfg PrometheusConfig) *PrometheusMetrics {
	reg := cfg.Registerer
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	buckets := cfg.Buckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}
	return &PrometheusMetrics{
		namespace:  cfg.Namespace,
		registerer: reg,
		buckets:    buckets,
		gauges:     make(map[string]*prometheus.GaugeVec),
		counters:   make(map[string]*prometheus.CounterVec),
		histograms: make(map[string]*prometheus.HistogramVec),
		labels:     make(map[string][]string),
	}
}

func (p *PrometheusMetrics) Initialize(ctx context.Context) error { return nil }
func (p *PrometheusMetrics) Flush(ctx context.Context) error      { return nil }
func (p *PrometheusMetrics) Shutdown(ctx context.Context) error   { return nil }

// UpdateGauge sets the gauge series.
func (p *PrometheusMetrics) UpdateGauge(ctx context.Context, name string, value float64, labels ...Label) error {
	names, values := split(labels)

	p.mu.Lock()
	vec, ok := p.gauges[name]
	if ok {
		if err := p.checkLabels(name, names); err != nil {
			p.mu.Unlock()
			return err
		}
	} else {
		vec = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: p.namespace,
			Name:      name,
			Help:      "Gauge " + name,
		}, names)
		if err := p.register(vec, name); err != nil {
			p.mu.Unlock()
			return err
		}
		p.gauges[name] = vec
		p.labels[name] = names
	}
	p.mu.Unlock()

	g, err := vec.GetMetricWithLabelValues(values...)
	if err != nil {
		return fmt.Errorf("gauge %s: %w", name, err)
	}
	g.Set(value)
	return nil
}

// IncrementCounter adds value to the counter series.
func (p *PrometheusMetrics) IncrementCounter(ctx context.Context, name string, value uint64, labels ...Label) error {
	names, values := split(labels)

	p.mu.Lock()
	vec, ok := p.counters[name]
	if ok {
		if err := p.checkLabels(name, names); err != nil {
			p.mu.Unlock()
			return err
		}
	} else {
		vec = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Name:      name,
			Help:      "Counter " + name,
		}, names)
		if err := p.register(vec, name); err != nil {
			p.mu.Unlock()
			return err
		}
		p.counters[name] = vec
		p.labels[name] = names
	}
	p.mu.Unlock()

	c, err := vec.GetMetricWithLabelValues(values...)
	if err != nil {
		return fmt.Errorf("counter %s: %w", name, err)
	}
	c.Add(float64(value))
	return nil
}

// RecordHistogram observes value in the histogram series.
func (p *PrometheusMetrics) RecordHistogram(ctx context.Context, name string, value float64, labels ...Label) error {
	names, values := split(labels)

	p.mu.Lock()
	vec, ok := p.histograms[name]
	if ok {
		if err := p.checkLabels(name, names); err != nil {
			p.mu.Unlock()
			return err
		}
	} else {
		vec = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Name:      name,
			Help:      "Histogram " + name,
			Buckets:   p.buckets,
		}, names)
		if err := p.register(vec, name); err != nil {
			p.mu.Unlock()
			return err
		}
		p.histograms[name] = vec
		p.labels[name] = names
	}
	p.mu.Unlock()

	h, err := vec.GetMetricWithLabelValues(values...)
	if err != nil {
		return fmt.Errorf("histogram %s: %w", name, err)
	}
	h.Observe(value)
	return nil
}

func (p *PrometheusMetrics) register(c prometheus.Collector, name string) error {
	if err := p.registerer.Register(c); err != nil {
		return fmt.Errorf("failed to register %s: %w", name, err)
	}
	return nil
}

// checkLabels rejects a call whose label names differ from the ones the
// vector was created with. The client only checks the value count.
func (p *PrometheusMetrics) checkLabels(name string, names []string) error {
	if want := p.labels[name]; !slices.Equal(want, names) {
		return fmt.Errorf("metric %s: label names %v, want %v", name, names, want)
	}
	return nil
}

func split(labels []Label) ([]string, []string) {
	sorted := append([]Label(nil), labels...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	names := make([]string, len(sorted))
	values := make([]string, len(sorted))
	for i, l := range sorted {
		names[i] = l.Name
		values[i] = l.Value
	}
	return names, values
}
