package metrics

import (
	"context"
	"errors"
	"sync"
)

// Collection forwards every call to each attached backend. A failing backend
// does not stop the others; their errors are joined.
type Collection struct {
	mu       sync.RWMutex
	backends []Metrics
}

var _ Metrics = (*Collection)(nil)

func NewCollection(backends ...Metrics) *Collection {
	return &Collection{backends: backends}
}

// Add attaches m.
func (c *Collection) Add(m Metrics) {
	c.mu.Lock()
	c.backends = append(c.backends, m)
	c.mu.Unlock()
}

// Len returns the number of attached backends.
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.backends)
}

func (c *Collection) forEach(call func(Metrics) error) error {
	c.mu.RLock()
	backends := c.backends
	c.mu.RUnlock()

	var errs []error
	for _, m := range backends {
		if err := call(m); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (c *Collection) Initialize(ctx context.Context) error {
	return c.forEach(func(m Metrics) error { return m.Initialize(ctx) })
}

func (c *Collection) Flush(ctx context.Context) error {
	return c.forEach(func(m Metrics) error { return m.Flush(ctx) })
}

func (c *Collection) Shutdown(ctx context.Context) error {
	return c.forEach(func(m Metrics) error { return m.Shutdown(ctx) })
}

func (c *Collection) UpdateGauge(ctx context.Context, name string, value float64, labels ...Label) error {
	return c.forEach(func(m Metrics) error { return m.UpdateGauge(ctx, name, value, labels...) })
}

func (c *Collection) IncrementCounter(ctx context.Context, name string, value uint64, labels ...Label) error {
	return c.forEach(func(m Metrics) error { return m.IncrementCounter(ctx, name, value, labels...) })
}

func (c *Collection) RecordHistogram(ctx context.Context, name string, value float64, labels ...Label) error {
	return c.forEach(func(m Metrics) error { return m.RecordHistogram(ctx, name, value, labels...) })
}
