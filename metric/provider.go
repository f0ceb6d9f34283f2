// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package metric

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/z5labs/telemetry/instrumentation"
	"github.com/z5labs/telemetry/resource"

	"golang.org/x/sync/errgroup"
)

// MeterProvider is the process-scoped owner of metric readers. Its
// Resource and reader set are immutable once built.
type MeterProvider struct {
	res     *resource.Resource
	readers []*PeriodicReader

	mu       sync.Mutex
	meters   map[instrumentation.Scope]*Meter
	shutdown atomic.Bool
}

// MeterProviderOption configures a MeterProvider.
type MeterProviderOption func(*MeterProvider)

// WithMeterResource sets the Resource attached to every exported
// snapshot. Defaults to [resource.Default].
func WithMeterResource(res *resource.Resource) MeterProviderOption {
	return func(p *MeterProvider) {
		p.res = res
	}
}

// WithReader registers a reader with the provider. May be used
// multiple times.
func WithReader(r *PeriodicReader) MeterProviderOption {
	return func(p *MeterProvider) {
		p.readers = append(p.readers, r)
	}
}

// NewMeterProvider returns a fully initialized MeterProvider. Each
// registered reader is wired with the provider's resource and its
// callback registry.
func NewMeterProvider(opts ...MeterProviderOption) *MeterProvider {
	p := &MeterProvider{
		res:    resource.Default(),
		meters: make(map[instrumentation.Scope]*Meter),
	}
	for _, opt := range opts {
		opt(p)
	}

	for _, r := range p.readers {
		r.setResource(p.res)
		r.RegisterProducer(meterRegistry{provider: p})
	}
	return p
}

// MeterOption configures a Meter handle.
type MeterOption func(*instrumentation.Scope)

// WithMeterVersion sets the version of the instrumented library.
func WithMeterVersion(version string) MeterOption {
	return func(s *instrumentation.Scope) {
		s.Version = version
	}
}

// WithMeterSchemaURL sets the schema URL the instrumented library
// emits against.
func WithMeterSchemaURL(url string) MeterOption {
	return func(s *instrumentation.Scope) {
		s.SchemaURL = url
	}
}

// Meter returns the scoped handle for name, creating it on first use.
func (p *MeterProvider) Meter(name string, opts ...MeterOption) *Meter {
	scope := instrumentation.Scope{Name: name}
	for _, opt := range opts {
		opt(&scope)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	m, ok := p.meters[scope]
	if !ok {
		m = &Meter{scope: scope}
		p.meters[scope] = m
	}
	return m
}

// ForceFlush triggers an immediate collect and export on every
// registered reader.
func (p *MeterProvider) ForceFlush(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, r := range p.readers {
		r := r
		g.Go(func() error {
			return r.ForceFlush(gctx)
		})
	}
	return g.Wait()
}

// Shutdown shuts every registered reader down. It is idempotent.
func (p *MeterProvider) Shutdown(ctx context.Context) error {
	if !p.shutdown.CompareAndSwap(false, true) {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, r := range p.readers {
		r := r
		g.Go(func() error {
			return r.Shutdown(gctx)
		})
	}
	return g.Wait()
}

// Callback produces the current aggregated state of the instruments
// it observes. Callbacks run synchronously during collection and must
// return freshly allocated data.
type Callback func(ctx context.Context, sel Selection) ([]Metrics, error)

// Meter registers measurement callbacks under one instrumentation
// scope. Recording itself is synchronous and local to the registered
// callbacks; the reader pulls their state each cycle.
type Meter struct {
	scope instrumentation.Scope

	mu        sync.Mutex
	callbacks []Callback
}

// RegisterCallback adds cb to the set invoked on every collection
// cycle.
func (m *Meter) RegisterCallback(cb Callback) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callbacks = append(m.callbacks, cb)
}

// meterRegistry adapts a provider's meters into the Producer contract
// consumed by readers.
type meterRegistry struct {
	provider *MeterProvider
}

// Produce implements the [Producer] interface.
func (reg meterRegistry) Produce(ctx context.Context, sel Selection) ([]ScopeMetrics, error) {
	reg.provider.mu.Lock()
	meters := make([]*Meter, 0, len(reg.provider.meters))
	for _, m := range reg.provider.meters {
		meters = append(meters, m)
	}
	reg.provider.mu.Unlock()

	var sms []ScopeMetrics
	for _, m := range meters {
		m.mu.Lock()
		callbacks := m.callbacks
		m.mu.Unlock()

		if len(callbacks) == 0 {
			continue
		}

		sm := ScopeMetrics{Scope: m.scope}
		for _, cb := range callbacks {
			metrics, err := cb(ctx, sel)
			if err != nil {
				return nil, err
			}
			sm.Metrics = append(sm.Metrics, metrics...)
		}
		sms = append(sms, sm)
	}
	return sms, nil
}
