// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package log

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/z5labs/telemetry/instrumentation"
	"github.com/z5labs/telemetry/resource"

	"golang.org/x/sync/errgroup"
)

// LoggerProvider is the process-scoped owner of log processors. Its
// Resource and processor set are immutable once built.
type LoggerProvider struct {
	res      *resource.Resource
	procs    []Processor
	shutdown atomic.Bool
}

// LoggerProviderOption configures a LoggerProvider.
type LoggerProviderOption func(*LoggerProvider)

// WithResource sets the Resource stamped onto every emitted record.
// Defaults to [resource.Default].
func WithResource(res *resource.Resource) LoggerProviderOption {
	return func(p *LoggerProvider) {
		p.res = res
	}
}

// WithProcessor registers a Processor with the provider. May be used
// multiple times; records are handed to processors in registration
// order.
func WithProcessor(proc Processor) LoggerProviderOption {
	return func(p *LoggerProvider) {
		p.procs = append(p.procs, proc)
	}
}

// NewLoggerProvider returns a fully initialized LoggerProvider.
func NewLoggerProvider(opts ...LoggerProviderOption) *LoggerProvider {
	p := &LoggerProvider{
		res: resource.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}

	for _, proc := range p.procs {
		if rs, ok := proc.(resourceSetter); ok {
			rs.setResource(p.res)
		}
	}
	return p
}

// LoggerOption configures a Logger handle.
type LoggerOption func(*instrumentation.Scope)

// WithLoggerVersion sets the version of the instrumented library.
func WithLoggerVersion(version string) LoggerOption {
	return func(s *instrumentation.Scope) {
		s.Version = version
	}
}

// WithLoggerSchemaURL sets the schema URL the instrumented library
// emits against.
func WithLoggerSchemaURL(url string) LoggerOption {
	return func(s *instrumentation.Scope) {
		s.SchemaURL = url
	}
}

// Logger returns a scoped emission handle. Loggers are cheap and safe
// for concurrent use.
func (p *LoggerProvider) Logger(name string, opts ...LoggerOption) *Logger {
	scope := instrumentation.Scope{Name: name}
	for _, opt := range opts {
		opt(&scope)
	}
	return &Logger{
		provider: p,
		scope:    scope,
	}
}

// ForceFlush drains every registered processor, blocking until all
// complete or ctx expires.
func (p *LoggerProvider) ForceFlush(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, proc := range p.procs {
		proc := proc
		g.Go(func() error {
			return proc.ForceFlush(gctx)
		})
	}
	return g.Wait()
}

// Shutdown shuts every registered processor down. It is idempotent;
// a second call returns immediately and triggers no further exporter
// calls.
func (p *LoggerProvider) Shutdown(ctx context.Context) error {
	if !p.shutdown.CompareAndSwap(false, true) {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, proc := range p.procs {
		proc := proc
		g.Go(func() error {
			return proc.Shutdown(gctx)
		})
	}
	return g.Wait()
}

// Logger emits records under a fixed instrumentation scope.
type Logger struct {
	provider *LoggerProvider
	scope    instrumentation.Scope
}

// Emit hands r to every processor of the owning provider. It stamps
// the observed timestamp, scope and resource, never blocks on network
// I/O and never reports delivery failures to the caller.
func (l *Logger) Emit(ctx context.Context, r Record) {
	if l.provider.shutdown.Load() {
		return
	}

	if r.ObservedTimestamp.IsZero() {
		r.ObservedTimestamp = time.Now()
	}
	r.Scope = l.scope
	r.Resource = l.provider.res

	for _, proc := range l.provider.procs {
		proc.OnEmit(ctx, r)
	}
}

// Enabled reports whether a record at the given severity would be
// exported by any processor. Producers may use it to skip building
// records for disabled severities.
func (l *Logger) Enabled(severity Severity, eventName string) bool {
	if l.provider.shutdown.Load() {
		return false
	}
	for _, proc := range l.provider.procs {
		f, ok := proc.(FilterProcessor)
		if !ok || f.Enabled(severity, l.scope.Name, eventName) {
			return true
		}
	}
	return len(l.provider.procs) == 0
}
