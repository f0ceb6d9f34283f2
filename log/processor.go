// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package log

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/z5labs/telemetry/resource"
)

// Processor receives records emitted through a [Logger] and decides
// when and how they reach an [Exporter].
type Processor interface {
	// OnEmit is called synchronously from the producer and must never
	// block on network I/O. Failures are handled internally, never
	// surfaced to the producer.
	OnEmit(ctx context.Context, r Record)

	// ForceFlush drains any buffered records, blocking until done or
	// ctx expires.
	ForceFlush(ctx context.Context) error

	// Shutdown performs a final bounded drain and then shuts the
	// exporter down. It is idempotent.
	Shutdown(ctx context.Context) error
}

// FilterProcessor is a Processor whose exporter supports severity
// fast-path filtering.
type FilterProcessor interface {
	Processor

	Enabled(severity Severity, target, eventName string) bool
}

// resourceSetter is implemented by processors which forward the
// provider resource to their exporter at install time.
type resourceSetter interface {
	setResource(*resource.Resource)
}

// SimpleProcessor exports each record synchronously as it is emitted.
// It exists for tests and development; production pipelines should
// use [BatchProcessor].
type SimpleProcessor struct {
	exp Exporter
	log *slog.Logger

	mu       sync.Mutex
	shutdown atomic.Bool
}

// SimpleProcessorOption configures a SimpleProcessor.
type SimpleProcessorOption func(*SimpleProcessor)

// SimpleLogHandler configures the slog.Handler used for internal
// diagnostics.
func SimpleLogHandler(h slog.Handler) SimpleProcessorOption {
	return func(p *SimpleProcessor) {
		p.log = slog.New(h)
	}
}

// NewSimpleProcessor returns a SimpleProcessor exporting to exp.
func NewSimpleProcessor(exp Exporter, opts ...SimpleProcessorOption) *SimpleProcessor {
	p := &SimpleProcessor{
		exp: exp,
		log: slog.New(noopLogHandler{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// OnEmit implements the [Processor] interface.
func (p *SimpleProcessor) OnEmit(ctx context.Context, r Record) {
	if p.shutdown.Load() {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err := p.exp.Export(ctx, []Record{r})
	if err != nil {
		p.log.Error("failed to export record", slog.Any("error", err))
	}
}

// ForceFlush implements the [Processor] interface. The
// SimpleProcessor holds no buffered state.
func (p *SimpleProcessor) ForceFlush(ctx context.Context) error {
	return nil
}

// Shutdown implements the [Processor] interface.
func (p *SimpleProcessor) Shutdown(ctx context.Context) error {
	if !p.shutdown.CompareAndSwap(false, true) {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exp.Shutdown(ctx)
}

// Enabled implements the [FilterProcessor] interface.
func (p *SimpleProcessor) Enabled(severity Severity, target, eventName string) bool {
	f, ok := p.exp.(FilterExporter)
	if !ok {
		return true
	}
	return f.EventEnabled(severity, target, eventName)
}

func (p *SimpleProcessor) setResource(res *resource.Resource) {
	if re, ok := p.exp.(ResourceExporter); ok {
		re.SetResource(res)
	}
}

type noopLogHandler struct{}

func (noopLogHandler) Enabled(_ context.Context, _ slog.Level) bool  { return false }
func (noopLogHandler) Handle(_ context.Context, _ slog.Record) error { return nil }
func (h noopLogHandler) WithAttrs(_ []slog.Attr) slog.Handler        { return h }
func (h noopLogHandler) WithGroup(name string) slog.Handler          { return h }
