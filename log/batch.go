// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package log

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/z5labs/telemetry"
	"github.com/z5labs/telemetry/executor"
	"github.com/z5labs/telemetry/internal/env"
	"github.com/z5labs/telemetry/resource"
)

// Environment variables overriding [DefaultBatchConfig]. Durations
// are integer milliseconds or a Go duration string.
const (
	EnvBatchMaxQueueSize       = "OTEL_BLRP_MAX_QUEUE_SIZE"
	EnvBatchScheduledDelay     = "OTEL_BLRP_SCHEDULE_DELAY"
	EnvBatchMaxExportBatchSize = "OTEL_BLRP_MAX_EXPORT_BATCH_SIZE"
	EnvBatchExportTimeout      = "OTEL_BLRP_EXPORT_TIMEOUT"
)

// BatchConfig bounds the buffering and export behaviour of a
// [BatchProcessor]. It is immutable for the processor's lifetime.
type BatchConfig struct {
	// MaxQueueSize is the capacity of the record queue. Records
	// emitted while the queue is full are dropped.
	MaxQueueSize int

	// ScheduledDelay is the longest a buffered record waits before
	// the consumer drains a batch.
	ScheduledDelay time.Duration

	// MaxExportBatchSize is the most records handed to the exporter
	// in one call. Must not exceed MaxQueueSize; it is clamped if it
	// does.
	MaxExportBatchSize int

	// ExportTimeout bounds each export call.
	ExportTimeout time.Duration
}

// DefaultBatchConfig returns the batch configuration from the
// OTEL_BLRP_* environment variables, falling back to a 2048 record
// queue, 1s delay, 512 record batches and a 30s export timeout.
func DefaultBatchConfig() BatchConfig {
	cfg := BatchConfig{
		MaxQueueSize:       env.Int(2048, EnvBatchMaxQueueSize),
		ScheduledDelay:     env.Duration(time.Second, EnvBatchScheduledDelay),
		MaxExportBatchSize: env.Int(512, EnvBatchMaxExportBatchSize),
		ExportTimeout:      env.Duration(30*time.Second, EnvBatchExportTimeout),
	}
	return cfg.normalize()
}

func (cfg BatchConfig) normalize() BatchConfig {
	def := BatchConfig{
		MaxQueueSize:       2048,
		ScheduledDelay:     time.Second,
		MaxExportBatchSize: 512,
		ExportTimeout:      30 * time.Second,
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = def.MaxQueueSize
	}
	if cfg.ScheduledDelay <= 0 {
		cfg.ScheduledDelay = def.ScheduledDelay
	}
	if cfg.MaxExportBatchSize <= 0 {
		cfg.MaxExportBatchSize = def.MaxExportBatchSize
	}
	if cfg.MaxExportBatchSize > cfg.MaxQueueSize {
		cfg.MaxExportBatchSize = cfg.MaxQueueSize
	}
	if cfg.ExportTimeout <= 0 {
		cfg.ExportTimeout = def.ExportTimeout
	}
	return cfg
}

// BatchProcessor buffers emitted records in a bounded queue and
// drains them to an [Exporter] on a single background consumer.
//
// The consumer wakes on whichever comes first: the scheduled delay
// elapsing, the queue reaching MaxExportBatchSize, or an explicit
// flush. Exactly one export call is in flight at any time, so batches
// are never exported out of order relative to one another.
type BatchProcessor struct {
	exp  Exporter
	cfg  BatchConfig
	log  *slog.Logger
	exec executor.Executor

	queue      chan Record
	sizeCh     chan struct{}
	flushCh    chan chan error
	shutdownCh chan shutdownRequest
	done       chan struct{}

	stopped atomic.Bool
	dropped atomic.Uint64
}

type shutdownRequest struct {
	ctx   context.Context
	errCh chan error
}

// BatchProcessorOption configures a BatchProcessor.
type BatchProcessorOption func(*BatchProcessor)

// WithBatchConfig overrides [DefaultBatchConfig].
func WithBatchConfig(cfg BatchConfig) BatchProcessorOption {
	return func(p *BatchProcessor) {
		p.cfg = cfg.normalize()
	}
}

// BatchLogHandler configures the slog.Handler used for internal
// diagnostics like dropped records and failed exports.
func BatchLogHandler(h slog.Handler) BatchProcessorOption {
	return func(p *BatchProcessor) {
		p.log = slog.New(h)
	}
}

// BatchExecutor configures the scheduling primitives used by the
// background consumer. Defaults to [executor.Default].
func BatchExecutor(exec executor.Executor) BatchProcessorOption {
	return func(p *BatchProcessor) {
		p.exec = exec
	}
}

// NewBatchProcessor returns a running BatchProcessor exporting to exp.
func NewBatchProcessor(exp Exporter, opts ...BatchProcessorOption) *BatchProcessor {
	p := &BatchProcessor{
		exp:  exp,
		cfg:  DefaultBatchConfig(),
		log:  slog.New(noopLogHandler{}),
		exec: executor.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}

	p.queue = make(chan Record, p.cfg.MaxQueueSize)
	p.sizeCh = make(chan struct{}, 1)
	p.flushCh = make(chan chan error)
	p.shutdownCh = make(chan shutdownRequest, 1)
	p.done = make(chan struct{})

	p.exec.Spawn(p.run)
	return p
}

// OnEmit implements the [Processor] interface. It enqueues r or, if
// the queue is full, drops it and increments the drop counter. It
// never blocks the caller beyond O(1) work.
func (p *BatchProcessor) OnEmit(ctx context.Context, r Record) {
	if p.stopped.Load() {
		return
	}

	select {
	case p.queue <- r:
	default:
		p.dropped.Add(1)
		p.log.Debug("record queue is full, dropping record")
		return
	}

	if len(p.queue) < p.cfg.MaxExportBatchSize {
		return
	}
	select {
	case p.sizeCh <- struct{}{}:
	default:
	}
}

// ForceFlush triggers an out-of-band drain of all buffered records
// and blocks until the drain completes or ctx expires. On timeout it
// returns an error and leaves the processor running.
func (p *BatchProcessor) ForceFlush(ctx context.Context) error {
	if p.stopped.Load() {
		return nil
	}

	errCh := make(chan error, 1)
	select {
	case p.flushCh <- errCh:
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops accepting records, performs a final drain bounded by
// ctx and then shuts the exporter down. A second call returns
// immediately without touching the exporter again.
func (p *BatchProcessor) Shutdown(ctx context.Context) error {
	if !p.stopped.CompareAndSwap(false, true) {
		return nil
	}

	req := shutdownRequest{
		ctx:   ctx,
		errCh: make(chan error, 1),
	}
	p.shutdownCh <- req

	select {
	case err := <-req.errCh:
		if err != nil {
			return telemetry.ShutdownError{Cause: err}
		}
		return nil
	case <-ctx.Done():
		return telemetry.ShutdownError{Cause: ctx.Err()}
	}
}

// Dropped returns the number of records dropped because the queue was
// full.
func (p *BatchProcessor) Dropped() uint64 {
	return p.dropped.Load()
}

// Enabled implements the [FilterProcessor] interface.
func (p *BatchProcessor) Enabled(severity Severity, target, eventName string) bool {
	f, ok := p.exp.(FilterExporter)
	if !ok {
		return true
	}
	return f.EventEnabled(severity, target, eventName)
}

func (p *BatchProcessor) setResource(res *resource.Resource) {
	if re, ok := p.exp.(ResourceExporter); ok {
		re.SetResource(res)
	}
}

func (p *BatchProcessor) run() {
	defer close(p.done)

	ticker := p.exec.NewTicker(p.cfg.ScheduledDelay)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C():
			p.exportBatch(context.Background())
		case <-p.sizeCh:
			p.exportBatch(context.Background())
		case errCh := <-p.flushCh:
			errCh <- p.drain(context.Background())
		case req := <-p.shutdownCh:
			err := p.drain(req.ctx)
			req.errCh <- errors.Join(err, p.exp.Shutdown(req.ctx))
			return
		}
	}
}

// exportBatch dequeues up to MaxExportBatchSize records and hands
// them to the exporter under the export timeout. It reports whether
// the queue still held records when it returned.
func (p *BatchProcessor) exportBatch(ctx context.Context) bool {
	var batch []Record
dequeue:
	for len(batch) < p.cfg.MaxExportBatchSize {
		select {
		case r := <-p.queue:
			batch = append(batch, r)
		default:
			break dequeue
		}
	}

	if len(batch) == 0 {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, p.cfg.ExportTimeout)
	defer cancel()

	err := p.exp.Export(ctx, batch)
	if err != nil {
		// The batch is dropped. Retrying here risks unbounded memory
		// growth and cross-batch reordering.
		p.log.Error("failed to export batch",
			slog.Any("error", telemetry.ExportError{Cause: err}),
			slog.Int("batch_size", len(batch)),
		)
	}
	return len(p.queue) > 0
}

func (p *BatchProcessor) drain(ctx context.Context) error {
	for p.exportBatch(ctx) {
		select {
		case <-ctx.Done():
			p.log.Warn("drain deadline elapsed, discarding remaining records",
				slog.Int("remaining", len(p.queue)),
			)
			return ctx.Err()
		default:
		}
	}
	return nil
}
