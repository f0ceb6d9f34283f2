// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package metric

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/z5labs/telemetry"
	"github.com/z5labs/telemetry/executor"
	"github.com/z5labs/telemetry/internal/env"
	"github.com/z5labs/telemetry/resource"
)

// Environment variables overriding the reader defaults. Durations are
// integer milliseconds or a Go duration string.
const (
	EnvExportInterval = "OTEL_METRIC_EXPORT_INTERVAL"
	EnvExportTimeout  = "OTEL_METRIC_EXPORT_TIMEOUT"
)

// PeriodicReader drives metric collection on a timer. Each tick it
// pulls aggregated instrument state from its registered producers,
// packages a fresh [ResourceMetrics] snapshot and pushes it to the
// exporter under the configured timeout.
//
// Collection failures and export failures are reported through the
// diagnostic log handler and the cycle's data is discarded; they are
// never surfaced to the code recording measurements.
type PeriodicReader struct {
	exp      Exporter
	interval time.Duration
	timeout  time.Duration
	log      *slog.Logger
	exec     executor.Executor

	mu        sync.Mutex
	producers []Producer
	res       *resource.Resource

	flushCh    chan chan error
	shutdownCh chan readerShutdownRequest
	done       chan struct{}
	stopped    atomic.Bool
}

type readerShutdownRequest struct {
	ctx   context.Context
	errCh chan error
}

// PeriodicReaderOption configures a PeriodicReader.
type PeriodicReaderOption func(*PeriodicReader)

// WithInterval sets the collection period. Defaults to
// OTEL_METRIC_EXPORT_INTERVAL or 60s.
func WithInterval(d time.Duration) PeriodicReaderOption {
	return func(r *PeriodicReader) {
		if d > 0 {
			r.interval = d
		}
	}
}

// WithTimeout bounds each collect+export cycle. Defaults to
// OTEL_METRIC_EXPORT_TIMEOUT or 30s.
func WithTimeout(d time.Duration) PeriodicReaderOption {
	return func(r *PeriodicReader) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithProducer registers an instrument registry with the reader. May
// be used multiple times.
func WithProducer(p Producer) PeriodicReaderOption {
	return func(r *PeriodicReader) {
		r.producers = append(r.producers, p)
	}
}

// ReaderLogHandler configures the slog.Handler used for internal
// diagnostics.
func ReaderLogHandler(h slog.Handler) PeriodicReaderOption {
	return func(r *PeriodicReader) {
		r.log = slog.New(h)
	}
}

// ReaderExecutor configures the scheduling primitives used by the
// background collector. Defaults to [executor.Default].
func ReaderExecutor(exec executor.Executor) PeriodicReaderOption {
	return func(r *PeriodicReader) {
		r.exec = exec
	}
}

// NewPeriodicReader returns a running PeriodicReader pushing to exp.
func NewPeriodicReader(exp Exporter, opts ...PeriodicReaderOption) *PeriodicReader {
	r := &PeriodicReader{
		exp:      exp,
		interval: env.Duration(time.Minute, EnvExportInterval),
		timeout:  env.Duration(30*time.Second, EnvExportTimeout),
		log:      slog.New(noopLogHandler{}),
		exec:     executor.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}

	r.flushCh = make(chan chan error)
	r.shutdownCh = make(chan readerShutdownRequest, 1)
	r.done = make(chan struct{})

	r.exec.Spawn(r.run)
	return r
}

// RegisterProducer registers an instrument registry with a running
// reader.
func (r *PeriodicReader) RegisterProducer(p Producer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.producers = append(r.producers, p)
}

func (r *PeriodicReader) setResource(res *resource.Resource) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.res = res
}

// ForceFlush triggers an immediate out-of-band collect and export,
// blocking until it completes or ctx expires.
func (r *PeriodicReader) ForceFlush(ctx context.Context) error {
	if r.stopped.Load() {
		return nil
	}

	errCh := make(chan error, 1)
	select {
	case r.flushCh <- errCh:
	case <-r.done:
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

// Shutdown stops the timer, performs one best-effort final collect
// and export, then shuts the exporter down. It is idempotent.
func (r *PeriodicReader) Shutdown(ctx context.Context) error {
	if !r.stopped.CompareAndSwap(false, true) {
		return nil
	}

	req := readerShutdownRequest{
		ctx:   ctx,
		errCh: make(chan error, 1),
	}
	r.shutdownCh <- req

	select {
	case err := <-req.errCh:
		return err
	case <-ctx.Done():
		return telemetry.ShutdownError{Cause: ctx.Err()}
	}
}

func (r *PeriodicReader) run() {
	defer close(r.done)

	ticker := r.exec.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C():
			err := r.collectAndExport(context.Background())
			if err != nil {
				r.log.Error("failed to collect and export metrics", slog.Any("error", err))
			}
		case errCh := <-r.flushCh:
			errCh <- r.collectAndExport(context.Background())
		case req := <-r.shutdownCh:
			err := r.collectAndExport(req.ctx)
			if err != nil {
				r.log.Error("failed to export final metric snapshot", slog.Any("error", err))
			}
			req.errCh <- r.exp.Shutdown(req.ctx)
			return
		}
	}
}

// collectAndExport runs one cycle: pull from every producer, package
// a fresh snapshot and push it, all bounded by the reader timeout.
func (r *PeriodicReader) collectAndExport(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	rm, err := r.collect(ctx)
	if err != nil {
		return err
	}

	err = r.exp.Export(ctx, rm)
	if err != nil {
		return telemetry.ExportError{Cause: err}
	}
	return nil
}

func (r *PeriodicReader) collect(ctx context.Context) (*ResourceMetrics, error) {
	r.mu.Lock()
	producers := r.producers
	res := r.res
	r.mu.Unlock()

	sel := Selection{
		Temporality: r.exp.Temporality,
		Aggregation: r.exp.Aggregation,
	}

	rm := &ResourceMetrics{
		Resource: res,
	}

	var errs []error
	for _, p := range producers {
		sms, err := p.Produce(ctx, sel)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		rm.ScopeMetrics = append(rm.ScopeMetrics, sms...)
	}
	return rm, errors.Join(errs...)
}

type noopLogHandler struct{}

func (noopLogHandler) Enabled(_ context.Context, _ slog.Level) bool  { return false }
func (noopLogHandler) Handle(_ context.Context, _ slog.Record) error { return nil }
func (h noopLogHandler) WithAttrs(_ []slog.Attr) slog.Handler        { return h }
func (h noopLogHandler) WithGroup(name string) slog.Handler          { return h }
