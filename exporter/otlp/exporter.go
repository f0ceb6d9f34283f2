// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package otlp

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/z5labs/telemetry/log"
	"github.com/z5labs/telemetry/metric"
	"github.com/z5labs/telemetry/resource"

	logspb "go.opentelemetry.io/proto/otlp/logs/v1"
	metricspb "go.opentelemetry.io/proto/otlp/metrics/v1"
)

// Builder is the closed set of OTLP transport variants. It is
// implemented only by [GRPCBuilder] and [HTTPBuilder]; the concrete
// transport is resolved exactly once, when a pipeline installs its
// exporter.
type Builder interface {
	buildLogExporter(ctx context.Context) (log.Exporter, error)
	buildMetricExporter(ctx context.Context, ts metric.TemporalitySelector, as metric.AggregationSelector) (metric.Exporter, error)
}

// logClient and metricClient are the transport halves of the
// exporters. Each is exclusively owned by a single pipeline consumer.
type logClient interface {
	uploadLogs(ctx context.Context, rls []*logspb.ResourceLogs) error
	shutdown(ctx context.Context) error
}

type metricClient interface {
	uploadMetrics(ctx context.Context, rm *metricspb.ResourceMetrics) error
	shutdown(ctx context.Context) error
}

var errShutdown = errors.New("otlp: exporter is shutdown")

type logExporter struct {
	client  logClient
	timeout time.Duration
	stopped atomic.Bool

	mu  sync.Mutex
	res *resource.Resource
}

// Export implements the [log.Exporter] interface.
func (e *logExporter) Export(ctx context.Context, records []log.Record) error {
	if e.stopped.Load() {
		return errShutdown
	}
	if len(records) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	e.mu.Lock()
	res := e.res
	e.mu.Unlock()

	return e.client.uploadLogs(ctx, toResourceLogs(records, res))
}

// SetResource implements the [log.ResourceExporter] interface.
func (e *logExporter) SetResource(res *resource.Resource) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.res = res
}

// Shutdown implements the [log.Exporter] interface.
func (e *logExporter) Shutdown(ctx context.Context) error {
	if !e.stopped.CompareAndSwap(false, true) {
		return nil
	}
	return e.client.shutdown(ctx)
}

type metricExporter struct {
	client      metricClient
	timeout     time.Duration
	temporality metric.TemporalitySelector
	aggregation metric.AggregationSelector
	stopped     atomic.Bool
}

// Temporality implements the [metric.Exporter] interface.
func (e *metricExporter) Temporality(kind metric.InstrumentKind) metric.Temporality {
	return e.temporality(kind)
}

// Aggregation implements the [metric.Exporter] interface.
func (e *metricExporter) Aggregation(kind metric.InstrumentKind) metric.Aggregation {
	return e.aggregation(kind)
}

// Export implements the [metric.Exporter] interface.
func (e *metricExporter) Export(ctx context.Context, rm *metric.ResourceMetrics) error {
	if e.stopped.Load() {
		return errShutdown
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	return e.client.uploadMetrics(ctx, toResourceMetrics(rm))
}

// ForceFlush implements the [metric.Exporter] interface. The exporter
// holds no buffered state of its own.
func (e *metricExporter) ForceFlush(ctx context.Context) error {
	return nil
}

// Shutdown implements the [metric.Exporter] interface.
func (e *metricExporter) Shutdown(ctx context.Context) error {
	if !e.stopped.CompareAndSwap(false, true) {
		return nil
	}
	return e.client.shutdown(ctx)
}
