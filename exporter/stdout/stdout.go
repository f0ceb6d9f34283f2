// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package stdout exports telemetry as JSON lines. It is meant for
// local development and for verifying a pipeline end to end without a
// collector.
package stdout

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/z5labs/telemetry/log"
	"github.com/z5labs/telemetry/metric"
	"github.com/z5labs/telemetry/resource"

	"go.opentelemetry.io/otel/attribute"
)

type config struct {
	w           io.Writer
	temporality metric.TemporalitySelector
	aggregation metric.AggregationSelector
}

// Option configures a stdout exporter.
type Option func(*config)

// WithWriter redirects output away from [os.Stdout].
func WithWriter(w io.Writer) Option {
	return func(cfg *config) {
		cfg.w = w
	}
}

// WithTemporalitySelector sets the temporality the metric exporter
// reports per instrument kind.
func WithTemporalitySelector(ts metric.TemporalitySelector) Option {
	return func(cfg *config) {
		cfg.temporality = ts
	}
}

// WithAggregationSelector sets the aggregation the metric exporter
// reports per instrument kind.
func WithAggregationSelector(as metric.AggregationSelector) Option {
	return func(cfg *config) {
		cfg.aggregation = as
	}
}

func buildConfig(opts []Option) config {
	cfg := config{
		w:           os.Stdout,
		temporality: metric.DefaultTemporalitySelector,
		aggregation: metric.DefaultAggregationSelector,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// LogExporter writes one JSON object per record.
type LogExporter struct {
	mu      sync.Mutex
	enc     *json.Encoder
	res     *resource.Resource
	stopped atomic.Bool
}

// NewLogExporter returns a LogExporter writing to [os.Stdout] unless
// [WithWriter] redirects it.
func NewLogExporter(opts ...Option) *LogExporter {
	cfg := buildConfig(opts)
	return &LogExporter{
		enc: json.NewEncoder(cfg.w),
	}
}

type logLine struct {
	Timestamp         time.Time      `json:"timestamp,omitempty"`
	ObservedTimestamp time.Time      `json:"observed_timestamp"`
	Severity          string         `json:"severity,omitempty"`
	SeverityText      string         `json:"severity_text,omitempty"`
	Body              any            `json:"body,omitempty"`
	EventName         string         `json:"event_name,omitempty"`
	Target            string         `json:"target,omitempty"`
	Attributes        map[string]any `json:"attributes,omitempty"`
	Scope             string         `json:"scope,omitempty"`
	Resource          map[string]any `json:"resource,omitempty"`
}

// Export implements the [log.Exporter] interface.
func (e *LogExporter) Export(ctx context.Context, records []log.Record) error {
	if e.stopped.Load() {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	for _, r := range records {
		res := r.Resource
		if res == nil {
			res = e.res
		}
		line := logLine{
			Timestamp:         r.Timestamp,
			ObservedTimestamp: r.ObservedTimestamp,
			Severity:          r.Severity.String(),
			SeverityText:      r.SeverityText,
			Body:              r.Body,
			EventName:         r.EventName,
			Target:            r.Target,
			Attributes:        attrMap(r.Attributes),
			Scope:             r.Scope.Name,
		}
		if res != nil {
			line.Resource = attrMap(res.Attributes())
		}
		err := e.enc.Encode(line)
		if err != nil {
			return err
		}
	}
	return nil
}

// SetResource implements the [log.ResourceExporter] interface.
func (e *LogExporter) SetResource(res *resource.Resource) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.res = res
}

// Shutdown implements the [log.Exporter] interface.
func (e *LogExporter) Shutdown(ctx context.Context) error {
	e.stopped.Store(true)
	return nil
}

// MetricExporter writes one JSON object per collection cycle.
type MetricExporter struct {
	mu          sync.Mutex
	enc         *json.Encoder
	temporality metric.TemporalitySelector
	aggregation metric.AggregationSelector
	stopped     atomic.Bool
}

// NewMetricExporter returns a MetricExporter writing to [os.Stdout]
// unless [WithWriter] redirects it. It reports cumulative temporality
// unless [WithTemporalitySelector] overrides it.
func NewMetricExporter(opts ...Option) *MetricExporter {
	cfg := buildConfig(opts)
	return &MetricExporter{
		enc:         json.NewEncoder(cfg.w),
		temporality: cfg.temporality,
		aggregation: cfg.aggregation,
	}
}

// Temporality implements the [metric.Exporter] interface.
func (e *MetricExporter) Temporality(kind metric.InstrumentKind) metric.Temporality {
	return e.temporality(kind)
}

// Aggregation implements the [metric.Exporter] interface.
func (e *MetricExporter) Aggregation(kind metric.InstrumentKind) metric.Aggregation {
	return e.aggregation(kind)
}

type metricsLine struct {
	Resource map[string]any    `json:"resource,omitempty"`
	Scopes   []scopeMetricLine `json:"scopes"`
}

type scopeMetricLine struct {
	Scope   string       `json:"scope,omitempty"`
	Metrics []metricLine `json:"metrics"`
}

type metricLine struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Unit        string `json:"unit,omitempty"`
	Data        any    `json:"data"`
}

// Export implements the [metric.Exporter] interface.
func (e *MetricExporter) Export(ctx context.Context, rm *metric.ResourceMetrics) error {
	if e.stopped.Load() {
		return nil
	}

	line := metricsLine{}
	if rm.Resource != nil {
		line.Resource = attrMap(rm.Resource.Attributes())
	}
	for _, sm := range rm.ScopeMetrics {
		sl := scopeMetricLine{Scope: sm.Scope.Name}
		for _, m := range sm.Metrics {
			sl.Metrics = append(sl.Metrics, metricLine{
				Name:        m.Name,
				Description: m.Description,
				Unit:        m.Unit,
				Data:        m.Data,
			})
		}
		line.Scopes = append(line.Scopes, sl)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.enc.Encode(line)
}

// ForceFlush implements the [metric.Exporter] interface.
func (e *MetricExporter) ForceFlush(ctx context.Context) error {
	return nil
}

// Shutdown implements the [metric.Exporter] interface.
func (e *MetricExporter) Shutdown(ctx context.Context) error {
	e.stopped.Store(true)
	return nil
}

func attrMap(attrs []attribute.KeyValue) map[string]any {
	if len(attrs) == 0 {
		return nil
	}
	m := make(map[string]any, len(attrs))
	for _, kv := range attrs {
		m[string(kv.Key)] = kv.Value.AsInterface()
	}
	return m
}
