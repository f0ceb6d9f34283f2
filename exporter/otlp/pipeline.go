// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package otlp

import (
	"context"
	"log/slog"
	"time"

	"github.com/z5labs/telemetry/log"
	"github.com/z5labs/telemetry/metric"
	"github.com/z5labs/telemetry/resource"
)

// LogPipeline accumulates log pipeline configuration. It has no
// install methods; calling [LogPipeline.WithExporter] transitions it
// to a [LogPipelineWithExporter], which does. A pipeline can therefore
// never be installed without a transport.
type LogPipeline struct {
	res      *resource.Resource
	batchCfg *log.BatchConfig
	handler  slog.Handler
}

// NewLogPipeline starts a log pipeline with no exporter configured.
func NewLogPipeline() LogPipeline {
	return LogPipeline{}
}

// WithResource sets the Resource describing the emitting process.
func (p LogPipeline) WithResource(res *resource.Resource) LogPipeline {
	p.res = res
	return p
}

// WithBatchConfig overrides the batching parameters used by
// [LogPipelineWithExporter.InstallBatch].
func (p LogPipeline) WithBatchConfig(cfg log.BatchConfig) LogPipeline {
	p.batchCfg = &cfg
	return p
}

// WithLogHandler sets the handler receiving the pipeline's own
// diagnostics, e.g. dropped record notices.
func (p LogPipeline) WithLogHandler(h slog.Handler) LogPipeline {
	p.handler = h
	return p
}

// WithExporter binds the transport and unlocks installation.
func (p LogPipeline) WithExporter(b Builder) LogPipelineWithExporter {
	return LogPipelineWithExporter{
		pipeline: p,
		builder:  b,
	}
}

// LogPipelineWithExporter is a log pipeline whose transport has been
// chosen.
type LogPipelineWithExporter struct {
	pipeline LogPipeline
	builder  Builder
}

// InstallBatch builds the exporter, wraps it in a batch processor and
// returns a ready LoggerProvider.
func (p LogPipelineWithExporter) InstallBatch(ctx context.Context, opts ...log.BatchProcessorOption) (*log.LoggerProvider, error) {
	exp, err := p.builder.buildLogExporter(ctx)
	if err != nil {
		return nil, err
	}

	var procOpts []log.BatchProcessorOption
	if p.pipeline.batchCfg != nil {
		procOpts = append(procOpts, log.WithBatchConfig(*p.pipeline.batchCfg))
	}
	if p.pipeline.handler != nil {
		procOpts = append(procOpts, log.BatchLogHandler(p.pipeline.handler))
	}
	procOpts = append(procOpts, opts...)

	return log.NewLoggerProvider(
		append(
			p.providerOptions(),
			log.WithProcessor(log.NewBatchProcessor(exp, procOpts...)),
		)...,
	), nil
}

// InstallSimple builds the exporter behind a synchronous processor.
// Intended for tests and short-lived tools; production pipelines
// should prefer [LogPipelineWithExporter.InstallBatch].
func (p LogPipelineWithExporter) InstallSimple(ctx context.Context) (*log.LoggerProvider, error) {
	exp, err := p.builder.buildLogExporter(ctx)
	if err != nil {
		return nil, err
	}

	var procOpts []log.SimpleProcessorOption
	if p.pipeline.handler != nil {
		procOpts = append(procOpts, log.SimpleLogHandler(p.pipeline.handler))
	}

	return log.NewLoggerProvider(
		append(
			p.providerOptions(),
			log.WithProcessor(log.NewSimpleProcessor(exp, procOpts...)),
		)...,
	), nil
}

func (p LogPipelineWithExporter) providerOptions() []log.LoggerProviderOption {
	var opts []log.LoggerProviderOption
	if p.pipeline.res != nil {
		opts = append(opts, log.WithResource(p.pipeline.res))
	}
	return opts
}

// MetricPipeline accumulates metric pipeline configuration. Like
// [LogPipeline] it cannot be built until
// [MetricPipeline.WithExporter] binds a transport.
type MetricPipeline struct {
	res         *resource.Resource
	period      time.Duration
	timeout     time.Duration
	temporality metric.TemporalitySelector
	aggregation metric.AggregationSelector
	handler     slog.Handler
}

// NewMetricPipeline starts a metric pipeline with no exporter
// configured.
func NewMetricPipeline() MetricPipeline {
	return MetricPipeline{}
}

// WithResource sets the Resource describing the emitting process.
func (p MetricPipeline) WithResource(res *resource.Resource) MetricPipeline {
	p.res = res
	return p
}

// WithPeriod sets the collection interval of the periodic reader.
func (p MetricPipeline) WithPeriod(d time.Duration) MetricPipeline {
	p.period = d
	return p
}

// WithCollectTimeout bounds each collect-and-export cycle.
func (p MetricPipeline) WithCollectTimeout(d time.Duration) MetricPipeline {
	p.timeout = d
	return p
}

// WithTemporalitySelector sets the temporality reported per instrument
// kind. Defaults to [metric.DefaultTemporalitySelector].
func (p MetricPipeline) WithTemporalitySelector(ts metric.TemporalitySelector) MetricPipeline {
	p.temporality = ts
	return p
}

// WithDeltaTemporality is shorthand for selecting
// [metric.DeltaTemporalitySelector].
func (p MetricPipeline) WithDeltaTemporality() MetricPipeline {
	return p.WithTemporalitySelector(metric.DeltaTemporalitySelector)
}

// WithAggregationSelector sets the aggregation reported per instrument
// kind. Defaults to [metric.DefaultAggregationSelector].
func (p MetricPipeline) WithAggregationSelector(as metric.AggregationSelector) MetricPipeline {
	p.aggregation = as
	return p
}

// WithLogHandler sets the handler receiving the reader's own
// diagnostics.
func (p MetricPipeline) WithLogHandler(h slog.Handler) MetricPipeline {
	p.handler = h
	return p
}

// WithExporter binds the transport and unlocks installation.
func (p MetricPipeline) WithExporter(b Builder) MetricPipelineWithExporter {
	return MetricPipelineWithExporter{
		pipeline: p,
		builder:  b,
	}
}

// MetricPipelineWithExporter is a metric pipeline whose transport has
// been chosen.
type MetricPipelineWithExporter struct {
	pipeline MetricPipeline
	builder  Builder
}

// Install builds the exporter, starts a periodic reader around it and
// returns a ready MeterProvider.
func (p MetricPipelineWithExporter) Install(ctx context.Context, opts ...metric.PeriodicReaderOption) (*metric.MeterProvider, error) {
	ts := p.pipeline.temporality
	if ts == nil {
		ts = metric.DefaultTemporalitySelector
	}
	as := p.pipeline.aggregation
	if as == nil {
		as = metric.DefaultAggregationSelector
	}

	exp, err := p.builder.buildMetricExporter(ctx, ts, as)
	if err != nil {
		return nil, err
	}

	var readerOpts []metric.PeriodicReaderOption
	if p.pipeline.period > 0 {
		readerOpts = append(readerOpts, metric.WithInterval(p.pipeline.period))
	}
	if p.pipeline.timeout > 0 {
		readerOpts = append(readerOpts, metric.WithTimeout(p.pipeline.timeout))
	}
	if p.pipeline.handler != nil {
		readerOpts = append(readerOpts, metric.ReaderLogHandler(p.pipeline.handler))
	}
	readerOpts = append(readerOpts, opts...)

	providerOpts := []metric.MeterProviderOption{
		metric.WithReader(metric.NewPeriodicReader(exp, readerOpts...)),
	}
	if p.pipeline.res != nil {
		providerOpts = append(providerOpts, metric.WithMeterResource(p.pipeline.res))
	}
	return metric.NewMeterProvider(providerOpts...), nil
}
