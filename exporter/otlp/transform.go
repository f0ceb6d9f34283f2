// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package otlp

import (
	"fmt"
	"time"

	"github.com/z5labs/telemetry/instrumentation"
	"github.com/z5labs/telemetry/log"
	"github.com/z5labs/telemetry/metric"
	"github.com/z5labs/telemetry/resource"

	"go.opentelemetry.io/otel/attribute"
	commonpb "go.opentelemetry.io/proto/otlp/common/v1"
	logspb "go.opentelemetry.io/proto/otlp/logs/v1"
	metricspb "go.opentelemetry.io/proto/otlp/metrics/v1"
	resourcepb "go.opentelemetry.io/proto/otlp/resource/v1"
)

func toResourceLogs(records []log.Record, fallback *resource.Resource) []*logspb.ResourceLogs {
	type scopeKey struct {
		res   *resource.Resource
		scope instrumentation.Scope
	}

	var out []*logspb.ResourceLogs
	resIdx := make(map[*resource.Resource]int)
	scopeIdx := make(map[scopeKey]*logspb.ScopeLogs)

	for _, r := range records {
		res := r.Resource
		if res == nil {
			res = fallback
		}

		i, ok := resIdx[res]
		if !ok {
			i = len(out)
			resIdx[res] = i
			out = append(out, &logspb.ResourceLogs{
				Resource:  toResource(res),
				SchemaUrl: res.SchemaURL(),
			})
		}

		key := scopeKey{res: res, scope: r.Scope}
		sl, ok := scopeIdx[key]
		if !ok {
			sl = &logspb.ScopeLogs{
				Scope:     toScope(r.Scope),
				SchemaUrl: r.Scope.SchemaURL,
			}
			scopeIdx[key] = sl
			out[i].ScopeLogs = append(out[i].ScopeLogs, sl)
		}

		sl.LogRecords = append(sl.LogRecords, toLogRecord(r))
	}
	return out
}

func toLogRecord(r log.Record) *logspb.LogRecord {
	lr := &logspb.LogRecord{
		TimeUnixNano:         timeUnixNano(r.Timestamp),
		ObservedTimeUnixNano: timeUnixNano(r.ObservedTimestamp),
		SeverityNumber:       logspb.SeverityNumber(r.Severity),
		SeverityText:         r.SeverityText,
		Body:                 toAnyValue(r.Body),
		Attributes:           toKeyValues(r.Attributes),
		Flags:                uint32(r.TraceFlags),
	}
	if r.EventName != "" {
		lr.Attributes = append(lr.Attributes, &commonpb.KeyValue{
			Key:   "event.name",
			Value: stringValue(r.EventName),
		})
	}
	if r.Target != "" {
		lr.Attributes = append(lr.Attributes, &commonpb.KeyValue{
			Key:   "target",
			Value: stringValue(r.Target),
		})
	}
	if r.TraceID.IsValid() {
		lr.TraceId = r.TraceID[:]
	}
	if r.SpanID.IsValid() {
		lr.SpanId = r.SpanID[:]
	}
	return lr
}

func toResourceMetrics(rm *metric.ResourceMetrics) *metricspb.ResourceMetrics {
	out := &metricspb.ResourceMetrics{
		Resource:  toResource(rm.Resource),
		SchemaUrl: rm.Resource.SchemaURL(),
	}
	for _, sm := range rm.ScopeMetrics {
		psm := &metricspb.ScopeMetrics{
			Scope:     toScope(sm.Scope),
			SchemaUrl: sm.Scope.SchemaURL,
		}
		for _, m := range sm.Metrics {
			pm := toMetric(m)
			if pm == nil {
				continue
			}
			psm.Metrics = append(psm.Metrics, pm)
		}
		out.ScopeMetrics = append(out.ScopeMetrics, psm)
	}
	return out
}

func toMetric(m metric.Metrics) *metricspb.Metric {
	pm := &metricspb.Metric{
		Name:        m.Name,
		Description: m.Description,
		Unit:        m.Unit,
	}
	switch data := m.Data.(type) {
	case metric.Sum:
		pm.Data = &metricspb.Metric_Sum{
			Sum: &metricspb.Sum{
				DataPoints:             toNumberDataPoints(data.DataPoints),
				AggregationTemporality: toTemporality(data.Temporality),
				IsMonotonic:            data.IsMonotonic,
			},
		}
	case metric.Gauge:
		pm.Data = &metricspb.Metric_Gauge{
			Gauge: &metricspb.Gauge{
				DataPoints: toNumberDataPoints(data.DataPoints),
			},
		}
	case metric.Histogram:
		pm.Data = &metricspb.Metric_Histogram{
			Histogram: &metricspb.Histogram{
				DataPoints:             toHistogramDataPoints(data.DataPoints),
				AggregationTemporality: toTemporality(data.Temporality),
			},
		}
	default:
		return nil
	}
	return pm
}

func toNumberDataPoints(dps []metric.DataPoint) []*metricspb.NumberDataPoint {
	out := make([]*metricspb.NumberDataPoint, 0, len(dps))
	for _, dp := range dps {
		out = append(out, &metricspb.NumberDataPoint{
			Attributes:        toKeyValues(dp.Attributes),
			StartTimeUnixNano: timeUnixNano(dp.StartTime),
			TimeUnixNano:      timeUnixNano(dp.Time),
			Value: &metricspb.NumberDataPoint_AsDouble{
				AsDouble: dp.Value,
			},
		})
	}
	return out
}

func toHistogramDataPoints(dps []metric.HistogramDataPoint) []*metricspb.HistogramDataPoint {
	out := make([]*metricspb.HistogramDataPoint, 0, len(dps))
	for _, dp := range dps {
		sum := dp.Sum
		out = append(out, &metricspb.HistogramDataPoint{
			Attributes:        toKeyValues(dp.Attributes),
			StartTimeUnixNano: timeUnixNano(dp.StartTime),
			TimeUnixNano:      timeUnixNano(dp.Time),
			Count:             dp.Count,
			Sum:               &sum,
			BucketCounts:      dp.BucketCounts,
			ExplicitBounds:    dp.Bounds,
		})
	}
	return out
}

func toTemporality(t metric.Temporality) metricspb.AggregationTemporality {
	switch t {
	case metric.TemporalityDelta:
		return metricspb.AggregationTemporality_AGGREGATION_TEMPORALITY_DELTA
	case metric.TemporalityCumulative:
		return metricspb.AggregationTemporality_AGGREGATION_TEMPORALITY_CUMULATIVE
	default:
		return metricspb.AggregationTemporality_AGGREGATION_TEMPORALITY_UNSPECIFIED
	}
}

func toResource(res *resource.Resource) *resourcepb.Resource {
	if res == nil || res.Len() == 0 {
		return nil
	}
	return &resourcepb.Resource{
		Attributes: toKeyValues(res.Attributes()),
	}
}

func toScope(scope instrumentation.Scope) *commonpb.InstrumentationScope {
	return &commonpb.InstrumentationScope{
		Name:    scope.Name,
		Version: scope.Version,
	}
}

func toKeyValues(attrs []attribute.KeyValue) []*commonpb.KeyValue {
	if len(attrs) == 0 {
		return nil
	}
	out := make([]*commonpb.KeyValue, 0, len(attrs))
	for _, kv := range attrs {
		out = append(out, &commonpb.KeyValue{
			Key:   string(kv.Key),
			Value: toAttrValue(kv.Value),
		})
	}
	return out
}

func toAttrValue(v attribute.Value) *commonpb.AnyValue {
	switch v.Type() {
	case attribute.BOOL:
		return &commonpb.AnyValue{Value: &commonpb.AnyValue_BoolValue{BoolValue: v.AsBool()}}
	case attribute.INT64:
		return &commonpb.AnyValue{Value: &commonpb.AnyValue_IntValue{IntValue: v.AsInt64()}}
	case attribute.FLOAT64:
		return &commonpb.AnyValue{Value: &commonpb.AnyValue_DoubleValue{DoubleValue: v.AsFloat64()}}
	case attribute.STRING:
		return stringValue(v.AsString())
	case attribute.BOOLSLICE:
		vals := v.AsBoolSlice()
		arr := make([]*commonpb.AnyValue, 0, len(vals))
		for _, b := range vals {
			arr = append(arr, &commonpb.AnyValue{Value: &commonpb.AnyValue_BoolValue{BoolValue: b}})
		}
		return arrayValue(arr)
	case attribute.INT64SLICE:
		vals := v.AsInt64Slice()
		arr := make([]*commonpb.AnyValue, 0, len(vals))
		for _, n := range vals {
			arr = append(arr, &commonpb.AnyValue{Value: &commonpb.AnyValue_IntValue{IntValue: n}})
		}
		return arrayValue(arr)
	case attribute.FLOAT64SLICE:
		vals := v.AsFloat64Slice()
		arr := make([]*commonpb.AnyValue, 0, len(vals))
		for _, f := range vals {
			arr = append(arr, &commonpb.AnyValue{Value: &commonpb.AnyValue_DoubleValue{DoubleValue: f}})
		}
		return arrayValue(arr)
	case attribute.STRINGSLICE:
		vals := v.AsStringSlice()
		arr := make([]*commonpb.AnyValue, 0, len(vals))
		for _, s := range vals {
			arr = append(arr, stringValue(s))
		}
		return arrayValue(arr)
	default:
		return stringValue(v.Emit())
	}
}

func toAnyValue(body any) *commonpb.AnyValue {
	switch v := body.(type) {
	case nil:
		return nil
	case string:
		return stringValue(v)
	case bool:
		return &commonpb.AnyValue{Value: &commonpb.AnyValue_BoolValue{BoolValue: v}}
	case int:
		return intValue(int64(v))
	case int8:
		return intValue(int64(v))
	case int16:
		return intValue(int64(v))
	case int32:
		return intValue(int64(v))
	case int64:
		return intValue(v)
	case uint:
		return intValue(int64(v))
	case uint8:
		return intValue(int64(v))
	case uint16:
		return intValue(int64(v))
	case uint32:
		return intValue(int64(v))
	case uint64:
		return intValue(int64(v))
	case float32:
		return &commonpb.AnyValue{Value: &commonpb.AnyValue_DoubleValue{DoubleValue: float64(v)}}
	case float64:
		return &commonpb.AnyValue{Value: &commonpb.AnyValue_DoubleValue{DoubleValue: v}}
	case []byte:
		return &commonpb.AnyValue{Value: &commonpb.AnyValue_BytesValue{BytesValue: v}}
	case []attribute.KeyValue:
		return &commonpb.AnyValue{Value: &commonpb.AnyValue_KvlistValue{
			KvlistValue: &commonpb.KeyValueList{Values: toKeyValues(v)},
		}}
	case []any:
		arr := make([]*commonpb.AnyValue, 0, len(v))
		for _, elem := range v {
			arr = append(arr, toAnyValue(elem))
		}
		return arrayValue(arr)
	default:
		return stringValue(fmt.Sprintf("%v", v))
	}
}

func stringValue(s string) *commonpb.AnyValue {
	return &commonpb.AnyValue{Value: &commonpb.AnyValue_StringValue{StringValue: s}}
}

func intValue(n int64) *commonpb.AnyValue {
	return &commonpb.AnyValue{Value: &commonpb.AnyValue_IntValue{IntValue: n}}
}

func arrayValue(vals []*commonpb.AnyValue) *commonpb.AnyValue {
	return &commonpb.AnyValue{Value: &commonpb.AnyValue_ArrayValue{
		ArrayValue: &commonpb.ArrayValue{Values: vals},
	}}
}

func timeUnixNano(t time.Time) uint64 {
	if t.IsZero() {
		return 0
	}
	return uint64(t.UnixNano())
}
