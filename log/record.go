// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package log implements the asynchronous log half of the pipeline:
// a Record model, processor contracts and the batching processor
// which decouples emission from network export.
package log

import (
	"time"

	"github.com/z5labs/telemetry/instrumentation"
	"github.com/z5labs/telemetry/resource"

	"go.opentelemetry.io/otel/attribute"
)

// Severity is the numeric severity of a log record. The named
// constants mark the start of each coarse range; finer gradations
// within a range are valid values.
type Severity int

const (
	SeverityUndefined Severity = 0
	SeverityTrace     Severity = 1
	SeverityDebug     Severity = 5
	SeverityInfo      Severity = 9
	SeverityWarn      Severity = 13
	SeverityError     Severity = 17
	SeverityFatal     Severity = 21
)

// String implements the [fmt.Stringer] interface.
func (s Severity) String() string {
	switch {
	case s >= SeverityFatal:
		return "FATAL"
	case s >= SeverityError:
		return "ERROR"
	case s >= SeverityWarn:
		return "WARN"
	case s >= SeverityInfo:
		return "INFO"
	case s >= SeverityDebug:
		return "DEBUG"
	case s >= SeverityTrace:
		return "TRACE"
	default:
		return "UNDEFINED"
	}
}

// TraceID correlates a record with the trace active when it was emitted.
type TraceID [16]byte

// SpanID correlates a record with the span active when it was emitted.
type SpanID [8]byte

// IsValid reports whether the TraceID is non-zero.
func (id TraceID) IsValid() bool {
	return id != TraceID{}
}

// IsValid reports whether the SpanID is non-zero.
func (id SpanID) IsValid() bool {
	return id != SpanID{}
}

// Record is a single emitted log record.
//
// A Record is exclusively owned by the producer until it is handed to
// [Logger.Emit]. The pipeline stamps ObservedTimestamp, Scope and
// Resource if unset but does not retain the record past its export
// attempt.
type Record struct {
	// Timestamp is when the logged event occurred.
	Timestamp time.Time

	// ObservedTimestamp is when the record was seen by the pipeline.
	ObservedTimestamp time.Time

	Severity     Severity
	SeverityText string

	// Body is the record payload. Strings, bools, integers, floats,
	// []byte and nested []attribute.KeyValue are transportable by the
	// bundled exporters; other values are stringified.
	Body any

	// EventName identifies the event class this record describes.
	EventName string

	// Target names the producer-side origin of the record, typically
	// a module path. Exporters may use it for fast-path filtering.
	Target string

	// Attributes of the record. Keys are unique, values may be
	// multi-valued, insertion order carries no meaning.
	Attributes []attribute.KeyValue

	// Optional trace correlation.
	TraceID    TraceID
	SpanID     SpanID
	TraceFlags byte

	// Scope identifies the emitting library. Stamped by the Logger.
	Scope instrumentation.Scope

	// Resource describes the emitting process. Stamped by the
	// provider; shared and read-only.
	Resource *resource.Resource
}

// Clone returns a copy of the record with its own attribute slice.
func (r Record) Clone() Record {
	if len(r.Attributes) > 0 {
		attrs := make([]attribute.KeyValue, len(r.Attributes))
		copy(attrs, r.Attributes)
		r.Attributes = attrs
	}
	return r
}
