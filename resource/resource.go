// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package resource models the process-wide attribute set identifying
// the telemetry-producing entity.
package resource

import (
	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

// Resource is an immutable set of attributes describing the emitting
// process (service name, host, environment). It is fixed at provider
// build time and shared, read-only, by every processor and exporter
// in the provider, so it requires no locking.
type Resource struct {
	attrs     []attribute.KeyValue
	schemaURL string
}

// Option configures a Resource under construction.
type Option func(*Resource)

// WithAttributes adds attributes to the Resource. Keys are unique;
// a later value for an existing key replaces the earlier one.
func WithAttributes(attrs ...attribute.KeyValue) Option {
	return func(r *Resource) {
		r.attrs = append(r.attrs, attrs...)
	}
}

// WithServiceName sets the service.name attribute.
func WithServiceName(name string) Option {
	return WithAttributes(semconv.ServiceName(name))
}

// WithSchemaURL sets the schema URL the attributes conform to.
func WithSchemaURL(url string) Option {
	return func(r *Resource) {
		r.schemaURL = url
	}
}

// New returns a Resource built from the given options.
func New(opts ...Option) *Resource {
	var r Resource
	for _, opt := range opts {
		opt(&r)
	}
	r.attrs = dedup(r.attrs)
	return &r
}

// Empty returns a Resource with no attributes.
func Empty() *Resource {
	return &Resource{}
}

// Default returns a Resource identifying an otherwise anonymous
// service.
func Default() *Resource {
	return New(
		WithSchemaURL(semconv.SchemaURL),
		WithAttributes(
			semconv.ServiceName("unknown_service"),
			semconv.TelemetrySDKName("telemetry"),
			semconv.TelemetrySDKLanguageGo,
		),
	)
}

// Merge returns a Resource combining a and b. Attributes of b win on
// key conflicts. The schema URL of b wins if set.
func Merge(a, b *Resource) *Resource {
	if a == nil {
		a = Empty()
	}
	if b == nil {
		b = Empty()
	}
	merged := &Resource{
		attrs:     dedup(append(append([]attribute.KeyValue{}, a.attrs...), b.attrs...)),
		schemaURL: a.schemaURL,
	}
	if b.schemaURL != "" {
		merged.schemaURL = b.schemaURL
	}
	return merged
}

// Attributes returns a copy of the Resource's attribute set.
func (r *Resource) Attributes() []attribute.KeyValue {
	if r == nil || len(r.attrs) == 0 {
		return nil
	}
	attrs := make([]attribute.KeyValue, len(r.attrs))
	copy(attrs, r.attrs)
	return attrs
}

// SchemaURL returns the schema URL the attributes conform to.
func (r *Resource) SchemaURL() string {
	if r == nil {
		return ""
	}
	return r.schemaURL
}

// Len returns the number of attributes in the Resource.
func (r *Resource) Len() int {
	if r == nil {
		return 0
	}
	return len(r.attrs)
}

func dedup(attrs []attribute.KeyValue) []attribute.KeyValue {
	if len(attrs) < 2 {
		return attrs
	}
	seen := make(map[attribute.Key]int, len(attrs))
	deduped := attrs[:0]
	for _, kv := range attrs {
		if i, ok := seen[kv.Key]; ok {
			deduped[i] = kv
			continue
		}
		seen[kv.Key] = len(deduped)
		deduped = append(deduped, kv)
	}
	return deduped
}
