// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package metric

import (
	"time"

	"github.com/z5labs/telemetry/instrumentation"
	"github.com/z5labs/telemetry/resource"

	"go.opentelemetry.io/otel/attribute"
)

// ResourceMetrics is a point-in-time snapshot of all instrument
// readings across all scopes. A fresh snapshot is constructed each
// collection cycle and not retained after export; exporters needing
// the data past their Export call must copy it.
type ResourceMetrics struct {
	Resource     *resource.Resource
	ScopeMetrics []ScopeMetrics
}

// ScopeMetrics groups the metrics produced by one instrumented
// library.
type ScopeMetrics struct {
	Scope   instrumentation.Scope
	Metrics []Metrics
}

// Metrics is one named metric and its aggregated data.
type Metrics struct {
	Name        string
	Description string
	Unit        string
	Data        Data
}

// Data is the aggregated payload of a metric. It is a closed set
// mirroring the [Aggregation] variants.
type Data interface {
	data()
}

// Sum holds summed data points.
type Sum struct {
	DataPoints  []DataPoint
	Temporality Temporality
	IsMonotonic bool
}

func (Sum) data() {}

// Gauge holds last-value data points.
type Gauge struct {
	DataPoints []DataPoint
}

func (Gauge) data() {}

// Histogram holds bucketed distribution data points.
type Histogram struct {
	DataPoints  []HistogramDataPoint
	Temporality Temporality
}

func (Histogram) data() {}

// DataPoint is a single numeric reading for one attribute set.
type DataPoint struct {
	Attributes []attribute.KeyValue
	StartTime  time.Time
	Time       time.Time
	Value      float64
}

// HistogramDataPoint is a bucketed distribution for one attribute
// set. len(BucketCounts) == len(Bounds)+1; the final bucket counts
// measurements above the last bound.
type HistogramDataPoint struct {
	Attributes   []attribute.KeyValue
	StartTime    time.Time
	Time         time.Time
	Count        uint64
	Sum          float64
	Bounds       []float64
	BucketCounts []uint64
}
