// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package metric

// Aggregation is the statistical reduction applied to raw instrument
// measurements before export. It is a closed set; external packages
// cannot add variants.
type Aggregation interface {
	aggregation()
}

// AggregationSum reports the arithmetic sum of measurements.
type AggregationSum struct{}

func (AggregationSum) aggregation() {}

// AggregationLastValue reports the most recent measurement.
type AggregationLastValue struct{}

func (AggregationLastValue) aggregation() {}

// AggregationExplicitBucketHistogram reports measurement counts per
// explicitly bounded bucket.
type AggregationExplicitBucketHistogram struct {
	// Boundaries are the increasing upper bounds of the buckets. A
	// final implicit bucket captures everything above the last bound.
	Boundaries []float64

	// NoMinMax disables recording of the observed min and max.
	NoMinMax bool
}

func (AggregationExplicitBucketHistogram) aggregation() {}

// AggregationDrop discards all measurements for the instrument.
type AggregationDrop struct{}

func (AggregationDrop) aggregation() {}

// AggregationSelector maps an instrument kind to the aggregation
// applied to its measurements. Selectors must be pure, side-effect
// free and total over every [InstrumentKind].
type AggregationSelector func(InstrumentKind) Aggregation

// DefaultAggregationSelector selects Sum for counters, LastValue for
// gauges and an explicit bucket histogram for histograms.
func DefaultAggregationSelector(kind InstrumentKind) Aggregation {
	switch kind {
	case InstrumentKindGauge, InstrumentKindObservableGauge:
		return AggregationLastValue{}
	case InstrumentKindHistogram:
		return AggregationExplicitBucketHistogram{
			Boundaries: []float64{0, 5, 10, 25, 50, 75, 100, 250, 500, 750, 1000, 2500, 5000, 7500, 10000},
		}
	default:
		return AggregationSum{}
	}
}
