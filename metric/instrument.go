// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package metric implements the pull half of the pipeline: a periodic
// reader which collects aggregated instrument state and pushes
// point-in-time snapshots to an exporter, together with the
// temporality and aggregation selection policy applied per
// instrument kind.
package metric

// InstrumentKind distinguishes the instrument variants a selection
// policy must cover. Every selector is total over these values.
type InstrumentKind int

const (
	// InstrumentKindCounter is a synchronous, monotonically
	// increasing count.
	InstrumentKindCounter InstrumentKind = iota + 1

	// InstrumentKindUpDownCounter is a synchronous count which may
	// increase or decrease.
	InstrumentKindUpDownCounter

	// InstrumentKindHistogram is a synchronous distribution of
	// measurements.
	InstrumentKindHistogram

	// InstrumentKindGauge is a synchronous last-value measurement.
	InstrumentKindGauge

	// InstrumentKindObservableCounter is an asynchronously observed,
	// monotonically increasing count.
	InstrumentKindObservableCounter

	// InstrumentKindObservableUpDownCounter is an asynchronously
	// observed count which may increase or decrease.
	InstrumentKindObservableUpDownCounter

	// InstrumentKindObservableGauge is an asynchronously observed
	// last-value measurement.
	InstrumentKindObservableGauge
)

// instrumentKinds lists every InstrumentKind, in order.
var instrumentKinds = []InstrumentKind{
	InstrumentKindCounter,
	InstrumentKindUpDownCounter,
	InstrumentKindHistogram,
	InstrumentKindGauge,
	InstrumentKindObservableCounter,
	InstrumentKindObservableUpDownCounter,
	InstrumentKindObservableGauge,
}

// String implements the [fmt.Stringer] interface.
func (k InstrumentKind) String() string {
	switch k {
	case InstrumentKindCounter:
		return "Counter"
	case InstrumentKindUpDownCounter:
		return "UpDownCounter"
	case InstrumentKindHistogram:
		return "Histogram"
	case InstrumentKindGauge:
		return "Gauge"
	case InstrumentKindObservableCounter:
		return "ObservableCounter"
	case InstrumentKindObservableUpDownCounter:
		return "ObservableUpDownCounter"
	case InstrumentKindObservableGauge:
		return "ObservableGauge"
	default:
		return "unknown"
	}
}
