// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package metric

// Temporality is whether a reported interval value is a delta since
// the last report or a cumulative total since start.
type Temporality int

const (
	// TemporalityCumulative reports totals since the start of
	// collection.
	TemporalityCumulative Temporality = iota + 1

	// TemporalityDelta reports changes since the previous report.
	TemporalityDelta
)

// String implements the [fmt.Stringer] interface.
func (t Temporality) String() string {
	switch t {
	case TemporalityCumulative:
		return "Cumulative"
	case TemporalityDelta:
		return "Delta"
	default:
		return "unknown"
	}
}

// TemporalitySelector maps an instrument kind to the temporality its
// measurements are reported with. Selectors must be pure, side-effect
// free and total over every [InstrumentKind].
type TemporalitySelector func(InstrumentKind) Temporality

// DefaultTemporalitySelector selects Cumulative for every kind.
func DefaultTemporalitySelector(InstrumentKind) Temporality {
	return TemporalityCumulative
}

// DeltaTemporalitySelector selects Delta for every kind except
// UpDownCounter and ObservableUpDownCounter. Up/down counters carry
// sign-significant running state which delta reporting would
// misrepresent, so they stay Cumulative.
func DeltaTemporalitySelector(kind InstrumentKind) Temporality {
	switch kind {
	case InstrumentKindUpDownCounter, InstrumentKindObservableUpDownCounter:
		return TemporalityCumulative
	default:
		return TemporalityDelta
	}
}
