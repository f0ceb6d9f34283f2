// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package metric

import "context"

// Exporter pushes collected metric snapshots to a backend collector.
//
// An Exporter composes a temporality and aggregation selector pair so
// the aggregation pipeline can be informed of the reporting policy
// before collection. Export is invoked by the reader's single
// background consumer with at most one call in flight at a time.
type Exporter interface {
	// Temporality returns the reporting temporality for kind.
	Temporality(kind InstrumentKind) Temporality

	// Aggregation returns the reduction applied to kind.
	Aggregation(kind InstrumentKind) Aggregation

	// Export transmits rm. The snapshot may be reused after Export
	// returns; implementations must copy anything they retain. The
	// ctx carries the reader's export timeout.
	Export(ctx context.Context, rm *ResourceMetrics) error

	// ForceFlush flushes any data the exporter itself holds.
	ForceFlush(ctx context.Context) error

	// Shutdown releases held resources. After Shutdown returns,
	// Export will not be called again.
	Shutdown(ctx context.Context) error
}

// Producer is the instrument registry collaborator the reader pulls
// aggregated state from on each collection cycle.
type Producer interface {
	// Produce returns the current aggregated state of every
	// instrument, shaped according to sel. Implementations must
	// return freshly allocated data.
	Produce(ctx context.Context, sel Selection) ([]ScopeMetrics, error)
}

// ProducerFunc is a functional implementation of the Producer
// interface.
type ProducerFunc func(context.Context, Selection) ([]ScopeMetrics, error)

// Produce implements the Producer interface.
func (f ProducerFunc) Produce(ctx context.Context, sel Selection) ([]ScopeMetrics, error) {
	return f(ctx, sel)
}

// Selection carries the reporting policy the reader's exporter
// composed, handed to producers ahead of each collection.
type Selection struct {
	Temporality TemporalitySelector
	Aggregation AggregationSelector
}
