// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package metric

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/z5labs/telemetry/executor"
	"github.com/z5labs/telemetry/instrumentation"
	"github.com/z5labs/telemetry/resource"

	"github.com/stretchr/testify/assert"
)

type captureMetricExporter struct {
	temporality TemporalitySelector
	aggregation AggregationSelector

	mu        sync.Mutex
	exports   []*ResourceMetrics
	exportErr error
	shutdowns int
}

func (e *captureMetricExporter) Temporality(kind InstrumentKind) Temporality {
	if e.temporality == nil {
		return DefaultTemporalitySelector(kind)
	}
	return e.temporality(kind)
}

func (e *captureMetricExporter) Aggregation(kind InstrumentKind) Aggregation {
	if e.aggregation == nil {
		return DefaultAggregationSelector(kind)
	}
	return e.aggregation(kind)
}

func (e *captureMetricExporter) Export(ctx context.Context, rm *ResourceMetrics) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.exports = append(e.exports, rm)
	return e.exportErr
}

func (e *captureMetricExporter) ForceFlush(ctx context.Context) error {
	return nil
}

func (e *captureMetricExporter) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.shutdowns++
	return nil
}

func (e *captureMetricExporter) snapshot() []*ResourceMetrics {
	e.mu.Lock()
	defer e.mu.Unlock()
	exports := make([]*ResourceMetrics, len(e.exports))
	copy(exports, e.exports)
	return exports
}

func (e *captureMetricExporter) shutdownCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.shutdowns
}

func counterMetrics(name string, value float64) []Metrics {
	return []Metrics{{
		Name: name,
		Data: Sum{
			DataPoints:  []DataPoint{{Time: time.Now(), Value: value}},
			Temporality: TemporalityCumulative,
			IsMonotonic: true,
		},
	}}
}

func TestPeriodicReader_run(t *testing.T) {
	t.Run("will collect and export", func(t *testing.T) {
		t.Run("if the interval elapses", func(t *testing.T) {
			exec := executor.NewManual()
			exp := &captureMetricExporter{}

			var calls int
			var mu sync.Mutex
			r := NewPeriodicReader(exp,
				ReaderExecutor(exec),
				WithProducer(ProducerFunc(func(ctx context.Context, sel Selection) ([]ScopeMetrics, error) {
					mu.Lock()
					calls++
					n := calls
					mu.Unlock()
					return []ScopeMetrics{{
						Scope:   instrumentation.Scope{Name: "test/meter"},
						Metrics: counterMetrics("requests", float64(n)),
					}}, nil
				})),
			)
			defer r.Shutdown(context.Background())

			// The collector registers its ticker asynchronously, so
			// keep ticking until it reacts.
			ok := assert.Eventually(t, func() bool {
				exec.Tick()
				return len(exp.snapshot()) >= 2
			}, time.Second, 5*time.Millisecond)
			if !ok {
				return
			}

			// Each cycle carries a freshly produced snapshot.
			exports := exp.snapshot()
			if !assert.NotSame(t, exports[0], exports[1]) {
				return
			}
			if !assert.NotEqual(t,
				exports[0].ScopeMetrics[0].Metrics[0].Data,
				exports[1].ScopeMetrics[0].Metrics[0].Data,
			) {
				return
			}
		})
	})

	t.Run("will keep pace with the configured interval", func(t *testing.T) {
		t.Run("if the exporter is a no-op", func(t *testing.T) {
			exp := &captureMetricExporter{}
			r := NewPeriodicReader(exp,
				WithInterval(100*time.Millisecond),
				WithProducer(ProducerFunc(func(ctx context.Context, sel Selection) ([]ScopeMetrics, error) {
					return nil, nil
				})),
			)
			defer r.Shutdown(context.Background())

			start := time.Now()
			ok := assert.Eventually(t, func() bool {
				return len(exp.snapshot()) >= 9
			}, 2*time.Second, 10*time.Millisecond)
			if !ok {
				return
			}
			if !assert.Greater(t, time.Since(start), 800*time.Millisecond) {
				return
			}
		})
	})

	t.Run("will hand the exporter's selectors to producers", func(t *testing.T) {
		t.Run("if a cycle is triggered", func(t *testing.T) {
			exp := &captureMetricExporter{
				temporality: DeltaTemporalitySelector,
			}

			var got Selection
			r := NewPeriodicReader(exp,
				ReaderExecutor(executor.NewManual()),
				WithProducer(ProducerFunc(func(ctx context.Context, sel Selection) ([]ScopeMetrics, error) {
					got = sel
					return nil, nil
				})),
			)
			defer r.Shutdown(context.Background())

			err := r.ForceFlush(context.Background())
			if !assert.Nil(t, err) {
				return
			}

			if !assert.Equal(t, TemporalityDelta, got.Temporality(InstrumentKindCounter)) {
				return
			}
			if !assert.Equal(t, TemporalityCumulative, got.Temporality(InstrumentKindUpDownCounter)) {
				return
			}
			if !assert.Equal(t, AggregationSum{}, got.Aggregation(InstrumentKindCounter)) {
				return
			}
		})
	})

	t.Run("will discard the cycle", func(t *testing.T) {
		t.Run("if a producer fails", func(t *testing.T) {
			produceErr := errors.New("callback failed")
			exp := &captureMetricExporter{}
			r := NewPeriodicReader(exp,
				ReaderExecutor(executor.NewManual()),
				WithProducer(ProducerFunc(func(ctx context.Context, sel Selection) ([]ScopeMetrics, error) {
					return nil, produceErr
				})),
			)
			defer r.Shutdown(context.Background())

			err := r.ForceFlush(context.Background())
			if !assert.ErrorIs(t, err, produceErr) {
				return
			}
			if !assert.Empty(t, exp.snapshot()) {
				return
			}
		})
	})
}

func TestPeriodicReader_ForceFlush(t *testing.T) {
	t.Run("will export immediately", func(t *testing.T) {
		t.Run("if the interval has not elapsed yet", func(t *testing.T) {
			exp := &captureMetricExporter{}
			res := resource.New(resource.WithServiceName("example"))
			r := NewPeriodicReader(exp,
				ReaderExecutor(executor.NewManual()),
				WithProducer(ProducerFunc(func(ctx context.Context, sel Selection) ([]ScopeMetrics, error) {
					return []ScopeMetrics{{
						Scope:   instrumentation.Scope{Name: "test/meter"},
						Metrics: counterMetrics("requests", 1),
					}}, nil
				})),
			)
			defer r.Shutdown(context.Background())
			r.setResource(res)

			err := r.ForceFlush(context.Background())
			if !assert.Nil(t, err) {
				return
			}

			exports := exp.snapshot()
			if !assert.Len(t, exports, 1) {
				return
			}
			if !assert.Same(t, res, exports[0].Resource) {
				return
			}
		})
	})

	t.Run("will return nil", func(t *testing.T) {
		t.Run("if the reader has been shut down", func(t *testing.T) {
			exp := &captureMetricExporter{}
			r := NewPeriodicReader(exp, ReaderExecutor(executor.NewManual()))

			err := r.Shutdown(context.Background())
			if !assert.Nil(t, err) {
				return
			}

			err = r.ForceFlush(context.Background())
			if !assert.Nil(t, err) {
				return
			}
		})
	})
}

func TestPeriodicReader_Shutdown(t *testing.T) {
	t.Run("will export a final snapshot", func(t *testing.T) {
		t.Run("if producers are registered", func(t *testing.T) {
			exp := &captureMetricExporter{}
			r := NewPeriodicReader(exp,
				ReaderExecutor(executor.NewManual()),
				WithProducer(ProducerFunc(func(ctx context.Context, sel Selection) ([]ScopeMetrics, error) {
					return []ScopeMetrics{{
						Scope:   instrumentation.Scope{Name: "test/meter"},
						Metrics: counterMetrics("requests", 1),
					}}, nil
				})),
			)

			err := r.Shutdown(context.Background())
			if !assert.Nil(t, err) {
				return
			}

			if !assert.Len(t, exp.snapshot(), 1) {
				return
			}
			if !assert.Equal(t, 1, exp.shutdownCount()) {
				return
			}
		})
	})

	t.Run("will not touch the exporter again", func(t *testing.T) {
		t.Run("if it is called a second time", func(t *testing.T) {
			exp := &captureMetricExporter{}
			r := NewPeriodicReader(exp, ReaderExecutor(executor.NewManual()))

			err := r.Shutdown(context.Background())
			if !assert.Nil(t, err) {
				return
			}

			err = r.Shutdown(context.Background())
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, 1, exp.shutdownCount()) {
				return
			}
		})
	})
}
