// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package stdout

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/z5labs/telemetry/log"
	"github.com/z5labs/telemetry/metric"
	"github.com/z5labs/telemetry/resource"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
)

func TestLogExporter_Export(t *testing.T) {
	t.Run("will write one JSON line per record", func(t *testing.T) {
		t.Run("if multiple records are exported", func(t *testing.T) {
			var buf bytes.Buffer
			exp := NewLogExporter(WithWriter(&buf))

			err := exp.Export(context.Background(), []log.Record{
				{
					Severity: log.SeverityInfo,
					Body:     "hello",
					Attributes: []attribute.KeyValue{
						attribute.String("user.id", "42"),
					},
				},
				{
					Severity: log.SeverityError,
					Body:     "oh no",
				},
			})
			if !assert.Nil(t, err) {
				return
			}

			lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
			if !assert.Len(t, lines, 2) {
				return
			}

			var first map[string]any
			err = json.Unmarshal(lines[0], &first)
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Equal(t, "INFO", first["severity"]) {
				return
			}
			if !assert.Equal(t, "hello", first["body"]) {
				return
			}

			attrs, ok := first["attributes"].(map[string]any)
			if !assert.True(t, ok) {
				return
			}
			if !assert.Equal(t, "42", attrs["user.id"]) {
				return
			}
		})
	})

	t.Run("will include the provider resource", func(t *testing.T) {
		t.Run("if a record carries none of its own", func(t *testing.T) {
			var buf bytes.Buffer
			exp := NewLogExporter(WithWriter(&buf))
			exp.SetResource(resource.New(resource.WithServiceName("example")))

			err := exp.Export(context.Background(), []log.Record{{Body: "hello"}})
			if !assert.Nil(t, err) {
				return
			}

			var line map[string]any
			err = json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line)
			if !assert.Nil(t, err) {
				return
			}

			res, ok := line["resource"].(map[string]any)
			if !assert.True(t, ok) {
				return
			}
			if !assert.Equal(t, "example", res["service.name"]) {
				return
			}
		})
	})

	t.Run("will write nothing", func(t *testing.T) {
		t.Run("if the exporter has been shut down", func(t *testing.T) {
			var buf bytes.Buffer
			exp := NewLogExporter(WithWriter(&buf))

			err := exp.Shutdown(context.Background())
			if !assert.Nil(t, err) {
				return
			}

			err = exp.Export(context.Background(), []log.Record{{Body: "hello"}})
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Zero(t, buf.Len()) {
				return
			}
		})
	})
}

func TestMetricExporter_Export(t *testing.T) {
	t.Run("will write one JSON line per snapshot", func(t *testing.T) {
		t.Run("if a snapshot is exported", func(t *testing.T) {
			var buf bytes.Buffer
			exp := NewMetricExporter(WithWriter(&buf))

			err := exp.Export(context.Background(), &metric.ResourceMetrics{
				Resource: resource.New(resource.WithServiceName("example")),
				ScopeMetrics: []metric.ScopeMetrics{{
					Metrics: []metric.Metrics{{
						Name: "requests",
						Data: metric.Sum{
							DataPoints:  []metric.DataPoint{{Time: time.Now(), Value: 7}},
							Temporality: metric.TemporalityCumulative,
							IsMonotonic: true,
						},
					}},
				}},
			})
			if !assert.Nil(t, err) {
				return
			}

			var line map[string]any
			err = json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line)
			if !assert.Nil(t, err) {
				return
			}

			res, ok := line["resource"].(map[string]any)
			if !assert.True(t, ok) {
				return
			}
			if !assert.Equal(t, "example", res["service.name"]) {
				return
			}

			scopes, ok := line["scopes"].([]any)
			if !assert.True(t, ok) {
				return
			}
			if !assert.Len(t, scopes, 1) {
				return
			}
		})
	})

	t.Run("will report the configured selectors", func(t *testing.T) {
		t.Run("if a temporality selector is given", func(t *testing.T) {
			exp := NewMetricExporter(
				WithWriter(&bytes.Buffer{}),
				WithTemporalitySelector(metric.DeltaTemporalitySelector),
			)

			if !assert.Equal(t, metric.TemporalityDelta, exp.Temporality(metric.InstrumentKindCounter)) {
				return
			}
			if !assert.Equal(t, metric.TemporalityCumulative, exp.Temporality(metric.InstrumentKindUpDownCounter)) {
				return
			}
		})
	})
}
