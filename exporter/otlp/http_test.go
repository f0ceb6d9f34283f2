// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package otlp

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/z5labs/telemetry/log"
	"github.com/z5labs/telemetry/metric"
	"github.com/z5labs/telemetry/resource"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	collogspb "go.opentelemetry.io/proto/otlp/collector/logs/v1"
	colmetricspb "go.opentelemetry.io/proto/otlp/collector/metrics/v1"
	"google.golang.org/protobuf/proto"
)

type collectorRequest struct {
	path     string
	header   http.Header
	body     []byte
	encoding string
}

// fakeCollector records every export request it receives and lets the
// test decode the payload afterwards.
type fakeCollector struct {
	srv *httptest.Server

	mu       sync.Mutex
	requests []collectorRequest
	status   int
}

func newFakeCollector() *fakeCollector {
	c := &fakeCollector{status: http.StatusOK}
	c.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		c.mu.Lock()
		c.requests = append(c.requests, collectorRequest{
			path:     r.URL.Path,
			header:   r.Header.Clone(),
			body:     body,
			encoding: r.Header.Get("Content-Encoding"),
		})
		status := c.status
		c.mu.Unlock()

		w.WriteHeader(status)
	}))
	return c
}

func (c *fakeCollector) setStatus(status int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = status
}

func (c *fakeCollector) snapshot() []collectorRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	reqs := make([]collectorRequest, len(c.requests))
	copy(reqs, c.requests)
	return reqs
}

func decodeLogs(t *testing.T, req collectorRequest) *collogspb.ExportLogsServiceRequest {
	t.Helper()

	body := req.body
	if req.encoding == "gzip" {
		zr, err := gzip.NewReader(bytes.NewReader(body))
		if !assert.Nil(t, err) {
			t.FailNow()
		}
		body, err = io.ReadAll(zr)
		if !assert.Nil(t, err) {
			t.FailNow()
		}
	}

	var msg collogspb.ExportLogsServiceRequest
	err := proto.Unmarshal(body, &msg)
	if !assert.Nil(t, err) {
		t.FailNow()
	}
	return &msg
}

func TestHTTPBuilder_buildLogExporter(t *testing.T) {
	t.Run("will post protobuf payloads", func(t *testing.T) {
		t.Run("if records are exported", func(t *testing.T) {
			collector := newFakeCollector()
			defer collector.srv.Close()

			exp, err := NewHTTP(WithEndpoint(collector.srv.URL)).buildLogExporter(context.Background())
			if !assert.Nil(t, err) {
				return
			}

			err = exp.Export(context.Background(), []log.Record{
				{Severity: log.SeverityInfo, Body: "hello"},
			})
			if !assert.Nil(t, err) {
				return
			}

			reqs := collector.snapshot()
			if !assert.Len(t, reqs, 1) {
				return
			}
			if !assert.Equal(t, "/v1/logs", reqs[0].path) {
				return
			}
			if !assert.Equal(t, "application/x-protobuf", reqs[0].header.Get("Content-Type")) {
				return
			}

			msg := decodeLogs(t, reqs[0])
			if !assert.Len(t, msg.ResourceLogs, 1) {
				return
			}
			lr := msg.ResourceLogs[0].ScopeLogs[0].LogRecords[0]
			if !assert.Equal(t, "hello", lr.Body.GetStringValue()) {
				return
			}
		})
	})

	t.Run("will gzip the payload", func(t *testing.T) {
		t.Run("if gzip compression is configured", func(t *testing.T) {
			collector := newFakeCollector()
			defer collector.srv.Close()

			exp, err := NewHTTP(
				WithEndpoint(collector.srv.URL),
				WithCompression(GzipCompression),
			).buildLogExporter(context.Background())
			if !assert.Nil(t, err) {
				return
			}

			err = exp.Export(context.Background(), []log.Record{{Body: "hello"}})
			if !assert.Nil(t, err) {
				return
			}

			reqs := collector.snapshot()
			if !assert.Len(t, reqs, 1) {
				return
			}
			if !assert.Equal(t, "gzip", reqs[0].encoding) {
				return
			}

			msg := decodeLogs(t, reqs[0])
			if !assert.Len(t, msg.ResourceLogs, 1) {
				return
			}
		})
	})

	t.Run("will attach configured headers", func(t *testing.T) {
		t.Run("if WithHeaders is used", func(t *testing.T) {
			collector := newFakeCollector()
			defer collector.srv.Close()

			exp, err := NewHTTP(
				WithEndpoint(collector.srv.URL),
				WithHeaders(map[string]string{"Api-Key": "secret"}),
			).buildLogExporter(context.Background())
			if !assert.Nil(t, err) {
				return
			}

			err = exp.Export(context.Background(), []log.Record{{Body: "hello"}})
			if !assert.Nil(t, err) {
				return
			}

			reqs := collector.snapshot()
			if !assert.Len(t, reqs, 1) {
				return
			}
			if !assert.Equal(t, "secret", reqs[0].header.Get("Api-Key")) {
				return
			}
		})
	})

	t.Run("will return an error", func(t *testing.T) {
		t.Run("if the collector responds with a server error", func(t *testing.T) {
			collector := newFakeCollector()
			defer collector.srv.Close()
			collector.setStatus(http.StatusInternalServerError)

			exp, err := NewHTTP(WithEndpoint(collector.srv.URL)).buildLogExporter(context.Background())
			if !assert.Nil(t, err) {
				return
			}

			err = exp.Export(context.Background(), []log.Record{{Body: "hello"}})
			if !assert.NotNil(t, err) {
				return
			}
		})

		t.Run("if the exporter has been shut down", func(t *testing.T) {
			collector := newFakeCollector()
			defer collector.srv.Close()

			exp, err := NewHTTP(WithEndpoint(collector.srv.URL)).buildLogExporter(context.Background())
			if !assert.Nil(t, err) {
				return
			}

			err = exp.Shutdown(context.Background())
			if !assert.Nil(t, err) {
				return
			}

			err = exp.Export(context.Background(), []log.Record{{Body: "hello"}})
			if !assert.ErrorIs(t, err, errShutdown) {
				return
			}
		})
	})

	t.Run("will skip the request entirely", func(t *testing.T) {
		t.Run("if the batch is empty", func(t *testing.T) {
			collector := newFakeCollector()
			defer collector.srv.Close()

			exp, err := NewHTTP(WithEndpoint(collector.srv.URL)).buildLogExporter(context.Background())
			if !assert.Nil(t, err) {
				return
			}

			err = exp.Export(context.Background(), nil)
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Empty(t, collector.snapshot()) {
				return
			}
		})
	})
}

func TestLogPipeline(t *testing.T) {
	t.Run("will deliver emitted records", func(t *testing.T) {
		t.Run("if the provider is shut down cleanly", func(t *testing.T) {
			collector := newFakeCollector()
			defer collector.srv.Close()

			provider, err := NewLogPipeline().
				WithResource(resource.New(resource.WithServiceName("example"))).
				WithExporter(NewHTTP(WithEndpoint(collector.srv.URL))).
				InstallBatch(context.Background(), log.WithBatchConfig(log.BatchConfig{
					ScheduledDelay: time.Hour,
				}))
			if !assert.Nil(t, err) {
				return
			}

			logger := provider.Logger("test/logger")
			logger.Emit(context.Background(), log.Record{
				Severity: log.SeverityInfo,
				Body:     "hello",
			})

			err = provider.Shutdown(context.Background())
			if !assert.Nil(t, err) {
				return
			}

			reqs := collector.snapshot()
			if !assert.Len(t, reqs, 1) {
				return
			}

			msg := decodeLogs(t, reqs[0])
			if !assert.Len(t, msg.ResourceLogs, 1) {
				return
			}

			found := false
			for _, kv := range msg.ResourceLogs[0].Resource.Attributes {
				if kv.Key == "service.name" && kv.Value.GetStringValue() == "example" {
					found = true
				}
			}
			if !assert.True(t, found) {
				return
			}
		})
	})
}

func TestMetricPipeline(t *testing.T) {
	t.Run("will deliver a final snapshot", func(t *testing.T) {
		t.Run("if the provider is shut down cleanly", func(t *testing.T) {
			collector := newFakeCollector()
			defer collector.srv.Close()

			provider, err := NewMetricPipeline().
				WithDeltaTemporality().
				WithExporter(NewHTTP(WithEndpoint(collector.srv.URL))).
				Install(context.Background(), metric.WithInterval(time.Hour))
			if !assert.Nil(t, err) {
				return
			}

			provider.Meter("test/meter").RegisterCallback(func(ctx context.Context, sel metric.Selection) ([]metric.Metrics, error) {
				return []metric.Metrics{{
					Name: "requests",
					Data: metric.Sum{
						DataPoints:  []metric.DataPoint{{Time: time.Now(), Value: 7}},
						Temporality: sel.Temporality(metric.InstrumentKindCounter),
						IsMonotonic: true,
					},
				}}, nil
			})

			err = provider.Shutdown(context.Background())
			if !assert.Nil(t, err) {
				return
			}

			reqs := collector.snapshot()
			if !assert.Len(t, reqs, 1) {
				return
			}
			if !assert.Equal(t, "/v1/metrics", reqs[0].path) {
				return
			}

			var msg colmetricspb.ExportMetricsServiceRequest
			err = proto.Unmarshal(reqs[0].body, &msg)
			if !assert.Nil(t, err) {
				return
			}
			if !assert.Len(t, msg.ResourceMetrics, 1) {
				return
			}

			m := msg.ResourceMetrics[0].ScopeMetrics[0].Metrics[0]
			if !assert.Equal(t, "requests", m.Name) {
				return
			}

			sum := m.GetSum()
			if !assert.NotNil(t, sum) {
				return
			}
			if !assert.Equal(t, 1, len(sum.DataPoints)) {
				return
			}
			if !assert.Equal(t, float64(7), sum.DataPoints[0].GetAsDouble()) {
				return
			}
		})
	})
}
