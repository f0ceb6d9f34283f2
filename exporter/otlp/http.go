// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package otlp

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/z5labs/telemetry"
	"github.com/z5labs/telemetry/log"
	"github.com/z5labs/telemetry/metric"

	"github.com/klauspost/compress/gzip"
	collogspb "go.opentelemetry.io/proto/otlp/collector/logs/v1"
	colmetricspb "go.opentelemetry.io/proto/otlp/collector/metrics/v1"
	logspb "go.opentelemetry.io/proto/otlp/logs/v1"
	metricspb "go.opentelemetry.io/proto/otlp/metrics/v1"
	"google.golang.org/protobuf/proto"
)

// HTTPBuilder configures the HTTP transport variant. Payloads are
// binary protobuf.
type HTTPBuilder struct {
	cfg httpConfig
}

// NewHTTP returns a builder for an exporter speaking OTLP over HTTP.
func NewHTTP(opts ...HTTPOption) *HTTPBuilder {
	b := &HTTPBuilder{}
	for _, opt := range opts {
		opt.applyHTTP(&b.cfg)
	}
	return b
}

func (b *HTTPBuilder) buildLogExporter(ctx context.Context) (log.Exporter, error) {
	client, cfg, err := b.client(logsSignal)
	if err != nil {
		return nil, err
	}
	return &logExporter{
		client:  (*httpLogClient)(client),
		timeout: cfg.timeout,
	}, nil
}

func (b *HTTPBuilder) buildMetricExporter(ctx context.Context, ts metric.TemporalitySelector, as metric.AggregationSelector) (metric.Exporter, error) {
	client, cfg, err := b.client(metricsSignal)
	if err != nil {
		return nil, err
	}
	return &metricExporter{
		client:      (*httpMetricClient)(client),
		timeout:     cfg.timeout,
		temporality: ts,
		aggregation: as,
	}, nil
}

func (b *HTTPBuilder) client(sig signal) (*httpClient, commonConfig, error) {
	cfg, err := b.cfg.commonConfig.resolve(sig, defaultHTTPEndpoint)
	if err != nil {
		return nil, cfg, telemetry.ConfigurationError{Cause: err}
	}

	endpoint, err := resolveHTTPEndpoint(cfg, sig)
	if err != nil {
		return nil, cfg, telemetry.ConfigurationError{Cause: err}
	}

	hc := b.cfg.client
	if hc == nil {
		hc = &http.Client{}
	}
	rt := hc.Transport
	if rt == nil {
		rt = http.DefaultTransport
	}
	for _, opt := range b.cfg.rtOpts {
		rt = opt(rt)
	}

	return &httpClient{
		hc: &http.Client{
			Transport:     rt,
			CheckRedirect: hc.CheckRedirect,
			Jar:           hc.Jar,
		},
		endpoint:    endpoint,
		headers:     cfg.headers,
		compression: *cfg.compression,
	}, cfg, nil
}

// resolveHTTPEndpoint normalizes the configured endpoint into the
// signal's full URL. Endpoints without a path get the signal path
// (e.g. /v1/logs) appended; a signal-specific value is used verbatim.
func resolveHTTPEndpoint(cfg commonConfig, sig signal) (string, error) {
	endpoint := cfg.endpoint
	if !strings.Contains(endpoint, "://") {
		scheme := "https"
		if cfg.insecure {
			scheme = "http"
		}
		endpoint = scheme + "://" + endpoint
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return "", err
	}
	if u.Host == "" {
		return "", fmt.Errorf("endpoint %q has no host", cfg.endpoint)
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = sig.path
	}
	return u.String(), nil
}

type httpClient struct {
	hc          *http.Client
	endpoint    string
	headers     map[string]string
	compression Compression
}

func (c *httpClient) upload(ctx context.Context, msg proto.Message) error {
	body, err := proto.Marshal(msg)
	if err != nil {
		return err
	}

	contentEncoding := ""
	if c.compression == GzipCompression {
		var buf bytes.Buffer
		zw := gzip.NewWriter(&buf)
		_, err = zw.Write(body)
		if err != nil {
			return err
		}
		err = zw.Close()
		if err != nil {
			return err
		}
		body = buf.Bytes()
		contentEncoding = "gzip"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-protobuf")
	if contentEncoding != "" {
		req.Header.Set("Content-Encoding", contentEncoding)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("collector responded with status %s", resp.Status)
	}
	return nil
}

func (c *httpClient) shutdown(ctx context.Context) error {
	c.hc.CloseIdleConnections()
	return nil
}

type httpLogClient httpClient

func (c *httpLogClient) uploadLogs(ctx context.Context, rls []*logspb.ResourceLogs) error {
	return (*httpClient)(c).upload(ctx, &collogspb.ExportLogsServiceRequest{
		ResourceLogs: rls,
	})
}

func (c *httpLogClient) shutdown(ctx context.Context) error {
	return (*httpClient)(c).shutdown(ctx)
}

type httpMetricClient httpClient

func (c *httpMetricClient) uploadMetrics(ctx context.Context, rm *metricspb.ResourceMetrics) error {
	return (*httpClient)(c).upload(ctx, &colmetricspb.ExportMetricsServiceRequest{
		ResourceMetrics: []*metricspb.ResourceMetrics{rm},
	})
}

func (c *httpMetricClient) shutdown(ctx context.Context) error {
	return (*httpClient)(c).shutdown(ctx)
}
