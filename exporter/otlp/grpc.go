// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package otlp

import (
	"context"
	"crypto/tls"
	"sync"

	"github.com/z5labs/telemetry"
	"github.com/z5labs/telemetry/log"
	"github.com/z5labs/telemetry/metric"

	collogspb "go.opentelemetry.io/proto/otlp/collector/logs/v1"
	colmetricspb "go.opentelemetry.io/proto/otlp/collector/metrics/v1"
	logspb "go.opentelemetry.io/proto/otlp/logs/v1"
	metricspb "go.opentelemetry.io/proto/otlp/metrics/v1"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/encoding/gzip"
	"google.golang.org/grpc/metadata"
)

// GRPCBuilder configures the gRPC transport variant.
type GRPCBuilder struct {
	cfg grpcConfig
}

// NewGRPC returns a builder for an exporter speaking OTLP over gRPC.
func NewGRPC(opts ...GRPCOption) *GRPCBuilder {
	b := &GRPCBuilder{}
	for _, opt := range opts {
		opt.applyGRPC(&b.cfg)
	}
	return b
}

func (b *GRPCBuilder) buildLogExporter(ctx context.Context) (log.Exporter, error) {
	client, cfg, err := b.dial(ctx, logsSignal)
	if err != nil {
		return nil, err
	}
	return &logExporter{
		client: &grpcLogClient{
			grpcClient: client,
			svc:        collogspb.NewLogsServiceClient(client.conn),
		},
		timeout: cfg.timeout,
	}, nil
}

func (b *GRPCBuilder) buildMetricExporter(ctx context.Context, ts metric.TemporalitySelector, as metric.AggregationSelector) (metric.Exporter, error) {
	client, cfg, err := b.dial(ctx, metricsSignal)
	if err != nil {
		return nil, err
	}
	return &metricExporter{
		client: &grpcMetricClient{
			grpcClient: client,
			svc:        colmetricspb.NewMetricsServiceClient(client.conn),
		},
		timeout:     cfg.timeout,
		temporality: ts,
		aggregation: as,
	}, nil
}

func (b *GRPCBuilder) dial(ctx context.Context, sig signal) (*grpcClient, commonConfig, error) {
	cfg, err := b.cfg.commonConfig.resolve(sig, defaultGRPCEndpoint)
	if err != nil {
		return nil, cfg, telemetry.ConfigurationError{Cause: err}
	}

	client := &grpcClient{
		headers: metadata.New(cfg.headers),
	}
	if *cfg.compression == GzipCompression {
		client.callOpts = append(client.callOpts, grpc.UseCompressor(gzip.Name))
	}

	if b.cfg.conn != nil {
		client.conn = b.cfg.conn
		return client, cfg, nil
	}

	var creds credentials.TransportCredentials
	switch {
	case cfg.insecure:
		creds = insecure.NewCredentials()
	case cfg.tlsConfig != nil:
		creds = credentials.NewTLS(cfg.tlsConfig)
	default:
		creds = credentials.NewTLS(&tls.Config{})
	}

	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(creds),
	}, b.cfg.dialOpts...)

	conn, err := grpc.DialContext(ctx, cfg.endpoint, dialOpts...)
	if err != nil {
		return nil, cfg, telemetry.ConfigurationError{Cause: err}
	}
	client.conn = conn
	client.ownConn = true
	return client, cfg, nil
}

type grpcClient struct {
	conn     *grpc.ClientConn
	ownConn  bool
	headers  metadata.MD
	callOpts []grpc.CallOption

	closeOnce sync.Once
}

func (c *grpcClient) requestContext(ctx context.Context) context.Context {
	if c.headers.Len() == 0 {
		return ctx
	}
	return metadata.NewOutgoingContext(ctx, c.headers)
}

func (c *grpcClient) shutdown(ctx context.Context) error {
	var err error
	c.closeOnce.Do(func() {
		if c.ownConn {
			err = c.conn.Close()
		}
	})
	return err
}

type grpcLogClient struct {
	*grpcClient
	svc collogspb.LogsServiceClient
}

func (c *grpcLogClient) uploadLogs(ctx context.Context, rls []*logspb.ResourceLogs) error {
	_, err := c.svc.Export(c.requestContext(ctx), &collogspb.ExportLogsServiceRequest{
		ResourceLogs: rls,
	}, c.callOpts...)
	return err
}

type grpcMetricClient struct {
	*grpcClient
	svc colmetricspb.MetricsServiceClient
}

func (c *grpcMetricClient) uploadMetrics(ctx context.Context, rm *metricspb.ResourceMetrics) error {
	_, err := c.svc.Export(c.requestContext(ctx), &colmetricspb.ExportMetricsServiceRequest{
		ResourceMetrics: []*metricspb.ResourceMetrics{rm},
	}, c.callOpts...)
	return err
}
