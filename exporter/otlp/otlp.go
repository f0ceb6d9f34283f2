// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package otlp exports telemetry batches over the OpenTelemetry
// Protocol. Two transports are supported, gRPC and HTTP with
// protobuf bodies; the transport is resolved once at build time and
// a pipeline configured without any transport does not compile.
package otlp

import (
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/z5labs/telemetry/internal/env"

	"google.golang.org/grpc"
)

// Environment variables configuring the exporter. Signal-specific
// variables take precedence over the generic ones; explicit builder
// options take precedence over both.
const (
	EnvEndpoint    = "OTEL_EXPORTER_OTLP_ENDPOINT"
	EnvTimeout     = "OTEL_EXPORTER_OTLP_TIMEOUT"
	EnvCompression = "OTEL_EXPORTER_OTLP_COMPRESSION"
	EnvHeaders     = "OTEL_EXPORTER_OTLP_HEADERS"

	EnvLogsEndpoint    = "OTEL_EXPORTER_OTLP_LOGS_ENDPOINT"
	EnvLogsTimeout     = "OTEL_EXPORTER_OTLP_LOGS_TIMEOUT"
	EnvLogsCompression = "OTEL_EXPORTER_OTLP_LOGS_COMPRESSION"
	EnvLogsHeaders     = "OTEL_EXPORTER_OTLP_LOGS_HEADERS"

	EnvMetricsEndpoint    = "OTEL_EXPORTER_OTLP_METRICS_ENDPOINT"
	EnvMetricsTimeout     = "OTEL_EXPORTER_OTLP_METRICS_TIMEOUT"
	EnvMetricsCompression = "OTEL_EXPORTER_OTLP_METRICS_COMPRESSION"
	EnvMetricsHeaders     = "OTEL_EXPORTER_OTLP_METRICS_HEADERS"
)

const (
	defaultGRPCEndpoint = "localhost:4317"
	defaultHTTPEndpoint = "http://localhost:4318"
	defaultTimeout      = 10 * time.Second

	logsPath    = "/v1/logs"
	metricsPath = "/v1/metrics"
)

// Compression is the algorithm applied to request payloads.
type Compression int

const (
	// NoCompression sends payloads uncompressed.
	NoCompression Compression = iota

	// GzipCompression gzips payloads.
	GzipCompression
)

// ParseCompression maps the environment variable values "none" and
// "gzip" to a Compression.
func ParseCompression(s string) (Compression, error) {
	switch s {
	case "", "none":
		return NoCompression, nil
	case "gzip":
		return GzipCompression, nil
	default:
		return NoCompression, fmt.Errorf("unsupported compression algorithm: %q", s)
	}
}

type commonConfig struct {
	endpoint    string
	timeout     time.Duration
	compression *Compression
	headers     map[string]string
	insecure    bool
	tlsConfig   *tls.Config
}

type grpcConfig struct {
	commonConfig

	conn     *grpc.ClientConn
	dialOpts []grpc.DialOption
}

type httpConfig struct {
	commonConfig

	client *http.Client
	rtOpts []RoundTripperOption
}

// GRPCOption configures the gRPC transport.
type GRPCOption interface {
	applyGRPC(*grpcConfig)
}

// HTTPOption configures the HTTP transport.
type HTTPOption interface {
	applyHTTP(*httpConfig)
}

// Option configures behaviour common to both transports.
type Option interface {
	GRPCOption
	HTTPOption
}

type commonOptionFunc func(*commonConfig)

func (f commonOptionFunc) applyGRPC(cfg *grpcConfig) {
	f(&cfg.commonConfig)
}

func (f commonOptionFunc) applyHTTP(cfg *httpConfig) {
	f(&cfg.commonConfig)
}

// WithEndpoint sets the collector endpoint. For gRPC this is a
// host:port target; for HTTP a base URL to which the signal path
// (e.g. /v1/logs) is appended unless the URL already carries a path.
func WithEndpoint(endpoint string) Option {
	return commonOptionFunc(func(cfg *commonConfig) {
		cfg.endpoint = endpoint
	})
}

// WithTimeout bounds each export request. Defaults to
// OTEL_EXPORTER_OTLP_TIMEOUT or 10s.
func WithTimeout(d time.Duration) Option {
	return commonOptionFunc(func(cfg *commonConfig) {
		cfg.timeout = d
	})
}

// WithCompression sets the payload compression algorithm.
func WithCompression(c Compression) Option {
	return commonOptionFunc(func(cfg *commonConfig) {
		cfg.compression = &c
	})
}

// WithHeaders attaches headers to every export request.
func WithHeaders(headers map[string]string) Option {
	return commonOptionFunc(func(cfg *commonConfig) {
		cfg.headers = headers
	})
}

// WithInsecure disables transport security. Intended for local
// collectors; TLS is recommended in production.
func WithInsecure() Option {
	return commonOptionFunc(func(cfg *commonConfig) {
		cfg.insecure = true
	})
}

// WithTLSConfig sets the TLS configuration used when transport
// security is enabled.
func WithTLSConfig(tc *tls.Config) Option {
	return commonOptionFunc(func(cfg *commonConfig) {
		cfg.tlsConfig = tc
	})
}

type grpcOptionFunc func(*grpcConfig)

func (f grpcOptionFunc) applyGRPC(cfg *grpcConfig) {
	f(cfg)
}

// WithGRPCConn reuses an established client connection instead of
// dialing the endpoint. The caller retains ownership; Shutdown will
// not close it.
func WithGRPCConn(conn *grpc.ClientConn) GRPCOption {
	return grpcOptionFunc(func(cfg *grpcConfig) {
		cfg.conn = conn
	})
}

// WithDialOptions appends options to the underlying dial.
func WithDialOptions(opts ...grpc.DialOption) GRPCOption {
	return grpcOptionFunc(func(cfg *grpcConfig) {
		cfg.dialOpts = append(cfg.dialOpts, opts...)
	})
}

type httpOptionFunc func(*httpConfig)

func (f httpOptionFunc) applyHTTP(cfg *httpConfig) {
	f(cfg)
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(client *http.Client) HTTPOption {
	return httpOptionFunc(func(cfg *httpConfig) {
		cfg.client = client
	})
}

// WithRoundTripperOptions decorates the HTTP transport, e.g. with
// [Retry] or [CircuitBreaker].
func WithRoundTripperOptions(opts ...RoundTripperOption) HTTPOption {
	return httpOptionFunc(func(cfg *httpConfig) {
		cfg.rtOpts = append(cfg.rtOpts, opts...)
	})
}

// signal selects the per-signal env vars and HTTP path at build time.
type signal struct {
	path           string
	endpointEnv    string
	timeoutEnv     string
	compressionEnv string
	headersEnv     string
}

var (
	logsSignal = signal{
		path:           logsPath,
		endpointEnv:    EnvLogsEndpoint,
		timeoutEnv:     EnvLogsTimeout,
		compressionEnv: EnvLogsCompression,
		headersEnv:     EnvLogsHeaders,
	}
	metricsSignal = signal{
		path:           metricsPath,
		endpointEnv:    EnvMetricsEndpoint,
		timeoutEnv:     EnvMetricsTimeout,
		compressionEnv: EnvMetricsCompression,
		headersEnv:     EnvMetricsHeaders,
	}
)

// resolve applies the env fallbacks for everything not set by an
// explicit option.
func (cfg commonConfig) resolve(sig signal, defaultEndpoint string) (commonConfig, error) {
	if cfg.endpoint == "" {
		cfg.endpoint = env.String(defaultEndpoint, sig.endpointEnv, EnvEndpoint)
	}
	if cfg.timeout <= 0 {
		cfg.timeout = env.Duration(defaultTimeout, sig.timeoutEnv, EnvTimeout)
	}
	if cfg.compression == nil {
		c, err := ParseCompression(env.String("", sig.compressionEnv, EnvCompression))
		if err != nil {
			return cfg, err
		}
		cfg.compression = &c
	}
	if cfg.headers == nil {
		cfg.headers = env.Headers(sig.headersEnv, EnvHeaders)
	}
	if cfg.endpoint == "" {
		return cfg, errors.New("no endpoint configured")
	}
	return cfg, nil
}
