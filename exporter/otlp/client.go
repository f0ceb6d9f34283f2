// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package otlp

import (
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// RoundTripperOption decorates the transport used by the HTTP
// exporter. The pipeline itself never retries a failed batch; these
// decorators are the supported way for an exporter to add its own
// delivery policy.
type RoundTripperOption func(http.RoundTripper) http.RoundTripper

type retryOptions struct {
	maxRetries int
	waitMin    time.Duration
	waitMax    time.Duration
}

// RetryOption configures the [Retry] decorator.
type RetryOption func(*retryOptions)

// RetryMaxAttempts sets how many times a failed request is retried.
func RetryMaxAttempts(n int) RetryOption {
	return func(ro *retryOptions) {
		ro.maxRetries = n
	}
}

// RetryMinWait sets the minimum backoff between attempts.
func RetryMinWait(d time.Duration) RetryOption {
	return func(ro *retryOptions) {
		ro.waitMin = d
	}
}

// RetryMaxWait sets the maximum backoff between attempts.
func RetryMaxWait(d time.Duration) RetryOption {
	return func(ro *retryOptions) {
		ro.waitMax = d
	}
}

// Retry retries failed export requests with exponential backoff.
// Retries stay bounded by the export deadline carried on the request
// context, so a slow collector cannot stall the consumer beyond the
// configured export timeout.
func Retry(opts ...RetryOption) RoundTripperOption {
	return func(rt http.RoundTripper) http.RoundTripper {
		ro := &retryOptions{
			maxRetries: 2,
			waitMin:    100 * time.Millisecond,
			waitMax:    5 * time.Second,
		}
		for _, opt := range opts {
			opt(ro)
		}

		rc := &retryablehttp.Client{
			HTTPClient:   &http.Client{Transport: rt},
			Logger:       nil,
			RetryWaitMin: ro.waitMin,
			RetryWaitMax: ro.waitMax,
			RetryMax:     ro.maxRetries,
			CheckRetry:   retryablehttp.DefaultRetryPolicy,
			Backoff:      retryablehttp.DefaultBackoff,
			ErrorHandler: retryablehttp.PassthroughErrorHandler,
		}
		return rc.StandardClient().Transport
	}
}

type breakerOptions struct {
	logger      *zap.Logger
	maxRequests uint32
	interval    time.Duration
	timeout     time.Duration
	tripCount   uint32
}

// BreakerOption configures the [CircuitBreaker] decorator.
type BreakerOption func(*breakerOptions)

// BreakerLogger sets the logger notified of circuit state changes.
func BreakerLogger(logger *zap.Logger) BreakerOption {
	return func(bo *breakerOptions) {
		bo.logger = logger
	}
}

// BreakerTripCount sets how many consecutive failed exports trip the
// circuit.
func BreakerTripCount(n uint32) BreakerOption {
	return func(bo *breakerOptions) {
		bo.tripCount = n
	}
}

// BreakerTimeout sets how long the circuit stays open before letting
// probe requests through.
func BreakerTimeout(d time.Duration) BreakerOption {
	return func(bo *breakerOptions) {
		bo.timeout = d
	}
}

// BreakerMaxRequests sets how many probe requests pass while the
// circuit is half-open.
func BreakerMaxRequests(n uint32) BreakerOption {
	return func(bo *breakerOptions) {
		bo.maxRequests = n
	}
}

var errStatusCode = errors.New("status code error")

// CircuitBreaker sheds export requests while the collector is
// unreachable, failing them fast instead of holding the consumer on a
// dead connection. Telemetry is best-effort, so shed batches are
// simply lost.
func CircuitBreaker(opts ...BreakerOption) RoundTripperOption {
	return func(rt http.RoundTripper) http.RoundTripper {
		bo := &breakerOptions{
			logger:      zap.NewNop(),
			maxRequests: 1,
			timeout:     time.Minute,
			tripCount:   5,
		}
		for _, opt := range opts {
			opt(bo)
		}

		log := bo.logger.Named("otlp")
		return &breakerRoundTripper{
			base: rt,
			cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
				Name:        "otlp",
				MaxRequests: bo.maxRequests,
				Interval:    bo.interval,
				Timeout:     bo.timeout,
				ReadyToTrip: func(counts gobreaker.Counts) bool {
					return counts.ConsecutiveFailures >= bo.tripCount
				},
				OnStateChange: func(name string, from, to gobreaker.State) {
					switch to {
					case gobreaker.StateOpen:
						log.Error("circuit has been opened, shedding export requests")
					case gobreaker.StateHalfOpen:
						log.Warn("circuit is half open, letting probe requests through", zap.Uint32("max_requests_allowed_through", bo.maxRequests))
					case gobreaker.StateClosed:
						log.Info("circuit has been closed")
					}
				},
				IsSuccessful: notConnOrServerError,
			}),
		}
	}
}

func notConnOrServerError(err error) bool {
	if err == errStatusCode {
		return false
	}
	switch errors.Unwrap(err).(type) {
	case *net.AddrError, *net.DNSError, *net.OpError:
		return false
	}
	return true
}

type breakerRoundTripper struct {
	base http.RoundTripper
	cb   *gobreaker.CircuitBreaker
}

func (rt *breakerRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	v, err := rt.cb.Execute(func() (interface{}, error) {
		resp, err := rt.base.RoundTrip(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			resp.Body.Close()
			return nil, errStatusCode
		}
		return resp, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*http.Response), nil
}
