// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package telemetry provides an asynchronous batching and export
// pipeline for telemetry signals.
//
// Log records and metric readings are produced on latency sensitive
// code paths, so the pipeline never performs network I/O on the
// caller's goroutine. Records are buffered by a [log.BatchProcessor]
// and metric state is pulled by a [metric.PeriodicReader]; both hand
// bounded batches to an exporter on a single background consumer.
//
// Delivery is best-effort. Full queues drop, failed exports are not
// retried by the pipeline, and shutdown drains within a bounded
// timeout before discarding the remainder.
package telemetry
