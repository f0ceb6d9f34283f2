// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package log

import (
	"context"

	"github.com/z5labs/telemetry/resource"
)

// Exporter transmits one batch of records to a backend collector.
//
// Exporters are invoked by a single consumer goroutine with at most
// one Export call in flight at a time, so implementations need not
// tolerate concurrent invocation, only safe transfer to that
// goroutine. The ctx passed to Export carries the configured export
// deadline and must be honored.
type Exporter interface {
	Export(ctx context.Context, records []Record) error

	// Shutdown releases any held resources. After Shutdown returns,
	// Export will not be called again.
	Shutdown(ctx context.Context) error
}

// ResourceExporter is an Exporter which wants to be told the
// provider's Resource once at install time, e.g. to avoid re-encoding
// it per batch.
type ResourceExporter interface {
	Exporter

	SetResource(*resource.Resource)
}

// FilterExporter is an Exporter which can cheaply decide whether a
// record at a given severity would be exported at all. Producers may
// consult it through [Logger.Enabled] to skip building records for
// disabled severities.
type FilterExporter interface {
	Exporter

	EventEnabled(severity Severity, target, eventName string) bool
}
