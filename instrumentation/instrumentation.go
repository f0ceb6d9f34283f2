// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package instrumentation describes the library that produced a piece
// of telemetry, as opposed to the process-wide [resource.Resource]
// describing the emitting entity.
package instrumentation

// Scope identifies the instrumented library emitting records or
// measurements. Scopes are immutable values shared by many records.
type Scope struct {
	// Name of the instrumented library.
	Name string

	// Version of the instrumented library.
	Version string

	// SchemaURL of the telemetry schema the library emits against.
	SchemaURL string
}
