// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package telemetry

import "fmt"

// ConfigurationError represents an invalid pipeline configuration,
// such as an unparsable endpoint or an unknown compression algorithm.
// It is always surfaced synchronously at build time, never during
// emission or export.
type ConfigurationError struct {
	Cause error
}

// Error implements the [builtin.error] interface.
func (e ConfigurationError) Error() string {
	return fmt.Sprintf("telemetry: invalid configuration: %s", e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e ConfigurationError) Unwrap() error {
	return e.Cause
}

// ExportError represents a failed export attempt. It is never
// propagated into producer call stacks; the pipeline reports it
// through its diagnostic log handler and drops the batch.
type ExportError struct {
	Cause error
}

// Error implements the [builtin.error] interface.
func (e ExportError) Error() string {
	return fmt.Sprintf("telemetry: failed to export batch: %s", e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e ExportError) Unwrap() error {
	return e.Cause
}

// ShutdownError reports that a drain did not complete within the
// timeout bound given to Shutdown. Any records still buffered when it
// is returned have been discarded.
type ShutdownError struct {
	Cause error
}

// Error implements the [builtin.error] interface.
func (e ShutdownError) Error() string {
	return fmt.Sprintf("telemetry: shutdown did not complete: %s", e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e ShutdownError) Unwrap() error {
	return e.Cause
}
