// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package telemetry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExportError(t *testing.T) {
	t.Run("will unwrap to its cause", func(t *testing.T) {
		t.Run("if errors.Is is used", func(t *testing.T) {
			cause := errors.New("connection refused")
			err := ExportError{Cause: cause}

			if !assert.ErrorIs(t, err, cause) {
				return
			}
			if !assert.Contains(t, err.Error(), cause.Error()) {
				return
			}
		})
	})
}

func TestShutdownError(t *testing.T) {
	t.Run("will unwrap to its cause", func(t *testing.T) {
		t.Run("if errors.Is is used", func(t *testing.T) {
			cause := errors.New("deadline exceeded")
			err := ShutdownError{Cause: cause}

			if !assert.ErrorIs(t, err, cause) {
				return
			}
		})
	})
}

func TestConfigurationError(t *testing.T) {
	t.Run("will unwrap to its cause", func(t *testing.T) {
		t.Run("if errors.Is is used", func(t *testing.T) {
			cause := errors.New("unsupported compression algorithm")
			err := ConfigurationError{Cause: cause}

			if !assert.ErrorIs(t, err, cause) {
				return
			}
		})
	})
}
