// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package env implements helpers for reading pipeline configuration
// from environment variables. Explicit builder options always take
// precedence over values read here.
package env

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// String returns the value of the first key set to a non-empty value.
func String(fallback string, keys ...string) string {
	for _, key := range keys {
		v := strings.TrimSpace(os.Getenv(key))
		if v != "" {
			return v
		}
	}
	return fallback
}

// Int returns the value of the first key set to a valid integer.
func Int(fallback int, keys ...string) int {
	for _, key := range keys {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			continue
		}
		return n
	}
	return fallback
}

// Duration returns the value of the first key set to a valid duration.
// Bare integers are interpreted as milliseconds, matching the OTel
// environment variable convention. Values with a unit suffix are
// parsed with [time.ParseDuration].
func Duration(fallback time.Duration, keys ...string) time.Duration {
	for _, key := range keys {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			continue
		}
		if n, err := strconv.Atoi(v); err == nil {
			return time.Duration(n) * time.Millisecond
		}
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// Headers parses a comma separated list of key=value pairs from the
// first key set to a non-empty value. Malformed pairs are skipped.
func Headers(keys ...string) map[string]string {
	v := String("", keys...)
	if v == "" {
		return nil
	}
	headers := make(map[string]string)
	for _, pair := range strings.Split(v, ",") {
		k, val, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		headers[k] = strings.TrimSpace(val)
	}
	if len(headers) == 0 {
		return nil
	}
	return headers
}
