// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package executor abstracts the scheduling primitives used by the
// background pipelines. The pipeline core only needs the ability to
// spawn a task and to receive periodic ticks; everything else is plain
// channels. Injecting an [Executor] lets tests drive the consumer
// loops deterministically without real timers.
package executor

import "time"

// Ticker delivers periodic ticks on C until Stop is called.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// Executor schedules background work for the pipeline.
type Executor interface {
	// Spawn runs f on its own task. It must not block.
	Spawn(f func())

	// NewTicker returns a Ticker firing roughly every d.
	NewTicker(d time.Duration) Ticker
}

// Default returns an Executor backed by goroutines and [time.Ticker].
func Default() Executor {
	return goExecutor{}
}

type goExecutor struct{}

func (goExecutor) Spawn(f func()) {
	go f()
}

func (goExecutor) NewTicker(d time.Duration) Ticker {
	return goTicker{t: time.NewTicker(d)}
}

type goTicker struct {
	t *time.Ticker
}

func (t goTicker) C() <-chan time.Time {
	return t.t.C
}

func (t goTicker) Stop() {
	t.t.Stop()
}
