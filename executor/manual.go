// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package executor

import (
	"sync"
	"time"
)

// Manual is an Executor whose tickers only fire when Tick is called.
// It spawns tasks on real goroutines but leaves all timing under the
// caller's control, which makes pipeline loops deterministic in tests.
type Manual struct {
	mu      sync.Mutex
	tickers []*manualTicker
}

// NewManual returns an initialized Manual executor.
func NewManual() *Manual {
	return &Manual{}
}

// Spawn implements the [Executor] interface.
func (m *Manual) Spawn(f func()) {
	go f()
}

// NewTicker implements the [Executor] interface. The returned Ticker
// ignores d entirely.
func (m *Manual) NewTicker(d time.Duration) Ticker {
	t := &manualTicker{ch: make(chan time.Time, 1)}
	m.mu.Lock()
	m.tickers = append(m.tickers, t)
	m.mu.Unlock()
	return t
}

// Tick fires every ticker created by this executor once. Tickers
// whose previous tick has not been consumed are skipped.
func (m *Manual) Tick() {
	now := time.Now()
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tickers {
		t.tick(now)
	}
}

type manualTicker struct {
	mu      sync.Mutex
	ch      chan time.Time
	stopped bool
}

func (t *manualTicker) C() <-chan time.Time {
	return t.ch
}

func (t *manualTicker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
}

func (t *manualTicker) tick(now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}
	select {
	case t.ch <- now:
	default:
	}
}
