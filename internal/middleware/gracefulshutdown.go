// Copyright (c) 2026 Palantir Technologies. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package middleware

import (
	"net/http"
	"sync"
)

// InFlightTracker counts requests currently being served, independent of
// IdleConnTracker's connection count: one keep-alive connection can carry
// many sequential requests, and what a graceful shutdown actually needs
// to wait out is requests in progress, not connections sitting open.
type InFlightTracker struct {
	mu      sync.Mutex
	count   int
	waiters []chan struct{}
}

// NewInFlightTracker constructs an empty tracker.
func NewInFlightTracker() *InFlightTracker {
	return &InFlightTracker{}
}

// GracefulShutdown increments the tracker before calling next and
// decrements it afterward, regardless of panic -- a panic still releases
// the slot so a misbehaving handler can't wedge shutdown open forever.
// Install this as the outermost layer so it brackets everything else the
// pipeline does for the request.
func GracefulShutdown(tracker *InFlightTracker) Layer {
	return func(next Service) Service {
		return func(w http.ResponseWriter, r *http.Request) {
			tracker.begin()
			defer tracker.end()
			next(w, r)
		}
	}
}

func (t *InFlightTracker) begin() {
	t.mu.Lock()
	t.count++
	t.mu.Unlock()
}

func (t *InFlightTracker) end() {
	t.mu.Lock()
	t.count--
	var waiters []chan struct{}
	if t.count == 0 {
		waiters = t.waiters
		t.waiters = nil
	}
	t.mu.Unlock()
	for _, ch := range waiters {
		close(ch)
	}
}

// Count returns the number of requests currently in flight.
func (t *InFlightTracker) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.count
}

// Drained returns a channel closed the first time Count reaches zero
// after this call, for a shutdown path to select against alongside its
// timeout.
func (t *InFlightTracker) Drained() <-chan struct{} {
	ch := make(chan struct{})
	t.mu.Lock()
	if t.count == 0 {
		close(ch)
	} else {
		t.waiters = append(t.waiters, ch)
	}
	t.mu.Unlock()
	return ch
}
