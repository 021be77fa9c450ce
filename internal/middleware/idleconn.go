// Copyright (c) 2026 Palantir Technologies. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package middleware

import (
	"net"
	"net/http"
	"sync"
	"sync/atomic"
)

// IdleConnTracker counts connections the server currently holds and gates
// whether new ones may be accepted. It is wired to http.Server.ConnState,
// not into the request pipeline, because a connection outlives any single
// request.
//
// Entering the shutdown window only flips the gate Accept consults: a
// connection already established keeps resetting its idle timer and
// serving requests normally for as long as it likes, exactly like before
// shutdown was requested. Only brand-new connections are refused. This is
// deliberate: a client mid-keepalive on a connection that happens to go
// idle for a moment during the shutdown grace period should not be
// punished by having that connection torn down out from under it; the
// grace period's deadline, not this tracker, is what eventually forces
// stragglers closed.
type IdleConnTracker struct {
	active atomic.Int64
	closed atomic.Bool

	mu      sync.Mutex
	onIdle0 []chan struct{}
}

// NewIdleConnTracker constructs an enabled tracker.
func NewIdleConnTracker() *IdleConnTracker {
	return &IdleConnTracker{}
}

// ConnState is installed as http.Server.ConnState. It only needs to
// observe the transitions into and out of StateNew/StateClosed/
// StateHijacked to keep an accurate count; StateActive/StateIdle
// transitions don't change how many connections exist, only what they're
// doing.
func (t *IdleConnTracker) ConnState(_ net.Conn, state http.ConnState) {
	switch state {
	case http.StateNew:
		t.active.Add(1)
	case http.StateClosed, http.StateHijacked:
		if t.active.Add(-1) == 0 {
			t.notifyIdle()
		}
	}
}

// Active returns the number of connections currently open.
func (t *IdleConnTracker) Active() int64 {
	return t.active.Load()
}

// BeginShutdown flips the gate a wrapped listener consults; it does not
// touch any connection already open.
func (t *IdleConnTracker) BeginShutdown() {
	t.closed.Store(true)
}

// WaitIdle returns a channel closed the first time Active reaches zero
// after BeginShutdown, for a caller that wants to detect the drain
// completing before its shutdown timeout elapses.
func (t *IdleConnTracker) WaitIdle() <-chan struct{} {
	ch := make(chan struct{})
	t.mu.Lock()
	if t.active.Load() == 0 {
		close(ch)
	} else {
		t.onIdle0 = append(t.onIdle0, ch)
	}
	t.mu.Unlock()
	return ch
}

func (t *IdleConnTracker) notifyIdle() {
	t.mu.Lock()
	waiters := t.onIdle0
	t.onIdle0 = nil
	t.mu.Unlock()
	for _, ch := range waiters {
		close(ch)
	}
}

// gatedListener wraps a net.Listener to refuse Accept once the paired
// tracker has entered its shutdown window. Connections already accepted
// are untouched; http.Server continues to serve them through its own
// Shutdown/Close mechanics.
type gatedListener struct {
	net.Listener
	tracker *IdleConnTracker
}

// WrapListener returns a listener that stops accepting new connections
// once tracker.BeginShutdown is called, for installation as the listener
// an http.Server serves from.
func WrapListener(l net.Listener, tracker *IdleConnTracker) net.Listener {
	return &gatedListener{Listener: l, tracker: tracker}
}

// Accept refuses connections accepted while the tracker's shutdown
// window is open by closing them immediately and looping for the next
// one, rather than surfacing an error: returning an error here would
// make http.Server's own Serve loop exit and treat the listener as
// failed, which is not what a graceful shutdown in progress means. The
// listener still goes away the moment the caller actually closes it
// (e.g. via the wrapped http.Server.Close at the end of the shutdown
// grace period), at which point Accept returns that real error.
func (g *gatedListener) Accept() (net.Conn, error) {
	for {
		conn, err := g.Listener.Accept()
		if err != nil {
			return nil, err
		}
		if !g.tracker.closed.Load() {
			return conn, nil
		}
		_ = conn.Close()
	}
}
