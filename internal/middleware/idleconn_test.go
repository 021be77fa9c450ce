// Copyright (c) 2026 Palantir Technologies. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package middleware

import (
	"net"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdleConnTracker_CountsNewAndClosed(t *testing.T) {
	tracker := NewIdleConnTracker()
	tracker.ConnState(nil, http.StateNew)
	tracker.ConnState(nil, http.StateActive)
	assert.Equal(t, int64(1), tracker.Active())

	tracker.ConnState(nil, http.StateClosed)
	assert.Equal(t, int64(0), tracker.Active())
}

func TestGatedListener_RefusesNewConnectionsDuringShutdownWithoutErroring(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	tracker := NewIdleConnTracker()
	gated := WrapListener(ln, tracker)
	tracker.BeginShutdown()

	accepted := make(chan error, 1)
	go func() {
		_, err := gated.Accept()
		accepted <- err
	}()

	conn, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	// The dialed connection should be accepted-then-closed by the gate,
	// not surfaced to the caller as an Accept error, so Accept keeps
	// blocking for a legitimate next connection instead of returning.
	select {
	case err := <-accepted:
		t.Fatalf("expected Accept to keep blocking during shutdown, got %v", err)
	default:
	}

	_ = ln.Close()
	<-accepted
}

func TestIdleConnTracker_WaitIdleClosesAtZero(t *testing.T) {
	tracker := NewIdleConnTracker()
	tracker.ConnState(nil, http.StateNew)

	idle := tracker.WaitIdle()
	select {
	case <-idle:
		t.Fatal("expected WaitIdle to block while a connection is open")
	default:
	}

	tracker.ConnState(nil, http.StateClosed)
	select {
	case <-idle:
	default:
		t.Fatal("expected WaitIdle to close once active reaches zero")
	}
}
