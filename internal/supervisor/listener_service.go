// Copyright (c) 2026 Palantir Technologies. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package supervisor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// HTTPServer matches *http.Server's lifecycle methods, letting
// ListenerService work with it (or a test double) without an import-time
// dependency on a concrete server.
type HTTPServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// ListenerService wraps an HTTP(S) server as a supervised service,
// translating between http.Server's blocking ListenAndServe pattern and
// suture's context-aware Serve pattern:
//
//  1. Starts ListenAndServe in a goroutine
//  2. Waits for either context cancellation or server error
//  3. On shutdown, calls Shutdown with the provided timeout, enforcing the
//     graceful-shutdown budget: connections still active when the budget
//     expires are forcibly closed (through the server's Close method,
//     which *http.Server has) rather than blocking shutdown forever.
type ListenerService struct {
	server          HTTPServer
	shutdownTimeout time.Duration
	name            string
}

// NewListenerService constructs a supervised listener. shutdownTimeout
// bounds how long Shutdown waits for in-flight requests to drain.
func NewListenerService(name string, server HTTPServer, shutdownTimeout time.Duration) *ListenerService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &ListenerService{
		server:          server,
		shutdownTimeout: shutdownTimeout,
		name:            name,
	}
}

// Serve implements suture.Service. When ctx is cancelled it shuts the
// server down and, once Shutdown succeeds, returns ctx.Err(). It returns
// nil if ListenAndServe ends with http.ErrServerClosed on its own, and an
// error if the listener fails or the shutdown deadline is missed.
func (s *ListenerService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listener %s failed: %w", s.name, err)
		}
		return nil

	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()

		if err := s.server.Shutdown(shutdownCtx); err != nil {
			// The budget ran out: drop the connections still open.
			if c, ok := s.server.(interface{ Close() error }); ok {
				_ = c.Close()
			}
			return fmt.Errorf("listener %s shutdown failed: %w", s.name, err)
		}

		<-errCh
		return ctx.Err()
	}
}

// String implements fmt.Stringer; suture uses it to identify the service
// in log and event output.
func (s *ListenerService) String() string {
	return s.name
}
