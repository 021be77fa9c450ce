// Copyright (c) 2026 Palantir Technologies. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package supervisor

import (
	"context"
	"log/slog"
	"time"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"
)

// TreeConfig holds supervisor tree configuration.
type TreeConfig struct {
	// FailureThreshold is the number of failures before entering backoff.
	// Default: 5
	FailureThreshold float64

	// FailureDecay is the rate at which failures decay in seconds.
	// Default: 30
	FailureDecay float64

	// FailureBackoff is the duration to wait when threshold is exceeded.
	// Default: 15s
	FailureBackoff time.Duration

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	// Default: 10s
	ShutdownTimeout time.Duration
}

// DefaultTreeConfig returns production-ready defaults.
// These values match suture's built-in defaults per pkg.go.dev documentation.
func DefaultTreeConfig() TreeConfig {
	return TreeConfig{
		FailureThreshold: 5.0,
		FailureDecay:     30.0,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	}
}

// SupervisorTree manages the witchcraft server's three supervised layers:
//
//   - workerPool: the blocking worker pool's lifecycle (nothing to
//     supervise directly today, since the pool manages its own
//     goroutines, but the layer exists so a future pool-health-reporting
//     service has a home)
//   - health: one background service per registered health check,
//     evaluating it on its own schedule
//   - listener: the HTTP listener(s): the main TLS listener and, when a
//     management address is configured, the management TLS listener
//
// Failure isolation falls out of the layering: a health-check evaluator
// panicking and restarting does not take the HTTP listener down with it,
// and vice versa.
type SupervisorTree struct {
	root       *suture.Supervisor
	workerPool *suture.Supervisor
	health     *suture.Supervisor
	listener   *suture.Supervisor
	logger     *slog.Logger
	config     TreeConfig
}

// NewSupervisorTree creates a new supervisor tree with the given configuration.
func NewSupervisorTree(logger *slog.Logger, config TreeConfig) (*SupervisorTree, error) {
	// Apply defaults for zero values
	if config.FailureThreshold == 0 {
		config.FailureThreshold = 5.0
	}
	if config.FailureDecay == 0 {
		config.FailureDecay = 30.0
	}
	if config.FailureBackoff == 0 {
		config.FailureBackoff = 15 * time.Second
	}
	if config.ShutdownTimeout == 0 {
		config.ShutdownTimeout = 10 * time.Second
	}

	// Create event hook using sutureslog.
	// IMPORTANT: The correct API is (&Handler{Logger: logger}).MustHook()
	// NOT sutureslog.EventHook(logger) which does not exist.
	// MustHook has a pointer receiver, so we need to take the address.
	handler := &sutureslog.Handler{Logger: logger}
	eventHook := handler.MustHook()

	rootSpec := suture.Spec{
		EventHook:        eventHook,
		FailureThreshold: config.FailureThreshold,
		FailureDecay:     config.FailureDecay,
		FailureBackoff:   config.FailureBackoff,
		Timeout:          config.ShutdownTimeout,
	}

	// Child supervisors use the same failure parameters.
	// They will inherit the EventHook when added to the root.
	childSpec := suture.Spec{
		FailureThreshold: config.FailureThreshold,
		FailureDecay:     config.FailureDecay,
		FailureBackoff:   config.FailureBackoff,
		Timeout:          config.ShutdownTimeout,
	}

	root := suture.New("witchcraft-server", rootSpec)
	workerPool := suture.New("worker-pool-layer", childSpec)
	health := suture.New("health-layer", childSpec)
	listener := suture.New("listener-layer", childSpec)

	// Build tree hierarchy
	root.Add(workerPool)
	root.Add(health)
	root.Add(listener)

	return &SupervisorTree{
		root:       root,
		workerPool: workerPool,
		health:     health,
		listener:   listener,
		logger:     logger,
		config:     config,
	}, nil
}

// Root returns the root supervisor for direct access if needed.
func (t *SupervisorTree) Root() *suture.Supervisor {
	return t.root
}

// AddWorkerPoolService adds a service to the worker-pool layer supervisor.
func (t *SupervisorTree) AddWorkerPoolService(svc suture.Service) suture.ServiceToken {
	return t.workerPool.Add(svc)
}

// AddHealthService adds a health-check evaluator to the health layer
// supervisor. Each registered check runs as its own supervised service so
// one check panicking repeatedly backs off independently of the others.
func (t *SupervisorTree) AddHealthService(svc suture.Service) suture.ServiceToken {
	return t.health.Add(svc)
}

// AddListenerService adds an HTTP listener to the listener layer
// supervisor.
func (t *SupervisorTree) AddListenerService(svc suture.Service) suture.ServiceToken {
	return t.listener.Add(svc)
}

// RemoveHealthService removes a health-check evaluator, for a runtime
// config reload that drops a check.
func (t *SupervisorTree) RemoveHealthService(token suture.ServiceToken) error {
	return t.health.Remove(token)
}

// Serve starts the supervisor tree and blocks until the context is canceled.
// This is the main entry point for running the supervised application.
func (t *SupervisorTree) Serve(ctx context.Context) error {
	return t.root.Serve(ctx)
}

// ServeBackground starts the supervisor tree in a background goroutine.
// Returns a channel that receives the error (or nil) when the supervisor stops.
func (t *SupervisorTree) ServeBackground(ctx context.Context) <-chan error {
	return t.root.ServeBackground(ctx)
}

// UnstoppedServiceReport returns information about services that failed to stop
// within the configured shutdown timeout. Useful for debugging shutdown issues.
func (t *SupervisorTree) UnstoppedServiceReport() ([]suture.UnstoppedService, error) {
	return t.root.UnstoppedServiceReport()
}

// Remove removes a service from the tree by its token.
// The service will be stopped and removed.
func (t *SupervisorTree) Remove(token suture.ServiceToken) error {
	return t.root.Remove(token)
}

// RemoveAndWait removes a service and waits for it to fully stop.
// Use this when you need to ensure a service has completely terminated
// before proceeding (e.g., during configuration reload).
func (t *SupervisorTree) RemoveAndWait(token suture.ServiceToken, timeout time.Duration) error {
	return t.root.RemoveAndWait(token, timeout)
}
