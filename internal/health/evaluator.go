// Copyright (c) 2026 Palantir Technologies. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package health

import (
	"context"
	"fmt"
	"time"

	"github.com/palantir/witchcraft-go-server/internal/metrics"
)

// DefaultInterval is how often a check's evaluator re-runs it absent an
// explicit override.
const DefaultInterval = 30 * time.Second

// Evaluator is a suture.Service that runs a single Check on a fixed
// interval and stores every result (including a synthesized Error result
// for a panicking check) into a Registry. One Evaluator per registered
// check lets the supervisor's health layer restart and back off a single
// misbehaving check without disturbing the others.
type Evaluator struct {
	check    Check
	registry *Registry
	interval time.Duration
}

// NewEvaluator constructs an Evaluator and immediately stores a
// StateRepairing placeholder for check into registry, so a request for
// /status/health racing the first evaluation (Serve hasn't run yet, or is
// still running its first tick) sees a check that is known but not yet
// evaluated rather than one that appears unregistered.
func NewEvaluator(check Check, registry *Registry, interval time.Duration) *Evaluator {
	if interval <= 0 {
		interval = DefaultInterval
	}
	registry.Store(check.Type(), Result{
		State:   StateRepairing,
		Message: "awaiting first evaluation",
	}, time.Now())
	return &Evaluator{check: check, registry: registry, interval: interval}
}

// Serve implements suture.Service: it evaluates the check immediately
// (so the registry isn't empty while the server is first starting up),
// then on every tick of the interval, until ctx is canceled.
func (e *Evaluator) Serve(ctx context.Context) error {
	e.runOnce()

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			e.runOnce()
		}
	}
}

// runOnce evaluates the check under a panic boundary: a panicking check
// is recorded as StateError rather than crashing the evaluator, since a
// health check's own bug should never be mistaken for the subsystem it
// inspects being unhealthy in some more informative way, nor should it
// take down an unrelated check's evaluator.
func (e *Evaluator) runOnce() {
	result := e.evaluate()
	e.registry.Store(e.check.Type(), result, time.Now())
	metrics.HealthCheckState.WithLabelValues(e.check.Type()).Set(float64(result.State))
}

func (e *Evaluator) evaluate() (result Result) {
	defer func() {
		if r := recover(); r != nil {
			result = Result{
				State:   StateError,
				Message: fmt.Sprintf("health check panicked: %v", r),
			}
		}
	}()
	return e.check.Evaluate()
}

// String implements fmt.Stringer for suture's event logging.
func (e *Evaluator) String() string {
	return "health-evaluator:" + e.check.Type()
}
