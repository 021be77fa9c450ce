// Copyright (c) 2026 Palantir Technologies. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Package health implements the server's health-check registry: each
// registered check runs on its own background schedule (wired into the
// supervisor's health layer, one suture.Service per check), and the
// management endpoint renders the latest result for every check without
// blocking on a live evaluation.
package health

import (
	"time"
)

// State is a health check's reported condition, ordered from best to
// worst for aggregation (the registry's overall status is the worst state
// across all checks).
type State int

const (
	StateHealthy State = iota
	StateDeferring
	StateRepairing
	StateWarning
	StateError
)

func (s State) String() string {
	switch s {
	case StateHealthy:
		return "HEALTHY"
	case StateDeferring:
		return "DEFERRING"
	case StateRepairing:
		return "REPAIRING"
	case StateWarning:
		return "WARNING"
	case StateError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// worse reports whether a is a worse state than b.
func worse(a, b State) bool { return a > b }

// MarshalText renders State as its String() name rather than its
// underlying int, so the health endpoint's JSON document reads
// "HEALTHY" instead of "0".
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Result is a single evaluation's outcome.
type Result struct {
	State   State
	Message string
	Params  map[string]interface{}
}

// TimestampedResult pairs a Result with when it was produced, so the
// staleness check can tell a genuinely healthy check apart from one whose
// background evaluator has stopped running.
type TimestampedResult struct {
	Result
	EvaluatedAt time.Time
}

// Check is a single health check's evaluation logic. Implementations
// should not block for more than a few seconds; a check that hangs
// indefinitely blocks only its own evaluator goroutine; it does not
// prevent other checks or request serving.
type Check interface {
	// Type is the stable identifier reported in the health endpoint's
	// response, e.g. "SERVICE_VERSION" or "HEALTH_CHECK_COMPUTATION_STALENESS".
	Type() string
	Evaluate() Result
}

// CheckFunc adapts a plain function to the Check interface for simple,
// stateless checks.
type CheckFunc struct {
	Name string
	Fn   func() Result
}

func (f CheckFunc) Type() string     { return f.Name }
func (f CheckFunc) Evaluate() Result { return f.Fn() }
