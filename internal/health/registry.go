// Copyright (c) 2026 Palantir Technologies. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package health

import (
	"sync"
	"time"
)

// Registry holds the latest result for every registered health check. It
// is safe for concurrent reads (from the management endpoint) and writes
// (from each check's background evaluator).
type Registry struct {
	mu               sync.RWMutex
	results          map[string]TimestampedResult
	readinessRelevant map[string]bool
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		results:           make(map[string]TimestampedResult),
		readinessRelevant: make(map[string]bool),
	}
}

// MarkReadinessRelevant flags checkType as one /status/readiness must
// consider. Checks not marked (the staleness check, for one) affect
// only /status/health, following original_source's split between a
// liveness/readiness surface that never runs user checks and a health
// surface that aggregates everything.
func (r *Registry) MarkReadinessRelevant(checkType string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.readinessRelevant[checkType] = true
}

// Ready reports whether every readiness-relevant check's latest result is
// StateHealthy. A check that has never reported is treated as not ready,
// since a registered readiness dependency with no result yet cannot be
// vouched for.
func (r *Registry) Ready() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for checkType := range r.readinessRelevant {
		res, ok := r.results[checkType]
		if !ok || res.State != StateHealthy {
			return false
		}
	}
	return true
}

// Store records the latest result for a check type, overwriting whatever
// was there.
func (r *Registry) Store(checkType string, result Result, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results[checkType] = TimestampedResult{Result: result, EvaluatedAt: at}
}

// Get returns the latest result for a check type, if one has been
// recorded.
func (r *Registry) Get(checkType string) (TimestampedResult, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res, ok := r.results[checkType]
	return res, ok
}

// Snapshot returns every check's latest result, keyed by type.
func (r *Registry) Snapshot() map[string]TimestampedResult {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]TimestampedResult, len(r.results))
	for k, v := range r.results {
		out[k] = v
	}
	return out
}

// Overall returns the worst State across every registered check, or
// StateHealthy if none have reported yet.
func (r *Registry) Overall() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	overall := StateHealthy
	for _, res := range r.results {
		if worse(res.State, overall) {
			overall = res.State
		}
	}
	return overall
}
