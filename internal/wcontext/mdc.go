// Copyright (c) 2026 Palantir Technologies. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package wcontext

import (
	"context"
	"sync"
)

type mdcKey struct{}

// mdcMap is the mutable backing store for a request's mapped diagnostic
// context. It is installed once per request (WithMDC) and shared by
// pointer across the whole middleware chain so that a deeply nested layer
// can push a value and have it visible to every logging call downstream,
// without needing to thread a fresh context.Context back up the stack.
type mdcMap struct {
	mu     sync.RWMutex
	safe   map[string]string
	unsafe map[string]interface{}
}

// WithMDC installs an empty mapped diagnostic context onto ctx. Call this
// once, before the request enters the rest of the pipeline.
func WithMDC(ctx context.Context) context.Context {
	return context.WithValue(ctx, mdcKey{}, &mdcMap{
		safe:   make(map[string]string),
		unsafe: make(map[string]interface{}),
	})
}

func mdcFrom(ctx context.Context) *mdcMap {
	m, _ := ctx.Value(mdcKey{}).(*mdcMap)
	return m
}

// PushSafe sets key to value in the request's MDC (values suitable for
// structured logs verbatim -- no secrets, no unbounded-cardinality data)
// and returns a restore function that puts the previous value (or absence
// of one) back. Callers must defer the restore immediately:
//
//	restore := wcontext.PushSafe(ctx, "endpoint", "getWidget")
//	defer restore()
//
// so that the value is unwound on every exit path, including panics.
func PushSafe(ctx context.Context, key, value string) (restore func()) {
	m := mdcFrom(ctx)
	if m == nil {
		return func() {}
	}
	m.mu.Lock()
	prev, had := m.safe[key]
	m.safe[key] = value
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		if had {
			m.safe[key] = prev
		} else {
			delete(m.safe, key)
		}
		m.mu.Unlock()
	}
}

// PushUnsafe behaves like PushSafe but for values that must never reach a
// log sink verbatim (e.g. full request bodies retained for debugging) --
// downstream code must redact or summarize before logging.
func PushUnsafe(ctx context.Context, key string, value interface{}) (restore func()) {
	m := mdcFrom(ctx)
	if m == nil {
		return func() {}
	}
	m.mu.Lock()
	prev, had := m.unsafe[key]
	m.unsafe[key] = value
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		if had {
			m.unsafe[key] = prev
		} else {
			delete(m.unsafe, key)
		}
		m.mu.Unlock()
	}
}

// SafeSnapshot returns a point-in-time copy of the MDC's safe entries, or
// nil when ctx carries no MDC.
func SafeSnapshot(ctx context.Context) map[string]string {
	m := mdcFrom(ctx)
	if m == nil {
		return nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]string, len(m.safe))
	for k, v := range m.safe {
		out[k] = v
	}
	return out
}

// UnsafeValue returns a single unsafe MDC entry, for code paths (like a
// diagnostic dump endpoint) that are explicitly allowed to see it.
func UnsafeValue(ctx context.Context, key string) (interface{}, bool) {
	m := mdcFrom(ctx)
	if m == nil {
		return nil, false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.unsafe[key]
	return v, ok
}
