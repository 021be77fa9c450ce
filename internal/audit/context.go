// Copyright (c) 2026 Palantir Technologies. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package audit

import (
	"context"
	"sync"
)

type eventsKey struct{}

type eventsBox struct {
	mu     sync.Mutex
	events []*Event
}

// WithEvents installs an empty, mutable event holder into ctx. The
// audit-log middleware layer calls this once per request; handlers that
// want an action durably audited call Emit on the resulting context
// instead of calling a Logger directly, so the flush-before-response
// invariant lives in one place.
func WithEvents(ctx context.Context) context.Context {
	return context.WithValue(ctx, eventsKey{}, &eventsBox{})
}

// Emit queues event to be flushed when the audit-log layer unwinds. It is
// a no-op if ctx was never initialized with WithEvents.
func Emit(ctx context.Context, event *Event) {
	box, _ := ctx.Value(eventsKey{}).(*eventsBox)
	if box == nil {
		return
	}
	box.mu.Lock()
	box.events = append(box.events, event)
	box.mu.Unlock()
}

// DrainEvents returns and clears the events queued on ctx, for the
// audit-log middleware layer to call once at request unwind.
func DrainEvents(ctx context.Context) []*Event {
	box, _ := ctx.Value(eventsKey{}).(*eventsBox)
	if box == nil {
		return nil
	}
	box.mu.Lock()
	defer box.mu.Unlock()
	events := box.events
	box.events = nil
	return events
}
