// Copyright (c) 2026 Palantir Technologies. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package routing

import "context"

type contextKey struct{}

// WithRoute attaches the resolved Route to ctx, for the dispatch layer to
// read back out and invoke.
func WithRoute(ctx context.Context, route Route) context.Context {
	return context.WithValue(ctx, contextKey{}, route)
}

// FromContext returns the Route attached to ctx, if any.
func FromContext(ctx context.Context) (Route, bool) {
	route, ok := ctx.Value(contextKey{}).(Route)
	return route, ok
}
