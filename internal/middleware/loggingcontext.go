// Copyright (c) 2026 Palantir Technologies. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package middleware

import (
	"net/http"

	"github.com/palantir/witchcraft-go-server/internal/logging"
	"github.com/palantir/witchcraft-go-server/internal/wcontext"
	"github.com/palantir/witchcraft-go-server/internal/wtracing"
)

// LoggingContext attaches a child logger carrying request-scoped fields
// (peer address, route name, trace id) to the context, so any handler
// calling logging.Ctx(ctx) gets them on every log line without having to
// thread them through manually.
func LoggingContext(next Service) Service {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		logCtx := logging.LoggerFromContext(ctx).With()

		if addr := wcontext.PeerAddr(ctx); addr != "" {
			logCtx = logCtx.Str("peerAddr", addr)
		}
		if route := wcontext.RouteName(ctx); route != "" {
			logCtx = logCtx.Str("route", route)
		}
		if span, ok := wtracing.FromContext(ctx); ok {
			logCtx = logCtx.Str("traceId", span.TraceID)
		}

		ctx = logging.ContextWithLogger(ctx, logCtx.Logger())
		next(w, r.WithContext(ctx))
	}
}
