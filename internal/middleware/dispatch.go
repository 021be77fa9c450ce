// Copyright (c) 2026 Palantir Technologies. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/palantir/witchcraft-go-server/internal/logging"
	"github.com/palantir/witchcraft-go-server/internal/routing"
	"github.com/palantir/witchcraft-go-server/internal/workerpool"
)

// Dispatch invokes the endpoint the routing layer matched. Endpoints
// marked routing.Endpoint.Blocking run on pool instead of inline, so one
// slow handler can't starve the goroutines serving every other
// connection; Dispatch blocks until that handler returns either way,
// since an HTTP response can't be written after the request's goroutine
// moves on. Admission onto pool goes through its circuit breaker: once
// rejections are sustained rather than a momentary burst, the breaker
// opens and Dispatch fails fast without touching the pool's queue at all.
//
// Dispatch must be installed after Routing: it panics if no route was
// attached to the request's context, since that would mean the pipeline
// was assembled out of order rather than that the request is
// unresolvable (Routing itself handles 404/405/star-OPTIONS and never
// calls next in those cases).
func Dispatch(pool *workerpool.BreakerPool) Layer {
	return func(next Service) Service {
		return func(w http.ResponseWriter, r *http.Request) {
			route, ok := routing.FromContext(r.Context())
			if !ok || route.Endpoint == nil {
				panic("middleware: dispatch reached with no resolved route on context")
			}

			if !route.Endpoint.Blocking {
				runRecovered(w, r, route.Endpoint.Handler)
				return
			}

			done := make(chan struct{})
			err := pool.Submit(func() {
				defer close(done)
				runRecovered(w, r, route.Endpoint.Handler)
			})
			if err != nil {
				http.Error(w, "server busy", http.StatusServiceUnavailable)
				return
			}
			<-done
		}
	}
}

// runRecovered runs handler under a panic boundary: a handler that panics
// gets an empty 500 instead of an aborted connection (the async/inline
// path) or a response that never arrives (the blocking/pool path, where
// workerpool's own recover in runJob discards the panic with nothing
// downstream to convert it to a response). The panic is logged here,
// before workerpool ever sees it.
func runRecovered(w http.ResponseWriter, r *http.Request, handler routing.Handler) {
	defer func() {
		if rec := recover(); rec != nil {
			logging.Ctx(r.Context()).Error().
				Interface("panic", rec).
				Str("stack", string(debug.Stack())).
				Msg("endpoint handler panicked")
			w.WriteHeader(http.StatusInternalServerError)
		}
	}()
	handler(w, r)
}
