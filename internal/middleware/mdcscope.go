// Copyright (c) 2026 Palantir Technologies. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package middleware

import (
	"net/http"

	"github.com/palantir/witchcraft-go-server/internal/wcontext"
)

// MDCScope installs a fresh mapped-diagnostic-context and safe-params
// holder on the request context before any layer that wants to enrich the
// eventual request-log entry runs. It must sit near the outside of the
// pipeline -- every downstream PushSafe/PushUnsafe/AddSafeParam call is a
// no-op without it.
func MDCScope(next Service) Service {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := wcontext.WithMDC(r.Context())
		ctx = wcontext.WithSafeParams(ctx)
		next(w, r.WithContext(ctx))
	}
}
