// Copyright (c) 2026 Palantir Technologies. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/palantir/witchcraft-go-server/internal/logging"
	"github.com/palantir/witchcraft-go-server/internal/wcontext"
)

const requestIDHeader = "X-Request-Id"

// RequestID assigns each request an ID -- the one an upstream proxy
// already set in X-Request-Id, or a freshly generated UUID otherwise --
// echoes it on the response, and attaches it to the request context so
// every layer and log record downstream can reference it.
func RequestID(next Service) Service {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		w.Header().Set(requestIDHeader, requestID)

		ctx := wcontext.WithRequestID(r.Context(), requestID)
		ctx = logging.ContextWithRequestID(ctx, requestID)
		ctx = logging.ContextWithNewCorrelationID(ctx)

		next(w, r.WithContext(ctx))
	}
}
