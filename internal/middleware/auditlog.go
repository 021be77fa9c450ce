// Copyright (c) 2026 Palantir Technologies. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package middleware

import (
	"net/http"
	"strconv"

	"github.com/palantir/witchcraft-go-server/internal/audit"
	"github.com/palantir/witchcraft-go-server/internal/logging"
	"github.com/palantir/witchcraft-go-server/internal/metrics"
)

// AuditLog installs a per-request audit-event holder and, once the
// handler returns, flushes every event a handler queued via audit.Emit
// synchronously through logger. If a flush fails and the handler has not
// yet written a response status, the request fails with 500 rather than
// silently losing a security-relevant record; if the handler already
// wrote its response, the failure can only be logged, since HTTP gives no
// way to recall a response already sent.
func AuditLog(logger *audit.Logger) Layer {
	return func(next Service) Service {
		return func(w http.ResponseWriter, r *http.Request) {
			ctx := audit.WithEvents(r.Context())
			rec := newStatusRecorder(w)

			next(rec, r.WithContext(ctx))

			events := audit.DrainEvents(ctx)
			for _, event := range events {
				if err := logger.LogAndFlush(ctx, event); err != nil {
					metrics.AuditFlushFailures.WithLabelValues(strconv.FormatBool(rec.wroteHeader)).Inc()
					if !rec.wroteHeader {
						http.Error(rec, "failed to persist audit record", http.StatusInternalServerError)
						return
					}
					logging.Ctx(ctx).Error().Err(err).Str("eventId", event.ID).
						Msg("audit event failed to flush after response was already sent")
				}
			}
		}
	}
}
