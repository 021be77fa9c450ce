// Copyright (c) 2026 Palantir Technologies. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/palantir/witchcraft-go-server/internal/health"
	"github.com/palantir/witchcraft-go-server/internal/metrics"
	"github.com/palantir/witchcraft-go-server/internal/routing"
	"github.com/palantir/witchcraft-go-server/internal/wcontext"
	"github.com/palantir/witchcraft-go-server/internal/wlog"
	"github.com/palantir/witchcraft-go-server/internal/wtracing"
)

// RequestLog records a wlog.RequestLogV2 for every completed request and
// feeds its status code to check so the 5xx-ratio health check stays
// current. It wraps the response in its own statusRecorder rather than
// reusing one from an earlier layer, since layers are independently
// composable and must not assume a particular install order.
func RequestLog(appender *wlog.Appender, check *health.Endpoint500sCheck) Layer {
	return func(next Service) Service {
		return func(w http.ResponseWriter, r *http.Request) {
			rec := newStatusRecorder(w)
			start := time.Now()

			next(rec, r)

			duration := time.Since(start)
			ctx := r.Context()

			record := wlog.RequestLogV2{
				Type:         "request.2",
				Time:         start.UTC(),
				Method:       r.Method,
				Protocol:     r.Proto,
				Path:         r.URL.Path,
				Status:       rec.statusCode,
				RequestSize:  r.ContentLength,
				ResponseSize: rec.bytesWritten,
				DurationNs:   duration.Nanoseconds(),
			}

			if claims, ok := wcontext.UnverifiedJWT(ctx); ok {
				record.UID = claims.Subject
				record.SID = claims.SessionID
				record.TokenID = claims.TokenID
			}
			if span, ok := wtracing.FromContext(ctx); ok {
				record.TraceID = span.TraceID
			}
			if params := wcontext.SafeParams(ctx); len(params) > 0 {
				record.Params = make(map[string]interface{}, len(params))
				for _, kv := range params {
					record.Params[kv.Key] = kv.Value
				}
			}

			appender.Record(record)

			if check != nil {
				check.Record(rec.statusCode)
			}

			routeName := "unmatched"
			if route, ok := routing.FromContext(ctx); ok && route.Endpoint != nil {
				routeName = route.Endpoint.Name
			}
			metrics.RequestDuration.WithLabelValues(routeName, metrics.StatusClass(rec.statusCode)).
				Observe(duration.Seconds())
			metrics.RequestsTotal.WithLabelValues(routeName, r.Method, strconv.Itoa(rec.statusCode)).Inc()
		}
	}
}
