// Copyright (c) 2026 Palantir Technologies. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package middleware

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/palantir/witchcraft-go-server/internal/wtracing"
)

// countingReader tallies bytes read from an io.ReadCloser, for recording
// the request body size onto the span without buffering the body.
type countingReader struct {
	io.ReadCloser
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.ReadCloser.Read(p)
	c.n += int64(n)
	return n, err
}

// BodySpans wraps the request and response bodies to measure their sizes
// and the handler's wall-clock duration, recording both onto the span
// attached by TracePropagation so the trace-log wire record carries
// request.size/response.size/duration tags without the pipeline ever
// buffering a body in memory.
func BodySpans(next Service) Service {
	return func(w http.ResponseWriter, r *http.Request) {
		span, hasSpan := wtracing.FromContext(r.Context())

		var body *countingReader
		if r.Body != nil {
			body = &countingReader{ReadCloser: r.Body}
			r.Body = body
		}
		rec := newStatusRecorder(w)

		start := time.Now()
		next(rec, r)
		duration := time.Since(start)

		if hasSpan {
			span.Duration = duration
			if span.Tags == nil {
				span.Tags = map[string]string{}
			}
			if body != nil {
				span.Tags["request.size"] = strconv.FormatInt(body.n, 10)
			}
			span.Tags["response.size"] = strconv.FormatInt(rec.bytesWritten, 10)
			span.Tags["response.status"] = strconv.Itoa(rec.statusCode)
		}
	}
}
