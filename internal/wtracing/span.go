// Copyright (c) 2026 Palantir Technologies. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Package wtracing implements B3 (Zipkin) trace-header propagation: parsing
// inbound X-B3-* headers, minting a new trace when none or a malformed one
// is present, and recording span timing for the trace-log wire format.
package wtracing

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"time"
)

// Header names for B3 single-header-per-field propagation.
const (
	HeaderTraceID      = "X-B3-TraceId"
	HeaderSpanID       = "X-B3-SpanId"
	HeaderParentSpanID = "X-B3-ParentSpanId"
	HeaderSampled      = "X-B3-Sampled"
)

// Kind distinguishes a span's role in an RPC.
type Kind string

const (
	KindServer Kind = "SERVER"
	KindClient Kind = "CLIENT"
	KindLocal  Kind = "LOCAL"
)

// Span is a single timed unit of work within a trace, shaped after the
// wire-format trace log record.
type Span struct {
	TraceID      string
	SpanID       string
	ParentSpanID string
	Name         string
	Kind         Kind
	Start        time.Time
	Duration     time.Duration
	Annotations  map[string]string
	Tags         map[string]string
}

// Sampler decides whether a trace should be recorded, for traces this
// process originates (inbound sampling decisions in the B3 header are
// always honored as-is).
type Sampler func(traceID string) bool

// RateSampler returns a Sampler that samples approximately the given
// fraction (0 <= rate <= 1) of traces, keyed off the trace ID so the
// decision is stable if the same ID is evaluated twice.
func RateSampler(rate float64) Sampler {
	if rate <= 0 {
		return func(string) bool { return false }
	}
	if rate >= 1 {
		return func(string) bool { return true }
	}
	threshold := uint32(rate * float64(1<<32))
	return func(traceID string) bool {
		return fnv32(traceID) < threshold
	}
}

func fnv32(s string) uint32 {
	const (
		offset32 = 2166136261
		prime32  = 16777619
	)
	h := uint32(offset32)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= prime32
	}
	return h
}

func isValidHexID(s string, wantLen int) bool {
	if len(s) != wantLen {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}

// ParseHeaders extracts a trace/span identity from inbound B3 headers. If
// the trace ID is absent or malformed (wrong length, non-hex), ok is
// false and the caller should mint a fresh trace rather than reject the
// request -- see the trace-propagation layer's handling of malformed IDs.
func ParseHeaders(h http.Header) (traceID, parentSpanID string, sampledHeader string, ok bool) {
	traceID = h.Get(HeaderTraceID)
	if !isValidHexID(traceID, 16) && !isValidHexID(traceID, 32) {
		return "", "", "", false
	}
	parentSpanID = h.Get(HeaderParentSpanID)
	if parentSpanID != "" && !isValidHexID(parentSpanID, 16) {
		parentSpanID = ""
	}
	return traceID, parentSpanID, h.Get(HeaderSampled), true
}

// NewTraceID generates a fresh 128-bit trace ID encoded as 32 hex chars.
func NewTraceID() string {
	return randomHex(16)
}

// NewSpanID generates a fresh 64-bit span ID encoded as 16 hex chars.
func NewSpanID() string {
	return randomHex(8)
}

func randomHex(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failures are effectively impossible on supported
		// platforms; fall back to a constant-but-unique-enough value
		// rather than panicking the request pipeline over it.
		for i := range buf {
			buf[i] = byte(time.Now().UnixNano() >> uint(i%8*8))
		}
	}
	return hex.EncodeToString(buf)
}

// WriteHeaders sets the outbound B3 headers for a downstream call made on
// behalf of span.
func WriteHeaders(h http.Header, span Span, sampled bool) {
	h.Set(HeaderTraceID, span.TraceID)
	h.Set(HeaderSpanID, span.SpanID)
	if span.ParentSpanID != "" {
		h.Set(HeaderParentSpanID, span.ParentSpanID)
	}
	if sampled {
		h.Set(HeaderSampled, "1")
	} else {
		h.Set(HeaderSampled, "0")
	}
}

type contextKey struct{}

// WithSpan attaches span to ctx.
func WithSpan(ctx context.Context, span *Span) context.Context {
	return context.WithValue(ctx, contextKey{}, span)
}

// FromContext returns the span attached to ctx, if any.
func FromContext(ctx context.Context) (*Span, bool) {
	span, ok := ctx.Value(contextKey{}).(*Span)
	return span, ok
}
