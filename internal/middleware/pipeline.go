// Copyright (c) 2026 Palantir Technologies. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Package middleware implements the composable request pipeline: a fixed
// order of Layers, each wrapping the Service produced by the layers
// inside it, running from the outermost (TLS/connection bookkeeping) down
// to the innermost (the matched endpoint's handler).
//
// See doc.go for the full documented layer order.
package middleware

import "net/http"

// Service is the unit every Layer wraps: something that answers an HTTP
// request. It is the same shape as http.HandlerFunc so any layer can also
// be used as an ordinary net/http middleware.
type Service func(w http.ResponseWriter, r *http.Request)

// ServeHTTP implements http.Handler.
func (s Service) ServeHTTP(w http.ResponseWriter, r *http.Request) { s(w, r) }

// Layer wraps an inner Service with additional behavior, returning a new
// Service. Layers compose like Russian dolls: Chain(a, b, c)(inner) runs
// a, then b, then c, then inner, then unwinds back through c, b, a.
type Layer func(next Service) Service

// Chain composes layers outermost-first: the first layer given is the
// outermost wrapper, the last is the one adjacent to the terminal Service
// passed to the result.
func Chain(layers ...Layer) Layer {
	return func(next Service) Service {
		svc := next
		for i := len(layers) - 1; i >= 0; i-- {
			svc = layers[i](svc)
		}
		return svc
	}
}
