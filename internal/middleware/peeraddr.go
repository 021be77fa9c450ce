// Copyright (c) 2026 Palantir Technologies. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/palantir/witchcraft-go-server/internal/wcontext"
)

// PeerAddr resolves the caller's address from X-Forwarded-For, falling
// back to X-Real-IP and then the raw connection's remote address, and
// attaches it to the request context for the request-log and audit-log
// layers to record.
func PeerAddr(next Service) Service {
	return func(w http.ResponseWriter, r *http.Request) {
		addr := resolvePeerAddr(r)
		ctx := wcontext.WithPeerAddr(r.Context(), addr)
		next(w, r.WithContext(ctx))
	}
}

func resolvePeerAddr(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if first, _, ok := strings.Cut(xff, ","); ok {
			return strings.TrimSpace(first)
		}
		return strings.TrimSpace(xff)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
