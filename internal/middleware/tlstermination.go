// Copyright (c) 2026 Palantir Technologies. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package middleware

import (
	"net/http"

	"github.com/palantir/witchcraft-go-server/internal/wcontext"
)

// TLSTermination records the negotiated protocol and, for mutually
// authenticated connections, the client certificate's subject common name
// into the request's MDC. Actual TLS handshake and cipher/version policy
// is configured once at listener construction time via internal/tlsconfig
// and isn't something a per-request layer can affect; this layer only
// surfaces what the handshake decided for logging and downstream checks.
func TLSTermination(next Service) Service {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.TLS == nil {
			next(w, r)
			return
		}

		restoreProto := wcontext.PushSafe(r.Context(), "tlsProtocol", r.TLS.NegotiatedProtocol)
		defer restoreProto()

		if len(r.TLS.PeerCertificates) > 0 {
			restoreCN := wcontext.PushSafe(r.Context(), "clientCertCN", r.TLS.PeerCertificates[0].Subject.CommonName)
			defer restoreCN()
		}

		next(w, r)
	}
}
