// Copyright (c) 2026 Palantir Technologies. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package middleware

import (
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/palantir/witchcraft-go-server/internal/wcontext"
)

func TestTLSTermination_SkipsPlaintextRequests(t *testing.T) {
	var ran bool
	handler := TLSTermination(func(w http.ResponseWriter, r *http.Request) {
		ran = true
		assert.Empty(t, wcontext.SafeSnapshot(r.Context()))
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req = req.WithContext(wcontext.WithMDC(req.Context()))
	handler(httptest.NewRecorder(), req)
	assert.True(t, ran)
}

func TestTLSTermination_RecordsPeerCertAndProtocol(t *testing.T) {
	handler := TLSTermination(func(w http.ResponseWriter, r *http.Request) {
		snap := wcontext.SafeSnapshot(r.Context())
		assert.Equal(t, "h2", snap["tlsProtocol"])
		assert.Equal(t, "client.example.com", snap["clientCertCN"])
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req = req.WithContext(wcontext.WithMDC(req.Context()))
	req.TLS = &tls.ConnectionState{
		NegotiatedProtocol: "h2",
		PeerCertificates: []*x509.Certificate{
			{Subject: pkix.Name{CommonName: "client.example.com"}},
		},
	}

	handler(httptest.NewRecorder(), req)
}
