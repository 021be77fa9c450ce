// Copyright (c) 2026 Palantir Technologies. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Package tlsconfig builds the server's *tls.Config from an install-time
// keystore and optional client-certificate truststore: TLS 1.2 minimum,
// a fixed modern cipher suite list for the TLS 1.2 fallback (TLS 1.3's
// suites are not configurable in crypto/tls), and ALPN advertising h2
// ahead of http/1.1.
package tlsconfig

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
)

// ClientAuthMode controls whether the server asks for and validates a
// client certificate.
type ClientAuthMode int

const (
	// ClientAuthNone performs no client certificate exchange.
	ClientAuthNone ClientAuthMode = iota
	// ClientAuthRequest requests a client certificate and validates it
	// against the truststore if one is presented, but does not require
	// one -- callers without a certificate are still admitted, and the
	// peer-certificate-derived identity is simply absent from their
	// request context.
	ClientAuthRequest
)

// KeystoreConfig points at the PEM-encoded certificate chain and private
// key the server presents to clients.
type KeystoreConfig struct {
	CertChainPath string
	PrivateKeyPath string
}

// TruststoreConfig points at the PEM-encoded CA bundle used to validate
// client certificates, when ClientAuth is ClientAuthRequest.
type TruststoreConfig struct {
	CACertsPath string
}

// Config is everything needed to build a *tls.Config.
type Config struct {
	Keystore    KeystoreConfig
	ClientAuth  ClientAuthMode
	Truststore  *TruststoreConfig
}

// preferredCipherSuites is used only for TLS 1.2 connections; TLS 1.3
// negotiates its own fixed suite set that crypto/tls does not expose for
// configuration.
var preferredCipherSuites = []uint16{
	tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
	tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
	tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
	tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
	tls.TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305,
	tls.TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305,
}

// Build loads the keystore (and truststore, if configured) and returns a
// ready-to-use *tls.Config for the server's listener.
func Build(cfg Config) (*tls.Config, error) {
	cert, err := tls.LoadX509KeyPair(cfg.Keystore.CertChainPath, cfg.Keystore.PrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("tlsconfig: loading keystore: %w", err)
	}

	tlsCfg := &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
		CipherSuites: preferredCipherSuites,
		NextProtos:   []string{"h2", "http/1.1"},
	}

	if cfg.ClientAuth == ClientAuthRequest {
		if cfg.Truststore == nil {
			return nil, fmt.Errorf("tlsconfig: client auth requested without a truststore")
		}
		pool, err := loadCertPool(cfg.Truststore.CACertsPath)
		if err != nil {
			return nil, fmt.Errorf("tlsconfig: loading truststore: %w", err)
		}
		tlsCfg.ClientCAs = pool
		tlsCfg.ClientAuth = tls.VerifyClientCertIfGiven
	}

	return tlsCfg, nil
}

func loadCertPool(path string) (*x509.CertPool, error) {
	pemBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pemBytes) {
		return nil, fmt.Errorf("no certificates found in %s", path)
	}
	return pool, nil
}
