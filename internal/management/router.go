// Copyright (c) 2026 Palantir Technologies. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Package management builds the status/debug HTTP surface served on the
// management port (or the main port, when no management port is
// configured): liveness, readiness, a bearer-gated health document, a
// bearer-gated debug diagnostic surface, and Prometheus metrics
// exposition. Routing uses go-chi/chi, the same router the teacher uses
// for its own REST surface, with go-chi/cors for preflight handling and
// go-chi/httprate to rate-limit the diagnostic endpoint's bearer-guessing
// surface.
package management

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/palantir/witchcraft-go-server/internal/audit"
	"github.com/palantir/witchcraft-go-server/internal/health"
)

// RouterConfig wires the management router to the rest of the server.
// HealthSecret and DebugSecret are called per-request rather than
// captured once, since both are runtime (hot-reloadable) settings.
type RouterConfig struct {
	Registry            *health.Registry
	Diagnostics         *DiagnosticRegistry
	HealthSecret        func() string
	DebugSecret         func() string
	DiagnosticRateLimit int           // requests per window per IP; <=0 disables rate limiting
	DiagnosticWindow    time.Duration
	// AuditLogger, if set, records every /debug/diagnostic access
	// attempt (granted or denied) via audit.Logger.LogDiagnosticAccess.
	AuditLogger *audit.Logger
}

// NewRouter builds the management HTTP handler.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedMethods: []string{http.MethodGet},
	}))

	r.Get("/status/liveness", livenessHandler)
	r.Get("/status/readiness", readinessHandler(cfg.Registry))
	r.Get("/status/health", bearerAuth(cfg.HealthSecret, healthHandler(cfg.Registry)))
	r.Handle("/status/metrics", promhttp.Handler())

	r.Route("/debug/diagnostic", func(dr chi.Router) {
		if cfg.DiagnosticRateLimit > 0 {
			window := cfg.DiagnosticWindow
			if window <= 0 {
				window = time.Minute
			}
			dr.Use(httprate.LimitByIP(cfg.DiagnosticRateLimit, window))
		}
		dr.Get("/{diagnosticType}", auditedBearerAuth(cfg.DebugSecret, cfg.AuditLogger, diagnosticHandler(cfg.Diagnostics)))
	})

	return r
}

func livenessHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func readinessHandler(registry *health.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		if registry.Ready() {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	}
}

// auditedBearerAuth wraps bearerAuth with an audit record of every access
// attempt against the diagnostic surface, the one management endpoint
// spec.md singles out as needing brute-force mitigation. logger may be
// nil (no-op), matching the rest of this package's tolerance for an
// unconfigured audit backend in tests.
func auditedBearerAuth(secret func() string, logger *audit.Logger, next http.HandlerFunc) http.HandlerFunc {
	guarded := bearerAuth(secret, next)
	if logger == nil {
		return guarded
	}
	return func(w http.ResponseWriter, r *http.Request) {
		diagnosticType := chi.URLParam(r, "diagnosticType")
		granted := hasValidBearer(secret, r)
		logger.LogDiagnosticAccess(r.Context(), audit.SourceFromRequest(r), diagnosticType, granted)
		guarded(w, r)
	}
}

func hasValidBearer(secret func() string, r *http.Request) bool {
	const prefix = "Bearer "
	auth := r.Header.Get("Authorization")
	if len(auth) <= len(prefix) || auth[:len(prefix)] != prefix {
		return false
	}
	want := secret()
	return want != "" && subtle.ConstantTimeCompare([]byte(auth[len(prefix):]), []byte(want)) == 1
}

// bearerAuth requires an "Authorization: Bearer <secret>" header matching
// the value secret() returns at request time, comparing in constant time
// to avoid leaking the secret's prefix through response-timing.
// Mismatched or missing credentials both answer 403, matching spec.md's
// "missing/bad secret -> 403" for the diagnostic endpoint.
func bearerAuth(secret func() string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const prefix = "Bearer "
		auth := r.Header.Get("Authorization")
		if len(auth) <= len(prefix) || auth[:len(prefix)] != prefix {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		token := auth[len(prefix):]
		want := secret()
		if want == "" || subtle.ConstantTimeCompare([]byte(token), []byte(want)) != 1 {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		next(w, r)
	}
}
