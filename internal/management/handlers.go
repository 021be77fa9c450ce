// Copyright (c) 2026 Palantir Technologies. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package management

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/palantir/witchcraft-go-server/internal/health"
)

// healthDocument is the JSON body served from /status/health: the
// registry's overall worst state plus every individual check's latest
// result, keyed by check type.
type healthDocument struct {
	OverallState string                            `json:"overallState"`
	Checks       map[string]health.TimestampedResult `json:"checks"`
}

func healthHandler(registry *health.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		doc := healthDocument{
			OverallState: registry.Overall().String(),
			Checks:       registry.Snapshot(),
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(doc)
	}
}

// diagnosticHandler resolves {diagnosticType} from the chi route and
// delegates to the registered Diagnostic, setting Safe-Loggable from its
// SafeLoggable flag before the diagnostic writes its own body. An
// unregistered type answers 404, per spec.md's external interface
// contract for /debug/diagnostic/{diagnosticType}.
func diagnosticHandler(registry *DiagnosticRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		diagnosticType := chi.URLParam(r, "diagnosticType")
		diag, ok := registry.Get(diagnosticType)
		if !ok {
			http.NotFound(w, r)
			return
		}
		if diag.SafeLoggable {
			w.Header().Set("Safe-Loggable", "true")
		} else {
			w.Header().Set("Safe-Loggable", "false")
		}
		diag.Handler(w, r)
	}
}
