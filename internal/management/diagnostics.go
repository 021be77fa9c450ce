// Copyright (c) 2026 Palantir Technologies. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package management

import (
	"net/http"
	"sort"
	"sync"

	"github.com/goccy/go-json"
)

// Diagnostic is one registered debug diagnostic: a self-describing
// content producer served under /debug/diagnostic/{type}. SafeLoggable
// marks whether its output is safe to include verbatim in a log record
// (set false for anything that might contain request bodies or secrets).
type Diagnostic struct {
	ContentType  string
	SafeLoggable bool
	Handler      func(w http.ResponseWriter, r *http.Request)
}

// DiagnosticRegistry holds every registered Diagnostic, keyed by type.
// Registration happens at startup; the spec's Non-goals exclude dynamic
// endpoint registration, so there is no remove.
type DiagnosticRegistry struct {
	mu          sync.RWMutex
	diagnostics map[string]Diagnostic
}

// NewDiagnosticRegistry constructs a registry seeded with the built-in
// "diagnostic.types.v1" diagnostic, which lists every registered type
// (including itself).
func NewDiagnosticRegistry() *DiagnosticRegistry {
	reg := &DiagnosticRegistry{diagnostics: make(map[string]Diagnostic)}
	reg.Register("diagnostic.types.v1", Diagnostic{
		ContentType:  "application/json",
		SafeLoggable: true,
		Handler:      reg.serveTypes,
	})
	return reg
}

// Register adds a diagnostic under the given type name, overwriting any
// existing registration of the same name.
func (r *DiagnosticRegistry) Register(diagnosticType string, diag Diagnostic) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.diagnostics[diagnosticType] = diag
}

// Get returns the diagnostic registered under diagnosticType.
func (r *DiagnosticRegistry) Get(diagnosticType string) (Diagnostic, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.diagnostics[diagnosticType]
	return d, ok
}

// Types returns every registered diagnostic type name, sorted.
func (r *DiagnosticRegistry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.diagnostics))
	for t := range r.diagnostics {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

func (r *DiagnosticRegistry) serveTypes(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(r.Types())
}
