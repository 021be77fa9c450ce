// Copyright (c) 2026 Palantir Technologies. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package routing

import (
	"fmt"
	"net/http"
	"sort"
)

// Outcome classifies a routing attempt.
type Outcome int

const (
	// Resolved means exactly one endpoint matched method and path.
	Resolved Outcome = iota
	// MethodNotAllowed means the path matched some endpoint's template but
	// not for this method.
	MethodNotAllowed
	// Unresolved means no endpoint's template matched the path at all.
	Unresolved
	// StarOptions means the request is OPTIONS against the literal
	// request-target "*" (RFC 7230 §5.3.4), not against any path -- e.g.
	// "OPTIONS * HTTP/1.1". The router answers this itself.
	StarOptions
	// Options means the request is OPTIONS against a real path (anything
	// but "*"), whether or not an endpoint's template matches it. The
	// router answers this itself with the path's supported methods, which
	// are empty if no endpoint's template matches the path at all.
	Options
)

// Route is the result of matching a request against the registered
// endpoints.
type Route struct {
	Outcome Outcome
	// Endpoint is set when Outcome is Resolved.
	Endpoint *Endpoint
	// PathParams is set when Outcome is Resolved, keyed by template
	// parameter name.
	PathParams map[string]string
	// AllowedMethods is set when Outcome is MethodNotAllowed or Options,
	// listing every method some endpoint registers for this path (may be
	// empty for Options). Unset for StarOptions, which isn't about any
	// one path.
	AllowedMethods []string
}

// Router partitions endpoints by HTTP method and matches incoming
// requests against them in specificity order.
type Router struct {
	byMethod map[string][]*Endpoint
}

// NewRouter constructs an empty Router.
func NewRouter() *Router {
	return &Router{byMethod: make(map[string][]*Endpoint)}
}

// Register compiles and adds an endpoint. It panics on an invalid path
// template -- templates are fixed at startup from Conjure-generated
// bindings, not from request-derived input, so a bad template is a
// programming error to catch before the server starts serving traffic.
func (rt *Router) Register(e *Endpoint) {
	if err := e.compile(); err != nil {
		panic(fmt.Sprintf("routing: invalid path template %q: %v", e.Template, err))
	}
	rt.byMethod[e.Method] = append(rt.byMethod[e.Method], e)
	sortBySpecificity(rt.byMethod[e.Method])
}

// Match resolves method and path against the registered endpoints.
func (rt *Router) Match(method, path string) Route {
	if method == http.MethodOptions && path == "*" {
		return Route{Outcome: StarOptions}
	}

	if candidates, ok := rt.byMethod[method]; ok {
		for _, e := range candidates {
			if params, ok := matchParams(e, path); ok {
				return Route{Outcome: Resolved, Endpoint: e, PathParams: params}
			}
		}
	}

	allowed := rt.allowedMethodsFor(path)
	if method == http.MethodOptions {
		return Route{Outcome: Options, AllowedMethods: allowed}
	}
	if len(allowed) == 0 {
		return Route{Outcome: Unresolved}
	}
	return Route{Outcome: MethodNotAllowed, AllowedMethods: allowed}
}

func matchParams(e *Endpoint, path string) (map[string]string, bool) {
	m := e.pattern.FindStringSubmatch(path)
	if m == nil {
		return nil, false
	}
	if len(e.paramNames) == 0 {
		return map[string]string{}, true
	}
	params := make(map[string]string, len(e.paramNames))
	for i, name := range e.paramNames {
		params[name] = m[i+1]
	}
	return params, true
}

// allowedMethodsFor returns every method with an endpoint whose template
// matches path, regardless of which method the request used, sorted for
// deterministic Allow headers.
func (rt *Router) allowedMethodsFor(path string) []string {
	var methods []string
	for method, candidates := range rt.byMethod {
		for _, e := range candidates {
			if _, ok := matchParams(e, path); ok {
				methods = append(methods, method)
				break
			}
		}
	}
	sort.Strings(methods)
	return methods
}
