// Copyright (c) 2026 Palantir Technologies. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Package routing implements the application-endpoint router: a
// method-partitioned, regex-backed matcher that dispatches to the handler
// registered for the most specific matching path template, distinguishing
// "path matched a different method" (405) from "path matched nothing"
// (404), and answering OPTIONS requests (a path's CORS preflight, or the
// literal "OPTIONS *") itself.
package routing

import (
	"net/http"
	"regexp"
	"sort"
	"strings"
)

// Handler is the terminal unit of work for a matched endpoint. The
// dispatch layer of the middleware pipeline runs it, after the routing
// layer has attached path parameters to the request's context.
type Handler func(w http.ResponseWriter, r *http.Request)

// Endpoint is one registered route: a method, a path template using
// Conjure-style `{name}` literal-segment parameters or `{name:regex}`
// custom-pattern segments, and the handler to invoke on match.
type Endpoint struct {
	Method   string
	Template string
	Name     string
	Handler  Handler

	// Blocking marks a handler that performs work unsafe to run on a
	// goroutine shared with other requests' I/O multiplexing (CPU-bound
	// work, a call into a library that blocks a whole OS thread). The
	// dispatch layer runs these through the worker pool instead of
	// calling Handler inline.
	Blocking bool

	pattern        *regexp.Regexp
	paramNames     []string
	literalChars   int
	paramSegments  int
	customSegments int
}

var templateSegmentRe = regexp.MustCompile(`\{([a-zA-Z_][a-zA-Z0-9_]*)(?::([^}]+))?\}`)

// compile parses the path template into a matching regexp and records the
// specificity counters used for endpoint priority ordering.
func (e *Endpoint) compile() error {
	var sb strings.Builder
	sb.WriteString("^")

	last := 0
	matches := templateSegmentRe.FindAllStringSubmatchIndex(e.Template, -1)
	for _, m := range matches {
		start, end := m[0], m[1]
		literal := e.Template[last:start]
		sb.WriteString(regexp.QuoteMeta(literal))
		e.literalChars += len(literal)

		name := e.Template[m[2]:m[3]]
		e.paramNames = append(e.paramNames, name)

		if m[4] >= 0 {
			customPattern := e.Template[m[4]:m[5]]
			sb.WriteString("(" + customPattern + ")")
			e.customSegments++
		} else {
			sb.WriteString(`([^/]+)`)
			e.paramSegments++
		}
		last = end
	}
	tail := e.Template[last:]
	sb.WriteString(regexp.QuoteMeta(tail))
	e.literalChars += len(tail)
	sb.WriteString("$")

	pattern, err := regexp.Compile(sb.String())
	if err != nil {
		return err
	}
	e.pattern = pattern
	return nil
}

// higherPriority reports whether a should be tried before b when both
// match the same request path: more literal characters first, then fewer
// parametric segments, then fewer custom-regex segments -- a route that
// pins down more of the path in literal text is always the better match.
func higherPriority(a, b *Endpoint) bool {
	if a.literalChars != b.literalChars {
		return a.literalChars > b.literalChars
	}
	if a.paramSegments != b.paramSegments {
		return a.paramSegments < b.paramSegments
	}
	if a.customSegments != b.customSegments {
		return a.customSegments < b.customSegments
	}
	return a.Template < b.Template
}

// sortBySpecificity orders endpoints most-specific first.
func sortBySpecificity(endpoints []*Endpoint) {
	sort.SliceStable(endpoints, func(i, j int) bool {
		return higherPriority(endpoints[i], endpoints[j])
	})
}
