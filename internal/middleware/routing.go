// Copyright (c) 2026 Palantir Technologies. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package middleware

import (
	"net/http"
	"strings"

	"github.com/palantir/witchcraft-go-server/internal/logging"
	"github.com/palantir/witchcraft-go-server/internal/routing"
	"github.com/palantir/witchcraft-go-server/internal/wcontext"
)

// Routing resolves the request against router and attaches the result to
// the context for the dispatch layer. It answers method-not-allowed,
// unresolved, and CORS-preflight outcomes itself; only a Resolved route
// reaches the rest of the pipeline.
func Routing(router *routing.Router) Layer {
	return func(next Service) Service {
		return func(w http.ResponseWriter, r *http.Request) {
			route := router.Match(r.Method, r.URL.Path)

			switch route.Outcome {
			case routing.Unresolved:
				logging.Ctx(r.Context()).Debug().Str("path", r.URL.Path).Msg("no route matched")
				http.NotFound(w, r)
				return
			case routing.MethodNotAllowed:
				w.Header().Set("Allow", strings.Join(route.AllowedMethods, ", "))
				http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
				return
			case routing.StarOptions:
				w.WriteHeader(http.StatusNoContent)
				return
			case routing.Options:
				w.Header().Set("Allow", strings.Join(route.AllowedMethods, ", "))
				w.WriteHeader(http.StatusNoContent)
				return
			}

			ctx := wcontext.WithPathParams(r.Context(), route.PathParams)
			ctx = wcontext.WithRouteName(ctx, route.Endpoint.Name)
			ctx = routing.WithRoute(ctx, route)
			next(w, r.WithContext(ctx))
		}
	}
}
