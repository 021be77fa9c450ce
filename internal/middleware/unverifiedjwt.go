// Copyright (c) 2026 Palantir Technologies. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package middleware

import (
	"net/http"

	"github.com/palantir/witchcraft-go-server/internal/unverifiedjwt"
	"github.com/palantir/witchcraft-go-server/internal/wcontext"
)

// UnverifiedJWT extracts diagnostic claims from an inbound bearer token,
// when present, and attaches them to the context purely for the
// request-log and audit-log layers to enrich their records with --
// nothing downstream may treat these claims as authenticated.
func UnverifiedJWT(next Service) Service {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if claims, ok := unverifiedjwt.ExtractFromRequest(r); ok {
			ctx = wcontext.WithUnverifiedJWT(ctx, wcontext.UnverifiedJWTClaims{
				Subject:        claims.Subject,
				SessionID:      claims.SessionID,
				TokenID:        claims.TokenID,
				OrganizationID: claims.OrganizationID,
			})
		}
		next(w, r.WithContext(ctx))
	}
}
