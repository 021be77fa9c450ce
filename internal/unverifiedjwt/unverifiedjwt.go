// Copyright (c) 2026 Palantir Technologies. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Package unverifiedjwt extracts diagnostic claims from an inbound bearer
// token without checking its signature. The server never issues or
// authenticates these tokens -- that is the embedding service's job, done
// against whatever identity provider it trusts -- so the claims extracted
// here exist purely to enrich logs (subject, session, organization) and
// must never be used to make an authorization decision.
package unverifiedjwt

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the subset of a bearer token's payload the server cares about
// for observability.
type Claims struct {
	Subject        string
	SessionID      string
	TokenID        string
	OrganizationID string
}

type rawClaims struct {
	jwt.RegisteredClaims
	SessionID      string `json:"sid"`
	OrganizationID string `json:"org"`
}

// ExtractFromRequest pulls the bearer token from the Authorization header,
// if present, and parses its claims without verifying the signature. ok is
// false when there is no bearer token or it does not parse as a JWT.
func ExtractFromRequest(r *http.Request) (Claims, bool) {
	return ExtractFromHeader(r.Header.Get("Authorization"))
}

// ExtractFromHeader parses the bearer token out of an Authorization
// header value.
func ExtractFromHeader(authorization string) (Claims, bool) {
	const prefix = "Bearer "
	if !strings.HasPrefix(authorization, prefix) {
		return Claims{}, false
	}
	token := strings.TrimPrefix(authorization, prefix)
	return ExtractFromToken(token)
}

// ExtractFromToken parses claims out of a raw JWT string.
func ExtractFromToken(token string) (Claims, bool) {
	parser := jwt.NewParser()
	var claims rawClaims
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return Claims{}, false
	}
	return Claims{
		Subject:        claims.Subject,
		SessionID:      claims.SessionID,
		TokenID:        claims.ID,
		OrganizationID: claims.OrganizationID,
	}, true
}
