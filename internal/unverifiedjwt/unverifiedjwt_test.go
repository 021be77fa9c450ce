// Copyright (c) 2026 Palantir Technologies. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package unverifiedjwt

import (
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, claims jwt.Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("any-secret-works-we-never-verify-it"))
	require.NoError(t, err)
	return signed
}

func TestExtractFromToken(t *testing.T) {
	token := signToken(t, rawClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1", ID: "tok-1"},
		SessionID:        "sess-1",
		OrganizationID:   "org-1",
	})

	claims, ok := ExtractFromToken(token)
	require.True(t, ok)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "tok-1", claims.TokenID)
	assert.Equal(t, "sess-1", claims.SessionID)
	assert.Equal(t, "org-1", claims.OrganizationID)
}

func TestExtractFromToken_GarbageIsNotOK(t *testing.T) {
	_, ok := ExtractFromToken("not.a.jwt")
	assert.False(t, ok)
}

func TestExtractFromToken_WrongSignatureStillExtracts(t *testing.T) {
	// The whole point of this package is that signature validity is
	// irrelevant -- the embedding service already verified it, or chose
	// not to.
	token := signToken(t, rawClaims{RegisteredClaims: jwt.RegisteredClaims{Subject: "user-2"}})
	claims, ok := ExtractFromToken(token)
	require.True(t, ok)
	assert.Equal(t, "user-2", claims.Subject)
}

func TestExtractFromRequest(t *testing.T) {
	token := signToken(t, rawClaims{RegisteredClaims: jwt.RegisteredClaims{Subject: "user-3"}})
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	claims, ok := ExtractFromRequest(req)
	require.True(t, ok)
	assert.Equal(t, "user-3", claims.Subject)
}

func TestExtractFromRequest_NoHeader(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	_, ok := ExtractFromRequest(req)
	assert.False(t, ok)
}

func TestExtractFromRequest_NonBearerScheme(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	_, ok := ExtractFromRequest(req)
	assert.False(t, ok)
}
