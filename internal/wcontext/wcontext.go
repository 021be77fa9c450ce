// Copyright (c) 2026 Palantir Technologies. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Package wcontext carries the per-request state that middleware layers
// attach to and read from as a request flows through the pipeline: the
// matched route, path parameters, the client's peer address, an
// unverified JWT's claims, and the safe-loggable parameters a handler
// wants the request-log layer to record.
//
// Each value lives behind its own typed key so layers can't collide by
// picking the same string, matching the pattern the process logger in
// internal/logging uses for its own context keys.
package wcontext

import "context"

type contextKey int

const (
	keyRequestID contextKey = iota
	keyPeerAddr
	keyPathParams
	keyUnverifiedJWT
	keySafeParams
	keyRouteName
)

// WithRequestID attaches the request's ID (either propagated from an
// inbound header or freshly generated) to ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, keyRequestID, id)
}

// RequestID returns the request ID stored in ctx, or "" if none was set.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(keyRequestID).(string)
	return id
}

// WithPeerAddr attaches the caller's address, resolved from
// X-Forwarded-For / X-Real-IP / the raw connection in that order.
func WithPeerAddr(ctx context.Context, addr string) context.Context {
	return context.WithValue(ctx, keyPeerAddr, addr)
}

// PeerAddr returns the caller's address stored in ctx, or "" if none was
// set.
func PeerAddr(ctx context.Context) string {
	addr, _ := ctx.Value(keyPeerAddr).(string)
	return addr
}

// WithPathParams attaches the named path parameters extracted by the
// router for the matched route.
func WithPathParams(ctx context.Context, params map[string]string) context.Context {
	return context.WithValue(ctx, keyPathParams, params)
}

// PathParams returns the path parameters stored in ctx, or nil if the
// request never matched a parametric route.
func PathParams(ctx context.Context) map[string]string {
	params, _ := ctx.Value(keyPathParams).(map[string]string)
	return params
}

// WithRouteName attaches the name of the endpoint the request matched,
// which the logging-context layer reads back through RouteName.
func WithRouteName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, keyRouteName, name)
}

// RouteName returns the matched endpoint name stored in ctx, or "" for
// unresolved requests.
func RouteName(ctx context.Context) string {
	name, _ := ctx.Value(keyRouteName).(string)
	return name
}

// UnverifiedJWTClaims is the subset of bearer-token claims the pipeline
// extracts without checking a signature. Any code relying on these values
// for authorization, rather than observability, is a programming error --
// see internal/unverifiedjwt for the extraction and its caveats.
type UnverifiedJWTClaims struct {
	Subject        string
	SessionID      string
	TokenID        string
	OrganizationID string
}

// WithUnverifiedJWT attaches the extracted claims of an inbound bearer
// token, when present and parseable.
func WithUnverifiedJWT(ctx context.Context, claims UnverifiedJWTClaims) context.Context {
	return context.WithValue(ctx, keyUnverifiedJWT, claims)
}

// UnverifiedJWT returns the claims stored in ctx and whether any were set.
func UnverifiedJWT(ctx context.Context) (UnverifiedJWTClaims, bool) {
	claims, ok := ctx.Value(keyUnverifiedJWT).(UnverifiedJWTClaims)
	return claims, ok
}

// safeParamsHolder returns the box stored under keySafeParams. Unlike the
// values under the other keys, which layers merely read, the box is a
// mutable pointer a handler writes to over the life of a request.
func safeParamsHolder(ctx context.Context) *safeParamsBox {
	box, _ := ctx.Value(keySafeParams).(*safeParamsBox)
	return box
}

type safeParamsBox struct {
	params []KV
}

// KV is an ordered key/value pair; SafeParams preserves insertion order
// because the request-log wire format is order-sensitive for readability.
type KV struct {
	Key   string
	Value interface{}
}

// WithSafeParams installs an empty, mutable SafeParams holder into ctx.
// Call this once, at the top of the pipeline, before the request reaches
// any endpoint handler.
func WithSafeParams(ctx context.Context) context.Context {
	return context.WithValue(ctx, keySafeParams, &safeParamsBox{})
}

// AddSafeParam records a parameter the request-log middleware should
// include verbatim in the structured request log -- values a handler has
// judged safe to log (no secrets, no raw PII). It is a no-op if the
// context was never initialized with WithSafeParams.
func AddSafeParam(ctx context.Context, key string, value interface{}) {
	if box := safeParamsHolder(ctx); box != nil {
		box.params = append(box.params, KV{Key: key, Value: value})
	}
}

// SafeParams returns the parameters accumulated on ctx, in insertion
// order.
func SafeParams(ctx context.Context) []KV {
	box := safeParamsHolder(ctx)
	if box == nil {
		return nil
	}
	return box.params
}
