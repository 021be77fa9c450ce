// Copyright (c) 2026 Palantir Technologies. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

/*
Package middleware assembles the fixed pipeline every inbound request
passes through between the listener and the matched endpoint's handler.

Each stage is a Layer (func(Service) Service); Chain composes them
outermost-first. The order below is load-bearing -- several layers read
context values an earlier layer installed, so reordering Chain's
arguments changes behavior, not just log verbosity.

	Chain(
	    GracefulShutdown(inFlight),    //  1. count this request for drain-on-shutdown
	    PeerAddr,                      //  2. resolve caller address
	    RequestID,                     //  3. assign/propagate request + correlation IDs
	    MDCScope,                      //  4. install MDC and safe-params holders
	    TLSTermination,                //  5. record negotiated TLS details into MDC
	    TracePropagation(sampler),     //  6. parse/mint B3 trace, attach span
	    UnverifiedJWT,                 //  7. extract bearer-token claims, unverified
	    Routing(router),               //  8. match method+path; 404/405/star-OPTIONS stop here
	    LoggingContext,                //  9. build a logger carrying route/trace/peer fields
	    RequestLog(appender, check),   // 10. emit the structured request-log record
	    AuditLog(auditLogger),         // 11. install event queue; flush after handler returns
	    Gzip,                          // 12. compress the response if the caller accepts it
	    BodySpans,                     // 13. tally request/response sizes onto the trace span
	)(Dispatch(pool))                 // 14. invoke the matched endpoint, on the pool if blocking

Layers 1-7 run before a route is known, so they can't assume PathParams,
RouteName, or an Endpoint are on the context yet. Routing is the layer
that resolves those three and is also the only one permitted to end the
request itself (404, 405, or answering a CORS preflight) rather than
calling next. Everything from LoggingContext down assumes Routing
succeeded.

AuditLog and RequestLog each wrap the response in their own
statusRecorder rather than sharing one: layers are independently
composable and must not assume install order, so each observes the
status/byte count as seen from its own position in the chain.
RequestLog sits outside Gzip, so the writer it wraps is the one Gzip
compresses into -- its byte count is what actually goes out on the wire,
matching "response size" in the request-log record. BodySpans sits
inside Gzip, next to Dispatch, so its tally is the handler's uncompressed
output, which is what the trace span's body-size tags describe.

IdleConnTracker and InFlightTracker are not Layers: a connection outlives
any single request, and a graceful shutdown needs to reason about both
independently (see gracefulshutdown.go and idleconn.go). They are wired
into the http.Server and its listener directly, outside Chain.
*/
package middleware
