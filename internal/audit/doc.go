// Copyright (c) 2026 Palantir Technologies. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Package audit provides security audit logging for compliance and
// forensic analysis.
//
// This package implements a security audit trail for witchcraft-server,
// recording security-relevant events such as authentication attempts,
// authorization decisions, and access to the bearer-gated management
// surface.
//
// # Overview
//
// The audit system provides:
//   - Structured event logging with typed event categories
//   - Pluggable Store persistence (in-memory for tests, JSON/CEF export
//     for shipping events to a SIEM)
//   - Asynchronous buffered writes for minimal latency impact
//   - Automatic retention policy enforcement with configurable cleanup
//   - SIEM integration via Common Event Format (CEF) export
//   - Flexible querying with multi-dimensional filters
//
// # Event Types
//
// witchcraft-server's only audited surface is the bearer-gated management
// API, so Logger's only wired helper is LogDiagnosticAccess:
//   - management.diagnostic_accessed, management.diagnostic_denied:
//     /debug/diagnostic access
//   - management.health_secret_rejected: defined for a bad bearer secret
//     on /status/health, but nothing emits it; /status/health
//     rejections are not audited
//
// The Event/EventType model underneath is general-purpose -- Logger.Log
// accepts any Event -- but no other event category currently has a caller.
//
// # Architecture
//
// The audit system uses a producer-consumer pattern:
//
//	Logger.Log() -> Event Buffer (chan) -> Async Writer -> Store
//	                     |                      |
//	                 Non-blocking           Background goroutine
//
// Events are buffered in a channel to avoid blocking the caller. A background
// goroutine drains the buffer and persists events to the store.
//
// # Usage Example
//
// Basic audit logging:
//
//	// Initialize store and logger
//	store := audit.NewMemoryStore(10000)
//	logger := audit.NewLogger(store, audit.DefaultConfig())
//	defer logger.Close()
//
//	// Log a management-surface access attempt
//	logger.LogDiagnosticAccess(ctx, audit.SourceFromRequest(r), "diagnostic.types.v1", granted)
//
// Querying audit logs:
//
//	filter := audit.QueryFilter{
//	    Types:      []audit.EventType{audit.EventTypeAuthFailure},
//	    StartTime:  &startTime,
//	    EndTime:    &endTime,
//	    ActorID:    "user123",
//	    Limit:      100,
//	    OrderDesc:  true,
//	}
//	events, err := logger.Query(ctx, filter)
//
// # Configuration
//
// The logger supports the following configuration options:
//
//	cfg := audit.Config{
//	    Enabled:         true,           // Enable audit logging
//	    LogLevel:        audit.SeverityInfo, // Minimum severity level
//	    RetentionDays:   90,             // Keep logs for 90 days
//	    CleanupInterval: 24 * time.Hour, // Run cleanup daily
//	    BufferSize:      1000,           // Event buffer size
//	    LogToStdout:     false,          // Also log to stdout
//	    IncludeDebug:    false,          // Include debug events
//	}
//
// # SIEM Integration
//
// Export events in Common Event Format (CEF) for SIEM integration:
//
//	exporter := audit.NewCEFExporter()
//	events, _ := logger.Query(ctx, filter)
//	cefData, _ := exporter.Export(events)
//
// # Retention Policy
//
// Automatic retention cleanup runs at the configured interval:
//
//	logger.StartCleanupRoutine(ctx)
//	// Events older than RetentionDays are automatically deleted
//
// # Thread Safety
//
// All exported functions are safe for concurrent use:
//   - Logger uses buffered channel for non-blocking writes
//   - Store implementations use appropriate synchronization
//   - Query operations use read locks for concurrent access
//
// # Performance Characteristics
//
//   - Log operation: <1ms (non-blocking, channel send)
//   - Query operation: 1-100ms depending on filter complexity
//   - Buffer overflow: Events dropped, each with a warning log line
//   - Memory overhead: ~100 bytes per buffered event
//
// # See Also
//
//   - internal/management: audited bearer-gated endpoints
//   - internal/metrics: witchcraft_audit_flush_failures_total
package audit
