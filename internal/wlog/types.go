// Copyright (c) 2026 Palantir Technologies. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Package wlog defines the server's wire-format log records -- service,
// request, trace, metric, audit, and diagnostic -- and the async,
// bounded-queue appender that serializes them to a rolling, compressed
// file sink without ever blocking the request goroutine that produced
// them.
package wlog

import "time"

// Level mirrors the logging levels a ServiceLog entry may carry.
type Level string

const (
	LevelFatal Level = "FATAL"
	LevelError Level = "ERROR"
	LevelWarn  Level = "WARN"
	LevelInfo  Level = "INFO"
	LevelDebug Level = "DEBUG"
	LevelTrace Level = "TRACE"
)

// ServiceLogV1 is a single structured application log line.
type ServiceLogV1 struct {
	Type         string                 `json:"type"`
	Level        Level                  `json:"level"`
	Time         time.Time              `json:"time"`
	Origin       string                 `json:"origin,omitempty"`
	Thread       string                 `json:"thread,omitempty"`
	Message      string                 `json:"message"`
	Params       map[string]interface{} `json:"params,omitempty"`
	UID          string                 `json:"uid,omitempty"`
	SID          string                 `json:"sid,omitempty"`
	TokenID      string                 `json:"tokenId,omitempty"`
	TraceID      string                 `json:"traceId,omitempty"`
	Stacktrace   string                 `json:"stacktrace,omitempty"`
	UnsafeParams map[string]interface{} `json:"unsafeParams,omitempty"`
	Tags         map[string]string      `json:"tags,omitempty"`
}

// RequestLogV2 records one completed HTTP request/response cycle.
type RequestLogV2 struct {
	Type         string                 `json:"type"`
	Time         time.Time              `json:"time"`
	Method       string                 `json:"method,omitempty"`
	Protocol     string                 `json:"protocol"`
	Path         string                 `json:"path"`
	Params       map[string]interface{} `json:"params,omitempty"`
	Status       int                    `json:"status"`
	RequestSize  int64                  `json:"requestSize"`
	ResponseSize int64                  `json:"responseSize"`
	DurationNs   int64                  `json:"duration"`
	UID          string                 `json:"uid,omitempty"`
	SID          string                 `json:"sid,omitempty"`
	TokenID      string                 `json:"tokenId,omitempty"`
	TraceID      string                 `json:"traceId,omitempty"`
	UnsafeParams map[string]interface{} `json:"unsafeParams,omitempty"`
}

// SpanV1 is the timing record for one unit of traced work.
type SpanV1 struct {
	TraceID      string            `json:"traceId"`
	ID           string            `json:"id"`
	ParentID     string            `json:"parentId,omitempty"`
	Name         string            `json:"name"`
	Kind         string            `json:"type"`
	StartNs      int64             `json:"timestamp"`
	DurationNs   int64             `json:"duration"`
	Annotations  map[string]string `json:"annotations,omitempty"`
}

// TraceLogV1 wraps a Span for the trace-log wire format.
type TraceLogV1 struct {
	Type         string                 `json:"type"`
	Time         time.Time              `json:"time"`
	Span         SpanV1                 `json:"span"`
	UID          string                 `json:"uid,omitempty"`
	SID          string                 `json:"sid,omitempty"`
	TokenID      string                 `json:"tokenId,omitempty"`
	UnsafeParams map[string]interface{} `json:"unsafeParams,omitempty"`
}

// MetricLogV1 records a single emitted metric sample.
type MetricLogV1 struct {
	Type         string                 `json:"type"`
	Time         time.Time              `json:"time"`
	MetricName   string                 `json:"metricName"`
	MetricType   string                 `json:"metricType"`
	Values       map[string]interface{} `json:"values"`
	Tags         map[string]string      `json:"tags,omitempty"`
	UID          string                 `json:"uid,omitempty"`
	SID          string                 `json:"sid,omitempty"`
	TokenID      string                 `json:"tokenId,omitempty"`
	OrgID        string                 `json:"orgId,omitempty"`
	UnsafeParams map[string]interface{} `json:"unsafeParams,omitempty"`
}

// AuditResult mirrors the outcome of an audited action.
type AuditResult string

const (
	AuditResultSuccess AuditResult = "SUCCESS"
	AuditResultError   AuditResult = "ERROR"
	AuditResultUnknown AuditResult = "UNKNOWN"
)

// AuditLogV3 records a single security-relevant, durably-flushed event.
type AuditLogV3 struct {
	Type           string                 `json:"type"`
	Deployment     string                 `json:"deployment,omitempty"`
	Host           string                 `json:"host,omitempty"`
	Product        string                 `json:"product,omitempty"`
	ProductVersion string                 `json:"productVersion,omitempty"`
	EventID        string                 `json:"eventId"`
	UserAgent      string                 `json:"userAgent,omitempty"`
	Categories     []string               `json:"categories,omitempty"`
	Origins        []string               `json:"origins,omitempty"`
	SourceOrigin   string                 `json:"sourceOrigin,omitempty"`
	RequestParams  map[string]interface{} `json:"requestParams,omitempty"`
	ResultParams   map[string]interface{} `json:"resultParams,omitempty"`
	Time           time.Time              `json:"time"`
	UID            string                 `json:"uid,omitempty"`
	SID            string                 `json:"sid,omitempty"`
	TokenID        string                 `json:"tokenId,omitempty"`
	OrgID          string                 `json:"orgId,omitempty"`
	TraceID        string                 `json:"traceId,omitempty"`
	Origin         string                 `json:"origin,omitempty"`
	Name           string                 `json:"name"`
	Result         AuditResult            `json:"result"`
}

// DiagnosticLogV1 wraps a generic, self-describing diagnostic payload
// (e.g. a thread dump or a point-in-time metric snapshot) emitted outside
// the regular request/response or metric-sample flows.
type DiagnosticLogV1 struct {
	Type         string                 `json:"type"`
	Time         time.Time              `json:"time"`
	DiagnosticType string               `json:"diagnosticType"`
	Payload      map[string]interface{} `json:"payload"`
	UnsafeParams map[string]interface{} `json:"unsafeParams,omitempty"`
}
