// Copyright (c) 2026 Palantir Technologies. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

/*
Package metrics registers the server's cross-cutting Prometheus series.

# Overview

Every package with its own well-scoped concern registers its own series
alongside its code (the worker pool's active/total/queue-length gauges
live in workerpool/metrics.go). This package holds the series that cut
across packages: the request path, the health registry, the log
appenders, the audit flush path, and the worker pool's admission
breaker.

# Metrics endpoint

Series are served in Prometheus text format from the management port's
/status/metrics endpoint, via promhttp.Handler.

# Available metrics

Request path:
  - witchcraft_request_duration_seconds: handling duration, from routing
    to response write (histogram). Labels: route, status_class
  - witchcraft_request_total: completed requests (counter).
    Labels: route, method, status

Health registry:
  - witchcraft_health_check_state: latest reported state per check
    (gauge, 0=healthy .. 4=error). Labels: check

Log appenders:
  - witchcraft_log_appender_dropped_total: records dropped because the
    appender queue was full (counter). Labels: logger
  - witchcraft_log_appender_queue_length: records currently queued,
    awaiting the drain goroutine (gauge). Labels: logger

Audit log:
  - witchcraft_audit_flush_failures_total: synchronous audit flushes
    that failed (counter). Labels: response_sent

Worker pool admission breaker:
  - witchcraft_worker_pool_breaker_state: breaker state guarding pool
    admission (gauge, 0=closed, 1=half-open, 2=open). Labels: pool
  - witchcraft_worker_pool_breaker_requests_total: admission attempts
    through the breaker (counter). Labels: pool, result

See workerpool/metrics.go for the pool's own active/total/max/queue
-length/rejected/panic series, registered under the same
witchcraft_worker_pool_* namespace.
*/
package metrics
