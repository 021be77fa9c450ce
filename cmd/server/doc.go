// Copyright (c) 2026 Palantir Technologies. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

/*
Package main is the entry point for witchcraft-server, a TLS-terminating
HTTP server with a fixed request-handling middleware pipeline, a
fair-queue blocking worker pool, async structured logging, and a
self-reporting health/readiness surface.

# Application Architecture

The server supervises its own lifecycle with a three-layer suture tree:

	root ("witchcraft-server")
	├── worker-pool-layer
	│   └── (reserved for a future pool-health-reporting service)
	├── health-layer
	│   └── one Evaluator per registered health check
	└── listener-layer
	    ├── main-listener (TLS, product + optionally management routes)
	    └── management-listener (TLS, only when a management address is configured)

Failure isolation falls out of the layering: a health-check evaluator
panicking and restarting does not take the HTTP listener down with it.

# Bootstrap sequence

	1. Load install configuration (config.LoadInstallConfig): listener
	   addresses, TLS keystore/truststore paths, worker pool bounds,
	   logging/rotation settings, trace sample rate, health thresholds.
	   A bad value here is fatal -- the process does not start serving
	   traffic on settings it cannot act on.
	2. Initialize the process's own zerolog diagnostic logger
	   (logging.Init) and start the runtime config watcher
	   (config.NewRuntimeWatcher), which hot-reloads the runtime file;
	   the management surface reads its two bearer secrets from it.
	3. Open the six wire-format log appenders (service/request/trace/
	   metric/audit/diagnostic), each an async queue over its own
	   rolling, compressed, retention-pruned file.
	4. Build the supervisor tree.
	5. Construct the fair-queue blocking worker pool and wrap it in a
	   circuit breaker: sustained admission rejections trip the breaker
	   open so Dispatch fails fast instead of hammering a saturated pool.
	6. Register health checks (the built-in endpoint-5xx-ratio check and
	   a staleness check watching every other check's freshness) as
	   supervised evaluators on their own schedule.
	7. Build the application router and register product endpoints.
	8. Construct the audit logger and its backing store.
	9. Assemble the 14-layer middleware chain in the fixed order
	   internal/middleware/doc.go documents, terminating in Dispatch.
	10. Build the TLS listener(s): the main port always, a second
	    management port if configured, else the status/debug/health
	    surface is mounted directly on the main router.
	11. Install SIGINT/SIGTERM handling, start the supervisor tree, and
	    block until it stops, then report any service that missed its
	    shutdown deadline.

# Configuration

Install configuration loads from (highest priority last): built-in
defaults, an optional YAML file, then WITCHCRAFT_-prefixed environment
variables. The file is located via the WITCHCRAFT_CONFIG environment
variable, falling back to var/conf/install.yml or
/etc/witchcraft/install.yml. See internal/config for the full field
list and validation rules.

Runtime configuration (log level, trace sample rate, the 5xx health
threshold, and the two bearer secrets gating the management surface)
lives in a separate file, watched for changes and hot-reloaded without
a restart; an invalid reload is rejected and logged rather than applied.
Only the two bearer secrets are read from the reloaded value: the
running server takes its log level, trace sample rate and 5xx threshold
from install configuration, so changing them in the runtime file has no
effect until they are changed there.

# Signal handling

SIGINT and SIGTERM trigger a graceful shutdown: the listener(s) stop
accepting new connections, in-flight requests get up to
Server.ShutdownTimeout to finish, and any service still running past
that deadline is reported rather than silently dropped.
*/
package main
