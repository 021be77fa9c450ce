// Copyright (c) 2026 Palantir Technologies. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Package config loads the server's install-time and runtime
// configuration: layered defaults -> YAML file -> environment variables
// via koanf, exactly as the teacher's internal/config/koanf.go does for
// its own media-server settings, retargeted at witchcraft's own
// settings (listener addresses, TLS material, worker pool sizing,
// logging/rotation, tracing sample rate, health thresholds).
//
// Install configuration is loaded once at startup and is fatal to get
// wrong -- a bad keystore path or an invalid worker pool bound means the
// process should not start. Runtime configuration is the subset of
// settings safe to change while serving traffic (log level, trace
// sample rate, the 5xx-ratio health threshold) and is re-read on a file
// watch (see runtime.go).
package config

import (
	"time"
)

// ServerConfig describes the listener(s) the server binds.
type ServerConfig struct {
	// Address is the main listener's host:port.
	Address string `koanf:"address" validate:"required,hostname_port"`
	// ManagementAddress is an optional second listener for the
	// status/health/debug endpoints, kept off the main port so an
	// operator can expose diagnostics without exposing product
	// endpoints. Empty disables the second listener.
	ManagementAddress string `koanf:"management_address" validate:"omitempty,hostname_port"`
	// ShutdownTimeout bounds how long the server waits for in-flight
	// requests to drain before forcibly closing remaining connections.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"required,gt=0"`
}

// TLSConfigSection points at the install-time keystore and optional
// client-certificate truststore.
type TLSConfigSection struct {
	CertChainPath  string `koanf:"cert_chain_path" validate:"required,file"`
	PrivateKeyPath string `koanf:"private_key_path" validate:"required,file"`
	// ClientAuth is "none" or "request"; see internal/tlsconfig.ClientAuthMode.
	ClientAuth string `koanf:"client_auth" validate:"required,oneof=none request"`
	// CACertsPath is required when ClientAuth is "request".
	CACertsPath string `koanf:"ca_certs_path" validate:"required_if=ClientAuth request,omitempty,file"`
}

// WorkerPoolConfig sizes the fair-queue blocking worker pool.
type WorkerPoolConfig struct {
	MinThreads  int           `koanf:"min_threads" validate:"required,min=1"`
	MaxThreads  int           `koanf:"max_threads" validate:"required,gtefield=MinThreads"`
	IdleTimeout time.Duration `koanf:"idle_timeout" validate:"required,gt=0"`
}

// LoggingConfig governs both the process's own zerolog diagnostic
// logger and the six witchcraft wire-format loggers' shared appender
// and rolling-file sink.
type LoggingConfig struct {
	// Level/Format configure the process's own zerolog logger.
	Level  string `koanf:"level" validate:"required,oneof=trace debug info warn error fatal"`
	Format string `koanf:"format" validate:"required,oneof=json console"`

	// Dir is the base directory the rolling-file sinks write into; one
	// subdirectory-free file set per wire-format log type lives here.
	Dir string `koanf:"dir" validate:"required"`
	// MaxFileSizeBytes triggers rotation once a log file reaches this size.
	MaxFileSizeBytes int64 `koanf:"max_file_size_bytes" validate:"required,gt=0"`
	// Retention is how long a compressed, rotated file is kept before
	// the sink prunes it.
	Retention time.Duration `koanf:"retention" validate:"required,gt=0"`
	// MaxArchiveSizeBytes bounds the cumulative size of a sink's
	// compressed archives; once exceeded the oldest archives are pruned
	// even if they are still within Retention. Zero disables the cap and
	// leaves Retention as the only pruning criterion.
	MaxArchiveSizeBytes int64 `koanf:"max_archive_size_bytes" validate:"gte=0"`
	// QueueCapacity bounds each wire-format logger's async appender
	// queue; Record drops rather than blocks once full.
	QueueCapacity int `koanf:"queue_capacity" validate:"required,gt=0"`
}

// TracingConfig controls B3 trace sampling for traces this process
// originates; inbound sampling decisions are always honored as-is.
type TracingConfig struct {
	SampleRate float64 `koanf:"sample_rate" validate:"gte=0,lte=1"`
}

// HealthConfig tunes the health evaluation engine.
type HealthConfig struct {
	// CheckInterval is how often each registered check is re-evaluated.
	CheckInterval time.Duration `koanf:"check_interval" validate:"required,gt=0"`
	// Endpoint5xxThreshold is the trailing 5xx ratio (0-1) the synthetic
	// Endpoint500sCheck warns above.
	Endpoint5xxThreshold float64 `koanf:"endpoint_5xx_threshold" validate:"gt=0,lte=1"`
}

// InstallConfig is everything loaded once at startup. A validation
// failure here is fatal -- the process should not begin serving traffic
// on settings it cannot act on.
type InstallConfig struct {
	Server     ServerConfig     `koanf:"server"`
	TLS        TLSConfigSection `koanf:"tls"`
	WorkerPool WorkerPoolConfig `koanf:"worker_pool"`
	Logging    LoggingConfig    `koanf:"logging"`
	Tracing    TracingConfig    `koanf:"tracing"`
	Health     HealthConfig     `koanf:"health"`
}

// RuntimeConfig is the subset of settings safe to change while the
// server is serving traffic. It is re-read from the same file on a
// watch (see runtime.go) rather than requiring a restart.
type RuntimeConfig struct {
	LogLevel             string  `koanf:"log_level" validate:"required,oneof=trace debug info warn error fatal"`
	TraceSampleRate      float64 `koanf:"trace_sample_rate" validate:"gte=0,lte=1"`
	Endpoint5xxThreshold float64 `koanf:"endpoint_5xx_threshold" validate:"gt=0,lte=1"`

	// HealthChecksSharedSecret gates /status/health: callers must present
	// it as a bearer token, compared in constant time.
	HealthChecksSharedSecret string `koanf:"health_checks_shared_secret" validate:"required"`
	// DiagnosticsDebugSharedSecret gates /debug/diagnostic/{type}, same
	// constant-time bearer comparison.
	DiagnosticsDebugSharedSecret string `koanf:"diagnostics_debug_shared_secret" validate:"required"`
}

// DefaultInstallConfig returns sensible defaults, applied before the
// config file and environment variables are layered on top.
func DefaultInstallConfig() *InstallConfig {
	return &InstallConfig{
		Server: ServerConfig{
			Address:         "0.0.0.0:8443",
			ShutdownTimeout: 30 * time.Second,
		},
		TLS: TLSConfigSection{
			ClientAuth: "none",
		},
		WorkerPool: WorkerPoolConfig{
			MinThreads:  4,
			MaxThreads:  64,
			IdleTimeout: 60 * time.Second,
		},
		Logging: LoggingConfig{
			Level:               "info",
			Format:              "json",
			Dir:                 "var/log",
			MaxFileSizeBytes:    100 << 20, // 100MB
			Retention:           7 * 24 * time.Hour,
			MaxArchiveSizeBytes: 1 << 30, // 1GB
			QueueCapacity:       10000,
		},
		Tracing: TracingConfig{
			SampleRate: 0.1,
		},
		Health: HealthConfig{
			CheckInterval:        30 * time.Second,
			Endpoint5xxThreshold: 0.05,
		},
	}
}

// DefaultRuntimeConfig returns the runtime defaults, mirroring
// DefaultInstallConfig's values for the fields both configs carry.
func DefaultRuntimeConfig() *RuntimeConfig {
	return &RuntimeConfig{
		LogLevel:             "info",
		TraceSampleRate:      0.1,
		Endpoint5xxThreshold: 0.05,
	}
}
