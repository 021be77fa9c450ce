// Copyright (c) 2026 Palantir Technologies. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Package validation provides struct validation using go-playground/validator v10.
//
// This package wraps the go-playground/validator library to provide a thread-safe
// singleton validator instance (built-in validators only) and user-friendly error
// messages. It is the one validation engine config.LoadInstallConfig and
// config.RuntimeWatcher validate InstallConfig/RuntimeConfig through, rather
// than each layer rolling its own field checks.
//
// # Overview
//
// The package provides:
//   - Thread-safe singleton validator (initialized once, cached struct info)
//   - Comprehensive error translation to human-readable messages
//   - Built-in validator support (hostname_port, required_if, oneof, etc.)
//
// # Quick Start
//
//	type ServerConfig struct {
//	    Address string `koanf:"address" validate:"required,hostname_port"`
//	}
//
//	if verr := validation.ValidateStruct(&cfg); verr != nil {
//	    return fmt.Errorf("invalid configuration: %w", verr)
//	}
//
// # Common Validation Tags
//
// String validations:
//   - required: Field must not be empty
//   - hostname_port: "host:port" shape, used for every listener address
//   - oneof=a b c: Must be one of the specified values
//   - file: Path must exist and be a regular file, used for keystore/
//     truststore paths
//
// Numeric validations:
//   - gt=n / gte=n / lte=n: Bound checks, used for rotation thresholds
//     and the 5xx-ratio health threshold (worker pool sizing uses min=1
//     and gtefield=MinThreads)
//
// Conditional validations:
//   - required_if=Field value: CACertsPath is only required when
//     ClientAuth is "request"
//
// # Error Types
//
// ValidationError represents a single field validation failure;
// RequestValidationError aggregates multiple field errors and renders a
// combined message via Error().
//
// # Thread Safety
//
// The singleton validator is initialized once and safe for concurrent use:
//
//	validate := validation.GetValidator()  // Thread-safe
//	err := validation.ValidateStruct(&req) // Thread-safe
//
// # See Also
//
//   - internal/config: the only caller of ValidateStruct
//   - github.com/go-playground/validator/v10: Underlying library
package validation
