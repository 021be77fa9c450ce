// Copyright (c) 2026 Palantir Technologies. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/palantir/witchcraft-go-server/internal/validation"
)

// InstallConfigPathEnvVar overrides the install config file's location.
const InstallConfigPathEnvVar = "WITCHCRAFT_CONFIG"

// DefaultInstallConfigPaths is where the install config file is searched
// for when InstallConfigPathEnvVar is unset, in priority order.
var DefaultInstallConfigPaths = []string{
	"var/conf/install.yml",
	"/etc/witchcraft/install.yml",
}

// envPrefix namespaces environment variables so e.g. SERVER_ADDRESS maps
// onto server.address without colliding with unrelated process env vars.
const envPrefix = "WITCHCRAFT_"

// LoadInstallConfig loads the install config with the standard layering:
// built-in defaults, then an optional YAML file, then environment
// variables (highest priority), and validates the result. A returned
// error is meant to be fatal to the caller -- main.go should log and
// exit(1) rather than attempt to run on a partially loaded config.
func LoadInstallConfig() (*InstallConfig, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(DefaultInstallConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("config: loading defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: loading file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("config: loading environment: %w", err)
	}

	cfg := &InstallConfig{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshaling: %w", err)
	}

	if verr := validation.ValidateStruct(cfg); verr != nil {
		return nil, fmt.Errorf("config: invalid install configuration: %w", verr)
	}

	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(InstallConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultInstallConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envMappings maps a lower-cased, prefix-stripped environment variable
// name to its koanf config path, mirroring the teacher's explicit
// mapping-table approach in internal/config/koanf.go (an allowlist of
// known variables rather than a blanket underscore-to-dot rewrite, so an
// unrelated WITCHCRAFT_-prefixed variable can't silently shadow a
// config path it wasn't meant to).
var envMappings = map[string]string{
	"server_address":            "server.address",
	"server_management_address": "server.management_address",
	"server_shutdown_timeout":   "server.shutdown_timeout",

	"tls_cert_chain_path":  "tls.cert_chain_path",
	"tls_private_key_path": "tls.private_key_path",
	"tls_client_auth":      "tls.client_auth",
	"tls_ca_certs_path":    "tls.ca_certs_path",

	"worker_pool_min_threads":  "worker_pool.min_threads",
	"worker_pool_max_threads":  "worker_pool.max_threads",
	"worker_pool_idle_timeout": "worker_pool.idle_timeout",

	"logging_level":               "logging.level",
	"logging_format":              "logging.format",
	"logging_dir":                 "logging.dir",
	"logging_max_file_size_bytes":    "logging.max_file_size_bytes",
	"logging_retention":              "logging.retention",
	"logging_max_archive_size_bytes": "logging.max_archive_size_bytes",
	"logging_queue_capacity":         "logging.queue_capacity",

	"tracing_sample_rate": "tracing.sample_rate",

	"health_check_interval":         "health.check_interval",
	"health_endpoint_5xx_threshold": "health.endpoint_5xx_threshold",
}

// envTransform turns an environment variable like
// WITCHCRAFT_SERVER_ADDRESS into the koanf path server.address via
// envMappings. Unmapped variables return "" to skip them, preventing
// unrelated environment variables from polluting configuration.
func envTransform(key string) string {
	key = strings.TrimPrefix(strings.ToLower(key), strings.ToLower(envPrefix))
	if mapped, ok := envMappings[key]; ok {
		return mapped
	}
	return ""
}
