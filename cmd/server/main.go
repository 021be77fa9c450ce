// Copyright (c) 2026 Palantir Technologies. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goccy/go-json"

	"github.com/palantir/witchcraft-go-server/internal/audit"
	"github.com/palantir/witchcraft-go-server/internal/config"
	"github.com/palantir/witchcraft-go-server/internal/health"
	"github.com/palantir/witchcraft-go-server/internal/logging"
	"github.com/palantir/witchcraft-go-server/internal/management"
	"github.com/palantir/witchcraft-go-server/internal/middleware"
	"github.com/palantir/witchcraft-go-server/internal/routing"
	"github.com/palantir/witchcraft-go-server/internal/supervisor"
	"github.com/palantir/witchcraft-go-server/internal/tlsconfig"
	"github.com/palantir/witchcraft-go-server/internal/wcontext"
	"github.com/palantir/witchcraft-go-server/internal/wlog"
	"github.com/palantir/witchcraft-go-server/internal/workerpool"
	"github.com/palantir/witchcraft-go-server/internal/wtracing"
)

// runtimeConfigPath is where the hot-reloadable subset of configuration
// lives. It is deliberately separate from the install config file (see
// internal/config/koanf.go's DefaultInstallConfigPaths): install config
// changes require a restart, runtime config does not.
const runtimeConfigPath = "var/conf/runtime.yml"

func main() {
	if err := run(); err != nil {
		logging.Fatal().Err(err).Msg("server exited with error")
		os.Exit(1)
	}
}

func run() error {
	installCfg, err := config.LoadInstallConfig()
	if err != nil {
		return fmt.Errorf("loading install configuration: %w", err)
	}

	logging.Init(logging.Config{
		Level:  installCfg.Logging.Level,
		Format: installCfg.Logging.Format,
	})

	runtimeWatcher, err := config.NewRuntimeWatcher(runtimeConfigPath)
	if err != nil {
		return fmt.Errorf("loading runtime configuration: %w", err)
	}

	appenders, err := newWireAppenders(installCfg.Logging)
	if err != nil {
		return fmt.Errorf("opening log appenders: %w", err)
	}
	defer appenders.Close(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		return fmt.Errorf("constructing supervisor tree: %w", err)
	}

	pool := workerpool.New("dispatch", workerpool.Config{
		MinThreads:  installCfg.WorkerPool.MinThreads,
		MaxThreads:  installCfg.WorkerPool.MaxThreads,
		IdleTimeout: installCfg.WorkerPool.IdleTimeout,
	})
	defer pool.Close()
	breakerPool := workerpool.NewBreakerPool("dispatch", pool, workerpool.DefaultBreakerConfig())

	healthRegistry := health.NewRegistry()
	endpoint500s := health.NewEndpoint500sCheck(installCfg.Health.Endpoint5xxThreshold)
	registerHealthCheck(tree, healthRegistry, endpoint500s, installCfg.Health.CheckInterval, true)
	staleness := health.NewStalenessCheck(healthRegistry, map[string]time.Duration{
		health.Endpoint500sCheckType: installCfg.Health.CheckInterval,
	})
	registerHealthCheck(tree, healthRegistry, staleness, installCfg.Health.CheckInterval, false)

	router := routing.NewRouter()
	registerProductEndpoints(router)

	auditStore := audit.NewMemoryStore(10000)
	auditLogger := audit.NewLogger(auditStore, audit.DefaultConfig())
	defer auditLogger.Close()
	go auditLogger.StartCleanupRoutine(ctx)

	inFlight := middleware.NewInFlightTracker()
	idleConns := middleware.NewIdleConnTracker()
	sampler := wtracing.RateSampler(installCfg.Tracing.SampleRate)

	chain := middleware.Chain(
		middleware.GracefulShutdown(inFlight),
		middleware.PeerAddr,
		middleware.RequestID,
		middleware.MDCScope,
		middleware.TLSTermination,
		middleware.TracePropagation(sampler),
		middleware.UnverifiedJWT,
		middleware.Routing(router),
		middleware.LoggingContext,
		middleware.RequestLog(appenders.request, endpoint500s),
		middleware.AuditLog(auditLogger),
		middleware.Gzip,
		middleware.BodySpans,
	)
	// Dispatch never calls its next argument (it is always the innermost
	// layer), so the terminal Service passed to it is a stand-in never
	// actually invoked.
	handler := chain(middleware.Dispatch(breakerPool)(nil))

	tlsCfg, err := tlsconfig.Build(tlsconfig.Config{
		Keystore: tlsconfig.KeystoreConfig{
			CertChainPath:  installCfg.TLS.CertChainPath,
			PrivateKeyPath: installCfg.TLS.PrivateKeyPath,
		},
		ClientAuth: clientAuthMode(installCfg.TLS.ClientAuth),
		Truststore: truststoreConfig(installCfg.TLS),
	})
	if err != nil {
		return fmt.Errorf("building TLS configuration: %w", err)
	}

	mainListener, err := bindTLSListener(installCfg.Server.Address, tlsCfg, idleConns)
	if err != nil {
		return fmt.Errorf("binding main listener: %w", err)
	}
	mainServer := &http.Server{
		Handler:   handler,
		ConnState: idleConns.ConnState,
		// net/http intercepts a literal "OPTIONS *" request itself
		// (globalOptionsHandler, always 200, no Allow header) before any
		// registered handler runs. routing.Router already answers that
		// case with its own StarOptions outcome (204), so the built-in
		// one must be disabled or it never reaches the router.
		DisableGeneralOptionsHandler: true,
	}
	tree.AddListenerService(supervisor.NewListenerService(
		"main-listener",
		&servingListener{Server: mainServer, listener: mainListener},
		installCfg.Server.ShutdownTimeout,
	))

	diagnostics := management.NewDiagnosticRegistry()
	diagnostics.Register("witchcraft.workerpool.stats.v1", management.Diagnostic{
		ContentType:  "application/json",
		SafeLoggable: true,
		Handler:      workerPoolStatsDiagnostic(pool, breakerPool),
	})
	managementHandler := management.NewRouter(management.RouterConfig{
		Registry:    healthRegistry,
		Diagnostics: diagnostics,
		HealthSecret: func() string {
			return runtimeWatcher.Current().HealthChecksSharedSecret
		},
		DebugSecret: func() string {
			return runtimeWatcher.Current().DiagnosticsDebugSharedSecret
		},
		DiagnosticRateLimit: 10,
		DiagnosticWindow:    time.Minute,
		AuditLogger:         auditLogger,
	})

	if installCfg.Server.ManagementAddress != "" {
		mgmtListener, err := bindTLSListener(installCfg.Server.ManagementAddress, tlsCfg, idleConns)
		if err != nil {
			return fmt.Errorf("binding management listener: %w", err)
		}
		mgmtServer := &http.Server{Handler: managementHandler, DisableGeneralOptionsHandler: true}
		tree.AddListenerService(supervisor.NewListenerService(
			"management-listener",
			&servingListener{Server: mgmtServer, listener: mgmtListener},
			installCfg.Server.ShutdownTimeout,
		))
	} else {
		// No dedicated management port: mount the management surface on
		// the main router under /status and /debug. The router orders
		// endpoints by template specificity, not registration order, so a
		// product endpoint with a more literal template under these
		// prefixes is matched ahead of them.
		router.Register(&routing.Endpoint{Method: http.MethodGet, Template: "/status/{rest:.*}", Name: "management", Handler: managementHandler.ServeHTTP})
		router.Register(&routing.Endpoint{Method: http.MethodGet, Template: "/debug/{rest:.*}", Name: "management", Handler: managementHandler.ServeHTTP})
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("received shutdown signal")
		cancel()
	}()

	logging.Info().Str("addr", installCfg.Server.Address).Msg("starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("service failed to stop")
		}
	}

	logging.Info().Msg("server stopped gracefully")
	return nil
}

// workerPoolStatsDiagnostic exposes the pool's live sizing and circuit
// breaker state under /debug/diagnostic/witchcraft.workerpool.stats.v1,
// for an operator debugging saturation without needing a metrics
// scraper in front of them.
func workerPoolStatsDiagnostic(pool *workerpool.Pool, breaker *workerpool.BreakerPool) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(struct {
			Stats        workerpool.Stats `json:"stats"`
			BreakerState string           `json:"breakerState"`
		}{
			Stats:        pool.Stat(),
			BreakerState: breaker.State(),
		})
	}
}

// registerHealthCheck wraps check in an Evaluator on the configured
// interval and adds it to the supervisor's health layer. relevant marks
// the check as one /status/readiness must consider; the staleness
// synthetic check is diagnostic only and does not gate readiness.
func registerHealthCheck(tree *supervisor.SupervisorTree, registry *health.Registry, check health.Check, interval time.Duration, relevant bool) {
	if relevant {
		registry.MarkReadinessRelevant(check.Type())
	}
	tree.AddHealthService(health.NewEvaluator(check, registry, interval))
}

// registerProductEndpoints seeds the router with the endpoints this
// server ships out of the box: a liveness-adjacent ping used by smoke
// tests and load-balancer health probes that don't want the bearer-gated
// /status/health document, and an echo endpoint exercising the blocking
// dispatch path through the worker pool.
func registerProductEndpoints(router *routing.Router) {
	router.Register(&routing.Endpoint{
		Method:   http.MethodGet,
		Template: "/api/ping",
		Name:     "ping",
		Handler: func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("pong"))
		},
	})
	router.Register(&routing.Endpoint{
		Method:   http.MethodPost,
		Template: "/api/echo/{id}",
		Name:     "echo",
		Blocking: true,
		Handler: func(w http.ResponseWriter, r *http.Request) {
			id := wcontext.PathParams(r.Context())["id"]
			w.Header().Set("Content-Type", "text/plain")
			w.WriteHeader(http.StatusOK)
			_, _ = fmt.Fprintf(w, "echo:%s", id)
		},
	})
}

func clientAuthMode(mode string) tlsconfig.ClientAuthMode {
	if mode == "request" {
		return tlsconfig.ClientAuthRequest
	}
	return tlsconfig.ClientAuthNone
}

func truststoreConfig(cfg config.TLSConfigSection) *tlsconfig.TruststoreConfig {
	if cfg.ClientAuth != "request" {
		return nil
	}
	return &tlsconfig.TruststoreConfig{CACertsPath: cfg.CACertsPath}
}

// bindTLSListener opens a plain TCP listener on addr, wraps it for TLS,
// and gates it through idleConns so a graceful shutdown can tell apart
// connections sitting idle between requests from ones mid-request.
func bindTLSListener(addr string, tlsCfg *tls.Config, idleConns *middleware.IdleConnTracker) (net.Listener, error) {
	raw, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return middleware.WrapListener(tls.NewListener(raw, tlsCfg), idleConns), nil
}

// servingListener adapts an *http.Server plus a pre-built net.Listener to
// supervisor.HTTPServer, whose ListenAndServe takes no arguments. The
// standard library's http.Server normally owns listener construction
// itself (ListenAndServeTLS loads certificates from file paths); this
// server needs its listener built ahead of time so it can be wrapped in
// tls.NewListener over an already-validated *tls.Config and gated through
// IdleConnTracker, so the adapter calls Serve on that listener directly.
type servingListener struct {
	*http.Server
	listener net.Listener
}

func (s *servingListener) ListenAndServe() error {
	return s.Server.Serve(s.listener)
}

// wireAppenders bundles the six wire-format loggers' async appenders,
// each over its own rolling-file sink so one log type's volume can't
// starve another's queue capacity. Only request is fed by the request
// pipeline today (via RequestLog); the rest are opened and ready for a
// future producer (span completion, periodic metric snapshots, the
// process logger's own wire mirror, audit's wire-format export) without
// forcing this bootstrap to invent one.
type wireAppenders struct {
	service    *wlog.Appender
	request    *wlog.Appender
	trace      *wlog.Appender
	metric     *wlog.Appender
	auditWire  *wlog.Appender
	diagnostic *wlog.Appender
}

func newWireAppenders(cfg config.LoggingConfig) (*wireAppenders, error) {
	names := []string{"service", "request", "trace", "metric", "audit", "diagnostic"}
	built := make(map[string]*wlog.Appender, len(names))
	for _, name := range names {
		sink, err := wlog.NewRollingFileSink(cfg.Dir, name, cfg.MaxFileSizeBytes, cfg.MaxArchiveSizeBytes, cfg.Retention)
		if err != nil {
			return nil, fmt.Errorf("opening %s log sink: %w", name, err)
		}
		built[name] = wlog.NewAppender(sink, cfg.QueueCapacity)
	}
	return &wireAppenders{
		service:    built["service"],
		request:    built["request"],
		trace:      built["trace"],
		metric:     built["metric"],
		auditWire:  built["audit"],
		diagnostic: built["diagnostic"],
	}, nil
}

func (a *wireAppenders) Close(ctx context.Context) {
	for _, appender := range []*wlog.Appender{a.service, a.request, a.trace, a.metric, a.auditWire, a.diagnostic} {
		if err := appender.Close(ctx); err != nil {
			logging.Error().Err(err).Msg("closing log appender")
		}
	}
}
