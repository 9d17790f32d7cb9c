package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yourorg/mcpdemo/internal/handler"
	"github.com/yourorg/mcpdemo/internal/mcpserver"
	"github.com/yourorg/mcpdemo/internal/middleware"
	"github.com/yourorg/mcpdemo/internal/registry"
	"github.com/yourorg/mcpdemo/internal/tools"
	"github.com/yourorg/mcpdemo/pkg/config"
	"github.com/yourorg/mcpdemo/pkg/metrics"
	"github.com/yourorg/mcpdemo/pkg/version"
)

const metricsNamespace = "mcpdemo"

func main() {
	stdio := flag.Bool("stdio", false, "run in stdio mode for MCP communication")
	flag.Parse()

	if *stdio {
		runStdio()
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	logger.Info("configuration loaded",
		"port", cfg.Port,
		"log_level", cfg.LogLevel.String(),
		"service_name", cfg.ServiceName,
		"mcp_server_name", cfg.MCPServerName,
		"mcp_path", cfg.MCPPath,
		"mcp_stateless", cfg.MCPStateless,
		"allowed_origins", cfg.AllowedOrigins,
		"cors_allow_credentials", cfg.CORSAllowCredentials,
		"metrics_enabled", cfg.MetricsEnabled,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
	)

	if cfg.AllowsAnyOrigin() && cfg.CORSAllowCredentials {
		logger.Warn("CORS accepts any origin with credentials",
			"recommendation", "set explicit origins in ALLOWED_ORIGINS outside of demos",
		)
	}

	var metricsCollector *metrics.Metrics
	if cfg.MetricsEnabled {
		metricsCollector = metrics.New(metricsNamespace, prometheus.DefaultRegisterer)
		metricsCollector.SetBuildInfo(version.Version, runtime.Version())
	}

	reg, err := buildRegistry(cfg.MCPServerName)
	if err != nil {
		logger.Error("failed to build registry", "error", err)
		os.Exit(1)
	}

	httpHandler := newHTTPHandler(cfg, logger, reg, metricsCollector)

	// Use net.JoinHostPort to properly handle IPv6 addresses (e.g., [::1]:8080)
	addr := net.JoinHostPort(cfg.Host, cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           httpHandler,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("server starting",
			"addr", srv.Addr,
			"endpoints", map[string]string{
				"liveness": "GET /",
				"health":   "GET /health",
				"mcp":      cfg.MCPPath,
				"metrics":  "GET /metrics",
			},
		)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}

// newHTTPHandler mounts liveness, health, metrics and the MCP endpoint on a
// mux and wraps it in the middleware chain. m may be nil when metrics are off.
func newHTTPHandler(cfg *config.Config, logger *slog.Logger, reg *registry.Registry, m *metrics.Metrics) http.Handler {
	mcpServer := mcpserver.NewServerWithMetrics(logger, cfg.MCPServerName, reg, m)
	mcpHTTPServer := mcpserver.NewHTTPHandler(mcpServer, cfg.MCPStateless)

	h := handler.New(logger, mcpHTTPServer, cfg.ServiceName, cfg.MCPPath)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", h.Liveness)
	mux.HandleFunc("GET /health", h.Health)
	if m != nil {
		mux.Handle("GET /metrics", promhttp.Handler())
	}

	// Streamable HTTP uses POST for requests, GET for the event stream and
	// DELETE to end a session, so the MCP routes are not method-scoped
	route := cfg.MCPRoute()
	mux.HandleFunc(route, h.MCP)
	mux.HandleFunc(route+"/", h.MCP)

	middlewares := []middleware.Middleware{
		middleware.RequestID,
		middleware.Logger(logger),
		middleware.Recover(logger),
		middleware.CORSWithConfig(middleware.CORSConfig{
			AllowedOrigins:   cfg.AllowedOrigins,
			AllowCredentials: cfg.CORSAllowCredentials,
		}),
	}
	if m != nil {
		// Innermost: it reads the pattern the mux sets on the request
		middlewares = append(middlewares, middleware.Prometheus(m))
	}
	return middleware.Chain(mux, middlewares...)
}

// runStdio serves the registry over stdin/stdout. Logs go to stderr so
// they never interleave with protocol frames.
func runStdio() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: config.ParseLogLevelFromEnv(),
	}))

	serverName := os.Getenv("MCP_SERVER_NAME")
	if serverName == "" {
		serverName = version.MCPServerName
	}

	logger.Info("starting MCP server in stdio mode", "mcp_server_name", serverName)

	reg, err := buildRegistry(serverName)
	if err != nil {
		logger.Error("failed to build registry", "error", err)
		os.Exit(1)
	}

	if err := server.ServeStdio(mcpserver.NewServer(logger, serverName, reg)); err != nil {
		logger.Error("MCP stdio server error", "error", err)
		os.Exit(1)
	}
}

func buildRegistry(serverName string) (*registry.Registry, error) {
	reg := registry.New()
	if err := tools.Register(reg, tools.Options{ServerName: serverName}); err != nil {
		return nil, fmt.Errorf("register tools: %w", err)
	}
	return reg, nil
}
