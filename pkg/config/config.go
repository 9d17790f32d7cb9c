package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/caarlos0/env/v11"
)

// Config holds all operational configuration
type Config struct {
	// Server configuration
	Port        string `env:"PORT" envDefault:"8080"`
	Host        string `env:"HOST"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"vercel-mcp-http"`

	// MCPServerName is reported to MCP clients and by the health resource.
	// ServiceName only appears in the HTTP liveness body.
	MCPServerName string `env:"MCP_SERVER_NAME" envDefault:"vercel-mcp-http-demo"`

	// Logging configuration
	LogLevelName string `env:"LOG_LEVEL" envDefault:"info"`
	LogLevel     slog.Level

	// MCP endpoint configuration
	MCPPath      string `env:"MCP_PATH" envDefault:"/mcp/"`
	MCPStateless bool   `env:"MCP_STATELESS" envDefault:"false"`

	// CORS configuration
	AllowedOrigins       []string `env:"ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
	CORSAllowCredentials bool     `env:"CORS_ALLOW_CREDENTIALS" envDefault:"true"`

	MetricsEnabled bool `env:"METRICS_ENABLED" envDefault:"true"`

	// Timeout configuration. WriteTimeout defaults to zero because MCP
	// responses may be streamed for as long as a call runs.
	ReadTimeout       time.Duration `env:"READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout      time.Duration `env:"WRITE_TIMEOUT" envDefault:"0s"`
	IdleTimeout       time.Duration `env:"IDLE_TIMEOUT" envDefault:"60s"`
	ReadHeaderTimeout time.Duration `env:"READ_HEADER_TIMEOUT" envDefault:"5s"`
	ShutdownTimeout   time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// Resource limits
	MaxHeaderBytes int `env:"MAX_HEADER_BYTES" envDefault:"1048576"`
}

// Load loads configuration from environment variables with validation
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	cfg.LogLevel = parseLogLevel(cfg.LogLevelName)
	cfg.AllowedOrigins = trimList(cfg.AllowedOrigins)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	port, err := strconv.Atoi(c.Port)
	if err != nil {
		return fmt.Errorf("invalid PORT '%s': must be a number", c.Port)
	}
	if port < 1 || port > 65535 {
		return fmt.Errorf("invalid PORT %d: must be between 1 and 65535", port)
	}

	if c.ServiceName == "" {
		return fmt.Errorf("SERVICE_NAME cannot be empty")
	}
	if c.MCPServerName == "" {
		return fmt.Errorf("MCP_SERVER_NAME cannot be empty")
	}

	if !strings.HasPrefix(c.MCPPath, "/") {
		return fmt.Errorf("MCP_PATH must start with '/', got %q", c.MCPPath)
	}
	if strings.Trim(c.MCPPath, "/") == "" {
		return fmt.Errorf("MCP_PATH cannot be the root path; '/' serves the liveness check")
	}
	// ServeMux treats braces as wildcards and panics on malformed patterns
	if i := strings.IndexFunc(c.MCPPath, invalidPathRune); i >= 0 {
		return fmt.Errorf("MCP_PATH contains invalid character %q: %q", c.MCPPath[i], c.MCPPath)
	}

	if c.ReadTimeout <= 0 {
		return fmt.Errorf("READ_TIMEOUT must be positive, got %v", c.ReadTimeout)
	}
	if c.WriteTimeout < 0 {
		return fmt.Errorf("WRITE_TIMEOUT cannot be negative, got %v", c.WriteTimeout)
	}
	if c.IdleTimeout <= 0 {
		return fmt.Errorf("IDLE_TIMEOUT must be positive, got %v", c.IdleTimeout)
	}
	if c.ReadHeaderTimeout <= 0 {
		return fmt.Errorf("READ_HEADER_TIMEOUT must be positive, got %v", c.ReadHeaderTimeout)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT must be positive, got %v", c.ShutdownTimeout)
	}

	if c.MaxHeaderBytes <= 0 {
		return fmt.Errorf("MAX_HEADER_BYTES must be positive, got %d", c.MaxHeaderBytes)
	}
	if c.MaxHeaderBytes > 10<<20 { // 10MB max
		return fmt.Errorf("MAX_HEADER_BYTES too large: %d (max 10MB)", c.MaxHeaderBytes)
	}

	if len(c.AllowedOrigins) == 0 {
		return fmt.Errorf("ALLOWED_ORIGINS cannot be empty; use '*' to allow every origin")
	}

	return nil
}

// MCPRoute returns the MCP path without its trailing slash, so the endpoint
// answers on both "/mcp" and "/mcp/".
func (c *Config) MCPRoute() string {
	return strings.TrimRight(c.MCPPath, "/")
}

// AllowsAnyOrigin reports whether the wildcard origin is configured
func (c *Config) AllowsAnyOrigin() bool {
	for _, origin := range c.AllowedOrigins {
		if origin == "*" {
			return true
		}
	}
	return false
}

// String returns a string representation of the config (safe for logging)
func (c *Config) String() string {
	return fmt.Sprintf("Config{Port:%s, Host:%s, ServiceName:%s, MCPServerName:%s, LogLevel:%s, MCPPath:%s, "+
		"MCPStateless:%v, AllowedOrigins:%v, CORSAllowCredentials:%v, MetricsEnabled:%v, "+
		"ReadTimeout:%v, WriteTimeout:%v, IdleTimeout:%v, ReadHeaderTimeout:%v, "+
		"ShutdownTimeout:%v, MaxHeaderBytes:%d}",
		c.Port, c.Host, c.ServiceName, c.MCPServerName, c.LogLevel, c.MCPPath,
		c.MCPStateless, c.AllowedOrigins, c.CORSAllowCredentials, c.MetricsEnabled,
		c.ReadTimeout, c.WriteTimeout, c.IdleTimeout, c.ReadHeaderTimeout,
		c.ShutdownTimeout, c.MaxHeaderBytes)
}

// ParseLogLevelFromEnv parses log level from environment without full config loading
// This is useful for stdio mode which doesn't need HTTP configuration
func ParseLogLevelFromEnv() slog.Level {
	return parseLogLevel(os.Getenv("LOG_LEVEL"))
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		// Invalid level defaults to info
		return slog.LevelInfo
	}
}

func invalidPathRune(r rune) bool {
	return r == '{' || r == '}' || unicode.IsSpace(r)
}

func trimList(values []string) []string {
	result := make([]string, 0, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
