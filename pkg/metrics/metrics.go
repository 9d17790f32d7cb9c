package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestSize      *prometheus.HistogramVec
	HTTPResponseSize     *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// MCP tool metrics
	MCPToolCallsTotal    *prometheus.CounterVec
	MCPToolCallDuration  *prometheus.HistogramVec
	MCPToolCallsInFlight prometheus.Gauge

	// MCP resource metrics
	MCPResourceReadsTotal *prometheus.CounterVec

	// Registry contents, set once at startup
	RegisteredTools     prometheus.Gauge
	RegisteredResources prometheus.Gauge

	// Application metrics
	BuildInfo *prometheus.GaugeVec
}

// New creates a new Metrics instance registered with reg.
// Pass prometheus.DefaultRegisterer to expose them on promhttp.Handler().
func New(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	m := &Metrics{
		// HTTP request counter by method, path, and status code
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),

		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		HTTPRequestSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_size_bytes",
				Help:      "HTTP request size in bytes",
				Buckets:   prometheus.ExponentialBuckets(100, 10, 7), // 100, 1000, ..., 100000000
			},
			[]string{"method", "path"},
		),

		HTTPResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_response_size_bytes",
				Help:      "HTTP response size in bytes",
				Buckets:   prometheus.ExponentialBuckets(100, 10, 7),
			},
			[]string{"method", "path"},
		),

		HTTPRequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_requests_in_flight",
				Help:      "Number of HTTP requests currently being processed",
			},
		),

		// MCP tool call counter by tool name and status (success, not_found, validation, execution)
		MCPToolCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "mcp_tool_calls_total",
				Help:      "Total number of MCP tool calls",
			},
			[]string{"tool", "status"},
		),

		MCPToolCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "mcp_tool_call_duration_seconds",
				Help:      "MCP tool call duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"tool"},
		),

		MCPToolCallsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "mcp_tool_calls_in_flight",
				Help:      "Number of MCP tool calls currently being processed",
			},
		),

		MCPResourceReadsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "mcp_resource_reads_total",
				Help:      "Total number of MCP resource reads",
			},
			[]string{"uri", "status"},
		),

		RegisteredTools: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "registered_tools",
				Help:      "Number of tools in the registry",
			},
		),

		RegisteredResources: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "registered_resources",
				Help:      "Number of resources in the registry",
			},
		),

		// Build info metric (always 1, labeled with version info)
		BuildInfo: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "build_info",
				Help:      "Build information",
			},
			[]string{"version", "go_version"},
		),
	}

	return m
}

// SetBuildInfo sets the build info metric
func (m *Metrics) SetBuildInfo(version, goVersion string) {
	m.BuildInfo.WithLabelValues(version, goVersion).Set(1)
}

// SetRegistrySize records how many tools and resources are being served
func (m *Metrics) SetRegistrySize(tools, resources int) {
	m.RegisteredTools.Set(float64(tools))
	m.RegisteredResources.Set(float64(resources))
}
