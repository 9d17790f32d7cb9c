package handler

import (
	"encoding/json"
	"net/http"
	"reflect"
	"time"

	"github.com/yourorg/mcpdemo/pkg/logger"
	"github.com/yourorg/mcpdemo/pkg/mcphttp"
	"github.com/yourorg/mcpdemo/pkg/model"
)

// Handler handles HTTP requests
type Handler struct {
	logger        logger.Logger
	mcpHTTPServer mcphttp.Server
	serviceName   string
	mcpEndpoint   string
}

// New creates a new handler with MCP support
// Accepts interfaces for logger and MCP server for dependency inversion
func New(log logger.Logger, mcpHTTPServer mcphttp.Server, serviceName, mcpEndpoint string) *Handler {
	return &Handler{
		logger:        log,
		mcpHTTPServer: mcpHTTPServer,
		serviceName:   serviceName,
		mcpEndpoint:   mcpEndpoint,
	}
}

// Liveness answers the root path. It reports only that the process is up
// and never consults the MCP registry.
func (h *Handler) Liveness(w http.ResponseWriter, r *http.Request) {
	// Only handle root path, not all unmatched paths
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		h.error(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	h.json(w, http.StatusOK, model.NewLiveness(h.serviceName, h.mcpEndpoint))
}

// Health returns a health check response
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.json(w, http.StatusOK, model.NewHealth(time.Now()))
}

// MCP handles MCP protocol requests over HTTP
func (h *Handler) MCP(w http.ResponseWriter, r *http.Request) {
	// Check for nil interface or interface with nil value
	if h.mcpHTTPServer == nil || isNil(h.mcpHTTPServer) {
		h.logger.Error("MCP request with no server configured", "path", r.URL.Path)
		h.error(w, http.StatusInternalServerError, "MCP server not initialized")
		return
	}

	// Delegate to the StreamableHTTPServer
	h.mcpHTTPServer.ServeHTTP(w, r)
}

// json sends a JSON response
func (h *Handler) json(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("json encode error", "error", err)
	}
}

// error sends an error JSON response
func (h *Handler) error(w http.ResponseWriter, status int, message string) {
	h.json(w, status, map[string]string{"error": message})
}

// isNil checks if an interface contains a nil value (handles typed nil)
func isNil(i interface{}) bool {
	if i == nil {
		return true
	}
	v := reflect.ValueOf(i)
	return v.Kind() == reflect.Ptr && v.IsNil()
}
